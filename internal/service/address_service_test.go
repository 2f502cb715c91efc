package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admission-api/pkg/addresslookup"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

type stubLookup struct {
	calls int
	addr  *addresslookup.Address
	err   error
}

func (s *stubLookup) Lookup(ctx context.Context, postalCode string) (*addresslookup.Address, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	addr := *s.addr
	addr.PostalCode = postalCode
	return &addr, nil
}

func TestAddressLookupCachesResult(t *testing.T) {
	kv := newMemoryKV()
	lookup := &stubLookup{addr: &addresslookup.Address{Street: "Praça da Sé", City: "São Paulo", State: "SP"}}
	svc := NewAddressService(lookup, NewCacheService(kv, NewMetricsService(), time.Hour, nil, true), time.Hour, nil, nil)

	first, err := svc.Lookup(context.Background(), "01001-000")
	require.NoError(t, err)
	assert.Equal(t, "01001000", first.PostalCode)
	assert.True(t, kv.has("enrollment:address:01001000"))

	second, err := svc.Lookup(context.Background(), "01001000")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, lookup.calls)
}

func TestAddressLookupErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want *appErrors.Error
	}{
		{"not found", addresslookup.ErrNotFound, appErrors.ErrAddressNotFound},
		{"upstream", fmt.Errorf("%w: status 502", addresslookup.ErrUnavailable), appErrors.ErrUpstreamUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewAddressService(&stubLookup{err: tc.err}, nil, time.Hour, nil, nil)
			_, err := svc.Lookup(context.Background(), "01001000")
			assert.True(t, errors.Is(err, tc.want))
		})
	}
}

func TestAddressLookupRejectsMalformedCode(t *testing.T) {
	lookup := &stubLookup{}
	svc := NewAddressService(lookup, nil, time.Hour, nil, nil)

	_, err := svc.Lookup(context.Background(), "123")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Zero(t, lookup.calls)
}

func TestAddressResolveReportsCacheHit(t *testing.T) {
	lookup := &stubLookup{addr: &addresslookup.Address{City: "São Paulo"}}
	svc := NewAddressService(lookup, NewCacheService(newMemoryKV(), nil, time.Hour, nil, true), time.Hour, nil, nil)

	_, cached, err := svc.Resolve(context.Background(), "01001000")
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, err = svc.Resolve(context.Background(), "01001000")
	require.NoError(t, err)
	assert.True(t, cached)
}
