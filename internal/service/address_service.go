package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-admission-api/pkg/addresslookup"
	"github.com/noah-isme/sma-admission-api/pkg/cache"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

type addressLookuper interface {
	Lookup(ctx context.Context, postalCode string) (*addresslookup.Address, error)
}

type addressCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AddressService prefills the financial responsible address from a postal code.
type AddressService struct {
	client  addressLookuper
	cache   addressCache
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAddressService constructs an AddressService. cache may be nil.
func NewAddressService(client addressLookuper, cache addressCache, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *AddressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressService{client: client, cache: cache, ttl: ttl, metrics: metrics, logger: logger}
}

// Lookup resolves a postal code, serving repeated lookups from cache.
func (s *AddressService) Lookup(ctx context.Context, postalCode string) (*addresslookup.Address, error) {
	address, _, err := s.Resolve(ctx, postalCode)
	return address, err
}

// Resolve is Lookup that also reports whether the answer came from cache.
func (s *AddressService) Resolve(ctx context.Context, postalCode string) (*addresslookup.Address, bool, error) {
	cep, err := addresslookup.NormalizePostalCode(postalCode)
	if err != nil {
		s.metrics.RecordAddressLookup("invalid")
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "postal code must have 8 digits").
			WithDetails(map[string]interface{}{"fields": map[string]string{"postal_code": "len"}})
	}

	key := cache.Key("address", cep)
	if s.cache != nil {
		var cached addresslookup.Address
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			s.metrics.RecordAddressLookup("cached")
			return &cached, true, nil
		}
	}

	address, err := s.client.Lookup(ctx, cep)
	switch {
	case err == nil:
	case errors.Is(err, addresslookup.ErrNotFound):
		s.metrics.RecordAddressLookup("not_found")
		return nil, false, appErrors.Wrap(err, appErrors.ErrAddressNotFound.Code, appErrors.ErrAddressNotFound.Status, appErrors.ErrAddressNotFound.Message)
	default:
		s.metrics.RecordAddressLookup("error")
		s.logger.Warn("address lookup failed", zap.String("postal_code", cep), zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "address lookup unavailable")
	}

	s.metrics.RecordAddressLookup("found")
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, address, s.ttl); err != nil {
			s.logger.Debug("address cache write skipped", zap.Error(err))
		}
	}
	return address, false, nil
}
