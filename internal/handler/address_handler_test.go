package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admission-api/internal/middleware"
	"github.com/noah-isme/sma-admission-api/pkg/addresslookup"
	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
)

type addressResolverMock struct {
	address *addresslookup.Address
	cached  bool
	err     error
}

func (m *addressResolverMock) Resolve(ctx context.Context, postalCode string) (*addresslookup.Address, bool, error) {
	return m.address, m.cached, m.err
}

func TestAddressHandlerLookup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	h := NewAddressHandler(&addressResolverMock{address: &addresslookup.Address{PostalCode: "01001000", City: "São Paulo"}, cached: true})
	r.GET("/addresses/:postalCode", h.Lookup)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/addresses/01001000", nil))

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, string(env.Data), "São Paulo")
}

func TestAddressHandlerUpstreamDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAddressHandler(&addressResolverMock{err: appErrors.Clone(appErrors.ErrUpstreamUnavailable, "address lookup unavailable")})

	c, w := newGinContext(http.MethodGet, "/addresses/01001000", nil)
	c.Params = gin.Params{{Key: "postalCode", Value: "01001000"}}
	h.Lookup(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
