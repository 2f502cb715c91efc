package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admission-api/internal/middleware"
	"github.com/noah-isme/sma-admission-api/pkg/addresslookup"
	"github.com/noah-isme/sma-admission-api/pkg/response"
)

type addressResolver interface {
	Resolve(ctx context.Context, postalCode string) (*addresslookup.Address, bool, error)
}

// AddressHandler resolves postal codes for the financial responsible step.
type AddressHandler struct {
	addresses addressResolver
}

// NewAddressHandler constructs AddressHandler.
func NewAddressHandler(addresses addressResolver) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

// Lookup godoc
// @Summary Resolve a postal code
// @Tags Addresses
// @Produce json
// @Param postalCode path string true "Postal code (8 digits)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /addresses/{postalCode} [get]
func (h *AddressHandler) Lookup(c *gin.Context) {
	address, cached, err := h.addresses.Resolve(c.Request.Context(), c.Param("postalCode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, address, nil, middleware.ExtractMeta(c))
}
