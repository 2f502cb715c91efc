package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admission-api/pkg/response"
)

type signatureOpener interface {
	Open(token string) ([]byte, error)
}

// SignatureHandler serves stored signature artifacts behind signed tokens.
type SignatureHandler struct {
	signatures signatureOpener
}

// NewSignatureHandler constructs SignatureHandler.
func NewSignatureHandler(signatures signatureOpener) *SignatureHandler {
	return &SignatureHandler{signatures: signatures}
}

// Download godoc
// @Summary Download a signature image
// @Tags Signatures
// @Produce image/png
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /signatures/{token} [get]
func (h *SignatureHandler) Download(c *gin.Context) {
	data, err := h.signatures.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, "image/png", data)
}
