package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-admission-api/pkg/errors"
	"github.com/noah-isme/sma-admission-api/pkg/response"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 4 << 20

// bindJSON decodes the request body, writing a 400 and returning false on malformed
// or oversized input.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	}
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

func tenantID(c *gin.Context) string {
	return c.Param("tenantID")
}
