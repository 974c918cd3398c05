package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tradebook/internal/errors"
)

var errOpsNotConfigured = &apperrors.AppError{
	Code:       "OPS_NOT_CONFIGURED",
	Message:    "Operations endpoints are not configured",
	StatusCode: http.StatusServiceUnavailable,
}

// APIKeyAuth guards operations endpoints (e.g. triggering a quote refresh
// from an external scheduler) with the X-API-Key header.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWith(c, errOpsNotConfigured)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWith(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or missing API key"))
			return
		}
		c.Next()
	}
}
