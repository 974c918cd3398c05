package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "tradebook/internal/errors"
	"tradebook/internal/logger"
)

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into consistent JSON error responses. Internal causes are logged,
// never returned.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// Process the last error (most relevant in a middleware chain)
		appErr, expected := apperrors.Resolve(c.Errors.Last().Err)
		if !expected {
			logger.Get().Errorw("request failed",
				"code", appErr.Code,
				"error", c.Errors.Last().Err.Error(),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
		}
		c.JSON(appErr.StatusCode, apperrors.Response{Error: appErr})
	}
}
