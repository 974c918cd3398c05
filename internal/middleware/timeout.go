package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tradebook/internal/errors"
)

// Timeout bounds each request's context. Handlers pass the context down to
// gorm, so a slow query is cancelled and surfaces as REQUEST_TIMEOUT.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			abortWith(c, apperrors.ErrTimeout)
		}
	}
}
