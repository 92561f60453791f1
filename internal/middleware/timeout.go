package middleware

import (
	"context" // Deadline propagation
	"time"    // Durations

	"github.com/gin-gonic/gin" // Gin web framework
)

// Timeout bounds the request context. Store calls made with that context
// fail once the deadline passes and are reported as timeouts.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next() // No deadline configured
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d) // Derive a bounded context
		defer cancel()
		c.Request = c.Request.WithContext(ctx) // Handlers read c.Request.Context()
		c.Next()
	}
}
