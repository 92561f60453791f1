package middleware

import (
	"time" // Latency measurement

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// RequestLogger logs one structured line per request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now() // Request start
		c.Next()            // Run the handlers

		fields := logrus.Fields{
			"method":    c.Request.Method,           // HTTP method
			"path":      c.Request.URL.Path,         // Request path
			"status":    c.Writer.Status(),          // Response status
			"latency":   time.Since(start).String(), // Handling time
			"client_ip": c.ClientIP(),               // Caller address
		}
		if id, ok := c.Get(UserIDKey); ok {
			fields["user_id"] = id // Authenticated caller
		}
		entry := logrus.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}
