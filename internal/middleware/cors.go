package middleware

import (
	"net/http" // HTTP methods
	"slices"   // Wildcard lookup
	"time"     // Preflight cache lifetime

	"github.com/gin-contrib/cors" // CORS handling for gin
	"github.com/gin-gonic/gin"    // Gin web framework
)

// CORS allows browser clients from origins to call the API. An empty list or
// one containing "*" allows any origin.
func CORS(origins []string) (gin.HandlerFunc, error) {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		// Let browsers read the throttling headers
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	if err := cfg.Validate(); err != nil {
		return nil, err // Origins must carry a scheme
	}
	return cors.New(cfg), nil
}
