package middleware

import (
	"shop_api/internal/service" // Admin predicate

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminOnlyMiddleware allows only admin identities. It must run after
// JWTAuthMiddleware and does no lookup of its own.
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check the identity resolved by the auth gate
		if err := service.AuthorizeAdmin(CurrentUser(c)); err != nil {
			AbortWithError(c, err) // 401 without identity, 403 for non-admins
			return
		}
		c.Next() // If admin, proceed to the next handler
	}
}
