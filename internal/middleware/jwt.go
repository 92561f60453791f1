package middleware

import (
	"net/http" // HTTP status codes

	"shop_api/internal/apperr"  // Error taxonomy
	"shop_api/internal/domain"  // Importing domain models
	"shop_api/internal/service" // Auth gate

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Context keys set by JWTAuthMiddleware
const (
	UserKey   = "user"   // *domain.User identity
	UserIDKey = "userID" // uint user ID
)

// JWTAuthMiddleware resolves the bearer token to an identity and stores it in the context
func JWTAuthMiddleware(auth *service.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Verify the Authorization header against the signing key and the user store
		identity, err := auth.Verify(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, err) // Short-circuit before any handler runs
			return
		}
		c.Set(UserKey, identity)      // Store identity in context
		c.Set(UserIDKey, identity.ID) // Store userID in context
		c.Next()                      // Proceed to the next handler
	}
}

// CurrentUser returns the identity stored by JWTAuthMiddleware, or nil
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(UserKey) // Get identity from context
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

// AbortWithError writes the error envelope for err and stops the chain
func AbortWithError(c *gin.Context, err error) {
	ae, ok := apperr.From(err)
	if !ok {
		ae = apperr.Internal("internal error", err) // Unclassified errors are internal
	}
	if ae.Status() >= http.StatusInternalServerError {
		// Log the cause; clients only see the message
		logrus.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path, // Request path
			"code":  ae.Code,            // Error code
			"error": err.Error(),        // Underlying cause
		}).Error("Request failed")
	}
	c.AbortWithStatusJSON(ae.Status(), ae.Response())
}
