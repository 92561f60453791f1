package api

import (
	"net/http" // HTTP status codes

	"shop_api/internal/domain"  // Importing domain models
	"shop_api/internal/service" // Account workflows

	"github.com/gin-gonic/gin" // Gin web framework
)

// AuthResponse is returned by register, login and profile updates
type AuthResponse struct {
	Token     string       `json:"token"`      // JWT token
	ExpiresIn int64        `json:"expires_in"` // Token lifetime in seconds
	User      *domain.User `json:"user"`       // Authenticated user
}

// authResponse pairs a freshly issued token with its lifetime
func authResponse(users *service.UserService, token string, user *domain.User) AuthResponse {
	return AuthResponse{Token: token, ExpiresIn: int64(users.TokenTTL().Seconds()), User: user}
}

// RegisterHandler creates an account and returns it with a token
func RegisterHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.RegisterInput // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		// Validate, hash the password and create the user
		user, token, err := users.Register(c.Request.Context(), req)
		if err != nil {
			respondError(c, err) // Validation, duplicate or storage failure
			return
		}
		c.JSON(http.StatusCreated, authResponse(users, token, user))
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.LoginInput // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		// Compare provided password with stored hash
		user, token, err := users.Login(c.Request.Context(), req)
		if err != nil {
			respondError(c, err) // Invalid credentials
			return
		}
		c.JSON(http.StatusOK, authResponse(users, token, user))
	}
}

// MeHandler returns the authenticated user
func MeHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		user, err := users.Me(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateMeHandler updates name, email or password and returns a new token
func UpdateMeHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			return
		}
		var req service.UpdateUserInput // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		user, token, err := users.UpdateMe(c.Request.Context(), userID, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, authResponse(users, token, user))
	}
}
