package utils

import (
	"errors" // Error construction
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// JWT Claims
type Claims struct {
	UserID               uint `json:"user_id"` // Custom claim for user ID
	jwt.RegisteredClaims      // Standard JWT claims
}

// ErrEmptySecret is returned when a TokenManager is built without a key
var ErrEmptySecret = errors.New("jwt secret must not be empty")

// TokenManager issues and parses signed credentials with a fixed secret and lifetime
type TokenManager struct {
	secret []byte           // Signing key, read-only after construction
	ttl    time.Duration    // Credential lifetime
	now    func() time.Time // Clock, replaceable in tests
}

// NewTokenManager creates a TokenManager for the given secret and lifetime
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret // Refuse to sign with an empty key
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of the manager using the given clock
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	cp := *m
	cp.now = now
	return &cp
}

// TTL returns the credential lifetime
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// GenerateJWT creates a JWT token for a given user ID
func (m *TokenManager) GenerateJWT(userID uint) (string, error) {
	now := m.now() // Issue time
	// Set token claims
	claims := Claims{
		UserID: userID, // Custom claim for user ID
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)), // Token expires after ttl
			IssuedAt:  jwt.NewNumericDate(now),            // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString(m.secret)                        // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string
func (m *TokenManager) ParseJWT(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return m.secret, nil // Return the secret key for validation
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), // Reject other algorithms
		jwt.WithExpirationRequired(),                                 // Tokens without exp are invalid
		jwt.WithTimeFunc(m.now),                                      // Validate against the manager clock
	)
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID != 0 {
		return claims, nil // Return claims if valid
	}
	// Return error if token is invalid
	return nil, jwt.ErrTokenInvalidClaims
}
