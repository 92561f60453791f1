// Package service holds the business rules: the auth gate, the cart engine,
// and the user, profile and order workflows. Services return *apperr.Error
// values; the HTTP layer only translates them.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shop_api/internal/apperr"
	"shop_api/internal/domain"
	"shop_api/internal/store"
	"shop_api/internal/utils"
)

// Authenticator issues credentials and resolves them to identities.
type Authenticator struct {
	tokens *utils.TokenManager
	users  store.UserStore
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens *utils.TokenManager, users store.UserStore) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Issue returns a signed credential for userID.
func (a *Authenticator) Issue(userID uint) (string, error) {
	token, err := a.tokens.GenerateJWT(userID)
	if err != nil {
		return "", apperr.Internal("failed to issue token", err)
	}
	return token, nil
}

// TTL is the lifetime of issued credentials.
func (a *Authenticator) TTL() time.Duration {
	return a.tokens.TTL()
}

// Verify resolves an Authorization header value to the identity it names.
// A missing header or a scheme other than Bearer is ErrMissingToken; a bad,
// expired or orphaned token is ErrInvalidToken.
func (a *Authenticator) Verify(ctx context.Context, header string) (*domain.User, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return nil, apperr.ErrMissingToken
	}
	claims, err := a.tokens.ParseJWT(strings.TrimSpace(token))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidToken, err)
	}
	user, err := a.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		// The subject was deleted after the token was issued
		return nil, apperr.Wrap(apperr.ErrInvalidToken, err)
	}
	if err != nil {
		return nil, apperr.Storage("failed to load user", err)
	}
	return user.Identity(), nil
}

// AuthorizeAdmin allows only identities with the admin role.
func AuthorizeAdmin(identity *domain.User) error {
	if identity == nil {
		return apperr.ErrMissingToken
	}
	if !identity.IsAdmin() {
		return apperr.ErrForbidden
	}
	return nil
}
