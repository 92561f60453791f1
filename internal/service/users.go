package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop_api/internal/apperr"
	"shop_api/internal/domain"
	"shop_api/internal/store"
	"shop_api/internal/utils"
	"shop_api/internal/validation"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminCacheTTL    = 60 * time.Second
	adminUsersPrefix = "admin:users:"
	defaultPageSize  = 20
	maxPageSize      = 100
)

// RegisterInput is the payload of a sign-up.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
}

// LoginInput is the payload of a sign-in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserInput carries the fields a user may change; empty fields are kept.
type UpdateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// Page is one page of an admin listing.
type Page struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	Cached     bool  `json:"cached"`
}

// NewPage clamps page and size to sane values.
func NewPage(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}
	return Page{Page: page, PageSize: size}
}

func (p Page) offset() int { return (p.Page - 1) * p.PageSize }

func (p *Page) setTotal(total int64) {
	p.Total = total
	p.TotalPages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// UserPage is a page of users.
type UserPage struct {
	Users []domain.User `json:"users"`
	Page
}

// UserService handles accounts.
type UserService struct {
	users store.UserStore
	auth  *Authenticator
	rdb   *redis.Client
	cost  int
}

// NewUserService creates a UserService. rdb may be nil to disable caching.
func NewUserService(users store.UserStore, auth *Authenticator, rdb *redis.Client) *UserService {
	return &UserService{users: users, auth: auth, rdb: rdb, cost: bcrypt.DefaultCost}
}

// TokenTTL is the lifetime of the credentials returned by Register, Login and
// UpdateMe.
func (s *UserService) TokenTTL() time.Duration {
	return s.auth.TTL()
}

// Register creates an account and returns it with a fresh credential.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, "", err
	}
	exists, err := s.users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, "", apperr.Storage("failed to check user", err)
	}
	if exists {
		return nil, "", apperr.Conflict("username or email already registered", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, "", apperr.Internal("failed to hash password", err)
	}
	user := &domain.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		Name:     strings.TrimSpace(in.Name),
		Role:     domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", apperr.Conflict("username or email already registered", err)
		}
		return nil, "", apperr.Storage("failed to create user", err)
	}
	token, err := s.auth.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	s.invalidateList(ctx)

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,       // New user ID
		"username": user.Username, // Username
	}).Info("User registered")
	return user.Identity(), token, nil
}

// Login checks the password and returns the user with a fresh credential.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*domain.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, "", err
	}
	user, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", apperr.Storage("failed to load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, "", apperr.ErrInvalidCredentials
	}
	token, err := s.auth.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user.Identity(), token, nil
}

// Me returns the current state of the user.
func (s *UserService) Me(ctx context.Context, userID uint) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Storage("failed to load user", err)
	}
	return user.Identity(), nil
}

// UpdateMe applies the non-empty fields of in and re-issues a credential.
func (s *UserService) UpdateMe(ctx context.Context, userID uint, in UpdateUserInput) (*domain.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, "", err
	}
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, "", apperr.Storage("failed to load user", err)
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}
	if in.Email != "" && in.Email != user.Email {
		other, err := s.users.FindByEmail(ctx, in.Email)
		switch {
		case err == nil && other.ID != user.ID:
			return nil, "", apperr.Conflict("email already registered", nil)
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, "", apperr.Storage("failed to check email", err)
		}
		user.Email = in.Email
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return nil, "", apperr.Internal("failed to hash password", err)
		}
		user.Password = string(hash)
	}
	if err := s.save(ctx, user); err != nil {
		return nil, "", err
	}
	token, err := s.auth.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user.Identity(), token, nil
}

// SetProfileImage records the URL of the user's uploaded picture.
func (s *UserService) SetProfileImage(ctx context.Context, userID uint, url string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Storage("failed to load user", err)
	}
	user.ProfileImage = url
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

// List returns a page of users, served from the cache for a minute.
func (s *UserService) List(ctx context.Context, page Page) (*UserPage, error) {
	cacheKey := fmt.Sprintf("%spage=%d:size=%d", adminUsersPrefix, page.Page, page.PageSize)
	var cached UserPage
	if found, err := utils.GetCache(ctx, s.rdb, cacheKey, &cached); err == nil && found {
		cached.Cached = true
		return &cached, nil
	}
	users, total, err := s.users.List(ctx, page.offset(), page.PageSize)
	if err != nil {
		return nil, apperr.Storage("failed to list users", err)
	}
	for i := range users {
		users[i].Password = ""
	}
	page.setTotal(total)
	resp := &UserPage{Users: users, Page: page}
	_ = utils.SetCache(ctx, s.rdb, cacheKey, resp, adminCacheTTL)
	return resp, nil
}

func (s *UserService) save(ctx context.Context, user *domain.User) error {
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return apperr.Conflict("email already registered", err)
		}
		return apperr.Storage("failed to save user", err)
	}
	s.invalidateList(ctx)
	logrus.WithFields(logrus.Fields{
		"user_id": user.ID, // User ID
	}).Info("User updated")
	return nil
}

func (s *UserService) invalidateList(ctx context.Context) {
	if err := utils.DeleteCachePrefix(ctx, s.rdb, adminUsersPrefix); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate user list cache")
	}
}
