package store

import (
	"context"
	"fmt"

	"shop_api/internal/domain"

	"gorm.io/gorm"
)

// UserStore persists users.
type UserStore interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, u *domain.User) error
	Save(ctx context.Context, u *domain.User) error
	List(ctx context.Context, offset, limit int) ([]domain.User, int64, error)
}

type userStore struct {
	db *gorm.DB
}

// NewUserStore returns a gorm-backed UserStore.
func NewUserStore(db *gorm.DB) UserStore {
	return &userStore{db: db}
}

func (s *userStore) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, translate(err))
	}
	return &u, nil
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, fmt.Errorf("find user by email: %w", translate(err))
	}
	return &u, nil
}

func (s *userStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("count users: %w", translate(err))
	}
	return n > 0, nil
}

func (s *userStore) Create(ctx context.Context, u *domain.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (s *userStore) Save(ctx context.Context, u *domain.User) error {
	err := s.db.WithContext(ctx).Model(u).
		Select("email", "name", "password", "profile_image", "updated_at").
		Updates(u).Error
	if err != nil {
		return fmt.Errorf("save user %d: %w", u.ID, translate(err))
	}
	return nil
}

func (s *userStore) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", translate(err))
	}
	var users []domain.User
	if err := s.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", translate(err))
	}
	return users, total, nil
}
