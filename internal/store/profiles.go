package store

import (
	"context"
	"fmt"

	"shop_api/internal/domain"

	"gorm.io/gorm"
)

// ProfileStore persists profiles.
type ProfileStore interface {
	FindByUserID(ctx context.Context, userID uint) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
	Save(ctx context.Context, p *domain.Profile) error
}

type profileStore struct {
	db *gorm.DB
}

// NewProfileStore returns a gorm-backed ProfileStore.
func NewProfileStore(db *gorm.DB) ProfileStore {
	return &profileStore{db: db}
}

func (s *profileStore) FindByUserID(ctx context.Context, userID uint) (*domain.Profile, error) {
	var p domain.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, fmt.Errorf("find profile for user %d: %w", userID, translate(err))
	}
	return &p, nil
}

func (s *profileStore) Create(ctx context.Context, p *domain.Profile) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create profile for user %d: %w", p.UserID, translate(err))
	}
	return nil
}

func (s *profileStore) Save(ctx context.Context, p *domain.Profile) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("save profile %d: %w", p.ID, translate(err))
	}
	return nil
}
