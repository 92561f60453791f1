package store

import (
	"context"
	"encoding/json"
	"fmt"

	"shop_api/internal/domain"

	"gorm.io/gorm"
)

// CartStore persists carts. Update is conditional on the cart's Version.
type CartStore interface {
	FindByUserID(ctx context.Context, userID uint) (*domain.Cart, error)
	Create(ctx context.Context, c *domain.Cart) error
	Update(ctx context.Context, c *domain.Cart) error
}

type cartStore struct {
	db *gorm.DB
}

// NewCartStore returns a gorm-backed CartStore.
func NewCartStore(db *gorm.DB) CartStore {
	return &cartStore{db: db}
}

func (s *cartStore) FindByUserID(ctx context.Context, userID uint) (*domain.Cart, error) {
	var c domain.Cart
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, fmt.Errorf("find cart for user %d: %w", userID, translate(err))
	}
	if c.Items == nil {
		c.Items = []domain.CartLine{}
	}
	return &c, nil
}

func (s *cartStore) Create(ctx context.Context, c *domain.Cart) error {
	if c.Items == nil {
		c.Items = []domain.CartLine{}
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create cart for user %d: %w", c.UserID, translate(err))
	}
	return nil
}

// Update writes items and updated_at only if the stored version still equals
// c.Version, then advances c.Version. Zero rows affected means another writer
// got there first and ErrConflict is returned.
func (s *cartStore) Update(ctx context.Context, c *domain.Cart) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&domain.Cart{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]any{
			"items":      string(items),
			"updated_at": c.UpdatedAt,
			"version":    c.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("update cart %d: %w", c.ID, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update cart %d at version %d: %w", c.ID, c.Version, ErrConflict)
	}
	c.Version++
	return nil
}
