package store

import (
	"context"
	"fmt"
	"time"

	"shop_api/internal/domain"

	"gorm.io/gorm"
)

// OrderFilter narrows an admin order listing. Zero values are ignored.
type OrderFilter struct {
	UserID uint
	Status string
	From   *time.Time
	To     *time.Time
}

// OrderStore persists orders.
type OrderStore interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id uint) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]domain.Order, error)
	List(ctx context.Context, f OrderFilter, offset, limit int) ([]domain.Order, int64, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
}

type orderStore struct {
	db *gorm.DB
}

// NewOrderStore returns a gorm-backed OrderStore.
func NewOrderStore(db *gorm.DB) OrderStore {
	return &orderStore{db: db}
}

func (s *orderStore) Create(ctx context.Context, o *domain.Order) error {
	if err := s.db.WithContext(ctx).Omit("User").Create(o).Error; err != nil {
		return fmt.Errorf("create order: %w", translate(err))
	}
	return nil
}

func (s *orderStore) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	var o domain.Order
	if err := s.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, fmt.Errorf("find order %d: %w", id, translate(err))
	}
	return &o, nil
}

func (s *orderStore) ListByUser(ctx context.Context, userID uint) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders for user %d: %w", userID, translate(err))
	}
	return orders, nil
}

func (s *orderStore) List(ctx context.Context, f OrderFilter, offset, limit int) ([]domain.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&domain.Order{})
	if f.UserID != 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.From != nil {
		query = query.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("created_at <= ?", *f.To)
	}
	// Count and Find each run on their own copy of the filtered statement
	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", translate(err))
	}
	var orders []domain.Order
	err := query.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username", "name", "email")
	}).Order("created_at desc").Offset(offset).Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", translate(err))
	}
	return orders, total, nil
}

func (s *orderStore) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := s.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update order %d status: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update order %d status: %w", id, ErrNotFound)
	}
	return nil
}
