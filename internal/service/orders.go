package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"shop_api/internal/apperr"
	"shop_api/internal/domain"
	"shop_api/internal/store"
	"shop_api/internal/utils"
	"shop_api/internal/validation"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const adminOrdersPrefix = "admin:orders:"

// OrderInput is the payload of a new order.
type OrderInput struct {
	Items           []LineInput    `json:"items" validate:"required,min=1"`
	ShippingAddress domain.Address `json:"shipping_address"`
	PaymentMethod   string         `json:"payment_method" validate:"omitempty,oneof=card cash transfer"`
}

// Validate reports every invalid field of the order, including its lines.
func (in OrderInput) Validate() []apperr.FieldError {
	fields := validation.Check(in)
	for i, it := range in.Items {
		fields = append(fields, it.validate(fmt.Sprintf("items[%d].", i))...)
	}
	return fields
}

// OrderPage is a page of orders.
type OrderPage struct {
	Orders []domain.Order `json:"orders"`
	Page
}

// OrderService places and administers orders.
type OrderService struct {
	orders store.OrderStore
	rdb    *redis.Client
}

// NewOrderService creates an OrderService. rdb may be nil to disable caching.
func NewOrderService(orders store.OrderStore, rdb *redis.Client) *OrderService {
	return &OrderService{orders: orders, rdb: rdb}
}

// Create places a pending order. The total is computed from the submitted
// lines and the lines are stored as an immutable snapshot.
func (s *OrderService) Create(ctx context.Context, userID uint, in OrderInput) (*domain.Order, error) {
	if fields := in.Validate(); len(fields) > 0 {
		return nil, apperr.Validation(fields...)
	}
	snapshot := &domain.Cart{Items: make([]domain.CartLine, 0, len(in.Items))}
	for _, it := range in.Items {
		snapshot.Items = append(snapshot.Items, it.line())
	}
	payment := in.PaymentMethod
	if payment == "" {
		payment = domain.PaymentCard
	}
	order := &domain.Order{
		UserID:          userID,
		Items:           snapshot.Items,
		TotalAmount:     snapshot.Total(),
		Status:          domain.OrderPending,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   payment,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperr.Storage("failed to create order", err)
	}
	s.invalidateList(ctx)

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,                           // Buyer
		"order_id": order.ID,                         // New order ID
		"total":    order.TotalAmount.StringFixed(2), // Order total
	}).Info("Order created")
	return order, nil
}

// Mine lists the user's orders, newest first.
func (s *OrderService) Mine(ctx context.Context, userID uint) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("failed to list orders", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// Get returns an order to its owner or to an admin.
func (s *OrderService) Get(ctx context.Context, identity *domain.User, id uint) (*domain.Order, error) {
	if identity == nil {
		return nil, apperr.ErrMissingToken
	}
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != identity.ID && !identity.IsAdmin() {
		return nil, apperr.ErrForbidden
	}
	return order, nil
}

// UpdateStatus moves an order to status. Callers must be admins.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*domain.Order, error) {
	if !slices.Contains(domain.OrderStatuses, status) {
		return nil, apperr.Validation(apperr.FieldError{
			Field:  "status",
			Reason: fmt.Sprintf("must be one of %v", domain.OrderStatuses),
		})
	}
	err := s.orders.UpdateStatus(ctx, id, status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.ErrOrderNotFound
	}
	if err != nil {
		return nil, apperr.Storage("failed to update order", err)
	}
	s.invalidateList(ctx)

	logrus.WithFields(logrus.Fields{
		"order_id": id,     // Order ID
		"status":   status, // New status
	}).Info("Order status updated")
	return s.find(ctx, id)
}

// List returns a filtered page of all orders, served from the cache for a
// minute.
func (s *OrderService) List(ctx context.Context, f store.OrderFilter, page Page) (*OrderPage, error) {
	cacheKey := orderListKey(f, page)
	var cached OrderPage
	if found, err := utils.GetCache(ctx, s.rdb, cacheKey, &cached); err == nil && found {
		cached.Cached = true
		return &cached, nil
	}
	orders, total, err := s.orders.List(ctx, f, page.offset(), page.PageSize)
	if err != nil {
		return nil, apperr.Storage("failed to list orders", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	page.setTotal(total)
	resp := &OrderPage{Orders: orders, Page: page}
	_ = utils.SetCache(ctx, s.rdb, cacheKey, resp, adminCacheTTL)
	return resp, nil
}

func (s *OrderService) find(ctx context.Context, id uint) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.ErrOrderNotFound
	}
	if err != nil {
		return nil, apperr.Storage("failed to load order", err)
	}
	return order, nil
}

func (s *OrderService) invalidateList(ctx context.Context) {
	if err := utils.DeleteCachePrefix(ctx, s.rdb, adminOrdersPrefix); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate order list cache")
	}
}

func orderListKey(f store.OrderFilter, page Page) string {
	var from, to string
	if f.From != nil {
		from = f.From.UTC().Format("20060102T150405")
	}
	if f.To != nil {
		to = f.To.UTC().Format("20060102T150405")
	}
	return fmt.Sprintf("%suser_id=%d:status=%s:from=%s:to=%s:page=%d:size=%d",
		adminOrdersPrefix, f.UserID, f.Status, from, to, page.Page, page.PageSize)
}
