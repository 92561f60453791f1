package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shop_api/internal/apperr"
	"shop_api/internal/domain"
	"shop_api/internal/store"
	"shop_api/internal/utils"
	"shop_api/internal/validation"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const cartCacheTTL = 5 * time.Minute

// LineInput is a cart line as submitted by a client.
type LineInput struct {
	ProductID int64            `json:"product_id" validate:"gt=0"`
	Name      string           `json:"name" validate:"required"`
	Price     *decimal.Decimal `json:"price" validate:"required"`
	Image     string           `json:"image" validate:"required"`
	Quantity  int              `json:"quantity" validate:"min=1"`

	typeErrs []apperr.FieldError // values of the wrong JSON type
}

// UnmarshalJSON decodes a line field by field. A value of the wrong JSON type
// leaves its field unset and is reported by Validate along with every other
// violation, instead of failing the whole body.
func (in *LineInput) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*in = LineInput{}
	// decode reports whether field was present and of the right type
	decode := func(field string, dst any, reason string) bool {
		v, ok := raw[field]
		if !ok || string(v) == "null" {
			return false
		}
		if err := json.Unmarshal(v, dst); err != nil {
			in.typeErrs = append(in.typeErrs, apperr.FieldError{Field: field, Reason: reason})
			return false
		}
		return true
	}
	decode("product_id", &in.ProductID, "must be an integer")
	decode("name", &in.Name, "must be a string")
	decode("image", &in.Image, "must be a string")
	decode("quantity", &in.Quantity, "must be an integer")
	var price decimal.Decimal
	if decode("price", &price, "must be a number") {
		in.Price = &price
	}
	return nil
}

// Validate reports every invalid field of the line.
func (in LineInput) Validate() []apperr.FieldError {
	return in.validate("")
}

// validate checks the line, prefixing field names with prefix. A field with
// a type error is reported once, with the type error.
func (in LineInput) validate(prefix string) []apperr.FieldError {
	bad := make(map[string]bool, len(in.typeErrs))
	fields := make([]apperr.FieldError, 0, len(in.typeErrs))
	for _, f := range in.typeErrs {
		bad[f.Field] = true
		fields = append(fields, apperr.FieldError{Field: prefix + f.Field, Reason: f.Reason})
	}
	for _, f := range validation.Check(in) {
		if !bad[f.Field] {
			fields = append(fields, apperr.FieldError{Field: prefix + f.Field, Reason: f.Reason})
		}
	}
	if in.Price != nil && in.Price.IsNegative() {
		fields = append(fields, apperr.FieldError{Field: prefix + "price", Reason: "must be greater than or equal to 0"})
	}
	return fields
}

func (in LineInput) line() domain.CartLine {
	return domain.CartLine{
		ProductID: in.ProductID,
		Name:      in.Name,
		Price:     *in.Price,
		Image:     in.Image,
		Quantity:  in.Quantity,
	}
}

// CartService keeps exactly one cart per user. Each mutation is a
// get-modify-save under a per-user lock, persisted with a revision check so
// writers in other processes cannot be silently overwritten.
type CartService struct {
	carts store.CartStore
	rdb   *redis.Client
	locks *keyedMutex
	now   func() time.Time
}

// NewCartService creates a CartService. rdb may be nil to disable caching.
func NewCartService(carts store.CartStore, rdb *redis.Client) *CartService {
	return &CartService{carts: carts, rdb: rdb, locks: newKeyedMutex(), now: time.Now}
}

func cartCacheKey(userID uint) string {
	return fmt.Sprintf("cart:user:%d", userID)
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
func (s *CartService) GetOrCreate(ctx context.Context, userID uint) (*domain.Cart, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if cart, ok := s.cached(ctx, userID); ok {
		return cart, nil
	}
	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, cart)
	return cart, nil
}

// UpsertLine adds the line, or replaces the quantity of the existing line
// with the same product id. Quantities are not accumulated.
func (s *CartService) UpsertLine(ctx context.Context, userID uint, in LineInput) (*domain.Cart, error) {
	if fields := in.Validate(); len(fields) > 0 {
		return nil, apperr.Validation(fields...)
	}
	return s.mutate(ctx, userID, "upsert_line", true, func(cart *domain.Cart) error {
		if i := cart.LineIndex(in.ProductID); i >= 0 {
			cart.Items[i].Quantity = in.Quantity // Last write wins
			return nil
		}
		cart.Items = append(cart.Items, in.line())
		return nil
	})
}

// SetLineQuantity replaces the quantity of an existing line.
func (s *CartService) SetLineQuantity(ctx context.Context, userID uint, productID int64, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, apperr.Validation(apperr.FieldError{Field: "quantity", Reason: "must be at least 1"})
	}
	return s.mutate(ctx, userID, "set_quantity", false, func(cart *domain.Cart) error {
		i := cart.LineIndex(productID)
		if i < 0 {
			return apperr.ErrLineNotFound
		}
		cart.Items[i].Quantity = quantity
		return nil
	})
}

// RemoveLine drops the line for productID. Removing an absent product
// succeeds and still touches the cart.
func (s *CartService) RemoveLine(ctx context.Context, userID uint, productID int64) (*domain.Cart, error) {
	return s.mutate(ctx, userID, "remove_line", false, func(cart *domain.Cart) error {
		kept := cart.Items[:0]
		for _, l := range cart.Items {
			if l.ProductID != productID {
				kept = append(kept, l)
			}
		}
		cart.Items = kept
		return nil
	})
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID uint) (*domain.Cart, error) {
	return s.mutate(ctx, userID, "clear", false, func(cart *domain.Cart) error {
		cart.Items = []domain.CartLine{}
		return nil
	})
}

// mutate loads the cart, applies fn and saves the result. When create is
// false a missing cart is ErrCartNotFound. An error from fn aborts the
// mutation without writing anything.
func (s *CartService) mutate(ctx context.Context, userID uint, op string, create bool, fn func(*domain.Cart) error) (*domain.Cart, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	var (
		cart *domain.Cart
		err  error
	)
	if create {
		cart, err = s.getOrCreate(ctx, userID)
	} else {
		cart, err = s.find(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	next := cart.Clone() // The loaded revision stays as read
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()

	if err := s.carts.Update(ctx, next); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,       // Cart owner
			"cart_id": cart.ID,      // Cart ID
			"version": cart.Version, // Revision the change was based on
			"op":      op,           // Mutation
			"error":   err.Error(),  // Error message
		}).Error("Failed to save cart")
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Wrap(apperr.ErrRevisionConflict, err)
		}
		return nil, apperr.Storage("failed to save cart", err)
	}
	s.cache(ctx, next)

	logrus.WithFields(logrus.Fields{
		"user_id": userID,          // Cart owner
		"cart_id": next.ID,         // Cart ID
		"version": next.Version,    // Revision after the change
		"op":      op,              // Mutation
		"lines":   len(next.Items), // Line count after the change
	}).Info("Cart updated")
	return next, nil
}

func (s *CartService) find(ctx context.Context, userID uint) (*domain.Cart, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.ErrCartNotFound
	}
	if err != nil {
		return nil, apperr.Storage("failed to load cart", err)
	}
	return cart, nil
}

func (s *CartService) getOrCreate(ctx context.Context, userID uint) (*domain.Cart, error) {
	cart, err := s.find(ctx, userID)
	if !errors.Is(err, apperr.ErrCartNotFound) {
		return cart, err
	}
	cart = &domain.Cart{UserID: userID, Items: []domain.CartLine{}}
	err = s.carts.Create(ctx, cart)
	if errors.Is(err, store.ErrDuplicate) {
		// Another process created it first
		return s.find(ctx, userID)
	}
	if err != nil {
		return nil, apperr.Storage("failed to create cart", err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,  // Cart owner
		"cart_id": cart.ID, // New cart ID
	}).Info("Cart created")
	return cart, nil
}

// cached returns the cached cart with its revision restored. Redis errors
// count as a miss.
func (s *CartService) cached(ctx context.Context, userID uint) (*domain.Cart, bool) {
	var entry utils.Versioned[*domain.Cart]
	found, err := utils.GetCache(ctx, s.rdb, cartCacheKey(userID), &entry)
	if err != nil || !found || entry.Value == nil {
		return nil, false
	}
	entry.Value.Version = entry.Version
	return entry.Value, true
}

// cache stores cart unless the cache already holds the same or a later
// revision, so a slow reader or a late writer in another instance cannot
// replace a newer cart. When the write fails the entry is dropped instead.
func (s *CartService) cache(ctx context.Context, cart *domain.Cart) {
	key := cartCacheKey(cart.UserID)
	if _, err := utils.SetCacheIfNewer(ctx, s.rdb, key, cart.Version, cart, cartCacheTTL); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": cart.UserID,  // Cart owner
			"version": cart.Version, // Revision being cached
			"error":   err.Error(),  // Error message
		}).Warn("Failed to cache cart")
		if err := utils.DeleteCache(ctx, s.rdb, key); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": cart.UserID, // Cart owner
				"error":   err.Error(), // Error message
			}).Warn("Failed to invalidate cart cache")
		}
	}
}
