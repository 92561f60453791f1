package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart Model. Lines are stored as a JSON document column so the cart is read
// and written as a single record.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`                            // Primary key
	UserID    uint       `gorm:"uniqueIndex;not null" json:"user_id"`             // One cart per user
	Items     []CartLine `gorm:"type:json;serializer:json;not null" json:"items"` // Line items
	Version   int        `gorm:"not null;default:0" json:"-"`                     // Optimistic revision
	CreatedAt time.Time  `json:"created_at"`                                      // Creation time
	UpdatedAt time.Time  `json:"updated_at"`                                      // Last modification time
}

// CartLine is one product entry in a cart, keyed by ProductID
type CartLine struct {
	ProductID int64           `json:"product_id"` // Product identifier
	Name      string          `json:"name"`       // Product name
	Price     decimal.Decimal `json:"price"`      // Unit price
	Image     string          `json:"image"`      // Product image URL
	Quantity  int             `json:"quantity"`   // Quantity, at least 1
}

// Subtotal returns price times quantity for the line
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total derives the cart total from its lines. It is never stored.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Items {
		total = total.Add(l.Subtotal())
	}
	return total
}

// LineIndex returns the index of the line for productID, or -1
func (c *Cart) LineIndex(productID int64) int {
	for i, l := range c.Items {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without touching shared state
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = append([]CartLine(nil), c.Items...)
	return &cp
}
