package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// Payment methods
const (
	PaymentCard     = "card"
	PaymentCash     = "cash"
	PaymentTransfer = "transfer"
)

// OrderStatuses lists every valid status
var OrderStatuses = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

// PaymentMethods lists every valid payment method
var PaymentMethods = []string{PaymentCard, PaymentCash, PaymentTransfer}

// Order Model. Items is a snapshot taken at purchase time and never changes.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`                                     // Primary key
	UserID          uint            `gorm:"index;not null" json:"user_id"`                            // Owning user
	User            *User           `gorm:"constraint:OnDelete:CASCADE;" json:"user,omitempty"`       // Owner, loaded for admin listings
	Items           []CartLine      `gorm:"type:json;serializer:json;not null" json:"items"`          // Line item snapshot
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`          // Total at purchase time
	Status          string          `gorm:"size:16;index;default:pending" json:"status"`              // Order status
	ShippingAddress Address         `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"` // Shipping address
	PaymentMethod   string          `gorm:"size:16;default:card" json:"payment_method"`               // Payment method
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`                                  // Creation time
	UpdatedAt       time.Time       `json:"updated_at"`                                               // Last update time
}

// Address is embedded in orders and profiles
type Address struct {
	Street     string `json:"street"`      // Street and number
	City       string `json:"city"`        // City
	PostalCode string `json:"postal_code"` // Postal code
	Country    string `json:"country"`     // Country
}
