package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the five recognized status values.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Cancellable reports whether an order in status s may still be cancelled.
// Only the cancel path consults this; direct status updates are not guarded
// beyond Valid.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Order struct {
	ID              string
	UserID          string
	Items           []OrderItem
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	ShippingAddress json.RawMessage
	PaymentMethod   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is a priced snapshot of a catalog product taken at order time.
// Later catalog price or name changes never touch it.
type OrderItem struct {
	ProductID   string
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

// NewOrder assembles a pending order from verified item snapshots. The total
// is computed once here, rounded to 2 decimal places, and never recomputed.
func NewOrder(userID string, items []OrderItem, shippingAddress json.RawMessage, paymentMethod string) Order {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	now := time.Now().UTC()
	return Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		TotalAmount:     total.Round(2),
		Status:          StatusPending,
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// User is the read-only identity snapshot returned by the identity
// collaborator. The core consumes it to confirm existence and never persists it.
type User struct {
	ID    string
	Email string
	Role  string
}

// Product is the catalog collaborator's view of a product at call time.
// Stock is only as fresh as the moment of the lookup.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}
