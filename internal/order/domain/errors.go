package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyOrder rejects a create request without line items.
	ErrEmptyOrder = errors.New("order must contain at least one item")

	// ErrInvalidQuantity rejects a line item with quantity below one.
	ErrInvalidQuantity = errors.New("item quantity must be at least 1")

	// ErrUserVerification covers any identity lookup failure: unauthorized,
	// unknown user, network error or timeout are reported uniformly.
	ErrUserVerification = errors.New("user verification failed")

	// ErrOrderNotFound is returned for an unknown order id.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidStatus is returned when a status value is outside the
	// recognized set.
	ErrInvalidStatus = errors.New("invalid status")
)

// ProductVerificationError reports a failed catalog lookup for one item.
// A single failing item aborts the whole order.
type ProductVerificationError struct {
	ProductID string
	Err       error
}

func (e *ProductVerificationError) Error() string {
	return fmt.Sprintf("product verification failed for ID: %s", e.ProductID)
}

func (e *ProductVerificationError) Unwrap() error { return e.Err }

// InsufficientStockError reports that live stock cannot cover the requested
// quantity for a product.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s", e.ProductName)
}

// InvalidTransitionError reports a cancel attempt on an order whose status
// does not allow it.
type InvalidTransitionError struct {
	OrderID string
	From    OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s cannot be cancelled from status %s", e.OrderID, e.From)
}

// StockAdjustmentError reports a failed inventory mutation. Callers recover
// it locally: the parent operation is never failed or rolled back because of
// one.
type StockAdjustmentError struct {
	ProductID string
	Delta     int
	Err       error
}

func (e *StockAdjustmentError) Error() string {
	return fmt.Sprintf("stock adjustment of %d failed for product %s", e.Delta, e.ProductID)
}

func (e *StockAdjustmentError) Unwrap() error { return e.Err }
