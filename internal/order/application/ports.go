package application

import (
	"context"

	"github.com/zoubamaryem/ecommerce-microservices/internal/order/domain"
)

// OrderRepository owns the order ledger. Writes that change ledger state also
// record an outbox event in the same transaction.
type OrderRepository interface {
	CreateWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error
	GetByID(ctx context.Context, id string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	UpdateStatusWithOutbox(ctx context.Context, id string, status domain.OrderStatus, eventType string, payload []byte, traceparent string) (domain.Order, error)
}

// IdentityClient talks to the identity collaborator. A single failed attempt
// aborts the caller's workflow; there is no retry and no caching.
type IdentityClient interface {
	VerifyUser(ctx context.Context, userID, token string) (domain.User, error)
}

// CatalogClient talks to the product catalog collaborator. AdjustStock takes
// a signed delta: negative to reserve, positive to restore. Each call is
// independent; there is no batching and no two-phase commit with the catalog.
type CatalogClient interface {
	VerifyProduct(ctx context.Context, productID string) (domain.Product, error)
	AdjustStock(ctx context.Context, productID string, delta int) (domain.Product, error)
}
