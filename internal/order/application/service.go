package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/zoubamaryem/ecommerce-microservices/internal/order/domain"
	"github.com/zoubamaryem/ecommerce-microservices/pkg/tracing"
)

const (
	eventOrderCreated       = "OrderCreated"
	eventOrderStatusChanged = "OrderStatusChanged"
)

type Service struct {
	log      *slog.Logger
	repo     OrderRepository
	identity IdentityClient
	catalog  CatalogClient
}

func NewService(log *slog.Logger, repo OrderRepository, identity IdentityClient, catalog CatalogClient) *Service {
	return &Service{log: log, repo: repo, identity: identity, catalog: catalog}
}

type ItemRequest struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	UserID          string
	Items           []ItemRequest
	ShippingAddress json.RawMessage
	PaymentMethod   string
	AuthToken       string
}

// CreateOrder runs the order-creation workflow: verify the user, verify and
// price every item against live stock, persist the pending order, then
// reserve stock item by item. Any failure before persistence aborts the whole
// order; stock reservation failures after persistence are logged and
// tolerated, so the ledger and remote inventory can diverge.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	if len(in.Items) == 0 {
		return domain.Order{}, domain.ErrEmptyOrder
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return domain.Order{}, fmt.Errorf("product %s: %w", item.ProductID, domain.ErrInvalidQuantity)
		}
	}

	if _, err := s.identity.VerifyUser(ctx, in.UserID, in.AuthToken); err != nil {
		return domain.Order{}, fmt.Errorf("%w: %w", domain.ErrUserVerification, err)
	}

	// Items are verified sequentially in request order. The stock check here
	// and the decrement below are not atomic across concurrent orders: two
	// requests can both pass the check for the last unit and both decrement.
	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, req := range in.Items {
		product, err := s.catalog.VerifyProduct(ctx, req.ProductID)
		if err != nil {
			return domain.Order{}, &domain.ProductVerificationError{ProductID: req.ProductID, Err: err}
		}
		if product.Stock < req.Quantity {
			return domain.Order{}, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   req.Quantity,
				Available:   product.Stock,
			}
		}
		items = append(items, domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    req.Quantity,
			Price:       product.Price,
		})
	}

	order := domain.NewOrder(in.UserID, items, in.ShippingAddress, in.PaymentMethod)

	payload, err := json.Marshal(domain.OrderCreated{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       order.Items,
	})
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.CreateWithOutbox(ctx, order, eventOrderCreated, payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Order{}, err
	}

	// Best-effort reservation. The order is already committed, so a failed
	// decrement must not fail or roll back the create; the loop also keeps
	// running if the caller has disconnected.
	s.adjustStock(context.WithoutCancel(ctx), order, -1)

	return order, nil
}

// CancelOrder transitions a pending or confirmed order to cancelled, then
// restores stock item by item as a best-effort compensating action.
func (s *Service) CancelOrder(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !order.Status.Cancellable() {
		return domain.Order{}, &domain.InvalidTransitionError{OrderID: order.ID, From: order.Status}
	}

	cancelled, err := s.setStatus(ctx, id, domain.StatusCancelled)
	if err != nil {
		return domain.Order{}, err
	}

	s.adjustStock(context.WithoutCancel(ctx), cancelled, +1)

	return cancelled, nil
}

// UpdateStatus applies a direct status transition. It only checks that the
// target value is recognized; forward transition legality is the caller's
// concern, unlike the guarded cancel path.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, domain.ErrInvalidStatus
	}
	return s.setStatus(ctx, id, status)
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

type OrderPage struct {
	Orders []domain.Order
	Total  int
	Page   int
	Limit  int
}

// ListUserOrders returns one page of the user's orders, newest first, plus
// the total count for pagination metadata.
func (s *Service) ListUserOrders(ctx context.Context, userID string, page, limit int) (OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	orders, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return OrderPage{}, err
	}
	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return OrderPage{}, err
	}
	return OrderPage{Orders: orders, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) setStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	payload, err := json.Marshal(domain.OrderStatusChanged{OrderID: id, Status: status})
	if err != nil {
		return domain.Order{}, err
	}
	return s.repo.UpdateStatusWithOutbox(ctx, id, status, eventOrderStatusChanged, payload, tracing.Traceparent(ctx))
}

// adjustStock applies sign*quantity to every item of the order, one call per
// item, swallowing failures. sign is -1 to reserve and +1 to restore.
func (s *Service) adjustStock(ctx context.Context, order domain.Order, sign int) {
	for _, item := range order.Items {
		delta := sign * item.Quantity
		if _, err := s.catalog.AdjustStock(ctx, item.ProductID, delta); err != nil {
			s.log.Error("stock adjustment failed",
				"order_id", order.ID,
				"product_id", item.ProductID,
				"delta", delta,
				"err", err)
		}
	}
}
