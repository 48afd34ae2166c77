package domain

import "github.com/shopspring/decimal"

// Events emitted through the transactional outbox. They describe ledger
// state changes only; inventory adjustments are direct side effects and are
// never routed through events.

type OrderCreated struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItem     `json:"items"`
}

type OrderStatusChanged struct {
	OrderID string      `json:"order_id"`
	Status  OrderStatus `json:"status"`
}
