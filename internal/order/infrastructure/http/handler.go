package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoubamaryem/ecommerce-microservices/internal/order/application"
	"github.com/zoubamaryem/ecommerce-microservices/internal/order/domain"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.createOrder)
	r.Get("/user/{userID}", h.getUserOrders)
	r.Get("/{id}", h.getOrder)
	r.Put("/{id}/status", h.updateStatus)
	r.Delete("/{id}", h.cancelOrder)
	return r
}

type createOrderReq struct {
	UserID          string          `json:"userId"`
	Items           []itemReq       `json:"items"`
	ShippingAddress json.RawMessage `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
}

type itemReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type orderView struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Items           []itemView      `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          string          `json:"status"`
	ShippingAddress json.RawMessage `json:"shippingAddress,omitempty"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type itemView struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

func viewOf(o domain.Order) orderView {
	items := make([]itemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, itemView{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	return orderView{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	items := make([]application.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, application.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.service.CreateOrder(ctx, application.CreateOrderInput{
		UserID:          req.UserID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		AuthToken:       bearerToken(r),
	})
	if err != nil {
		h.writeServiceError(w, err, "Server error during order creation")
		return
	}

	writeJSON(w, http.StatusCreated, successBody("Order created successfully", map[string]any{"order": viewOf(order)}))
}

func (h *Handler) getUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	result, err := h.service.ListUserOrders(r.Context(), userID, page, limit)
	if err != nil {
		h.writeServiceError(w, err, "Server error")
		return
	}

	views := make([]orderView, 0, len(result.Orders))
	for _, o := range result.Orders {
		views = append(views, viewOf(o))
	}
	writeJSON(w, http.StatusOK, successBody("", map[string]any{
		"orders": views,
		"pagination": map[string]any{
			"page":  result.Page,
			"limit": result.Limit,
			"total": result.Total,
			"pages": int(math.Ceil(float64(result.Total) / float64(result.Limit))),
		},
	}))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, successBody("", map[string]any{"order": viewOf(order)}))
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(req.Status))
	if err != nil {
		h.writeServiceError(w, err, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, successBody("Order status updated successfully", map[string]any{"order": viewOf(order)}))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CancelOrder")
	defer span.End()

	order, err := h.service.CancelOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, successBody("Order cancelled successfully", map[string]any{"order": viewOf(order)}))
}

// writeServiceError maps the workflow error taxonomy onto the response
// envelope. Anything unrecognized is a 500 with the fallback message.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var (
		productErr *domain.ProductVerificationError
		stockErr   *domain.InsufficientStockError
		transErr   *domain.InvalidTransitionError
	)
	switch {
	case errors.Is(err, domain.ErrEmptyOrder) || errors.Is(err, domain.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, domain.ErrUserVerification):
		writeJSON(w, http.StatusBadRequest, errorBody("User verification failed"))
	case errors.As(err, &productErr):
		writeJSON(w, http.StatusBadRequest, errorBody(productErr.Error()))
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusBadRequest, errorBody(stockErr.Error()))
	case errors.Is(err, domain.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("Order not found"))
	case errors.As(err, &transErr):
		writeJSON(w, http.StatusBadRequest, errorBody("Order cannot be cancelled"))
	case errors.Is(err, domain.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid status"))
	default:
		h.log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody(fallback))
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return ""
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}

func successBody(message string, data map[string]any) map[string]any {
	body := map[string]any{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	return body
}

func errorBody(message string) map[string]any {
	return map[string]any{"success": false, "message": message}
}

func writeJSON(w http.ResponseWriter, code int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
