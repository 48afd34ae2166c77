package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoubamaryem/ecommerce-microservices/internal/order/application"
	"github.com/zoubamaryem/ecommerce-microservices/internal/order/domain"
)

type stubRepo struct {
	orders map[string]domain.Order
}

func (r *stubRepo) CreateWithOutbox(_ context.Context, o domain.Order, _ string, _ []byte, _ string) error {
	r.orders[o.ID] = o
	return nil
}

func (r *stubRepo) GetByID(_ context.Context, id string) (domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (r *stubRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *stubRepo) CountByUser(_ context.Context, userID string) (int, error) {
	n := 0
	for _, o := range r.orders {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *stubRepo) UpdateStatusWithOutbox(_ context.Context, id string, status domain.OrderStatus, _ string, _ []byte, _ string) (domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	r.orders[id] = o
	return o, nil
}

type stubIdentity struct{ err error }

func (c *stubIdentity) VerifyUser(_ context.Context, userID, _ string) (domain.User, error) {
	if c.err != nil {
		return domain.User{}, c.err
	}
	return domain.User{ID: userID, Email: "u@example.com", Role: "customer"}, nil
}

type stubCatalog struct{ products map[string]domain.Product }

func (c *stubCatalog) VerifyProduct(_ context.Context, productID string) (domain.Product, error) {
	p, ok := c.products[productID]
	if !ok {
		return domain.Product{}, errors.New("catalog service returned status 404")
	}
	return p, nil
}

func (c *stubCatalog) AdjustStock(_ context.Context, productID string, delta int) (domain.Product, error) {
	p := c.products[productID]
	p.Stock += delta
	c.products[productID] = p
	return p, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(identityErr error) (http.Handler, *stubRepo) {
	repo := &stubRepo{orders: make(map[string]domain.Order)}
	catalog := &stubCatalog{products: map[string]domain.Product{
		"p1": {ID: "p1", Name: "Widget", Price: decimal.RequireFromString("10.00"), Stock: 5},
	}}
	svc := application.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, &stubIdentity{err: identityErr}, catalog)
	return NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).Routes(), repo
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func createReq() map[string]any {
	return map[string]any{
		"userId": "u1",
		"items": []map[string]any{
			{"productId": "p1", "quantity": 2},
		},
		"shippingAddress": map[string]any{"city": "Casablanca"},
		"paymentMethod":   "card",
	}
}

func createdOrderID(t *testing.T, env envelope) string {
	t.Helper()
	var data struct {
		Order orderView `json:"order"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Order.ID
}

func TestCreateOrderEndpoint(t *testing.T) {
	router, _ := newTestRouter(nil)

	rec, env := doJSON(t, router, http.MethodPost, "/", createReq())

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Order created successfully", env.Message)

	var data struct {
		Order orderView `json:"order"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "pending", data.Order.Status)
	assert.True(t, data.Order.TotalAmount.Equal(decimal.RequireFromString("20.00")))
	assert.JSONEq(t, `{"city":"Casablanca"}`, string(data.Order.ShippingAddress))
}

func TestCreateOrderEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(nil)

	body := createReq()
	body["items"] = []map[string]any{}
	rec, env := doJSON(t, router, http.MethodPost, "/", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestCreateOrderEndpointUserVerificationFailure(t *testing.T) {
	router, repo := newTestRouter(errors.New("identity service returned status 401"))

	rec, env := doJSON(t, router, http.MethodPost, "/", createReq())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User verification failed", env.Message)
	assert.Empty(t, repo.orders)
}

func TestCreateOrderEndpointInsufficientStock(t *testing.T) {
	router, repo := newTestRouter(nil)

	body := createReq()
	body["items"] = []map[string]any{{"productId": "p1", "quantity": 99}}
	rec, env := doJSON(t, router, http.MethodPost, "/", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient stock for product: Widget", env.Message)
	assert.Empty(t, repo.orders)
}

func TestGetOrderEndpoint(t *testing.T) {
	router, _ := newTestRouter(nil)

	_, created := doJSON(t, router, http.MethodPost, "/", createReq())
	id := createdOrderID(t, created)

	rec, env := doJSON(t, router, http.MethodGet, "/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, env = doJSON(t, router, http.MethodGet, "/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", env.Message)
}

func TestGetUserOrdersEndpoint(t *testing.T) {
	router, _ := newTestRouter(nil)

	_, _ = doJSON(t, router, http.MethodPost, "/", createReq())
	_, _ = doJSON(t, router, http.MethodPost, "/", createReq())

	rec, env := doJSON(t, router, http.MethodGet, "/user/u1?page=1&limit=1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Orders     []orderView `json:"orders"`
		Pagination struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
			Pages int `json:"pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.Orders, 2) // stub repo ignores paging; metadata is what matters here
	assert.Equal(t, 1, data.Pagination.Page)
	assert.Equal(t, 1, data.Pagination.Limit)
	assert.Equal(t, 2, data.Pagination.Total)
	assert.Equal(t, 2, data.Pagination.Pages)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	router, _ := newTestRouter(nil)

	_, created := doJSON(t, router, http.MethodPost, "/", createReq())
	id := createdOrderID(t, created)

	rec, env := doJSON(t, router, http.MethodPut, "/"+id+"/status", map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Order status updated successfully", env.Message)

	rec, env = doJSON(t, router, http.MethodPut, "/"+id+"/status", map[string]string{"status": "refunded"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid status", env.Message)
}

func TestCancelOrderEndpoint(t *testing.T) {
	router, _ := newTestRouter(nil)

	_, created := doJSON(t, router, http.MethodPost, "/", createReq())
	id := createdOrderID(t, created)

	rec, env := doJSON(t, router, http.MethodDelete, "/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Order cancelled successfully", env.Message)

	// Already cancelled: guarded path rejects without mutating.
	rec, env = doJSON(t, router, http.MethodDelete, "/"+id, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Order cannot be cancelled", env.Message)

	rec, env = doJSON(t, router, http.MethodDelete, "/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", env.Message)
}
