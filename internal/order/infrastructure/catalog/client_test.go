package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoubamaryem/ecommerce-microservices/internal/order/domain"
)

func productJSON(stock int) string {
	return `{"success":true,"data":{"product":{"id":"p1","name":"Widget","price":10.50,"stock":` + jsonInt(stock) + `}}}`
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestVerifyProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/products/p1", r.URL.Path)
		_, _ = w.Write([]byte(productJSON(5)))
	}))
	defer srv.Close()

	c := NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.URL)

	product, err := c.VerifyProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	assert.Equal(t, "Widget", product.Name)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("10.50")))
	assert.Equal(t, 5, product.Stock)
}

func TestVerifyProductNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.URL)
	_, err := c.VerifyProduct(context.Background(), "p1")
	assert.Error(t, err)
}

func TestAdjustStock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/products/p1/stock", r.URL.Path)

		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, -3, body["quantity"])

		_, _ = w.Write([]byte(productJSON(2)))
	}))
	defer srv.Close()

	c := NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.URL)

	product, err := c.AdjustStock(context.Background(), "p1", -3)
	require.NoError(t, err)
	assert.Equal(t, 2, product.Stock)
}

func TestAdjustStockFailureIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// The catalog rejects deltas that would take stock below zero.
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.URL)

	_, err := c.AdjustStock(context.Background(), "p1", -10)
	var adjErr *domain.StockAdjustmentError
	require.ErrorAs(t, err, &adjErr)
	assert.Equal(t, "p1", adjErr.ProductID)
	assert.Equal(t, -10, adjErr.Delta)
}

func TestAdjustStockNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	c := NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.URL)

	_, err := c.AdjustStock(context.Background(), "p1", 2)
	var adjErr *domain.StockAdjustmentError
	assert.ErrorAs(t, err, &adjErr)
}
