// Package catalog is the HTTP client for the product catalog collaborator.
// Reads return a snapshot of price and stock at call time; stock mutations
// apply a signed delta with no reservation or two-phase protocol.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zoubamaryem/ecommerce-microservices/internal/order/domain"
)

const callTimeout = 5 * time.Second

type Client struct {
	log     *slog.Logger
	client  *http.Client
	baseURL string
}

func NewClient(log *slog.Logger, baseURL string) *Client {
	return &Client{
		log:     log,
		client:  &http.Client{},
		baseURL: baseURL,
	}
}

type productEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Product struct {
			ID    string          `json:"id"`
			Name  string          `json:"name"`
			Price decimal.Decimal `json:"price"`
			Stock int             `json:"stock"`
		} `json:"product"`
	} `json:"data"`
}

func (c *Client) VerifyProduct(ctx context.Context, productID string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/products/%s", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Product{}, err
	}
	return c.product(req, productID)
}

// AdjustStock applies a signed quantity change at the catalog: negative to
// reserve, positive to restore. The catalog itself rejects a delta that would
// take stock below zero.
func (c *Client) AdjustStock(ctx context.Context, productID string, delta int) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]int{"quantity": delta})
	if err != nil {
		return domain.Product{}, err
	}
	url := fmt.Sprintf("%s/api/products/%s/stock", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return domain.Product{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	product, err := c.product(req, productID)
	if err != nil {
		return domain.Product{}, &domain.StockAdjustmentError{ProductID: productID, Delta: delta, Err: err}
	}
	return product, nil
}

func (c *Client) product(req *http.Request, productID string) (domain.Product, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("catalog request failed", "product_id", productID, "err", err)
		return domain.Product{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("catalog request rejected", "product_id", productID, "status", resp.StatusCode)
		return domain.Product{}, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}

	var envelope productEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return domain.Product{}, fmt.Errorf("decode catalog response: %w", err)
	}
	p := envelope.Data.Product
	return domain.Product{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock}, nil
}
