// Package identity is the HTTP client for the identity collaborator. Lookups
// are single-attempt and timeout-bounded; any non-success response, timeout
// or transport failure is reported uniformly as a verification failure.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

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

type userEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	} `json:"data"`
}

func (c *Client) VerifyUser(ctx context.Context, userID, token string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/users/%s", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("identity lookup failed", "user_id", userID, "err", err)
		return domain.User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("identity lookup rejected", "user_id", userID, "status", resp.StatusCode)
		return domain.User{}, fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}

	var envelope userEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return domain.User{}, fmt.Errorf("decode identity response: %w", err)
	}
	u := envelope.Data.User
	return domain.User{ID: u.ID, Email: u.Email, Role: u.Role}, nil
}
