package idempotency

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewarePassesThroughWithoutKey(t *testing.T) {
	store := NewStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), time.Minute)
	called := false
	h := Middleware(slog.New(slog.NewTextHandler(io.Discard, nil)), store, "orders")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.True(t, called, "no Idempotency-Key means no guard")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareFailsOpenWhenStoreUnreachable(t *testing.T) {
	store := NewStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), time.Minute)
	called := false
	h := Middleware(slog.New(slog.NewTextHandler(io.Discard, nil)), store, "orders")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Idempotency-Key", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, called, "an unreachable store must not block orders")
}
