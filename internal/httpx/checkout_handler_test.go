package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/vaanya-sarees/storefront/internal/orders"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	return srv, redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

type stubOrderStore struct {
	orderID string
	total   int64
	existed bool
	err     error
	calls   int
}

func (s *stubOrderStore) CreateCheckout(ctx context.Context, clientRef, userID string, items []orders.ItemInput) (string, int64, bool, error) {
	s.calls++
	return s.orderID, s.total, s.existed, s.err
}

func (s *stubOrderStore) GetOrderStatus(ctx context.Context, orderID string) (orders.Status, error) {
	return orders.StatusPending, nil
}

func postCheckout(t *testing.T, h *CheckoutHandler, secret []byte, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := NewRouter()
	h.Register(r)

	token := signToken(t, secret, jwt.MapClaims{
		"sub":  "usr_1",
		"role": "customer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCheckoutReplayServedFromIdempotencyKey(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := &stubOrderStore{orderID: "ord_1", total: 549900}
	secret := []byte("jwt-secret")
	h := &CheckoutHandler{Repo: store, Redis: rdb, JWTSecret: secret}
	body := `{"client_ref":"ref-1","items":[{"sku":"SAR-KANJI-RED-1","qty":1}]}`

	rec := postCheckout(t, h, secret, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first checkout: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.calls != 1 {
		t.Fatalf("expected one store call, got %d", store.calls)
	}

	rec = postCheckout(t, h, secret, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("replay: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp CheckoutResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode replay response: %v", err)
	}
	if !resp.Idempotent || resp.OrderID != "ord_1" || resp.TotalPaise != 549900 {
		t.Fatalf("unexpected replay response: %+v", resp)
	}
	if store.calls != 1 {
		t.Fatalf("replay must not hit the store, got %d calls", store.calls)
	}
}

func TestCheckoutFallsBackToStoreWhenKeyExpired(t *testing.T) {
	srv, rdb := newTestRedis(t)
	store := &stubOrderStore{orderID: "ord_2", total: 129900}
	secret := []byte("jwt-secret")
	h := &CheckoutHandler{Repo: store, Redis: rdb, JWTSecret: secret}
	body := `{"client_ref":"ref-2","items":[{"sku":"SAR-COTTON-BLUE-1","qty":2}]}`

	rec := postCheckout(t, h, secret, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	// cache gone; the DB unique constraint reports the replay instead
	srv.FlushAll()
	store.existed = true
	rec = postCheckout(t, h, secret, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("replay after cache loss: expected 200, got %d", rec.Code)
	}
	var resp CheckoutResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Idempotent {
		t.Fatalf("store-reported replay must be idempotent: %+v", resp)
	}
	if store.calls != 2 {
		t.Fatalf("expected store fallback after cache loss, got %d calls", store.calls)
	}
}
