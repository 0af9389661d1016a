package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/vaanya-sarees/storefront/internal/orders"
	"github.com/vaanya-sarees/storefront/internal/redisx"
)

// orderStore is the slice of the orders repo the storefront handlers use.
type orderStore interface {
	CreateCheckout(ctx context.Context, clientRef, userID string, items []orders.ItemInput) (string, int64, bool, error)
	GetOrderStatus(ctx context.Context, orderID string) (orders.Status, error)
}

type CheckoutHandler struct {
	Repo      orderStore
	Redis     *redis.Client
	JWTSecret []byte
}

type CheckoutReq struct {
	ClientRef string             `json:"client_ref"`
	Items     []orders.ItemInput `json:"items"`
}

type CheckoutResp struct {
	OrderID    string `json:"order_id"`
	TotalPaise int64  `json:"total_paise"`
	Currency   string `json:"currency"`
	Idempotent bool   `json:"idempotent"`
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Group(func(g chi.Router) {
		g.Use(BearerAuth(h.JWTSecret))
		g.Post("/checkout", h.createCheckout)
	})
	r.Get("/orders/{id}", h.getOrder)
}

func (h *CheckoutHandler) createCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ClientRef == "" || len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}
	userID := UserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Redis fast path for replays; the client_ref unique constraint in the
	// DB stays the source of truth when the key is gone.
	idemKey := fmt.Sprintf(redisx.KeyIdemCheckout, req.ClientRef)
	if s, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && s != "" {
		var resp CheckoutResp
		if json.Unmarshal([]byte(s), &resp) == nil && resp.OrderID != "" {
			resp.Idempotent = true
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	orderID, total, existed, err := h.Repo.CreateCheckout(ctx, req.ClientRef, userID, req.Items)
	switch {
	case errors.Is(err, orders.ErrUnknownSKU), errors.Is(err, orders.ErrInvalidQty):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, orders.ErrOutOfStock):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := CheckoutResp{OrderID: orderID, TotalPaise: total, Currency: "INR", Idempotent: existed}
	if b, err := json.Marshal(resp); err == nil {
		_ = h.Redis.Set(ctx, idemKey, b, redisx.TTLIdempotency).Err()
	}

	code := http.StatusCreated
	if existed {
		// replayed checkout may already be paid; leave the status cache alone
		code = http.StatusOK
	} else {
		statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		_ = h.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, orders.StatusPending), redisx.TTLStatusCache).Err()
	}
	writeJSON(w, code, resp)
}

func (h *CheckoutHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	status, err := h.Repo.GetOrderStatus(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	body := map[string]any{"status": status}
	b, _ := json.Marshal(body)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
