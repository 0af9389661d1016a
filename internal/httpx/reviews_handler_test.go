package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vaanya-sarees/storefront/internal/catalog"
	"github.com/vaanya-sarees/storefront/internal/config"
	kafkax "github.com/vaanya-sarees/storefront/internal/kafka"
	"github.com/vaanya-sarees/storefront/internal/orders"
	"github.com/vaanya-sarees/storefront/internal/redisx"
	"github.com/vaanya-sarees/storefront/internal/reviews"
)

type stubReviewStore struct {
	createErr error
	created   []reviews.Review
}

func (s *stubReviewStore) Create(ctx context.Context, rev reviews.Review) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, rev)
	return nil
}

func (s *stubReviewStore) VerifiedPurchase(ctx context.Context, userID, productID string) (bool, error) {
	return true, nil
}

func (s *stubReviewStore) ListApproved(ctx context.Context, productID string, limit int) ([]reviews.Review, error) {
	return nil, nil
}

type stubCatalog struct{ product catalog.Product }

func (s *stubCatalog) GetBySlug(ctx context.Context, slug string) (catalog.Product, error) {
	if s.product.Slug != slug {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return s.product, nil
}

func newReviewsHandler(t *testing.T, store *stubReviewStore) (*ReviewsHandler, *stubReviewStore) {
	t.Helper()
	rules, err := config.LoadModerationRules("")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	_, rdb := newTestRedis(t)
	return &ReviewsHandler{
		Reviews:   store,
		Catalog:   &stubCatalog{product: catalog.Product{ID: "prod_1", Slug: "silk-kanjivaram"}},
		Redis:     rdb,
		Producer:  kafkax.NewProducer([]string{"localhost:9092"}, orders.TopicReviewSubmitted, 16),
		Rules:     rules,
		JWTSecret: []byte("jwt-secret"),
		Service:   "storefront-test",
	}, store
}

func postReview(t *testing.T, h *ReviewsHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := NewRouter()
	h.Register(r)

	token := signToken(t, h.JWTSecret, jwt.MapClaims{
		"sub":  "usr_1",
		"role": "customer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodPost, "/products/silk-kanjivaram/reviews", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func throttleKeyFor(userID, productID string) string {
	return fmt.Sprintf(redisx.KeyReviewThrottle, userID, productID)
}

func TestSubmitReviewConsumesThrottleOnSuccess(t *testing.T) {
	h, store := newReviewsHandler(t, &stubReviewStore{})
	body := `{"rating":5,"title":"Lovely","body":"Rich zari border, drapes beautifully."}`

	rec := postReview(t, h, body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one stored review, got %d", len(store.created))
	}
	key := throttleKeyFor("usr_1", "prod_1")
	if n, err := h.Redis.Exists(context.Background(), key).Result(); err != nil || n == 0 {
		t.Fatalf("throttle key should be set after a stored review (n=%d, err=%v)", n, err)
	}

	rec = postReview(t, h, body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second submission in the window: expected 429, got %d", rec.Code)
	}
	if len(store.created) != 1 {
		t.Fatalf("throttled submission must not reach the store, got %d", len(store.created))
	}
}

func TestSubmitReviewFailureLeavesThrottleOpen(t *testing.T) {
	h, store := newReviewsHandler(t, &stubReviewStore{createErr: reviews.ErrDuplicateReview})
	body := `{"rating":4,"title":"Again","body":"Trying to review twice."}`

	rec := postReview(t, h, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate review: expected 409, got %d", rec.Code)
	}
	key := throttleKeyFor("usr_1", "prod_1")
	if n, _ := h.Redis.Exists(context.Background(), key).Result(); n != 0 {
		t.Fatal("failed submission must not consume the throttle window")
	}

	store.createErr = errors.New("connection reset")
	if rec := postReview(t, h, body); rec.Code != http.StatusInternalServerError {
		t.Fatalf("transient failure: expected 500, got %d", rec.Code)
	}
	if n, _ := h.Redis.Exists(context.Background(), key).Result(); n != 0 {
		t.Fatal("transient failure must not consume the throttle window")
	}

	// retry after the failure goes through
	store.createErr = nil
	if rec := postReview(t, h, body); rec.Code != http.StatusAccepted {
		t.Fatalf("retry after failure: expected 202, got %d", rec.Code)
	}
}
