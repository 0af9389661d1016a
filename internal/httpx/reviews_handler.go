package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/vaanya-sarees/storefront/internal/catalog"
	"github.com/vaanya-sarees/storefront/internal/config"
	kafkax "github.com/vaanya-sarees/storefront/internal/kafka"
	"github.com/vaanya-sarees/storefront/internal/orders"
	"github.com/vaanya-sarees/storefront/internal/redisx"
	"github.com/vaanya-sarees/storefront/internal/reviews"
)

// reviewStore is the slice of the reviews repo the storefront handlers use.
type reviewStore interface {
	Create(ctx context.Context, rev reviews.Review) error
	VerifiedPurchase(ctx context.Context, userID, productID string) (bool, error)
	ListApproved(ctx context.Context, productID string, limit int) ([]reviews.Review, error)
}

// productGetter resolves a slug to a product.
type productGetter interface {
	GetBySlug(ctx context.Context, slug string) (catalog.Product, error)
}

type ReviewsHandler struct {
	Reviews   reviewStore
	Catalog   productGetter
	Redis     *redis.Client
	Producer  *kafkax.Producer // publishes review.submitted
	Rules     config.ModerationRules
	JWTSecret []byte
	Service   string
}

type SubmitReviewReq struct {
	Rating          int    `json:"rating"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	ImageCount      int    `json:"image_count"`
	ImageBytesTotal int64  `json:"image_bytes_total"`
}

func (h *ReviewsHandler) Register(r *chi.Mux) {
	r.Get("/products/{slug}/reviews", h.listReviews)
	r.Group(func(g chi.Router) {
		g.Use(BearerAuth(h.JWTSecret))
		g.Post("/products/{slug}/reviews", h.submitReview)
	})
}

func (h *ReviewsHandler) submitReview(w http.ResponseWriter, r *http.Request) {
	var req SubmitReviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be 1..5")
		return
	}
	if req.ImageCount < 0 || req.ImageBytesTotal < 0 {
		writeError(w, http.StatusBadRequest, "invalid image metadata")
		return
	}
	userID := UserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	product, err := h.Catalog.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// one submission per user/product per window
	throttleKey := fmt.Sprintf(redisx.KeyReviewThrottle, userID, product.ID)
	if seen, err := redisx.Exists(ctx, h.Redis, throttleKey); err == nil && seen {
		writeError(w, http.StatusTooManyRequests, "review already submitted recently")
		return
	}

	verified, err := h.Reviews.VerifiedPurchase(ctx, userID, product.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rev := reviews.Review{
		ID:               uuid.NewString(),
		ProductID:        product.ID,
		UserID:           userID,
		Rating:           req.Rating,
		Title:            req.Title,
		Body:             req.Body,
		ImageCount:       req.ImageCount,
		ImageBytesTotal:  req.ImageBytesTotal,
		VerifiedPurchase: verified,
	}
	if err := h.Reviews.Create(ctx, rev); err != nil {
		if errors.Is(err, reviews.ErrDuplicateReview) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// consume the window only once the review is stored so a failed
	// submission can be retried
	_ = h.Redis.Set(ctx, throttleKey, "1", h.Rules.ThrottleWindow.Std()).Err()

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventReviewSubmitted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       middleware.GetReqID(r.Context()),
		CorrelationID: rev.ID,
		Payload: kafkax.MustMarshal(orders.ReviewSubmittedPayload{
			ReviewID:         rev.ID,
			ProductID:        rev.ProductID,
			UserID:           rev.UserID,
			Rating:           rev.Rating,
			Title:            rev.Title,
			Body:             rev.Body,
			ImageCount:       rev.ImageCount,
			ImageBytesTotal:  rev.ImageBytesTotal,
			VerifiedPurchase: rev.VerifiedPurchase,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(rev.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventReviewSubmitted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusAccepted, map[string]string{"review_id": rev.ID, "status": string(reviews.StatusPending)})
}

func (h *ReviewsHandler) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	product, err := h.Catalog.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.Reviews.ListApproved(ctx, product.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list})
}
