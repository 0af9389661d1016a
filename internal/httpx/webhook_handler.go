package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vaanya-sarees/storefront/internal/payments"
)

// PaymentProcessor reconciles a verified webhook event.
type PaymentProcessor interface {
	Process(ctx context.Context, ev payments.Event, traceID string) error
}

type WebhookHandler struct {
	Secret    []byte
	Processor PaymentProcessor
}

func (h *WebhookHandler) Register(r *chi.Mux) {
	r.Post("/webhooks/payment", h.handle)
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	// verify before parsing anything
	if !payments.ValidSignature(h.Secret, body, r.Header.Get(payments.SignatureHeader)) {
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	ev, err := payments.ParseEvent(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	err = h.Processor.Process(ctx, ev, middleware.GetReqID(r.Context()))
	switch {
	case errors.Is(err, payments.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "unknown order")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
