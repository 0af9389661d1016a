package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/tealeg/xlsx"

	"github.com/vaanya-sarees/storefront/internal/catalog"
	kafkax "github.com/vaanya-sarees/storefront/internal/kafka"
	"github.com/vaanya-sarees/storefront/internal/orders"
	"github.com/vaanya-sarees/storefront/internal/payments"
	"github.com/vaanya-sarees/storefront/internal/reviews"
)

type AdminHandler struct {
	Reviews   *reviews.Repo
	Catalog   *catalog.Repo
	Orders    *orders.Repo
	Payments  *payments.Service
	Moderated *kafkax.Producer // publishes review.moderated for manual decisions
	Feed      *Feed
	JWTSecret []byte
	Service   string
}

func (h *AdminHandler) Register(r *chi.Mux) {
	r.Route("/admin", func(g chi.Router) {
		g.Use(BearerAuth(h.JWTSecret), AdminOnly)
		g.Get("/reviews", h.listQueue)
		g.Post("/reviews/{id}/decision", h.decideReview)
		g.Get("/inventory/low-stock", h.lowStock)
		g.Get("/orders/export", h.exportOrders)
		g.Post("/orders/{id}/resolve", h.resolveOrder)
		g.Get("/orders/feed", h.Feed.Serve)
	})
}

func (h *AdminHandler) listQueue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := reviews.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = reviews.StatusManualReview
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.Reviews.ListByStatus(ctx, status, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list})
}

func (h *AdminHandler) decideReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	var status reviews.Status
	switch req.Action {
	case "approve":
		status = reviews.StatusApproved
	case "reject":
		status = reviews.StatusRejected
	default:
		writeError(w, http.StatusBadRequest, "action must be approve or reject")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rev, err := h.Reviews.Decide(ctx, chi.URLParam(r, "id"), status)
	switch {
	case errors.Is(err, reviews.ErrReviewNotFound):
		writeError(w, http.StatusNotFound, "not found")
		return
	case errors.Is(err, reviews.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var score float64
	if rev.RiskScore != nil {
		score = *rev.RiskScore
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventReviewModerated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       middleware.GetReqID(r.Context()),
		CorrelationID: rev.ID,
		Payload: kafkax.MustMarshal(orders.ReviewModeratedPayload{
			ReviewID:  rev.ID,
			ProductID: rev.ProductID,
			Status:    string(rev.Status),
			RiskScore: score,
			Reasons:   append(rev.VerdictReasons, "manual_decision"),
		}),
	}
	h.Moderated.Publish(orders.PartitionKey(rev.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventReviewModerated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusOK, rev)
}

func (h *AdminHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Catalog.LowStock(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list})
}

func (h *AdminHandler) resolveOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, err := h.Payments.Resolve(ctx, chi.URLParam(r, "id"), req.Action, middleware.GetReqID(r.Context()))
	switch {
	case errors.Is(err, payments.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "not found")
		return
	case errors.Is(err, orders.ErrBadTransition):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status})
}

func (h *AdminHandler) exportOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.Orders.ExportRows(ctx, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	file, err := buildOrdersWorkbook(rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=orders.xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := file.Write(w); err != nil {
		// headers already sent; nothing sensible left to do
		return
	}
}

func buildOrdersWorkbook(rows []orders.ExportRow) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}

	headers := []string{
		"OrderID", "ClientRef", "UserID", "Status", "TotalPaise", "Currency",
		"SKU", "Qty", "PricePaise", "CreatedAt",
	}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().SetValue(h)
	}

	for _, e := range rows {
		row := sheet.AddRow()
		row.AddCell().SetValue(e.OrderID)
		row.AddCell().SetValue(e.ClientRef)
		row.AddCell().SetValue(e.UserID)
		row.AddCell().SetValue(string(e.Status))
		row.AddCell().SetValue(e.TotalPaise)
		row.AddCell().SetValue(e.Currency)
		row.AddCell().SetValue(e.SKU)
		row.AddCell().SetValue(e.Qty)
		row.AddCell().SetValue(e.PricePaise)
		row.AddCell().SetValue(e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}
