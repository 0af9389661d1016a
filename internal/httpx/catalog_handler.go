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
	"github.com/redis/go-redis/v9"

	"github.com/vaanya-sarees/storefront/internal/catalog"
	"github.com/vaanya-sarees/storefront/internal/redisx"
)

type CatalogHandler struct {
	Repo  *catalog.Repo
	Redis *redis.Client
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{slug}", h.getProduct)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, err := h.Repo.ListProducts(ctx, catalog.ListFilter{
		Fabric:   r.URL.Query().Get("fabric"),
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Cursor:   r.URL.Query().Get("cursor"),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first, DB fallback
	key := fmt.Sprintf(redisx.KeyProductCache, slug)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	p, err := h.Repo.GetBySlug(ctx, slug)
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	b, _ := json.Marshal(p)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLProductCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
