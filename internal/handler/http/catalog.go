package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/plantstore/internal/repository"
	"github.com/utafrali/plantstore/internal/service"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
	"github.com/utafrali/plantstore/pkg/httputil"
)

// CatalogHandler handles HTTP requests for product endpoints.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: svc, logger: logger}
}

// List handles GET /api/v1/products
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	products, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, products)
}

// Featured handles GET /api/v1/products/featured
func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Featured(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, products)
}

// Get handles GET /api/v1/products/{productId}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetDetail(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, detail)
}

func parseProductFilter(r *http.Request) (repository.ProductFilter, error) {
	q := r.URL.Query()
	filter := repository.ProductFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Color:    q.Get("color"),
	}

	var err error
	if filter.MinPrice, err = priceParam(q.Get("min_price"), "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = priceParam(q.Get("max_price"), "max_price"); err != nil {
		return filter, err
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return filter, apperrors.InvalidInput("min_price must not exceed max_price")
	}
	return filter, nil
}

func priceParam(raw, name string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return &v, nil
}
