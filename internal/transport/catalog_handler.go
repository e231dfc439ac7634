package transport

import (
	"net/http"
	"net/url"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler handles HTTP requests for categories and products
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{slug}", h.GetCategory)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/slug/{slug}", h.GetProductBySlug)
		r.Get("/{id}", h.GetProduct)
	})
}

// ListCategories returns every category
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "list categories")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// GetCategory returns one category by slug
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.GetCategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "get category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// ListProducts returns products matching the query string filters
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, errs := parseProductFilter(r.URL.Query())
	if len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs)
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "list products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// GetProduct returns one product by numeric id
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.catalog.GetProductByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "get product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// GetProductBySlug returns one product by slug
func (h *CatalogHandler) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondWithServiceError(w, h.logger, err, "get product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// parseProductFilter reads category, type, search, featured, onSale,
// priceMin, priceMax and brands (repeatable, also as brands[]).
// featured and onSale only restrict when set to "true".
func parseProductFilter(q url.Values) (domain.ProductFilter, []middleware.ValidationError) {
	var errs []middleware.ValidationError
	filter := domain.ProductFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
		Featured: q.Get("featured") == "true",
		OnSale:   q.Get("onSale") == "true",
	}

	if t := q.Get("type"); t != "" {
		filter.Type = domain.ProductType(t)
		if !filter.Type.Valid() {
			errs = append(errs, middleware.ValidationError{Field: "type", Message: "Value must be one of: physical, digital"})
		}
	}

	for _, bound := range []struct {
		key    string
		target **domain.Money
	}{
		{"priceMin", &filter.PriceMin},
		{"priceMax", &filter.PriceMax},
	} {
		raw := q.Get(bound.key)
		if raw == "" {
			continue
		}
		m, err := domain.ParseMoney(raw)
		if err != nil {
			errs = append(errs, middleware.ValidationError{Field: bound.key, Message: "Value must be a decimal number"})
			continue
		}
		*bound.target = &m
	}

	for _, key := range []string{"brands", "brands[]"} {
		for _, b := range q[key] {
			if b = strings.TrimSpace(b); b != "" {
				filter.Brands = append(filter.Brands, b)
			}
		}
	}

	return filter, errs
}
