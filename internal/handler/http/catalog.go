package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/search"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/service"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/httputil"
)

// CatalogHandler serves the public product and collection endpoints.
type CatalogHandler struct {
	products    *service.ProductService
	collections *service.CollectionService
	logger      *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(products *service.ProductService, collections *service.CollectionService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		products:    products,
		collections: collections,
		logger:      logger,
	}
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, ok := parseSearchQuery(w, r)
	if !ok {
		return
	}

	res, err := h.products.Search(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(res.Products, res.Total, res.Page, res.PerPage))
}

// GetProduct handles GET /api/v1/products/{slug}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetPublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// ListCollections handles GET /api/v1/collections
func (h *CatalogHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.collections.ListCollections(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, collections)
}

// GetCollection handles GET /api/v1/collections/{slug}
func (h *CatalogHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	detail, err := h.collections.GetCollectionDetail(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, detail)
}

func parseSearchQuery(w http.ResponseWriter, r *http.Request) (*search.Query, bool) {
	v := r.URL.Query()
	q := &search.Query{
		Text:         v.Get("q"),
		CollectionID: v.Get("collection"),
		Brand:        v.Get("brand"),
		Gender:       domain.Gender(v.Get("gender")),
		Sort:         v.Get("sort"),
		InStock:      httputil.QueryBool(r, "in_stock"),
		Featured:     httputil.QueryBool(r, "featured"),
	}

	page, ok := pageParams(w, r)
	if !ok {
		return nil, false
	}
	q.Page, q.PerPage = page.Page, page.PerPage

	for _, bound := range []struct {
		key string
		dst **int64
	}{
		{"min_price", &q.MinPrice},
		{"max_price", &q.MaxPrice},
	} {
		raw := v.Get(bound.key)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			writeInvalidParameter(w, bound.key+" must be a non-negative integer in minor units")
			return nil, false
		}
		*bound.dst = &n
	}
	return q, true
}
