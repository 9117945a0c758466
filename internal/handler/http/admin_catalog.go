package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/service"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/httputil"
)

// AdminCatalogHandler serves product and collection management.
type AdminCatalogHandler struct {
	products    *service.ProductService
	collections *service.CollectionService
	logger      *slog.Logger
}

// NewAdminCatalogHandler creates a new admin catalog HTTP handler.
func NewAdminCatalogHandler(products *service.ProductService, collections *service.CollectionService, logger *slog.Logger) *AdminCatalogHandler {
	return &AdminCatalogHandler{
		products:    products,
		collections: collections,
		logger:      logger,
	}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON body for creating a product.
type CreateProductRequest struct {
	Name          string   `json:"name" validate:"required,notblank,max=200"`
	Description   string   `json:"description" validate:"max=5000"`
	Brand         string   `json:"brand" validate:"max=120"`
	CollectionID  *string  `json:"collection_id" validate:"omitempty,uuid"`
	Gender        string   `json:"gender" validate:"omitempty,oneof=women men unisex"`
	VolumeML      int      `json:"volume_ml" validate:"gte=0,lte=5000"`
	Notes         []string `json:"notes" validate:"max=30,dive,notblank,max=60"`
	Price         int64    `json:"price" validate:"required,gt=0"`
	DiscountPrice *int64   `json:"discount_price" validate:"omitempty,gt=0"`
	Stock         int      `json:"stock" validate:"gte=0"`
	Images        []string `json:"images" validate:"max=12,dive,url"`
	Status        string   `json:"status" validate:"omitempty,oneof=draft published archived"`
	Featured      bool     `json:"featured"`
}

// UpdateProductRequest is the JSON body for updating a product. Absent
// fields are left unchanged; clear_discount and clear_collection remove
// the optional values.
type UpdateProductRequest struct {
	Name            *string  `json:"name" validate:"omitempty,notblank,max=200"`
	Description     *string  `json:"description" validate:"omitempty,max=5000"`
	Brand           *string  `json:"brand" validate:"omitempty,max=120"`
	CollectionID    *string  `json:"collection_id" validate:"omitempty,uuid"`
	ClearCollection bool     `json:"clear_collection"`
	Gender          *string  `json:"gender" validate:"omitempty,oneof=women men unisex"`
	VolumeML        *int     `json:"volume_ml" validate:"omitempty,gte=0,lte=5000"`
	Notes           []string `json:"notes" validate:"omitempty,max=30,dive,notblank,max=60"`
	Price           *int64   `json:"price" validate:"omitempty,gt=0"`
	DiscountPrice   *int64   `json:"discount_price" validate:"omitempty,gt=0"`
	ClearDiscount   bool     `json:"clear_discount"`
	Stock           *int     `json:"stock" validate:"omitempty,gte=0"`
	Images          []string `json:"images" validate:"omitempty,max=12,dive,url"`
	Status          *string  `json:"status" validate:"omitempty,oneof=draft published archived"`
	Featured        *bool    `json:"featured"`
}

// UpdateStockRequest is the JSON body for setting stock.
type UpdateStockRequest struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

// CollectionRequest is the JSON body for creating or replacing a collection.
type CollectionRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=120"`
	Description string `json:"description" validate:"max=2000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

// --- Products ---

// ListProducts handles GET /api/v1/admin/products
func (h *AdminCatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}
	filter := repository.ProductFilter{
		Query:   r.URL.Query().Get("q"),
		Page:    page.Page,
		PerPage: page.PerPage,
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.ProductStatus(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("collection_id"); v != "" {
		id, ok := httputil.ParseUUID(w, v)
		if !ok {
			return
		}
		s := id.String()
		filter.CollectionID = &s
	}

	products, total, err := h.products.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(products, total, page.Page, page.PerPage))
}

// GetProduct handles GET /api/v1/admin/products/{id}
func (h *AdminCatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	p, err := h.products.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// CreateProduct handles POST /api/v1/admin/products
func (h *AdminCatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	p, err := h.products.CreateProduct(r.Context(), &service.CreateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Brand:         req.Brand,
		CollectionID:  req.CollectionID,
		Gender:        domain.Gender(req.Gender),
		VolumeML:      req.VolumeML,
		Notes:         req.Notes,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
		Images:        req.Images,
		Status:        domain.ProductStatus(req.Status),
		Featured:      req.Featured,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, p)
}

// UpdateProduct handles PUT /api/v1/admin/products/{id}
func (h *AdminCatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req UpdateProductRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	input := &service.UpdateProductInput{
		Name:            req.Name,
		Description:     req.Description,
		Brand:           req.Brand,
		CollectionID:    req.CollectionID,
		ClearCollection: req.ClearCollection,
		VolumeML:        req.VolumeML,
		Notes:           req.Notes,
		Price:           req.Price,
		DiscountPrice:   req.DiscountPrice,
		ClearDiscount:   req.ClearDiscount,
		Stock:           req.Stock,
		Images:          req.Images,
		Featured:        req.Featured,
	}
	if req.Gender != nil {
		g := domain.Gender(*req.Gender)
		input.Gender = &g
	}
	if req.Status != nil {
		s := domain.ProductStatus(*req.Status)
		input.Status = &s
	}

	p, err := h.products.UpdateProduct(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// UpdateStock handles PATCH /api/v1/admin/products/{id}/stock
func (h *AdminCatalogHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req UpdateStockRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	p, err := h.products.UpdateStock(r.Context(), id.String(), *req.Stock)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /api/v1/admin/products/{id}
func (h *AdminCatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := h.products.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id.String(), "status": "deleted"})
}

// --- Collections ---

// ListCollections handles GET /api/v1/admin/collections
func (h *AdminCatalogHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.collections.ListCollections(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, collections)
}

// GetCollection handles GET /api/v1/admin/collections/{id}
func (h *AdminCatalogHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	c, err := h.collections.GetCollection(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, c)
}

// CreateCollection handles POST /api/v1/admin/collections
func (h *AdminCatalogHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CollectionRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	c, err := h.collections.CreateCollection(r.Context(), &service.CollectionInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, c)
}

// UpdateCollection handles PUT /api/v1/admin/collections/{id}
func (h *AdminCatalogHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req CollectionRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	c, err := h.collections.UpdateCollection(r.Context(), id.String(), &service.CollectionInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, c)
}

// DeleteCollection handles DELETE /api/v1/admin/collections/{id}
func (h *AdminCatalogHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := h.collections.DeleteCollection(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id.String(), "status": "deleted"})
}
