package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/service"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/httputil"
)

// CartHandler serves the session cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// AddItemRequest is the JSON body for adding a cart item.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1,max=99"`
}

// UpdateItemRequest is the JSON body for changing a line quantity. Zero
// removes the line.
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=99"`
}

// --- Response DTOs ---

// CartResponse is a cart with its derived totals.
type CartResponse struct {
	Lines      []domain.CartLine `json:"lines"`
	TotalItems int               `json:"total_items"`
	Subtotal   int64             `json:"subtotal"`
	Currency   string            `json:"currency"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// RefreshResponse is a refreshed cart with the lines that changed.
type RefreshResponse struct {
	CartResponse
	Removed []string `json:"removed"`
	Clamped []string `json:"clamped"`
}

func newCartResponse(c *domain.Cart) CartResponse {
	lines := c.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return CartResponse{
		Lines:      lines,
		TotalItems: c.TotalItems(),
		Subtotal:   c.Subtotal(),
		Currency:   c.Currency,
		UpdatedAt:  c.UpdatedAt,
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), SessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(cart))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.service.AddItem(r.Context(), SessionIDFromContext(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(cart))
}

// UpdateItem handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	var req UpdateItemRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), SessionIDFromContext(r.Context()), productID.String(), *req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(cart))
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), SessionIDFromContext(r.Context()), productID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(cart))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.ClearCart(r.Context(), SessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(cart))
}

// RefreshCart handles POST /api/v1/cart/refresh
func (h *CartHandler) RefreshCart(w http.ResponseWriter, r *http.Request) {
	cart, res, err := h.service.RefreshCart(r.Context(), SessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	resp := RefreshResponse{CartResponse: newCartResponse(cart), Removed: res.Removed, Clamped: res.Clamped}
	if resp.Removed == nil {
		resp.Removed = []string{}
	}
	if resp.Clamped == nil {
		resp.Clamped = []string{}
	}
	httputil.WriteData(w, http.StatusOK, resp)
}
