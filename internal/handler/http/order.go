package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/service"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/httputil"
)

// OrderHandler serves checkout and customer order lookup.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CustomerRequest identifies the buyer.
type CustomerRequest struct {
	Name  string `json:"name" validate:"required,notblank,max=200"`
	Email string `json:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" validate:"omitempty,max=40"`
}

// AddressRequest is a shipping address.
type AddressRequest struct {
	Line1      string `json:"line1" validate:"required,notblank,max=200"`
	Line2      string `json:"line2" validate:"omitempty,max=200"`
	City       string `json:"city" validate:"required,notblank,max=100"`
	State      string `json:"state" validate:"omitempty,max=100"`
	PostalCode string `json:"postal_code" validate:"required,notblank,max=20"`
	Country    string `json:"country" validate:"required,len=2,alpha"`
}

// CheckoutRequest is the JSON body for placing an order.
type CheckoutRequest struct {
	Customer        CustomerRequest `json:"customer" validate:"required"`
	ShippingAddress AddressRequest  `json:"shipping_address" validate:"required"`
	Notes           string          `json:"notes" validate:"omitempty,max=1000"`
}

// --- Handlers ---

// Checkout handles POST /api/v1/checkout
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	o, err := h.service.Checkout(r.Context(), SessionIDFromContext(r.Context()), &service.CheckoutInput{
		Customer: domain.Customer{
			Name:  strings.TrimSpace(req.Customer.Name),
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		ShippingAddress: domain.Address{
			Line1:      req.ShippingAddress.Line1,
			Line2:      req.ShippingAddress.Line2,
			City:       req.ShippingAddress.City,
			State:      req.ShippingAddress.State,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    strings.ToUpper(req.ShippingAddress.Country),
		},
		Notes: req.Notes,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, o)
}

// LookupOrder handles GET /api/v1/orders/{orderNumber}?email=
func (h *OrderHandler) LookupOrder(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("email query parameter is required"), h.logger)
		return
	}

	o, err := h.service.LookupOrder(r.Context(), chi.URLParam(r, "orderNumber"), email)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, o)
}
