package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/service"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/httputil"
)

// AdminOrderHandler serves order management for administrators.
type AdminOrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewAdminOrderHandler creates a new admin order HTTP handler.
func NewAdminOrderHandler(svc *service.OrderService, logger *slog.Logger) *AdminOrderHandler {
	return &AdminOrderHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// UpdateStatusRequest is the JSON body for changing an order's status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Processing Confirmed Shipped Delivered Cancelled"`
}

// UpdatePaymentRequest is the JSON body for recording a payment change.
type UpdatePaymentRequest struct {
	PaymentStatus string     `json:"payment_status" validate:"required,oneof=Pending Paid Failed Refunded"`
	TransactionID string     `json:"transaction_id" validate:"omitempty,max=200"`
	Provider      string     `json:"provider" validate:"omitempty,max=60"`
	Timestamp     *time.Time `json:"timestamp"`
}

// --- Handlers ---

// ListOrders handles GET /api/v1/admin/orders
func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := repository.OrderFilter{
		Query:   q.Get("q"),
		Page:    page.Page,
		PerPage: page.PerPage,
	}
	if v := q.Get("status"); v != "" {
		s := domain.OrderStatus(v)
		filter.Status = &s
	}
	if v := q.Get("payment_status"); v != "" {
		s := domain.PaymentStatus(v)
		filter.PaymentStatus = &s
	}

	orders, total, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(orders, total, page.Page, page.PerPage))
}

// GetOrder handles GET /api/v1/admin/orders/{id}
func (h *AdminOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	o, err := h.service.GetOrder(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, o)
}

// UpdateStatus handles PUT /api/v1/admin/orders/{id}/status
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	o, err := h.service.UpdateStatus(r.Context(), id.String(), domain.OrderStatus(req.Status))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, o)
}

// UpdatePayment handles PUT /api/v1/admin/orders/{id}/payment
func (h *AdminOrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req UpdatePaymentRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	input := &service.PaymentInput{
		Status:        domain.PaymentStatus(req.PaymentStatus),
		TransactionID: req.TransactionID,
		Provider:      req.Provider,
	}
	if req.Timestamp != nil {
		input.Timestamp = *req.Timestamp
	}

	o, err := h.service.UpdatePayment(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, o)
}

// DeleteOrder handles DELETE /api/v1/admin/orders/{id}
func (h *AdminOrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := h.service.DeleteOrder(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id.String(), "status": "deleted"})
}

// Stats handles GET /api/v1/admin/stats
func (h *AdminOrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}
