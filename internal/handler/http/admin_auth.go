package http

import (
	"log/slog"
	"net/http"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/auth"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/service"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/httputil"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/middleware"
)

// AuthHandler serves admin login, logout and session introspection.
type AuthHandler struct {
	service      *service.AuthService
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, secureCookie: secureCookie, logger: logger}
}

// LoginRequest is the JSON body for admin login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=200"`
}

// Login handles POST /api/v1/admin/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	auth.SetSessionCookie(w, session.Token, session.ExpiresAt, h.secureCookie)
	httputil.WriteData(w, http.StatusOK, session)
}

// Logout handles POST /api/v1/admin/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookie)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/admin/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	admin, err := h.service.Me(r.Context(), claims.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, admin)
}
