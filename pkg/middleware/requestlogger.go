package middleware

import (
	"log/slog"
	"net/http"

	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/logger"
)

// RequestLogger stores a logger enriched with every request field already
// in context (correlation, session, user, trace) via logger.NewContext.
// Mount it after RequestLogging and Tracing, and again after any middleware
// that adds fields (auth, cart session).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.NewContext(r.Context(), logger.WithContext(r.Context(), base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
