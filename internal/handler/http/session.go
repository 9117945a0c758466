package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/logger"
)

// CartCookieName is the cookie holding the anonymous cart session id.
const CartCookieName = "cart_session"

type sessionKey struct{}

// CartSession attaches the cart session id to the request, issuing a new
// cookie when the request carries none or an invalid one.
func CartSession(ttl time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(CartCookieName); err == nil && uuid.Validate(c.Value) == nil {
				id = c.Value
			} else {
				id = uuid.NewString()
			}

			// Refresh on every request so the cookie outlives the cart TTL.
			http.SetCookie(w, &http.Cookie{
				Name:     CartCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), sessionKey{}, id)
			ctx = logger.WithSessionID(ctx, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext returns the cart session id set by CartSession.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
