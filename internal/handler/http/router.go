package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/auth"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/service"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/health"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/middleware"
)

// ServiceName labels metrics and spans emitted by the router.
const ServiceName = "perfume-store"

// RouterConfig carries the HTTP-facing settings.
type RouterConfig struct {
	AllowedOrigins []string
	PprofCIDRs     []string
	CartTTL        time.Duration
	CookieSecure   bool
	RateLimitRPS   float64
	RateLimitBurst int
}

// Services bundles the business services the router exposes.
type Services struct {
	Products    *service.ProductService
	Collections *service.CollectionService
	Carts       *service.CartService
	Orders      *service.OrderService
	Auth        *service.AuthService
	Media       *service.MediaService
}

// NewRouter creates a chi router with all storefront and admin routes
// registered. media may be nil when images are served by the image host.
func NewRouter(
	cfg RouterConfig,
	svc Services,
	tokens *auth.JWTManager,
	media MediaSource,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	catalogHandler := NewCatalogHandler(svc.Products, svc.Collections, logger)
	cartHandler := NewCartHandler(svc.Carts, logger)
	orderHandler := NewOrderHandler(svc.Orders, logger)
	authHandler := NewAuthHandler(svc.Auth, cfg.CookieSecure, logger)
	adminCatalogHandler := NewAdminCatalogHandler(svc.Products, svc.Collections, logger)
	adminOrderHandler := NewAdminOrderHandler(svc.Orders, logger)
	uploadHandler := NewUploadHandler(svc.Media, media, logger)

	r.Get("/media/*", uploadHandler.Serve)

	rateLimit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Catalog API endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(60))

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{slug}", catalogHandler.GetProduct)
			r.Get("/collections", catalogHandler.ListCollections)
			r.Get("/collections/{slug}", catalogHandler.GetCollection)
		})

		// Cart and checkout endpoints, keyed by the cart session cookie
		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.ContentTypeJSON)
			r.Use(CartSession(cfg.CartTTL, cfg.CookieSecure))
			r.Use(middleware.RequestLogger(logger))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{productId}", cartHandler.UpdateItem)
				r.Delete("/items/{productId}", cartHandler.RemoveItem)
				r.Post("/refresh", cartHandler.RefreshCart)
			})
			r.With(rateLimit).Post("/checkout", orderHandler.Checkout)
		})

		r.With(middleware.NoStore).Get("/orders/{orderNumber}", orderHandler.LookupOrder)

		// Admin API endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.With(rateLimit, middleware.ContentTypeJSON).Post("/auth/login", authHandler.Login)
			r.Post("/auth/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(tokens.Validator(), auth.SessionCookieName))
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Use(middleware.RequestLogger(logger))

				// Multipart bodies, so no JSON content type check.
				r.Post("/uploads", uploadHandler.Upload)
				r.Delete("/uploads/*", uploadHandler.Delete)

				r.Group(func(r chi.Router) {
					r.Use(middleware.ContentTypeJSON)

					r.Get("/auth/me", authHandler.Me)

					r.Route("/products", func(r chi.Router) {
						r.Get("/", adminCatalogHandler.ListProducts)
						r.Post("/", adminCatalogHandler.CreateProduct)
						r.Get("/{id}", adminCatalogHandler.GetProduct)
						r.Put("/{id}", adminCatalogHandler.UpdateProduct)
						r.Delete("/{id}", adminCatalogHandler.DeleteProduct)
						r.Patch("/{id}/stock", adminCatalogHandler.UpdateStock)
					})

					r.Route("/collections", func(r chi.Router) {
						r.Get("/", adminCatalogHandler.ListCollections)
						r.Post("/", adminCatalogHandler.CreateCollection)
						r.Get("/{id}", adminCatalogHandler.GetCollection)
						r.Put("/{id}", adminCatalogHandler.UpdateCollection)
						r.Delete("/{id}", adminCatalogHandler.DeleteCollection)
					})

					r.Route("/orders", func(r chi.Router) {
						r.Get("/", adminOrderHandler.ListOrders)
						r.Get("/{id}", adminOrderHandler.GetOrder)
						r.Put("/{id}/status", adminOrderHandler.UpdateStatus)
						r.Put("/{id}/payment", adminOrderHandler.UpdatePayment)
						r.Delete("/{id}", adminOrderHandler.DeleteOrder)
					})

					r.Get("/stats", adminOrderHandler.Stats)
				})
			})
		})
	})

	return r
}
