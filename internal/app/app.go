// Package app wires the perfume store's dependencies and runs its HTTP
// server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/auth"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/config"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/event"
	handler "github.com/SherMuhammadgithub/perfume-site-sub000/internal/handler/http"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/migrations"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository/postgres"
	redisrepo "github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository/redis"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/search"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/search/elasticsearch"
	searchmemory "github.com/SherMuhammadgithub/perfume-site-sub000/internal/search/memory"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/service"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/storage"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/storage/imagehost"
	storagememory "github.com/SherMuhammadgithub/perfume-site-sub000/internal/storage/memory"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/database"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/health"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/httpclient"
	pkgkafka "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/kafka"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/tracing"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// App wires together all dependencies and runs the perfume store.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	shutdownTracer tracing.ShutdownFunc
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
// Anything opened before a failure is closed again.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	initCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	// Tracing
	tracingCfg := cfg.Tracing
	tracingCfg.ServiceName = handler.ServiceName
	tracingCfg.ServiceVersion = Version
	tracingCfg.Environment = cfg.Environment
	a.shutdownTracer, err = tracing.InitTracer(initCtx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)

	// PostgreSQL
	a.pool, err = database.NewPostgresPool(initCtx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.Postgres.Host),
		slog.Int("port", cfg.Postgres.Port),
		slog.String("database", cfg.Postgres.DBName),
	)
	if err := database.Migrate(initCtx, a.pool, migrations.FS, logger); err != nil {
		return nil, err
	}
	logger.Info("database migrations completed")
	if err := prometheus.Register(database.NewPoolStatsCollector(a.pool, handler.ServiceName)); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}
	}

	// Redis
	a.redis, err = database.NewRedisClient(initCtx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Addr()))

	// Kafka
	var publisher event.Publisher = event.Discard{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("kafka disabled, order events are discarded")
	}

	// Search
	engine, err := newSearchEngine(initCtx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Images
	store, media := newImageStore(cfg, logger)

	// Build the dependency graph.
	productRepo := postgres.NewProductRepository(a.pool)
	collectionRepo := postgres.NewCollectionRepository(a.pool)
	orderRepo := postgres.NewOrderRepository(a.pool)
	adminRepo := postgres.NewAdminRepository(a.pool)
	cartRepo := redisrepo.NewCartRepository(a.redis, cfg.CartTTL, cfg.Currency)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)
	pricing := domain.Pricing{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFlatRate:      cfg.ShippingFlatRate,
		TaxRateBPS:            cfg.TaxRateBPS,
	}

	productService := service.NewProductService(productRepo, collectionRepo, engine, logger)
	services := handler.Services{
		Products:    productService,
		Collections: service.NewCollectionService(collectionRepo, engine, productService, logger),
		Carts:       service.NewCartService(cartRepo, productRepo, logger),
		Orders: service.NewOrderService(orderRepo, cartRepo, productService,
			event.NewProducer(publisher, logger), pricing, cfg.Currency, logger),
		Auth:  service.NewAuthService(adminRepo, jwtManager, logger),
		Media: service.NewMediaService(store, logger),
	}

	if err := productService.ReindexAll(initCtx); err != nil {
		// The index catches up on the next product write or restart.
		logger.Error("initial search index build failed", slog.String("error", err.Error()))
	}

	// Health checks
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return a.redis.Ping(ctx).Err()
	})
	healthHandler.Register("search", engine.Ping)
	if a.producer != nil {
		healthHandler.Register("kafka", a.producer.Ping)
	}
	logger.Info("readiness checks registered", slog.Any("checks", healthHandler.Names()))

	router := handler.NewRouter(
		handler.RouterConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			PprofCIDRs:     cfg.PprofAllowedCIDRs,
			CartTTL:        cfg.CartTTL,
			CookieSecure:   cfg.CookieSecure,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		},
		services,
		jwtManager,
		media,
		healthHandler,
		logger,
	)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return a, nil
}

func newSearchEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (search.Engine, error) {
	if cfg.SearchBackend != config.SearchElasticsearch {
		logger.Info("using in-memory search engine")
		return searchmemory.New(), nil
	}

	engine, err := elasticsearch.New(ctx, elasticsearch.Config{
		URL:      cfg.ElasticsearchURL,
		Index:    cfg.ElasticsearchIndex,
		Username: cfg.ElasticsearchUsername,
		Password: cfg.ElasticsearchPassword,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}
	logger.Info("connected to Elasticsearch",
		slog.String("url", cfg.ElasticsearchURL),
		slog.String("index", cfg.ElasticsearchIndex),
	)
	return engine, nil
}

// newImageStore returns the configured store, and the in-memory store
// again as a media source when images are served by this process.
func newImageStore(cfg *config.Config, logger *slog.Logger) (storage.Storage, handler.MediaSource) {
	if cfg.ImageStore != config.StoreImageHost {
		logger.Info("using in-memory image store")
		mem := storagememory.New(cfg.PublicURL)
		return mem, mem
	}

	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("imagehost"),
		logger,
	)
	logger.Info("using image host", slog.String("cloud", cfg.ImageHost.CloudName))
	return imagehost.New(cfg.ImageHost, client, logger), nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("version", Version),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.close()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	a.close()

	a.logger.Info("application shutdown complete")
	return nil
}

// close releases every opened client. It tolerates a partially built App.
func (a *App) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.shutdownTracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracer(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
