// Package config holds the perfume store's environment configuration.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/storage/imagehost"
	pkgconfig "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/config"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/database"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/tracing"
)

// Backend names.
const (
	SearchMemory        = "memory"
	SearchElasticsearch = "elasticsearch"
	StoreMemory         = "memory"
	StoreImageHost      = "imagehost"
)

const minJWTSecretLength = 32

// Config holds all configuration for the perfume store.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	PublicURL       string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	Postgres database.PostgresConfig
	Redis    database.RedisConfig

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Search
	SearchBackend         string `env:"SEARCH_BACKEND" envDefault:"memory"`
	ElasticsearchURL      string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex    string `env:"ELASTICSEARCH_INDEX" envDefault:"perfumes"`
	ElasticsearchUsername string `env:"ELASTICSEARCH_USERNAME"`
	ElasticsearchPassword string `env:"ELASTICSEARCH_PASSWORD"`

	// Images
	ImageStore string `env:"IMAGE_STORE" envDefault:"memory"`
	ImageHost  imagehost.Config

	// Sessions
	JWTSecret    string        `env:"JWT_SECRET"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CartTTL      time.Duration `env:"CART_TTL" envDefault:"720h"`

	// Pricing, in minor currency units
	Currency              string `env:"CURRENCY" envDefault:"USD"`
	FreeShippingThreshold int64  `env:"FREE_SHIPPING_THRESHOLD" envDefault:"15000"`
	ShippingFlatRate      int64  `env:"SHIPPING_FLAT_RATE" envDefault:"1000"`
	TaxRateBPS            int64  `env:"TAX_RATE_BPS" envDefault:"0"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`

	// Per-IP limit on login and checkout, 0 disables
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// OpenTelemetry
	Tracing tracing.Config

	// Slow query logging, 0 disables
	SlowQueryThreshold time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"500ms"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load perfume store config: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the store runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate checks the parsed configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	if !slices.Contains([]string{"json", "text"}, c.LogFormat) {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if c.Postgres.Host == "" {
		errs = append(errs, errors.New("POSTGRES_HOST is required"))
	}
	if c.Postgres.User == "" {
		errs = append(errs, errors.New("POSTGRES_USER is required"))
	}
	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set"))
	}

	switch c.SearchBackend {
	case SearchMemory:
	case SearchElasticsearch:
		if c.ElasticsearchURL == "" {
			errs = append(errs, errors.New("ELASTICSEARCH_URL is required for the elasticsearch backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("SEARCH_BACKEND must be memory or elasticsearch, got %q", c.SearchBackend))
	}

	switch c.ImageStore {
	case StoreMemory:
	case StoreImageHost:
		if c.ImageHost.CloudName == "" || c.ImageHost.APIKey == "" || c.ImageHost.APISecret == "" {
			errs = append(errs, errors.New("IMAGEHOST_CLOUD_NAME, IMAGEHOST_API_KEY and IMAGEHOST_API_SECRET are required for the imagehost store"))
		}
	default:
		errs = append(errs, fmt.Errorf("IMAGE_STORE must be memory or imagehost, got %q", c.ImageStore))
	}

	if len(c.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.CartTTL <= 0 {
		errs = append(errs, errors.New("CART_TTL must be positive"))
	}
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Errorf("CURRENCY must be an ISO 4217 code, got %q", c.Currency))
	}
	if c.FreeShippingThreshold < 0 || c.ShippingFlatRate < 0 {
		errs = append(errs, errors.New("shipping amounts must not be negative"))
	}
	if c.TaxRateBPS < 0 || c.TaxRateBPS > 10000 {
		errs = append(errs, fmt.Errorf("TAX_RATE_BPS must be between 0 and 10000, got %d", c.TaxRateBPS))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %f", c.RateLimitRPS))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.Tracing.SampleRate))
	}
	if c.IsProduction() && !c.CookieSecure {
		errs = append(errs, errors.New("COOKIE_SECURE must be set in production"))
	}

	return errors.Join(errs...)
}
