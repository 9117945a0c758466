package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, SearchMemory, cfg.SearchBackend)
	assert.Equal(t, StoreMemory, cfg.ImageStore)
	assert.Equal(t, "perfumes", cfg.ImageHost.Folder)
	assert.Equal(t, 720*time.Hour, cfg.CartTTL)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SEARCH_BACKEND", "elasticsearch")
	t.Setenv("ELASTICSEARCH_URL", "http://es:9200")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TAX_RATE_BPS", "825")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com,https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, SearchElasticsearch, cfg.SearchBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, int64(825), cfg.TaxRateBPS)
	assert.Len(t, cfg.CORSAllowedOrigins, 2)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTPPort = 0 }, "invalid HTTP port"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"unknown search backend", func(c *Config) { c.SearchBackend = "solr" }, "SEARCH_BACKEND"},
		{"imagehost without credentials", func(c *Config) { c.ImageStore = StoreImageHost }, "IMAGEHOST_CLOUD_NAME"},
		{"unknown image store", func(c *Config) { c.ImageStore = "s3" }, "IMAGE_STORE"},
		{"tax out of range", func(c *Config) { c.TaxRateBPS = 10001 }, "TAX_RATE_BPS"},
		{"bad currency", func(c *Config) { c.Currency = "DOLLAR" }, "CURRENCY"},
		{"kafka without brokers", func(c *Config) { c.KafkaEnabled = true; c.KafkaBrokers = nil }, "KAFKA_BROKERS"},
		{"insecure cookie in production", func(c *Config) { c.Environment = "production" }, "COOKIE_SECURE"},
		{"negative rate limit", func(c *Config) { c.RateLimitRPS = -1 }, "RATE_LIMIT_RPS"},
		{"zero burst", func(c *Config) { c.RateLimitRPS = 5; c.RateLimitBurst = 0 }, "RATE_LIMIT_BURST"},
		{"sample rate out of range", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "OTEL_SAMPLE_RATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func validConfig() *Config {
	cfg := &Config{
		Environment:   "development",
		LogFormat:     "json",
		HTTPPort:      8080,
		KafkaBrokers:  []string{"localhost:9092"},
		SearchBackend: SearchMemory,
		ImageStore:    StoreMemory,
		JWTSecret:     testSecret,
		SessionTTL:    time.Hour,
		CartTTL:       time.Hour,
		Currency:      "USD",
	}
	cfg.Postgres.Host = "localhost"
	cfg.Postgres.User = "perfume"
	cfg.Redis.Host = "localhost"
	cfg.Tracing.SampleRate = 1
	return cfg
}
