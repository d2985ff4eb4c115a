// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. Writes must outlast a search.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"45s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Persistent store
	StoreDriver    string `env:"STORE_DRIVER" envDefault:"sqlite"`
	StoreKeyPrefix string `env:"STORE_KEY_PREFIX" envDefault:"buscacontatos:"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"buscacontatos.db"`
	DatabaseURL    string `env:"DATABASE_URL"`

	// Redis backs the auth cache and shared rate limits; optional.
	RedisURL string `env:"REDIS_URL"`

	SeedDemoUsers bool `env:"SEED_DEMO_USERS" envDefault:"false"`

	// Search
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	SearchTimeout time.Duration `env:"SEARCH_TIMEOUT" envDefault:"30s"`

	// Credentials
	IdentityHMACSecret string `env:"IDENTITY_HMAC_SECRET"`
	APIKeyEnv          string `env:"API_KEY_ENV" envDefault:"live"`

	// Webhook delivery
	WebhookDeliveryEnabled     bool `env:"WEBHOOK_DELIVERY_ENABLED" envDefault:"true"`
	WebhookWorkers             int  `env:"WEBHOOK_WORKERS" envDefault:"2"`
	WebhookQueueSize           int  `env:"WEBHOOK_QUEUE_SIZE" envDefault:"256"`
	WebhookMaxAttempts         int  `env:"WEBHOOK_MAX_ATTEMPTS" envDefault:"5"`
	WebhookAllowPrivateTargets bool `env:"WEBHOOK_ALLOW_PRIVATE_TARGETS" envDefault:"false"`

	// Rate limiting. Zero disables a limit.
	RateLimitAPIPerMinute   int `env:"RATE_LIMIT_API_PER_MINUTE" envDefault:"60"`
	RateLimitAPIBurst       int `env:"RATE_LIMIT_API_BURST" envDefault:"10"`
	RateLimitLoginPerMinute int `env:"RATE_LIMIT_LOGIN_PER_MINUTE" envDefault:"10"`
	RateLimitLoginBurst     int `env:"RATE_LIMIT_LOGIN_BURST" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	case "redis":
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis store"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of memory, sqlite, redis, postgres", c.StoreDriver))
	}

	if c.APIKeyEnv != "live" && c.APIKeyEnv != "test" {
		errs = append(errs, fmt.Errorf("API_KEY_ENV %q must be live or test", c.APIKeyEnv))
	}
	if c.IsProduction() && c.IdentityHMACSecret == "" {
		errs = append(errs, errors.New("IDENTITY_HMAC_SECRET is required in production"))
	}
	if c.SearchTimeout <= 0 {
		errs = append(errs, errors.New("SEARCH_TIMEOUT must be positive"))
	}
	if c.WebhookMaxAttempts < 1 {
		errs = append(errs, errors.New("WEBHOOK_MAX_ATTEMPTS must be at least 1"))
	}

	return errors.Join(errs...)
}

// Load reads an optional .env file, parses environment variables and
// validates the result. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
