// Package main is the entrypoint for the buscacontatos API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/cache"
	"github.com/buscacontatos/buscacontatos/internal/config"
	"github.com/buscacontatos/buscacontatos/internal/handler"
	"github.com/buscacontatos/buscacontatos/internal/metrics"
	"github.com/buscacontatos/buscacontatos/internal/middleware"
	"github.com/buscacontatos/buscacontatos/internal/repository"
	"github.com/buscacontatos/buscacontatos/internal/search"
	"github.com/buscacontatos/buscacontatos/internal/server"
	"github.com/buscacontatos/buscacontatos/internal/service"
	"github.com/buscacontatos/buscacontatos/internal/session"
	"github.com/buscacontatos/buscacontatos/internal/store"
	"github.com/buscacontatos/buscacontatos/internal/webhook"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheus(registry)

	// Persistent store
	backend, err := store.OpenBackend(ctx, store.Options{
		Driver:      cfg.StoreDriver,
		SQLitePath:  cfg.SQLitePath,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		logger.Error(
			"failed to open store",
			slog.String("driver", cfg.StoreDriver),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL, cfg.RedisURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer backend.Close()
	logger.Info("store opened", "driver", cfg.StoreDriver)

	st := store.New(backend, cfg.StoreKeyPrefix, logger, recorder)
	repo := repository.New(st, repository.WithKeyEnv(cfg.APIKeyEnv))

	// Optional Redis cache for API key auth and shared rate limits.
	var (
		authCache   service.AuthCache
		rateLimiter middleware.RateLimiter
		cacheHealth handler.HealthChecker
	)
	if cfg.RedisURL != "" {
		cacheClient, err := cache.New(ctx, cfg.RedisURL, cfg.StoreKeyPrefix)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		defer cacheClient.Close()
		authCache, rateLimiter, cacheHealth = cacheClient, cacheClient, cacheClient
		logger.Info("connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set; rate limits are per process and API keys are not cached")
	}

	// Search
	var searcher search.Searcher
	if cfg.GeminiAPIKey != "" {
		gen, err := search.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("failed to create search client", "error", err)
			os.Exit(1)
		}
		searcher = search.NewService(gen, cfg.SearchTimeout, logger, recorder)
	} else {
		logger.Warn("GEMINI_API_KEY not set; search is disabled")
	}

	// Webhook delivery
	var (
		notifier   service.ContactNotifier
		dispatcher *webhook.Dispatcher
	)
	if cfg.WebhookDeliveryEnabled {
		dispatcher = webhook.NewDispatcher(webhook.DispatcherConfig{
			Workers:      cfg.WebhookWorkers,
			QueueSize:    cfg.WebhookQueueSize,
			MaxAttempts:  cfg.WebhookMaxAttempts,
			AllowPrivate: cfg.WebhookAllowPrivateTargets,
		}, logger, recorder)
		dispatcher.Start()
		notifier = webhook.NewPublisher(dispatcher, logger)
	}

	// Services
	if cfg.IdentityHMACSecret == "" {
		logger.Warn("IDENTITY_HMAC_SECRET not set; identity token signatures are not verified")
	}
	authService := service.NewAuthService(service.AuthServiceConfig{
		Repository: repo,
		Session:    session.New(st),
		Decoder:    auth.NewIdentityDecoder(cfg.IdentityHMACSecret),
		Cache:      authCache,
		Logger:     logger,
		Metrics:    recorder,
	})
	facade := service.NewFacade(service.FacadeConfig{
		Auth:       authService,
		Repository: repo,
		Audit:      service.NewAuditLogger(repo, logger),
		Searcher:   searcher,
		Notifier:   notifier,
		Logger:     logger,
		Metrics:    recorder,
	})

	if cfg.SeedDemoUsers {
		created, err := facade.Bootstrap(ctx, service.DemoUsers)
		if err != nil {
			logger.Error("failed to seed demo users", "error", err)
			os.Exit(1)
		}
		if created > 0 {
			logger.Info("demo users seeded", "count", created)
		}
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	router := server.NewRouter(server.RouterConfig{
		Logger:  logger,
		Service: facade,
		Version: version,
		Store:   facade,
		Cache:   cacheHealth,
		Metrics: handler.NewMetricsHandler(registry, nil),
		Security: middleware.SecurityConfig{
			IsDevelopment:      cfg.IsDevelopment(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
		CORS: cors,
		RateLimit: middleware.RateLimitConfig{
			Limiter:            rateLimiter,
			APIRatePerMinute:   cfg.RateLimitAPIPerMinute,
			APIBurst:           cfg.RateLimitAPIBurst,
			LoginRatePerMinute: cfg.RateLimitLoginPerMinute,
			LoginBurst:         cfg.RateLimitLoginBurst,
		},
		AuthMinDuration: middleware.DefaultMinAuthDuration,
	})

	srv := server.New(router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	if dispatcher != nil {
		srv.OnShutdown("webhook-dispatcher", dispatcher.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"version", version,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL drops the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError replaces connection strings in an error message with their
// redacted form.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
