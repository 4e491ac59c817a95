// Package main is the entry point for the dice-roller service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/jsamuelsen/dice-roller/internal/adapters/clients"
	"github.com/jsamuelsen/dice-roller/internal/adapters/clients/acl"
	"github.com/jsamuelsen/dice-roller/internal/adapters/http"
	"github.com/jsamuelsen/dice-roller/internal/adapters/http/handlers"
	"github.com/jsamuelsen/dice-roller/internal/adapters/ratelimit"
	"github.com/jsamuelsen/dice-roller/internal/app"
	"github.com/jsamuelsen/dice-roller/internal/dice"
	"github.com/jsamuelsen/dice-roller/internal/platform/config"
	"github.com/jsamuelsen/dice-roller/internal/platform/logging"
	"github.com/jsamuelsen/dice-roller/internal/platform/metrics"
	"github.com/jsamuelsen/dice-roller/internal/platform/telemetry"
	"github.com/jsamuelsen/dice-roller/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// closer is a teardown step run in reverse order of creation.
type closer struct {
	name string
	fn   func(ctx context.Context) error
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	var closers []closer
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].fn(shutdownCtx); err != nil {
				logger.Error("shutdown step failed", slog.String("step", closers[i].name), slog.Any("error", err))
			}
		}

		logger.Info("shutdown complete")
	}()

	tel, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	closers = append(closers, closer{"telemetry", tel.Shutdown})

	registry := ports.NewHealthRegistry()

	recorder, err := metrics.NewRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	var stats ratelimit.StatsRecorder
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		closers = append(closers, closer{"redis", func(context.Context) error { return rdb.Close() }})

		store := ratelimit.NewRedisStatsStore(rdb, ratelimit.WithStatsPrefix(cfg.Redis.KeyPrefix))
		if err := registry.Register(store); err != nil {
			return fmt.Errorf("registering redis health check: %w", err)
		}
		stats = store
	}

	var publisher ports.EventPublisher
	if cfg.Analytics.Enabled {
		dispatcher, err := newAnalytics(cfg, logger, registry)
		if err != nil {
			return err
		}

		workersCtx, cancelWorkers := context.WithCancel(context.Background())
		dispatcher.Start(workersCtx)
		closers = append(closers, closer{"analytics", func(ctx context.Context) error {
			defer cancelWorkers()
			return dispatcher.Close(ctx)
		}})
		publisher = dispatcher
	}

	rolls := app.NewRollService(app.RollServiceConfig{
		Evaluator:           dice.NewEvaluator(dice.WithMaxGroups(cfg.Dice.MaxGroups)),
		Recorder:            recorder,
		Publisher:           publisher,
		Logger:              logger,
		MaxExpressionLength: cfg.Dice.MaxExpressionLength,
		MaxBatchSize:        cfg.Dice.MaxBatchSize,
		BatchConcurrency:    cfg.Dice.BatchConcurrency,
	})

	var limiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		store := ratelimit.NewStore(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst,
			ratelimit.WithIdleTTL(cfg.RateLimit.IdleTTL),
			ratelimit.WithCleanupEvery(cfg.RateLimit.CleanupInterval),
		)
		store.StartJanitor(ctx)

		limiter = ratelimit.Middleware(ratelimit.Options{
			Store:             store,
			Stats:             stats,
			TrustForwardedFor: cfg.RateLimit.TrustForwardedFor,
		})
	}

	consent := handlers.NewConsentHandler(cfg.Consent)

	var measurementID string
	if cfg.Analytics.Enabled {
		measurementID = cfg.Analytics.MeasurementID
	}

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:      logger,
		ServiceName: cfg.App.Name,
		Timeout:     cfg.Server.RequestTimeout,
		Health:      handlers.NewHealthHandler(registry, handlers.NewBuildInfo(Version, Commit, BuildTime), nil),
		Rolls:       handlers.NewRollHandler(rolls),
		Consent:     consent,
		Pages: handlers.NewPageHandler(handlers.PageConfig{
			Service:       rolls,
			Consent:       consent,
			MeasurementID: measurementID,
		}),
		RateLimit: limiter,
	})

	serverErr := server.Start()
	closers = append(closers, closer{"http", server.Shutdown})

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}

		return errors.New("server stopped unexpectedly")
	case <-ctx.Done():
		logger.Info("received shutdown signal", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	}

	return nil
}

// newAnalytics builds the GA4 client behind an asynchronous dispatcher and
// registers the client's health check.
func newAnalytics(cfg *config.Config, logger *slog.Logger, registry ports.HealthRegistry) (*app.AnalyticsDispatcher, error) {
	client, err := clients.New(&clients.Config{
		BaseURL:     cfg.Analytics.BaseURL,
		ServiceName: "analytics",
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		UserAgent:   cfg.App.Name + "/" + cfg.App.Version,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating analytics HTTP client: %w", err)
	}

	ga := acl.NewAnalyticsClient(acl.AnalyticsClientConfig{
		Client:        client,
		MeasurementID: cfg.Analytics.MeasurementID,
		APISecret:     cfg.Analytics.APISecret,
		Debug:         cfg.Analytics.Debug,
		Logger:        logger,
	})

	if err := registry.Register(ga); err != nil {
		return nil, fmt.Errorf("registering analytics health check: %w", err)
	}

	return app.NewAnalyticsDispatcher(app.AnalyticsDispatcherConfig{
		Downstream: ga,
		QueueSize:  cfg.Analytics.QueueSize,
		Workers:    cfg.Analytics.Workers,
		Logger:     logger,
	}), nil
}

