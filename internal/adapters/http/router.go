package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/dice-roller/internal/adapters/http/handlers"
	"github.com/jsamuelsen/dice-roller/internal/adapters/http/middleware"
	"github.com/jsamuelsen/dice-roller/internal/platform/telemetry"
)

// DefaultRequestTimeout is used when RouterConfig.Timeout is zero.
const DefaultRequestTimeout = 5 * time.Second

// RouterConfig contains everything SetupRouter wires together.
// Only Logger, ServiceName, and Health are required.
type RouterConfig struct {
	Logger      *slog.Logger
	ServiceName string
	Timeout     time.Duration

	Health  *handlers.HealthHandler
	Rolls   *handlers.RollHandler
	Consent *handlers.ConsentHandler
	Pages   *handlers.PageHandler

	// RateLimit guards the UI and API routes. Nil disables limiting.
	RateLimit gin.HandlerFunc
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Global middleware, first to last:
//  1. Recovery
//  2. Request ID
//  3. Correlation ID
//  4. OpenTelemetry tracing and HTTP metrics
//  5. Logging (skips /-/)
//
// Routes:
//   - /-/ operational endpoints, never rate limited
//   - / UI pages, rate limited
//   - /api/v1/ JSON API, rate limited, with a request timeout
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(notFound)
	engine.NoMethod(methodNotAllowed)

	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)
	engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	engine.Use(middleware.Logging())

	cfg.Health.RegisterHealthRoutesOnEngine(engine)

	public := engine.Group("")
	if cfg.RateLimit != nil {
		public.Use(cfg.RateLimit)
	}

	if cfg.Consent != nil {
		public.Use(middleware.Consent(cfg.Consent.CookieName()))
	}

	if cfg.Pages != nil {
		cfg.Pages.RegisterPageRoutes(public)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	apiV1 := public.Group("/api/v1")
	apiV1.Use(middleware.Timeout(timeout))

	if cfg.Rolls != nil {
		cfg.Rolls.RegisterRollRoutes(apiV1)
	}

	if cfg.Consent != nil {
		cfg.Consent.RegisterConsentRoutes(apiV1)
	}
}
