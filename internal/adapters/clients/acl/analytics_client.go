package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/jsamuelsen/dice-roller/internal/adapters/clients"
	"github.com/jsamuelsen/dice-roller/internal/domain"
	"github.com/jsamuelsen/dice-roller/internal/platform/logging"
	"github.com/jsamuelsen/dice-roller/internal/ports"
)

const (
	analyticsService = "analytics"

	collectPath      = "/mp/collect"
	debugCollectPath = "/debug/mp/collect"
)

// AnalyticsClientConfig configures an AnalyticsClient.
type AnalyticsClientConfig struct {
	// Client must have its BaseURL set to the Measurement Protocol host.
	Client *clients.Client

	MeasurementID string
	APISecret     string

	// Debug posts to the validation endpoint and returns its findings as
	// validation errors.
	Debug bool

	Logger *slog.Logger
}

// AnalyticsClient publishes domain events to GA4. It implements
// ports.EventPublisher and ports.HealthChecker.
type AnalyticsClient struct {
	client *clients.Client
	query  url.Values
	path   string
	debug  bool
	logger *slog.Logger
}

// NewAnalyticsClient creates the client. It panics without a Client.
func NewAnalyticsClient(cfg AnalyticsClientConfig) *AnalyticsClient {
	if cfg.Client == nil {
		panic("acl: AnalyticsClient requires a Client")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := collectPath
	if cfg.Debug {
		path = debugCollectPath
	}

	return &AnalyticsClient{
		client: cfg.Client,
		query: url.Values{
			"measurement_id": {cfg.MeasurementID},
			"api_secret":     {cfg.APISecret},
		},
		path:   path,
		debug:  cfg.Debug,
		logger: logger,
	}
}

// Publish sends one event. Every failure is a domain error.
func (c *AnalyticsClient) Publish(ctx context.Context, ev ports.Event) error {
	body, err := translateEvent(ev)
	if err != nil {
		return err
	}

	c.logger.Log(ctx, logging.LevelTrace, "sending analytics event", slog.String("event", ev.EventType()))

	resp, err := c.client.PostJSON(ctx, c.path, c.query, body)
	if err != nil {
		return MapHTTPError(nil, err, analyticsService, "send event")
	}
	defer func() { _ = resp.Body.Close() }()

	if err := MapHTTPError(resp, nil, analyticsService, "send event"); err != nil {
		return err
	}

	if !c.debug {
		return nil
	}

	var vr mpValidationResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return domain.NewUnavailableError(analyticsService, fmt.Sprintf("decoding validation response: %v", err))
	}

	return translateValidation(&vr)
}

// Name implements ports.HealthChecker.
func (c *AnalyticsClient) Name() string { return analyticsService }

// Check reports unhealthy while the circuit breaker is open. It never calls
// the endpoint: collecting is not idempotent.
func (c *AnalyticsClient) Check(context.Context) error {
	if state := c.client.CircuitState(); state == clients.StateOpen {
		return errors.New("circuit breaker " + state.String())
	}

	return nil
}

// Optional reports that rolling dice never depends on analytics.
func (c *AnalyticsClient) Optional() bool { return true }

var (
	_ ports.EventPublisher  = (*AnalyticsClient)(nil)
	_ ports.HealthChecker   = (*AnalyticsClient)(nil)
	_ ports.OptionalChecker = (*AnalyticsClient)(nil)
)
