package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/dice-roller/internal/platform/config"
	"github.com/jsamuelsen/dice-roller/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/dice-roller/internal/adapters/clients"

	defaultTimeout = 5 * time.Second

	// maxDrainBytes is read from discarded bodies so connections are reused.
	maxDrainBytes = 4 << 10
)

// Config configures a Client.
type Config struct {
	BaseURL     string
	ServiceName string

	// Timeout applies per attempt. Retries and backoff come on top.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// UserAgent is sent on every request when set.
	UserAgent string

	Logger *slog.Logger
}

// Client is an HTTP client for one downstream service with retries,
// exponential backoff, a circuit breaker, spans, and request metrics.
type Client struct {
	http    *http.Client
	baseURL string
	service string
	cfg     Config
	logger  *slog.Logger
	cb      *CircuitBreaker
	tracer  trace.Tracer

	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// New creates a client from cfg.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	c := *cfg
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	c.Retry.MaxAttempts = max(c.Retry.MaxAttempts, 1)

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "clients.Client"), slog.String("downstream", c.ServiceName))

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   c.Circuit.MaxFailures,
		Timeout:       c.Circuit.Timeout,
		HalfOpenLimit: c.Circuit.HalfOpenLimit,
	})
	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed", slog.String("from", from.String()), slog.String("to", to.String()))
	})

	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of outbound HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of outbound HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.Transport.MaxIdleConns > 0 {
		transport.MaxIdleConns = c.Transport.MaxIdleConns
	}

	if c.Transport.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = c.Transport.MaxIdleConnsPerHost
	}

	if c.Transport.IdleConnTimeout > 0 {
		transport.IdleConnTimeout = c.Transport.IdleConnTimeout
	}

	return &Client{
		http:            &http.Client{Timeout: c.Timeout, Transport: transport},
		baseURL:         strings.TrimSuffix(c.BaseURL, "/"),
		service:         c.ServiceName,
		cfg:             c,
		logger:          logger,
		cb:              cb,
		tracer:          otel.Tracer(instrumentationName),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// PostJSON marshals payload and posts it to path with the given query.
// The body is buffered so it can be replayed on retries.
func (c *Client) PostJSON(ctx context.Context, path string, query url.Values, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	u := c.buildURL(path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.Do(ctx, req)
}

// Do sends req, retrying transport errors and 5xx responses. Responses
// below 500 are returned as is; the caller owns the body.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := c.logger
	if l, ok := logging.Lookup(ctx); ok {
		logger = l.With(slog.String("downstream", c.service))
	}

	logger = logger.With(
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.cb.Allow() {
		c.recordMetrics(ctx, req.Method, 0, time.Since(start), "circuit_open")
		logger.WarnContext(ctx, "request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	// Only the path is recorded: query strings may carry credentials.
	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.service,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("url.path", req.URL.Path),
			attribute.String("peer.service", c.service),
		),
	)
	defer span.End()

	resp, err := c.attempts(ctx, req, logger)
	elapsed := time.Since(start)

	if err != nil {
		c.cb.RecordFailure()
		span.SetStatus(codes.Error, err.Error())
		c.recordMetrics(ctx, req.Method, 0, elapsed, "error")
		logger.ErrorContext(ctx, "request failed", slog.Duration("duration", elapsed), slog.Any("error", err))

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
	}

	c.cb.RecordSuccess()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "HTTP "+resp.Status)
	}

	c.recordMetrics(ctx, req.Method, resp.StatusCode, elapsed, fmt.Sprintf("%dxx", resp.StatusCode/100))
	logger.DebugContext(ctx, "request completed", slog.Int("status", resp.StatusCode), slog.Duration("duration", elapsed))

	return resp, nil
}

func (c *Client) attempts(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	var lastErr error

	for attempt := range c.cfg.Retry.MaxAttempts {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			logger.DebugContext(ctx, "retrying request", slog.Int("attempt", attempt+1), slog.Duration("backoff", backoff))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}

			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewinding request body: %w", err)
				}

				req.Body = body
			}
		}

		resp, err := c.http.Do(req.WithContext(ctx))
		err = stripQuery(err)

		switch {
		case err != nil:
			if !isRetryableError(err) {
				return nil, err
			}

			lastErr = err
		case resp.StatusCode >= http.StatusInternalServerError:
			drain(resp.Body)
			lastErr = &StatusError{Service: c.service, StatusCode: resp.StatusCode}
		default:
			return resp, nil
		}

		logger.DebugContext(ctx, "attempt failed", slog.Int("attempt", attempt+1), slog.Any("error", lastErr))
	}

	return nil, lastErr
}

// CircuitState returns the breaker state.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

// ServiceName returns the downstream name this client was built for.
func (c *Client) ServiceName() string {
	return c.service
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

// backoff is InitialInterval * Multiplier^attempt capped at MaxInterval,
// with ±JitterFactor jitter.
func (c *Client) backoff(attempt int) time.Duration {
	r := c.cfg.Retry
	d := float64(r.InitialInterval) * math.Pow(r.Multiplier, float64(attempt))
	d = math.Min(d, float64(r.MaxInterval))

	if r.JitterFactor > 0 {
		d += d * r.JitterFactor * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto randomness
	}

	return time.Duration(d)
}

func (c *Client) recordMetrics(ctx context.Context, method string, status int, d time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.service),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	c.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
	c.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// stripQuery drops the query string from a *url.Error. Query parameters
// may carry credentials and the error text ends up in logs.
func stripQuery(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}

	if i := strings.IndexByte(ue.URL, '?'); i >= 0 {
		ue.URL = ue.URL[:i]
	}

	return err
}

// drain discards a bounded amount of body and closes it.
func drain(body io.ReadCloser) {
	_, _ = io.CopyN(io.Discard, body, maxDrainBytes)
	_ = body.Close()
}

// isRetryableError treats timeouts and network-level failures as transient.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
