package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/dice-roller/internal/adapters/clients"
	"github.com/jsamuelsen/dice-roller/internal/domain"
	"github.com/jsamuelsen/dice-roller/internal/platform/config"
	"github.com/jsamuelsen/dice-roller/internal/platform/logging"
)

func newAnalytics(t *testing.T, handler http.HandlerFunc, debug bool) *AnalyticsClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := clients.New(&clients.Config{
		BaseURL:     server.URL,
		ServiceName: "analytics",
		Timeout:     time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
			Multiplier:      2,
		},
		Circuit: config.CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute, HalfOpenLimit: 1},
	})
	require.NoError(t, err)

	return NewAnalyticsClient(AnalyticsClientConfig{
		Client:        client,
		MeasurementID: "G-TEST123",
		APISecret:     "s3cr3t",
		Debug:         debug,
	})
}

func rollEvent() testEvent {
	return testEvent{name: "dice_roll", clientID: "cid-1", params: map[string]any{"dice": 3}}
}

func TestAnalyticsClient_Publish(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		gotBody  mpRequest
	)

	a := newAnalytics(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}, false)

	require.NoError(t, a.Publish(context.Background(), rollEvent()))

	assert.Equal(t, "/mp/collect", gotPath)
	assert.Equal(t, "api_secret=s3cr3t&measurement_id=G-TEST123", gotQuery)
	assert.Equal(t, "cid-1", gotBody.ClientID)
	require.Len(t, gotBody.Events, 1)
	assert.Equal(t, "dice_roll", gotBody.Events[0].Name)
	assert.InDelta(t, 3, gotBody.Events[0].Params["dice"], 0)
}

func TestAnalyticsClient_InvalidEventNotSent(t *testing.T) {
	var calls atomic.Int32

	a := newAnalytics(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}, false)

	err := a.Publish(context.Background(), testEvent{name: "dice-roll", clientID: "c"})

	assert.True(t, domain.IsValidation(err))
	assert.Zero(t, calls.Load())
}

func TestAnalyticsClient_ServerErrorOpensCircuit(t *testing.T) {
	a := newAnalytics(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, false)

	err := a.Publish(context.Background(), rollEvent())
	assert.True(t, domain.IsUnavailable(err))

	assert.Error(t, a.Check(context.Background()))

	err = a.Publish(context.Background(), rollEvent())
	require.True(t, domain.IsUnavailable(err))
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestAnalyticsClient_DebugValidation(t *testing.T) {
	a := newAnalytics(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/debug/mp/collect", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"validationMessages":[{"fieldPath":"events.params","description":"bad value","validationCode":"VALUE_INVALID"}]}`))
	}, true)

	err := a.Publish(context.Background(), rollEvent())

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "VALUE_INVALID")
}

func TestAnalyticsClient_DebugClean(t *testing.T) {
	a := newAnalytics(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"validationMessages":[]}`))
	}, true)

	assert.NoError(t, a.Publish(context.Background(), rollEvent()))
}

func TestAnalyticsClient_DebugUndecodable(t *testing.T) {
	a := newAnalytics(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}, true)

	err := a.Publish(context.Background(), rollEvent())

	assert.True(t, domain.IsUnavailable(err))
}

func TestAnalyticsClient_Health(t *testing.T) {
	a := newAnalytics(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, false)

	assert.Equal(t, "analytics", a.Name())
	assert.True(t, a.Optional())
	assert.NoError(t, a.Check(context.Background()))
}

func TestNewAnalyticsClient_PanicsWithoutClient(t *testing.T) {
	assert.Panics(t, func() { NewAnalyticsClient(AnalyticsClientConfig{}) })
}

func TestAnalyticsClient_UnreachableNeverLogsSecret(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&logging.Config{Level: "trace", Format: "json"}, &buf)

	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client, err := clients.New(&clients.Config{
		BaseURL:     baseURL,
		ServiceName: "analytics",
		Timeout:     time.Second,
		Retry:       config.RetryConfig{MaxAttempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 2},
		Circuit:     config.CircuitBreakerConfig{MaxFailures: 5, Timeout: time.Minute, HalfOpenLimit: 1},
		Logger:      logger,
	})
	require.NoError(t, err)

	a := NewAnalyticsClient(AnalyticsClientConfig{
		Client:        client,
		MeasurementID: "G-X",
		APISecret:     "TOPSECRET123",
		Logger:        logger,
	})

	err = a.Publish(context.Background(), rollEvent())

	require.True(t, domain.IsUnavailable(err))
	assert.NotContains(t, err.Error(), "TOPSECRET123")
	assert.Contains(t, buf.String(), "request failed")
	assert.NotContains(t, buf.String(), "TOPSECRET123")
}
