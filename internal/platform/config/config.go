// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	DefaultServerPort     = 8080
	DefaultMaxRequestSize = 64 << 10

	DefaultClientRetryMaxAttempts     = 3
	DefaultClientRetryMultiplier      = 2.0
	DefaultClientRetryJitterFactor    = 0.25
	DefaultClientCircuitMaxFailures   = 5
	DefaultClientCircuitHalfOpenLimit = 3

	DefaultTransportMaxIdleConns        = 100
	DefaultTransportMaxIdleConnsPerHost = 10

	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 3
	DefaultLogFileMaxAgeDays = 28

	// DefaultDiceMaxGroups caps dice groups per expression.
	DefaultDiceMaxGroups = 20

	// DefaultDiceMaxExpressionLength caps expression length in bytes.
	DefaultDiceMaxExpressionLength = 256

	// DefaultDiceMaxBatchSize caps expressions per batch request.
	DefaultDiceMaxBatchSize = 50

	// DefaultDiceBatchConcurrency bounds concurrent evaluations in a batch.
	DefaultDiceBatchConcurrency = 8

	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 10

	DefaultAnalyticsQueueSize = 256
	DefaultAnalyticsWorkers   = 2

	// DefaultConsentMaxAgeDays matches a one-year consent lifetime.
	DefaultConsentMaxAgeDays = 365
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"        validate:"required"`
	Server    ServerConfig    `koanf:"server"     validate:"required"`
	Log       LogConfig       `koanf:"log"        validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Client    ClientConfig    `koanf:"client"     validate:"required"`
	Dice      DiceConfig      `koanf:"dice"       validate:"required"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Redis     RedisConfig     `koanf:"redis"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Consent   ConsentConfig   `koanf:"consent"    validate:"required"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	RequestTimeout  time.Duration `koanf:"request_timeout"  validate:"required,min=100ms"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// ClientConfig contains HTTP client settings for outbound calls.
type ClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig contains retry settings for HTTP clients.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig contains circuit breaker settings for HTTP clients.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig contains HTTP transport pool settings.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}

// DiceConfig bounds what a single request may ask the evaluator to do.
type DiceConfig struct {
	MaxGroups           int `koanf:"max_groups"            validate:"min=0,max=1000"`
	MaxExpressionLength int `koanf:"max_expression_length" validate:"required,min=8,max=4096"`
	MaxBatchSize        int `koanf:"max_batch_size"        validate:"required,min=1,max=1000"`
	BatchConcurrency    int `koanf:"batch_concurrency"     validate:"required,min=1,max=256"`
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	Enabled           bool          `koanf:"enabled"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"required_if=Enabled true,omitempty,gt=0"`
	Burst             int           `koanf:"burst"               validate:"required_if=Enabled true,omitempty,min=1"`
	IdleTTL           time.Duration `koanf:"idle_ttl"            validate:"omitempty,min=1s"`
	CleanupInterval   time.Duration `koanf:"cleanup_interval"    validate:"omitempty,min=1s"`
	TrustForwardedFor bool          `koanf:"trust_forwarded_for"`
}

// RedisConfig configures the optional rate-limit statistics store.
type RedisConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Addr        string        `koanf:"addr"         validate:"required_if=Enabled true"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"           validate:"min=0,max=15"`
	KeyPrefix   string        `koanf:"key_prefix"`
	DialTimeout time.Duration `koanf:"dial_timeout" validate:"omitempty,min=100ms"`
}

// AnalyticsConfig configures GA4 Measurement Protocol event delivery.
type AnalyticsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	MeasurementID string `koanf:"measurement_id" validate:"required_if=Enabled true"`
	APISecret     string `koanf:"api_secret"     validate:"required_if=Enabled true"`
	BaseURL       string `koanf:"base_url"       validate:"required_if=Enabled true,omitempty,url"`
	QueueSize     int    `koanf:"queue_size"     validate:"omitempty,min=1"`
	Workers       int    `koanf:"workers"        validate:"omitempty,min=1,max=32"`

	// Debug sends events to the validation endpoint, which reports problems
	// instead of recording the events.
	Debug bool `koanf:"debug"`
}

// ConsentConfig configures the consent cookie.
type ConsentConfig struct {
	CookieName string `koanf:"cookie_name" validate:"required"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"required,min=1,max=730"`
	Secure     bool   `koanf:"secure"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "dice-roller",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "15s",
		"server.write_timeout":    "15s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.request_timeout":  "5s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/dice-roller.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "dice-roller",
		"telemetry.sampling_rate": 1.0,

		"client.timeout":                           "5s",
		"client.retry.max_attempts":                DefaultClientRetryMaxAttempts,
		"client.retry.initial_interval":            "100ms",
		"client.retry.max_interval":                "2s",
		"client.retry.multiplier":                  DefaultClientRetryMultiplier,
		"client.retry.jitter_factor":               DefaultClientRetryJitterFactor,
		"client.circuit_breaker.max_failures":      DefaultClientCircuitMaxFailures,
		"client.circuit_breaker.timeout":           "30s",
		"client.circuit_breaker.half_open_limit":   DefaultClientCircuitHalfOpenLimit,
		"client.transport.max_idle_conns":          DefaultTransportMaxIdleConns,
		"client.transport.max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
		"client.transport.idle_conn_timeout":       "90s",

		"dice.max_groups":            DefaultDiceMaxGroups,
		"dice.max_expression_length": DefaultDiceMaxExpressionLength,
		"dice.max_batch_size":        DefaultDiceMaxBatchSize,
		"dice.batch_concurrency":     DefaultDiceBatchConcurrency,

		"rate_limit.enabled":             true,
		"rate_limit.requests_per_second": DefaultRateLimitRPS,
		"rate_limit.burst":               DefaultRateLimitBurst,
		"rate_limit.idle_ttl":            "15m",
		"rate_limit.cleanup_interval":    "2m",
		"rate_limit.trust_forwarded_for": false,

		"redis.enabled":      false,
		"redis.addr":         "localhost:6379",
		"redis.password":     "",
		"redis.db":           0,
		"redis.key_prefix":   "dice:rl",
		"redis.dial_timeout": "2s",

		"analytics.enabled":        false,
		"analytics.measurement_id": "",
		"analytics.api_secret":     "",
		"analytics.base_url":       "https://www.google-analytics.com",
		"analytics.queue_size":     DefaultAnalyticsQueueSize,
		"analytics.workers":        DefaultAnalyticsWorkers,
		"analytics.debug":          false,

		"consent.cookie_name":  "ga-consent",
		"consent.max_age_days": DefaultConsentMaxAgeDays,
		"consent.secure":       false,
	}
}

// Load loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (APP_ prefix)
//  2. Profile config file (configs/{profile}.yaml)
//  3. Base config file (configs/base.yaml)
//  4. Default values
func Load(profile string) (*Config, error) {
	return LoadFrom("configs", profile)
}

// LoadFrom is Load with an explicit config directory.
func LoadFrom(dir, profile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if err := loadFileIfExists(k, dir+"/base.yaml"); err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	if profile != "" {
		if err := loadFileIfExists(k, fmt.Sprintf("%s/%s.yaml", dir, profile)); err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	if err := k.Load(env.Provider("APP_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKey maps APP_SERVER_PORT to server.port. A double underscore keeps a
// literal underscore, so APP_RATE__LIMIT_BURST maps to rate_limit.burst.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "APP_"))
	s = strings.ReplaceAll(s, "__", "\x00")
	s = strings.ReplaceAll(s, "_", ".")

	return strings.ReplaceAll(s, "\x00", "_")
}

// loadFileIfExists loads a YAML config file if it exists.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
