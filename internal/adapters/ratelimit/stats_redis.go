package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatsEvent describes one rate-limit decision.
type StatsEvent struct {
	Key     string
	Allowed bool
	Method  string
	Route   string
	At      time.Time
}

// StatsRecorder persists rate-limit decisions.
type StatsRecorder interface {
	Record(ctx context.Context, ev StatsEvent) error
}

// RedisStatsStore keeps allow/deny counters in Redis hashes:
//
//	{prefix}:total                 allowed, denied
//	{prefix}:minute:200601021504   allowed, denied (expires after ttl)
//	{prefix}:route                 "POST /api/v1/rolls:allowed", ...
type RedisStatsStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisStatsOption configures a RedisStatsStore.
type RedisStatsOption func(*RedisStatsStore)

// WithStatsPrefix sets the key prefix.
func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

// WithStatsTTL sets the expiry of per-minute buckets.
func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// NewRedisStatsStore creates a stats store on rdb.
func NewRedisStatsStore(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "dice:rl",
		ttl:    24 * time.Hour,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Record increments the counters for ev in a single pipeline.
func (s *RedisStatsStore) Record(ctx context.Context, ev StatsEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.TotalKey(), field, 1)

	bucketKey := s.MinuteKey(at)
	pipe.HIncrBy(ctx, bucketKey, field, 1)

	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}

	if route := strings.TrimSpace(ev.Method + " " + ev.Route); route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", route+":"+field, 1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording rate limit stats: %w", err)
	}

	return nil
}

// TotalKey is the hash holding cumulative counters.
func (s *RedisStatsStore) TotalKey() string {
	return s.prefix + ":total"
}

// MinuteKey is the hash holding counters for the minute containing at.
func (s *RedisStatsStore) MinuteKey(at time.Time) string {
	return fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
}

// Name implements ports.HealthChecker.
func (s *RedisStatsStore) Name() string { return "redis" }

// Check implements ports.HealthChecker.
func (s *RedisStatsStore) Check(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Optional marks Redis as non-critical: rolls work without statistics.
func (s *RedisStatsStore) Optional() bool { return true }
