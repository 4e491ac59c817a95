// Package ratelimit throttles callers with a per-key token bucket and
// optionally records allow/deny counts in Redis.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL      = 15 * time.Minute
	defaultCleanupEvery = 2 * time.Minute
)

// Store caches one token bucket per key and forgets keys idle for longer
// than the idle TTL.
type Store struct {
	mu           sync.Mutex
	entries      map[string]*storeEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type storeEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIdleTTL sets how long an unused key is kept.
func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

// WithCleanupEvery sets the janitor interval.
func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.cleanupEvery = d
		}
	}
}

// NewStore creates a store allowing rps sustained requests per key with
// bursts up to burst.
func NewStore(rps float64, burst int, opts ...StoreOption) *Store {
	s := &Store{
		entries:      make(map[string]*storeEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      defaultIdleTTL,
		cleanupEvery: defaultCleanupEvery,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RPS returns the sustained rate per key.
func (s *Store) RPS() float64 { return float64(s.rps) }

// Burst returns the bucket size per key.
func (s *Store) Burst() int { return s.burst }

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Allow takes one token for key. A denied call consumes nothing and reports
// how long until a token is available.
func (s *Store) Allow(key string) Decision {
	lim := s.limiter(key)
	now := s.now()

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return Decision{RetryAfter: time.Second}
	}

	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{RetryAfter: delay}
	}

	return Decision{Allowed: true, Remaining: max(int(lim.TokensAt(now)), 0)}
}

// Len returns the number of tracked keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

func (s *Store) limiter(key string) *rate.Limiter {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &storeEntry{lim: lim, lastSeen: now}

	return lim
}

// Cleanup drops keys idle for longer than the idle TTL.
func (s *Store) Cleanup() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor runs Cleanup periodically until ctx is done.
func (s *Store) StartJanitor(ctx context.Context) {
	t := time.NewTicker(s.cleanupEvery)

	go func() {
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
