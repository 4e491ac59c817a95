package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newTestStore(rps float64, burst int, opts ...StoreOption) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
	s := NewStore(rps, burst, opts...)
	s.now = clock.Now

	return s, clock
}

func TestStore_AllowBurstThenDeny(t *testing.T) {
	s, _ := newTestStore(1, 3)

	for i := range 3 {
		dec := s.Allow("10.0.0.1")
		require.True(t, dec.Allowed, "request %d", i)
		assert.Equal(t, 2-i, dec.Remaining)
	}

	dec := s.Allow("10.0.0.1")
	assert.False(t, dec.Allowed)
	assert.Equal(t, time.Second, dec.RetryAfter)
}

func TestStore_RefillsOverTime(t *testing.T) {
	s, clock := newTestStore(2, 1)

	require.True(t, s.Allow("k").Allowed)
	require.False(t, s.Allow("k").Allowed)

	clock.Advance(500 * time.Millisecond)

	assert.True(t, s.Allow("k").Allowed)
}

func TestStore_DeniedCallsDoNotConsume(t *testing.T) {
	s, clock := newTestStore(1, 1)

	require.True(t, s.Allow("k").Allowed)
	for range 5 {
		require.False(t, s.Allow("k").Allowed)
	}

	clock.Advance(time.Second)

	assert.True(t, s.Allow("k").Allowed)
}

func TestStore_KeysAreIndependent(t *testing.T) {
	s, _ := newTestStore(1, 1)

	assert.True(t, s.Allow("a").Allowed)
	assert.True(t, s.Allow("b").Allowed)
	assert.False(t, s.Allow("a").Allowed)
	assert.Equal(t, 2, s.Len())
}

func TestStore_CleanupDropsIdleKeys(t *testing.T) {
	s, clock := newTestStore(1, 1, WithIdleTTL(time.Minute))

	s.Allow("old")
	clock.Advance(2 * time.Minute)
	s.Allow("fresh")

	s.Cleanup()

	assert.Equal(t, 1, s.Len())
}

func TestStore_Options(t *testing.T) {
	s := NewStore(5, 10, WithIdleTTL(0), WithCleanupEvery(time.Second))

	assert.InDelta(t, 5.0, s.RPS(), 0)
	assert.Equal(t, 10, s.Burst())
	assert.Equal(t, defaultIdleTTL, s.idleTTL)
	assert.Equal(t, time.Second, s.cleanupEvery)
}

func TestStore_JanitorStopsWithContext(t *testing.T) {
	s, clock := newTestStore(1, 1, WithIdleTTL(time.Second), WithCleanupEvery(10*time.Millisecond))

	s.Allow("k")
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.StartJanitor(ctx)

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 10*time.Millisecond)
}
