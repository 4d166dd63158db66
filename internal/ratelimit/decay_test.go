package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenkit/pkg/core"
)

// fakeClock advances instantly on Sleep and records the total time slept.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	c.mu.Lock()
	c.slept += d
	c.mu.Unlock()
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept
}

// stuckClock never moves; Sleep only returns when ctx ends.
type stuckClock struct {
	now     time.Time
	started chan struct{}
	once    sync.Once
}

func newStuckClock() *stuckClock {
	return &stuckClock{now: time.Unix(1700000000, 0), started: make(chan struct{})}
}

func (c *stuckClock) Now() time.Time { return c.now }

func (c *stuckClock) Sleep(ctx context.Context, d time.Duration) error {
	c.once.Do(func() { close(c.started) })
	<-ctx.Done()
	return ctx.Err()
}

func TestLimits_Tiers(t *testing.T) {
	tests := []struct {
		tier    core.VerificationTier
		private Limits
		trading Limits
	}{
		{core.TierStarter, Limits{1500, 33}, Limits{6000, 100}},
		{core.TierIntermediate, Limits{2000, 50}, Limits{12500, 234}},
		{core.TierPro, Limits{2000, 100}, Limits{18000, 375}},
	}

	for _, tt := range tests {
		t.Run(tt.tier.String(), func(t *testing.T) {
			assert.Equal(t, tt.private, PrivateLimits(tt.tier))
			assert.Equal(t, tt.trading, TradingLimits(tt.tier))
		})
	}
}

func TestDecayBucket_IntermediatePrivateBurst(t *testing.T) {
	clock := newFakeClock()
	b := NewDecayBucket("private", PrivateLimits(core.TierIntermediate), clock)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, b.Acquire(ctx, 100))
	}
	assert.Zero(t, clock.Slept(), "the first 20 calls fit in capacity")

	require.NoError(t, b.Acquire(ctx, 100))
	assert.InDelta(t, 2.0, clock.Slept().Seconds(), 0.001)

	require.NoError(t, b.Acquire(ctx, 100))
	assert.InDelta(t, 4.0, clock.Slept().Seconds(), 0.001)
	assert.InDelta(t, 2000, b.Usage(), 0.1)
}

func TestDecayBucket_Decays(t *testing.T) {
	clock := newFakeClock()
	b := NewDecayBucket("private", Limits{Capacity: 2000, Rate: 50}, clock)

	require.NoError(t, b.Acquire(context.Background(), 1000))
	clock.Advance(10 * time.Second)
	assert.InDelta(t, 500, b.Usage(), 0.001)

	clock.Advance(time.Minute)
	assert.Zero(t, b.Usage(), "usage never goes below zero")
	assert.Zero(t, b.Wait(2000))
	assert.Equal(t, time.Second, b.Wait(2050))
}

func TestDecayBucket_CancelLeavesStateUntouched(t *testing.T) {
	clock := newStuckClock()
	b := NewDecayBucket("private", Limits{Capacity: 2000, Rate: 50}, clock)
	require.NoError(t, b.Acquire(context.Background(), 2000))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := b.Acquire(ctx, 100)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2000.0, b.Usage())

	// The slot was released, so a call that fits is admitted straight away.
	clock.now = clock.now.Add(2 * time.Second)
	require.NoError(t, b.Acquire(context.Background(), 100))
	assert.Equal(t, 2000.0, b.Usage())
}

func TestDecayBucket_QueuedCallerCanGiveUp(t *testing.T) {
	clock := newStuckClock()
	b := NewDecayBucket("private", Limits{Capacity: 100, Rate: 1}, clock)
	require.NoError(t, b.Acquire(context.Background(), 100))

	headCtx, cancelHead := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Acquire(headCtx, 50) }()
	<-clock.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Acquire(ctx, 1), context.DeadlineExceeded)

	cancelHead()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 100.0, b.Usage())
}

func TestDecayBucket_NoLostUpdates(t *testing.T) {
	clock := newFakeClock()
	b := NewDecayBucket("private", Limits{Capacity: 1e6, Rate: 1}, clock)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Go(func() {
			assert.NoError(t, b.Acquire(context.Background(), 10))
		})
	}
	wg.Wait()

	assert.Equal(t, 500.0, b.Usage())
}
