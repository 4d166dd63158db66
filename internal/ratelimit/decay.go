package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"krakenkit/internal/metrics"
	"krakenkit/pkg/core"
)

// Limits describes a decay bucket: usage may not exceed Capacity and drains
// at Rate units per second. Kraken's fractional costs are scaled by 100.
type Limits struct {
	Capacity float64
	Rate     float64
}

// PrivateLimits returns the private endpoint counter for a tier.
func PrivateLimits(tier core.VerificationTier) Limits {
	switch tier {
	case core.TierStarter:
		return Limits{Capacity: 1500, Rate: 33}
	case core.TierPro:
		return Limits{Capacity: 2000, Rate: 100}
	default:
		return Limits{Capacity: 2000, Rate: 50}
	}
}

// TradingLimits returns the matching engine counter for a tier.
func TradingLimits(tier core.VerificationTier) Limits {
	switch tier {
	case core.TierStarter:
		return Limits{Capacity: 6000, Rate: 100}
	case core.TierPro:
		return Limits{Capacity: 18000, Rate: 375}
	default:
		return Limits{Capacity: 12500, Rate: 234}
	}
}

// DecayBucket is a counter that drains continuously and admits a call once
// usage+cost fits under capacity.
//
// Acquire calls on one bucket are serialised: the caller at the head holds the
// admission slot while it sleeps off its deficit. The slot is a channel so a
// queued caller can still give up when its context ends. State changes are
// committed in one step after the sleep, so a cancelled Acquire leaves the
// bucket exactly as it found it.
type DecayBucket struct {
	name   string
	limits Limits
	clock  Clock
	slot   chan struct{}

	mu    sync.Mutex
	usage float64
	last  time.Time
}

// NewDecayBucket creates a bucket. A nil clock means the system clock.
func NewDecayBucket(name string, limits Limits, clock Clock) *DecayBucket {
	if clock == nil {
		clock = SystemClock{}
	}
	return &DecayBucket{
		name:   name,
		limits: limits,
		clock:  clock,
		slot:   make(chan struct{}, 1),
		last:   clock.Now(),
	}
}

// Name returns the bucket's category label.
func (b *DecayBucket) Name() string { return b.name }

// Limits returns the bucket's capacity and rate.
func (b *DecayBucket) Limits() Limits { return b.limits }

// Acquire waits until cost fits in the bucket and then charges it.
// It returns ctx.Err() without charging anything if ctx ends first.
func (b *DecayBucket) Acquire(ctx context.Context, cost float64) error {
	select {
	case b.slot <- struct{}{}:
	case <-ctx.Done():
		metrics.RateLimitCancelled.WithLabelValues(b.name).Inc()
		return ctx.Err()
	}
	defer func() { <-b.slot }()

	start := b.clock.Now()
	wait := b.waitFor(b.decayedAt(start), cost)
	if wait > 0 {
		if err := b.clock.Sleep(ctx, wait); err != nil {
			metrics.RateLimitCancelled.WithLabelValues(b.name).Inc()
			return err
		}
	}

	now := b.clock.Now()
	b.mu.Lock()
	b.usage = b.decayedLocked(now) + cost
	b.last = now
	usage := b.usage
	b.mu.Unlock()

	metrics.RateLimitWait.WithLabelValues(b.name).Observe(now.Sub(start).Seconds())
	metrics.RateLimitUsage.WithLabelValues(b.name).Set(usage)
	return nil
}

// Wait returns how long Acquire(cost) would currently sleep, ignoring queued callers.
func (b *DecayBucket) Wait(cost float64) time.Duration {
	return b.waitFor(b.decayedAt(b.clock.Now()), cost)
}

// Usage returns the decayed usage at the current instant.
func (b *DecayBucket) Usage() float64 {
	return b.decayedAt(b.clock.Now())
}

func (b *DecayBucket) decayedAt(now time.Time) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.decayedLocked(now)
}

func (b *DecayBucket) decayedLocked(now time.Time) float64 {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return math.Max(0, b.usage-elapsed*b.limits.Rate)
}

func (b *DecayBucket) waitFor(usage, cost float64) time.Duration {
	deficit := usage + cost - b.limits.Capacity
	if deficit <= 0 || b.limits.Rate <= 0 {
		return 0
	}
	return time.Duration(deficit / b.limits.Rate * float64(time.Second))
}
