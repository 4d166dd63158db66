package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"krakenkit/internal/metrics"
	"krakenkit/pkg/core"
)

// RateLimiter admits REST calls per endpoint category. Each category has its
// own state, so a caller waiting on the private counter never holds up a
// public or trading call.
type RateLimiter struct {
	tier    core.VerificationTier
	public  *rate.Limiter
	pairs   sync.Map
	pairRPS rate.Limit
	private *DecayBucket
	trading *TradingLimiter
	stats   *Stats
}

// Stats tracks admission counts across all categories.
type Stats struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
	bucketCount     atomic.Int32
}

// Option configures a RateLimiter.
type Option func(*options)

type options struct {
	clock        Clock
	publicPeriod time.Duration
}

// WithClock injects the clock used by the decay counters.
func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithPublicPeriod overrides the one-call-per-second public window.
func WithPublicPeriod(period time.Duration) Option {
	return func(o *options) { o.publicPeriod = period }
}

// New creates a RateLimiter for an account tier.
func New(tier core.VerificationTier, opts ...Option) *RateLimiter {
	o := options{clock: SystemClock{}, publicPeriod: time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	every := rate.Every(o.publicPeriod)
	return &RateLimiter{
		tier:    tier,
		public:  rate.NewLimiter(every, 1),
		pairRPS: every,
		private: NewDecayBucket(core.CategoryPrivate.String(), PrivateLimits(tier), o.clock),
		trading: NewTradingLimiter(tier, o.clock),
		stats:   &Stats{},
	}
}

// Tier returns the tier the limiter was built for.
func (r *RateLimiter) Tier() core.VerificationTier { return r.tier }

// Private returns the private endpoint counter.
func (r *RateLimiter) Private() *DecayBucket { return r.private }

// Trading returns the matching engine limiter.
func (r *RateLimiter) Trading() *TradingLimiter { return r.trading }

// Acquire waits for admission of req in its category. Trading costs depend on
// the order being placed or touched, so trading requests are admitted by the
// caller through Trading() and pass through here untouched.
func (r *RateLimiter) Acquire(ctx context.Context, req *core.Request) error {
	switch req.Category {
	case core.CategoryPublic:
		return r.Wait(ctx)
	case core.CategoryPublicPair:
		return r.WaitBucket(ctx, req.LimitKey)
	case core.CategoryPrivate:
		return r.track(r.private.Acquire(ctx, float64(req.Cost)))
	case core.CategoryTrading:
		return nil
	}
	return fmt.Errorf("unknown endpoint category %d", req.Category)
}

// Wait blocks until the public window allows a call or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.waitOn(ctx, core.CategoryPublic.String(), r.public)
}

// WaitBucket blocks until the per-key public window allows a call.
// Buckets are created on first use with the public rate.
func (r *RateLimiter) WaitBucket(ctx context.Context, key string) error {
	return r.waitOn(ctx, core.CategoryPublicPair.String(), r.bucket(key))
}

// SetBucketLimit replaces the window for one key, creating it if needed.
func (r *RateLimiter) SetBucketLimit(key string, requests int, period time.Duration) {
	limiter := rate.NewLimiter(rate.Limit(float64(requests)/period.Seconds()), requests)
	if _, loaded := r.pairs.Swap(key, limiter); !loaded {
		r.stats.bucketCount.Add(1)
	}
}

// RemoveBucket drops a per-key window. It reports whether one existed.
func (r *RateLimiter) RemoveBucket(key string) bool {
	_, ok := r.pairs.LoadAndDelete(key)
	if ok {
		r.stats.bucketCount.Add(-1)
	}
	return ok
}

func (r *RateLimiter) bucket(key string) *rate.Limiter {
	if v, ok := r.pairs.Load(key); ok {
		return v.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(r.pairRPS, 1)
	actual, loaded := r.pairs.LoadOrStore(key, limiter)
	if !loaded {
		r.stats.bucketCount.Add(1)
	}
	return actual.(*rate.Limiter)
}

func (r *RateLimiter) waitOn(ctx context.Context, category string, limiter *rate.Limiter) error {
	start := time.Now()
	err := r.track(limiter.Wait(ctx))
	if err != nil {
		metrics.RateLimitCancelled.WithLabelValues(category).Inc()
		return err
	}
	metrics.RateLimitWait.WithLabelValues(category).Observe(time.Since(start).Seconds())
	return nil
}

func (r *RateLimiter) track(err error) error {
	r.stats.totalRequests.Add(1)
	if err != nil {
		r.stats.deniedRequests.Add(1)
		return err
	}
	r.stats.allowedRequests.Add(1)
	return nil
}

// Stats returns a snapshot of the admission counters.
func (r *RateLimiter) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalRequests:   r.stats.totalRequests.Load(),
		AllowedRequests: r.stats.allowedRequests.Load(),
		DeniedRequests:  r.stats.deniedRequests.Load(),
		BucketCount:     r.stats.bucketCount.Load(),
	}
}

// StatsSnapshot is a point-in-time capture of limiter statistics.
type StatsSnapshot struct {
	// TotalRequests counts every admission attempt outside the trading limiter.
	TotalRequests int64
	// AllowedRequests counts admitted calls.
	AllowedRequests int64
	// DeniedRequests counts calls abandoned because their context ended.
	DeniedRequests int64
	// BucketCount is the number of per-key public windows in use.
	BucketCount int32
}

var heavyPrivateEndpoints = map[string]bool{
	"ClosedOrders":  true,
	"TradesHistory": true,
	"Ledgers":       true,
	"QueryLedgers":  true,
}

// PrivateCost returns the scaled private counter cost of an endpoint path
// such as "/0/private/Ledgers".
func PrivateCost(path string) int {
	name := path[strings.LastIndexByte(path, '/')+1:]
	if heavyPrivateEndpoints[name] {
		return 200
	}
	return 100
}
