package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"krakenkit/pkg/core"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	FailThreshold    int           `json:"fail_threshold" validate:"min=1"`
	SuccessThreshold int           `json:"success_threshold" validate:"min=1"`
	Timeout          time.Duration `json:"timeout" validate:"min=1ms"`
}

// Breaker stops REST calls after FailThreshold consecutive failures and lets a
// probe through once Timeout has passed since the last failure. Only outages
// count as failures: a rejected order or a bad nonce says nothing about
// whether the exchange is reachable.
type Breaker struct {
	cfg    Config
	now    func() time.Time
	logger zerolog.Logger

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	lastFail  time.Time
	stats     MetricsSnapshot
}

type Option func(*Breaker)

func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(b *Breaker) { b.logger = logger }
}

func New(config Config, opts ...Option) *Breaker {
	b := &Breaker{
		cfg:    config,
		now:    time.Now,
		logger: zerolog.Nop(),
		state:  StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow reports whether a call may proceed, moving an expired open breaker to half-open.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.TotalRequests++
	switch b.state {
	case StateOpen:
		if b.now().Sub(b.lastFail) < b.cfg.Timeout {
			b.stats.RejectedRequests++
			return false
		}
		b.transitionLocked(StateHalfOpen)
	}
	return true
}

// Record feeds the outcome of an allowed call back into the breaker.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.stats.SuccessRequests++
		switch b.state {
		case StateClosed:
			b.failures = 0
		case StateHalfOpen:
			b.successes++
			if b.successes >= b.cfg.SuccessThreshold {
				b.transitionLocked(StateClosed)
			}
		}
		return
	}

	b.stats.FailedRequests++
	b.lastFail = b.now()
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailThreshold {
			b.transitionLocked(StateOpen)
		}
	case StateHalfOpen:
		b.transitionLocked(StateOpen)
	}
}

// Execute runs fn if the breaker allows it and records whether the error was an outage.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !b.Allow() {
		return core.ErrCircuitBreakerOpen
	}
	err := fn(ctx)
	b.Record(!IsFailure(err))
	return err
}

func (b *Breaker) transitionLocked(next State) {
	if b.state == next {
		return
	}
	b.logger.Warn().
		Str("from", b.state.String()).
		Str("to", next.String()).
		Int("failures", b.failures).
		Msg("circuit breaker state change")
	b.state = next
	b.failures = 0
	b.successes = 0
	b.stats.StateChanges++
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}

func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) Metrics() MetricsSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := b.stats
	snap.CurrentState = b.state.String()
	return snap
}

type MetricsSnapshot struct {
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	RejectedRequests int64
	StateChanges     int32
	CurrentState     string
}

// IsFailure reports whether err indicates the exchange is unreachable or failing.
// Context cancellation by the caller is not a failure.
func IsFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if core.IsNetworkError(err) || core.IsTimeoutError(err) {
		return true
	}
	var statusErr *core.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	var exErr *core.ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Type == core.ErrorTypeServerError
	}
	return false
}
