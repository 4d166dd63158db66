package auth

import (
	"sync/atomic"
	"time"
)

// NonceProvider produces the strictly increasing integers Kraken requires on
// every signed request.
type NonceProvider interface {
	Next() uint64
}

// IncreasingNonce derives nonces from wall-clock milliseconds. If the clock
// stalls or steps back, it falls back to incrementing the last value by one.
// Safe for concurrent use.
type IncreasingNonce struct {
	last atomic.Uint64
	now  func() time.Time
}

// NewIncreasingNonce creates a wall-clock nonce provider.
func NewIncreasingNonce() *IncreasingNonce {
	return NewIncreasingNonceWithClock(time.Now)
}

// NewIncreasingNonceWithClock creates a nonce provider that reads time from now.
func NewIncreasingNonceWithClock(now func() time.Time) *IncreasingNonce {
	return &IncreasingNonce{now: now}
}

// Next returns a value greater than every value previously returned by n.
func (n *IncreasingNonce) Next() uint64 {
	for {
		last := n.last.Load()
		next := uint64(n.now().UnixMilli())
		if next <= last {
			next = last + 1
		}
		if n.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// FixedNonce always returns the same value. Signatures become reproducible,
// which is only useful in tests.
type FixedNonce uint64

func (f FixedNonce) Next() uint64 { return uint64(f) }
