package ratelimit

import (
	"context"
	"math"
	"time"

	"krakenkit/pkg/core"
)

// OrderTTL is how long an order's placement time is remembered. Orders older
// than this carry no edit or cancel penalty.
const OrderTTL = 300 * time.Second

const (
	addOrderCost   = 100
	batchOrderCost = 50
	purgeThreshold = 1024
)

// TradingLimiter charges matching engine calls against the trading counter.
// Edit and cancel costs depend on how long ago the order was placed, so the
// caller must report every placement through NotifyAddOrder.
type TradingLimiter struct {
	bucket   *DecayBucket
	txids    *TTLCache[string, time.Time]
	userrefs *TTLCache[int64, time.Time]
	clock    Clock
}

// NewTradingLimiter creates a trading limiter for tier. A nil clock means the system clock.
func NewTradingLimiter(tier core.VerificationTier, clock Clock) *TradingLimiter {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TradingLimiter{
		bucket:   NewDecayBucket(core.CategoryTrading.String(), TradingLimits(tier), clock),
		txids:    NewTTLCache[string, time.Time](OrderTTL, clock),
		userrefs: NewTTLCache[int64, time.Time](OrderTTL, clock),
		clock:    clock,
	}
}

// Bucket exposes the underlying decay counter.
func (l *TradingLimiter) Bucket() *DecayBucket { return l.bucket }

func (l *TradingLimiter) AddOrder(ctx context.Context) error {
	return l.bucket.Acquire(ctx, addOrderCost)
}

// AddOrderBatch charges 1 + n/2 orders for a batch of n.
func (l *TradingLimiter) AddOrderBatch(ctx context.Context, n int) error {
	return l.bucket.Acquire(ctx, BatchCost(n))
}

// EditOrder charges one order plus the edit penalty for txid's age.
func (l *TradingLimiter) EditOrder(ctx context.Context, txid string) error {
	penalty := EditPenalty(ageIn(l.txids, l.clock.Now(), txid))
	return l.bucket.Acquire(ctx, float64((penalty+1)*100))
}

// AmendOrder is charged like an edit. The order keeps its txid, so its age restarts.
func (l *TradingLimiter) AmendOrder(ctx context.Context, txid string) error {
	if err := l.EditOrder(ctx, txid); err != nil {
		return err
	}
	if _, ok := l.txids.Get(txid); ok {
		l.txids.Set(txid, l.clock.Now())
	}
	return nil
}

// CancelOrderTxID charges the cancel penalty for the order with txid.
func (l *TradingLimiter) CancelOrderTxID(ctx context.Context, txid string) error {
	penalty := CancelPenalty(ageIn(l.txids, l.clock.Now(), txid))
	return l.bucket.Acquire(ctx, float64(penalty*100))
}

// CancelOrderUserRef charges the cancel penalty for the order placed with userref.
func (l *TradingLimiter) CancelOrderUserRef(ctx context.Context, userref int64) error {
	penalty := CancelPenalty(ageIn(l.userrefs, l.clock.Now(), userref))
	return l.bucket.Acquire(ctx, float64(penalty*100))
}

// CancelOrderBatch charges the summed cancel penalties of every referenced order in one step.
func (l *TradingLimiter) CancelOrderBatch(ctx context.Context, txids []string, userrefs []int64) error {
	total := 0
	for _, id := range txids {
		total += CancelPenalty(ageIn(l.txids, l.clock.Now(), id))
	}
	for _, ref := range userrefs {
		total += CancelPenalty(ageIn(l.userrefs, l.clock.Now(), ref))
	}
	return l.bucket.Acquire(ctx, float64(total*100))
}

// NotifyAddOrder records when an order was placed. userref may be nil.
func (l *TradingLimiter) NotifyAddOrder(txid string, placedAt time.Time, userref *int64) {
	if txid != "" {
		l.txids.Set(txid, placedAt)
	}
	if userref != nil {
		l.userrefs.Set(*userref, placedAt)
	}
	if l.txids.Len()+l.userrefs.Len() > purgeThreshold {
		l.txids.Purge()
		l.userrefs.Purge()
	}
}

// Now reads the limiter's clock. Placement times passed to NotifyAddOrder should come from it.
func (l *TradingLimiter) Now() time.Time { return l.clock.Now() }

// OrderAge returns how long ago txid was placed, if it is still remembered.
func (l *TradingLimiter) OrderAge(txid string) (time.Duration, bool) {
	placed, ok := l.txids.Get(txid)
	if !ok {
		return 0, false
	}
	return l.clock.Now().Sub(placed), true
}

// ageIn treats orders it no longer remembers as old.
func ageIn[K comparable](c *TTLCache[K, time.Time], now time.Time, key K) time.Duration {
	placed, ok := c.Get(key)
	if !ok {
		return time.Duration(math.MaxInt64)
	}
	return now.Sub(placed)
}

// BatchCost is the scaled trading cost of an n-order batch.
func BatchCost(n int) float64 {
	return addOrderCost + float64(n)*batchOrderCost
}

// EditPenalty returns the edit penalty for an order of the given age.
func EditPenalty(age time.Duration) int {
	switch s := age.Seconds(); {
	case s < 5:
		return 6
	case s < 10:
		return 5
	case s < 15:
		return 4
	case s < 45:
		return 3
	case s < 90:
		return 2
	default:
		return 0
	}
}

// CancelPenalty returns the cancel penalty for an order of the given age.
func CancelPenalty(age time.Duration) int {
	switch s := age.Seconds(); {
	case s < 5:
		return 8
	case s < 10:
		return 6
	case s < 15:
		return 5
	case s < 45:
		return 4
	case s < 90:
		return 2
	case s < 300:
		return 1
	default:
		return 0
	}
}
