package order

import (
	"cmp"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"krakenkit/pkg/core"
	"krakenkit/pkg/wsv2"
)

// Order statuses reported on the v2 executions channel.
const (
	StatusPendingNew      = "pending_new"
	StatusNew             = "new"
	StatusPartiallyFilled = "partially_filled"
	StatusFilled          = "filled"
	StatusCanceled        = "canceled"
	StatusExpired         = "expired"
)

// IsTerminal reports whether an order in status will receive no further updates.
func IsTerminal(status string) bool {
	return status == StatusFilled || status == StatusCanceled || status == StatusExpired
}

// Order is the tracker's merged view of one order.
type Order struct {
	ID            string
	ClientOrderID string
	UserRef       *int64
	Symbol        string
	Side          core.OrderSide
	Type          core.OrderType
	Status        string
	OrderQty      *core.Decimal
	LimitPrice    *core.Decimal
	CumQty        *core.Decimal
	AvgPrice      *core.Decimal
	UpdatedAt     string
}

type Callback func(Order)

// Filter selects orders. Empty fields match anything.
type Filter struct {
	Symbol string
	Side   core.OrderSide
	Status string
}

func (f Filter) Matches(o Order) bool {
	return (f.Symbol == "" || o.Symbol == f.Symbol) &&
		(f.Side == "" || o.Side == f.Side) &&
		(f.Status == "" || o.Status == f.Status)
}

// Tracker maintains open orders from the executions channel. A snapshot
// replaces the tracked set; updates are merged field by field and orders
// leave the set once they reach a terminal status.
type Tracker struct {
	mu        sync.RWMutex
	orders    map[string]*Order
	byClient  map[string]string
	sequence  int64
	callbacks []Callback
	logger    zerolog.Logger
}

func NewTracker() *Tracker {
	return &Tracker{
		orders:   make(map[string]*Order),
		byClient: make(map[string]string),
		logger:   zerolog.Nop(),
	}
}

func (t *Tracker) SetLogger(logger zerolog.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger = logger.With().Str("component", "order_tracker").Logger()
}

// OnUpdate registers fn to receive every order after a change is merged.
func (t *Tracker) OnUpdate(fn Callback) {
	t.mu.Lock()
	t.callbacks = append(t.callbacks, fn)
	t.mu.Unlock()
}

// Apply merges one executions message. Callbacks run after the lock is released.
func (t *Tracker) Apply(msg wsv2.Executions) {
	t.mu.Lock()
	if msg.Type == "snapshot" {
		clear(t.orders)
		clear(t.byClient)
	} else if t.sequence != 0 && msg.Sequence != t.sequence+1 {
		t.logger.Warn().Int64("last", t.sequence).Int64("got", msg.Sequence).Msg("executions sequence gap")
	}
	t.sequence = msg.Sequence

	changed := make([]Order, 0, len(msg.Data))
	for i := range msg.Data {
		o := t.merge(&msg.Data[i])
		changed = append(changed, *o)
		if IsTerminal(o.Status) {
			delete(t.orders, o.ID)
			if o.ClientOrderID != "" {
				delete(t.byClient, o.ClientOrderID)
			}
		}
	}
	callbacks := slices.Clone(t.callbacks)
	t.mu.Unlock()

	for _, o := range changed {
		for _, fn := range callbacks {
			fn(o)
		}
	}
}

func (t *Tracker) merge(e *wsv2.Execution) *Order {
	o, ok := t.orders[e.OrderID]
	if !ok {
		o = &Order{ID: e.OrderID}
		t.orders[e.OrderID] = o
	}

	if e.OrderStatus != "" {
		o.Status = e.OrderStatus
	}
	o.UpdatedAt = e.Timestamp
	if e.ClientOrderID != nil {
		o.ClientOrderID = *e.ClientOrderID
		t.byClient[o.ClientOrderID] = o.ID
	}
	if e.OrderUserRef != nil {
		o.UserRef = e.OrderUserRef
	}
	if e.Symbol != nil {
		o.Symbol = *e.Symbol
	}
	if e.Side != nil {
		o.Side = *e.Side
	}
	if e.OrderType != nil {
		o.Type = *e.OrderType
	}
	if e.OrderQty != nil {
		o.OrderQty = e.OrderQty
	}
	if e.LimitPrice != nil {
		o.LimitPrice = e.LimitPrice
	}
	if e.CumQty != nil {
		o.CumQty = e.CumQty
	}
	if e.AvgPrice != nil {
		o.AvgPrice = e.AvgPrice
	}
	return o
}

func (t *Tracker) Get(orderID string) (Order, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	o, ok := t.orders[orderID]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

func (t *Tracker) GetByClientID(clientOrderID string) (Order, bool) {
	t.mu.RLock()
	id, ok := t.byClient[clientOrderID]
	t.mu.RUnlock()
	if !ok {
		return Order{}, false
	}
	return t.Get(id)
}

// Open returns the tracked orders matching f, sorted by id.
func (t *Tracker) Open(f Filter) []Order {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Order, 0, len(t.orders))
	for _, o := range t.orders {
		if f.Matches(*o) {
			out = append(out, *o)
		}
	}
	slices.SortFunc(out, func(a, b Order) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Sequence is the sequence number of the last applied message.
func (t *Tracker) Sequence() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sequence
}
