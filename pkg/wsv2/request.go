package wsv2

import "krakenkit/pkg/core"

// Request is the envelope of every client message. Params is omitted when nil.
type Request struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
	ReqID  int64  `json:"req_id"`
}

func NewRequest(method string, reqID int64, params any) Request {
	return Request{Method: method, Params: params, ReqID: reqID}
}

func NewPing(reqID int64) Request {
	return Request{Method: "ping", ReqID: reqID}
}

func NewSubscribe(reqID int64, params SubscriptionParams) Request {
	return NewRequest("subscribe", reqID, params)
}

func NewUnsubscribe(reqID int64, params SubscriptionParams) Request {
	return NewRequest("unsubscribe", reqID, params)
}

// Number is a Decimal that encodes as a bare JSON number, which is what v2
// trading requests expect.
type Number struct {
	core.Decimal
}

func Num(d core.Decimal) *Number {
	return &Number{Decimal: d}
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

// SubscriptionParams selects a channel. Build it with one of the
// constructors; the remaining fields are omitted when unset.
type SubscriptionParams struct {
	Channel        string      `json:"channel"`
	Symbol         []string    `json:"symbol,omitempty"`
	Depth          int         `json:"depth,omitempty"`
	Interval       int         `json:"interval,omitempty"`
	EventTrigger   string      `json:"event_trigger,omitempty"`
	Snapshot       *bool       `json:"snapshot,omitempty"`
	SnapshotTrades *bool       `json:"snapshot_trades,omitempty"`
	RateCounter    *bool       `json:"ratecounter,omitempty"`
	Token          *core.Token `json:"token,omitempty"`
}

func TickerSubscription(symbols ...string) SubscriptionParams {
	return SubscriptionParams{Channel: "ticker", Symbol: symbols}
}

// BookSubscription subscribes to the L2 book. Valid depths are 10, 25, 100,
// 500 and 1000; zero uses the server default.
func BookSubscription(depth int, symbols ...string) SubscriptionParams {
	return SubscriptionParams{Channel: "book", Depth: depth, Symbol: symbols}
}

// Level3Subscription subscribes to the individual order book. It needs an
// authenticated connection.
func Level3Subscription(token core.Token, symbols ...string) SubscriptionParams {
	return SubscriptionParams{Channel: "level3", Symbol: symbols, Token: &token}
}

func OHLCSubscription(interval int, symbols ...string) SubscriptionParams {
	return SubscriptionParams{Channel: "ohlc", Interval: interval, Symbol: symbols}
}

func TradeSubscription(symbols ...string) SubscriptionParams {
	return SubscriptionParams{Channel: "trade", Symbol: symbols}
}

func InstrumentSubscription() SubscriptionParams {
	return SubscriptionParams{Channel: "instrument"}
}

func ExecutionsSubscription(token core.Token) SubscriptionParams {
	return SubscriptionParams{Channel: "executions", Token: &token}
}

func BalancesSubscription(token core.Token) SubscriptionParams {
	return SubscriptionParams{Channel: "balances", Token: &token}
}

// WithSnapshot returns a copy of p that asks for (or declines) the initial snapshot.
func (p SubscriptionParams) WithSnapshot(snapshot bool) SubscriptionParams {
	p.Snapshot = &snapshot
	return p
}

func (p SubscriptionParams) WithSnapshotTrades(snapshot bool) SubscriptionParams {
	p.SnapshotTrades = &snapshot
	return p
}

func (p SubscriptionParams) WithEventTrigger(trigger string) SubscriptionParams {
	p.EventTrigger = trigger
	return p
}

type TriggerParams struct {
	Price     Number `json:"price"`
	PriceType string `json:"price_type,omitempty"`
	Reference string `json:"reference,omitempty"`
}

type ConditionalParams struct {
	OrderType        core.OrderType `json:"order_type,omitempty"`
	LimitPrice       *Number        `json:"limit_price,omitempty"`
	LimitPriceType   string         `json:"limit_price_type,omitempty"`
	TriggerPrice     *Number        `json:"trigger_price,omitempty"`
	TriggerPriceType string         `json:"trigger_price_type,omitempty"`
}

// OrderParams are the fields shared by add_order and each batch_add entry.
type OrderParams struct {
	OrderType      core.OrderType     `json:"order_type"`
	Side           core.OrderSide     `json:"side"`
	OrderQty       Number             `json:"order_qty"`
	LimitPrice     *Number            `json:"limit_price,omitempty"`
	LimitPriceType string             `json:"limit_price_type,omitempty"`
	Triggers       *TriggerParams     `json:"triggers,omitempty"`
	TimeInForce    string             `json:"time_in_force,omitempty"`
	Margin         *bool              `json:"margin,omitempty"`
	PostOnly       *bool              `json:"post_only,omitempty"`
	ReduceOnly     *bool              `json:"reduce_only,omitempty"`
	EffectiveTime  string             `json:"effective_time,omitempty"`
	ExpireTime     string             `json:"expire_time,omitempty"`
	OrderUserRef   *int64             `json:"order_userref,omitempty"`
	Conditional    *ConditionalParams `json:"conditional,omitempty"`
	DisplayQty     *Number            `json:"display_qty,omitempty"`
	FeePreference  string             `json:"fee_preference,omitempty"`
	NoMPP          *bool              `json:"no_mpp,omitempty"`
	STPType        string             `json:"stp_type,omitempty"`
	CashOrderQty   *Number            `json:"cash_order_qty,omitempty"`
	ClientOrderID  string             `json:"cl_ord_id,omitempty"`
}

type AddOrderParams struct {
	OrderParams
	Symbol   string     `json:"symbol"`
	Deadline string     `json:"deadline,omitempty"`
	Validate *bool      `json:"validate,omitempty"`
	Token    core.Token `json:"token"`
}

type AmendOrderParams struct {
	OrderID       string     `json:"order_id,omitempty"`
	ClientOrderID string     `json:"cl_ord_id,omitempty"`
	OrderQty      *Number    `json:"order_qty,omitempty"`
	DisplayQty    *Number    `json:"display_qty,omitempty"`
	LimitPrice    *Number    `json:"limit_price,omitempty"`
	TriggerPrice  *Number    `json:"trigger_price,omitempty"`
	PostOnly      *bool      `json:"post_only,omitempty"`
	Deadline      string     `json:"deadline,omitempty"`
	Token         core.Token `json:"token"`
}

type EditOrderParams struct {
	OrderID       string         `json:"order_id"`
	Symbol        string         `json:"symbol"`
	OrderQty      *Number        `json:"order_qty,omitempty"`
	DisplayQty    *Number        `json:"display_qty,omitempty"`
	LimitPrice    *Number        `json:"limit_price,omitempty"`
	Triggers      *TriggerParams `json:"triggers,omitempty"`
	OrderUserRef  *int64         `json:"order_userref,omitempty"`
	PostOnly      *bool          `json:"post_only,omitempty"`
	ReduceOnly    *bool          `json:"reduce_only,omitempty"`
	NoMPP         *bool          `json:"no_mpp,omitempty"`
	FeePreference string         `json:"fee_preference,omitempty"`
	Deadline      string         `json:"deadline,omitempty"`
	Validate      *bool          `json:"validate,omitempty"`
	Token         core.Token     `json:"token"`
}

type CancelOrderParams struct {
	OrderIDs       []string   `json:"order_id,omitempty"`
	ClientOrderIDs []string   `json:"cl_ord_id,omitempty"`
	OrderUserRefs  []int64    `json:"order_userref,omitempty"`
	Token          core.Token `json:"token"`
}

type CancelAllParams struct {
	Token core.Token `json:"token"`
}

// CancelAllAfterParams arms the dead man's switch. A zero timeout disarms it.
type CancelAllAfterParams struct {
	Timeout int64      `json:"timeout"`
	Token   core.Token `json:"token"`
}

type BatchAddParams struct {
	Symbol   string        `json:"symbol"`
	Orders   []OrderParams `json:"orders"`
	Deadline string        `json:"deadline,omitempty"`
	Validate *bool         `json:"validate,omitempty"`
	Token    core.Token    `json:"token"`
}

// BatchCancelParams cancels by order id (string) or userref (int64).
type BatchCancelParams struct {
	Orders         []any      `json:"orders"`
	ClientOrderIDs []string   `json:"cl_ord_id,omitempty"`
	Token          core.Token `json:"token"`
}

func NewAddOrder(reqID int64, p AddOrderParams) Request {
	return NewRequest("add_order", reqID, p)
}

func NewAmendOrder(reqID int64, p AmendOrderParams) Request {
	return NewRequest("amend_order", reqID, p)
}

func NewEditOrder(reqID int64, p EditOrderParams) Request {
	return NewRequest("edit_order", reqID, p)
}

func NewCancelOrder(reqID int64, p CancelOrderParams) Request {
	return NewRequest("cancel_order", reqID, p)
}

func NewCancelAll(reqID int64, token core.Token) Request {
	return NewRequest("cancel_all", reqID, CancelAllParams{Token: token})
}

func NewCancelAllAfter(reqID int64, timeout int64, token core.Token) Request {
	return NewRequest("cancel_all_orders_after", reqID, CancelAllAfterParams{Timeout: timeout, Token: token})
}

func NewBatchAdd(reqID int64, p BatchAddParams) Request {
	return NewRequest("batch_add", reqID, p)
}

func NewBatchCancel(reqID int64, p BatchCancelParams) Request {
	return NewRequest("batch_cancel", reqID, p)
}
