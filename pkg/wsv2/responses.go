package wsv2

// Header is shared by every reply to a request. Success is false when the
// request was rejected, and Error then holds the reason.
type Header struct {
	Method  string `json:"method"`
	ReqID   int64  `json:"req_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Status  string `json:"status,omitempty"`
	TimeIn  string `json:"time_in"`
	TimeOut string `json:"time_out"`
}

// MethodResponse is the reply to a trading request. Result is nil when the
// request failed.
type MethodResponse[T any] struct {
	Header
	Result *T `json:"result,omitempty"`
}

func (MethodResponse[T]) isMessage() {}

type AddOrderResult struct {
	OrderID       string   `json:"order_id"`
	OrderUserRef  *int64   `json:"order_userref,omitempty"`
	ClientOrderID string   `json:"cl_ord_id,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

type AmendOrderResult struct {
	AmendID       string   `json:"amend_id"`
	OrderID       string   `json:"order_id,omitempty"`
	ClientOrderID string   `json:"cl_ord_id,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

type EditOrderResult struct {
	OrderID         string   `json:"order_id"`
	OriginalOrderID string   `json:"original_order_id"`
	Warnings        []string `json:"warnings,omitempty"`
}

type CancelOrderResult struct {
	OrderID       string   `json:"order_id"`
	ClientOrderID string   `json:"cl_ord_id,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

type CancelAllResult struct {
	Count    int      `json:"count"`
	Warnings []string `json:"warnings,omitempty"`
}

type CancelAllAfterResult struct {
	CurrentTime string   `json:"currentTime"`
	TriggerTime string   `json:"triggerTime"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Empty is the result of requests that return nothing.
type Empty struct{}

type (
	AddOrderResponse       = MethodResponse[AddOrderResult]
	AmendOrderResponse     = MethodResponse[AmendOrderResult]
	EditOrderResponse      = MethodResponse[EditOrderResult]
	CancelOrderResponse    = MethodResponse[CancelOrderResult]
	CancelAllResponse      = MethodResponse[CancelAllResult]
	CancelAllAfterResponse = MethodResponse[CancelAllAfterResult]
	BatchAddResponse       = MethodResponse[[]AddOrderResult]
	PingResponse           = MethodResponse[Empty]
)

// BatchCancelResponse reports its count at the top level instead of in a result.
type BatchCancelResponse struct {
	Header
	OrdersCancelled int64    `json:"orders_cancelled"`
	ClientOrderIDs  []string `json:"cl_ord_id,omitempty"`
}

// Pong answers a ping request.
type Pong struct {
	Header
	Warnings []string `json:"warning,omitempty"`
}

// SubscribeResponse acknowledges a subscribe or unsubscribe request. The
// concrete type of Result depends on the channel and is nil on failure.
type SubscribeResponse struct {
	Header
	Result SubscriptionResult
}

// SubscriptionResult is implemented by the per-channel acknowledgement bodies.
type SubscriptionResult interface {
	SubscribedChannel() string
}

type TickerSubscribed struct {
	Channel      string   `json:"channel"`
	Symbol       string   `json:"symbol"`
	EventTrigger string   `json:"event_trigger,omitempty"`
	Snapshot     *bool    `json:"snapshot,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

type BookSubscribed struct {
	Channel  string   `json:"channel"`
	Symbol   string   `json:"symbol"`
	Depth    int      `json:"depth"`
	Snapshot *bool    `json:"snapshot,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type OHLCSubscribed struct {
	Channel  string   `json:"channel"`
	Symbol   string   `json:"symbol"`
	Interval int      `json:"interval"`
	Snapshot *bool    `json:"snapshot,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// MarketSubscribed acknowledges trade, level3 and instrument subscriptions.
// Symbol is empty for instrument.
type MarketSubscribed struct {
	Channel  string   `json:"channel"`
	Symbol   string   `json:"symbol,omitempty"`
	Snapshot *bool    `json:"snapshot,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type ExecutionsSubscribed struct {
	Channel      string   `json:"channel"`
	MaxRateCount *int64   `json:"maxratecount,omitempty"`
	Snapshot     *bool    `json:"snapshot,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

type BalancesSubscribed struct {
	Channel  string   `json:"channel"`
	Snapshot *bool    `json:"snapshot,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r TickerSubscribed) SubscribedChannel() string     { return r.Channel }
func (r BookSubscribed) SubscribedChannel() string       { return r.Channel }
func (r OHLCSubscribed) SubscribedChannel() string       { return r.Channel }
func (r MarketSubscribed) SubscribedChannel() string     { return r.Channel }
func (r ExecutionsSubscribed) SubscribedChannel() string { return r.Channel }
func (r BalancesSubscribed) SubscribedChannel() string   { return r.Channel }

func (BatchCancelResponse) isMessage() {}
func (Pong) isMessage()                {}
func (SubscribeResponse) isMessage()   {}
