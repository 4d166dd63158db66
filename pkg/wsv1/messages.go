// Package wsv1 models Kraken's v1 WebSocket protocol.
//
// Object frames carry an "event" field. Array frames are positional: the
// channel name sits in the second-to-last slot, e.g.
//
//	[channelID, payload, "ticker", "XBT/USD"]
//	[payload, "openOrders", {"sequence": 4}]
//
// Classify turns one frame into exactly one Message.
package wsv1

import "krakenkit/pkg/core"

// Message is implemented by every frame type Classify can return.
type Message interface {
	isMessage()
}

type Heartbeat struct{}

// PingPong is a ping sent by the client or the server's pong reply.
type PingPong struct {
	Event string `json:"event"`
	ReqID int64  `json:"reqid"`
}

type SystemStatus struct {
	ConnectionID uint64 `json:"connectionID"`
	Event        string `json:"event"`
	Status       string `json:"status"`
	Version      string `json:"version"`
}

// SubscriptionResponse echoes the subscription a status refers to.
type SubscriptionResponse struct {
	Name         string     `json:"name"`
	Depth        int        `json:"depth,omitempty"`
	Interval     int        `json:"interval,omitempty"`
	MaxRateCount int        `json:"maxratecount,omitempty"`
	Token        core.Token `json:"token"`
}

// SubscriptionStatus acknowledges a subscribe or unsubscribe. A rejected
// request has Status "error" and the reason in ErrorMessage.
type SubscriptionStatus struct {
	ChannelID    *int64               `json:"channelID,omitempty"`
	ChannelName  string               `json:"channelName"`
	Event        string               `json:"event"`
	Pair         string               `json:"pair,omitempty"`
	ReqID        int64                `json:"reqid"`
	Status       string               `json:"status"`
	Subscription SubscriptionResponse `json:"subscription"`
	ErrorMessage string               `json:"errorMessage,omitempty"`
}

// ErrorMessage is an order request the server rejected. Meta holds every
// other field of the frame.
type ErrorMessage struct {
	Event        string
	ErrorMessage string
	ReqID        *int64
	Meta         map[string]any
}

type AddOrderStatus struct {
	Event  string `json:"event"`
	ReqID  *int64 `json:"reqid,omitempty"`
	Status string `json:"status"`
	TxID   string `json:"txid"`
	Descr  string `json:"descr"`
}

type EditOrderStatus struct {
	Event        string `json:"event"`
	ReqID        *int64 `json:"reqid,omitempty"`
	Status       string `json:"status"`
	TxID         string `json:"txid"`
	OriginalTxID string `json:"originaltxid"`
	Descr        string `json:"descr"`
}

type CancelOrderStatus struct {
	Event  string `json:"event"`
	ReqID  *int64 `json:"reqid,omitempty"`
	Status string `json:"status"`
}

type CancelAllStatus struct {
	Event  string `json:"event"`
	ReqID  *int64 `json:"reqid,omitempty"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type CancelAllAfterStatus struct {
	Event       string `json:"event"`
	ReqID       *int64 `json:"reqid,omitempty"`
	Status      string `json:"status"`
	CurrentTime string `json:"currentTime"`
	TriggerTime string `json:"triggerTime"`
}

// Channel identifies the public subscription a data frame belongs to.
type Channel struct {
	ID   int64
	Name string
	Pair string
}

// BidAsk is a best price: [price, whole lot volume, lot volume].
type BidAsk struct {
	Price          core.Decimal
	WholeLotVolume core.Decimal
	LotVolume      core.Decimal
}

// Window is a [today, last 24 hours] pair.
type Window struct {
	Today   core.Decimal
	Last24h core.Decimal
}

type TickerInfo struct {
	Ask        BidAsk
	Bid        BidAsk
	ClosePrice core.Decimal
	CloseLot   core.Decimal
	Volume     Window
	VWAP       Window
	Trades     [2]int64
	Low        Window
	High       Window
	Open       Window
}

type Ticker struct {
	Channel
	Ticker TickerInfo
}

type PublicTrade struct {
	Price     core.Decimal
	Volume    core.Decimal
	Time      string
	Side      string // "b" or "s"
	OrderType string // "m" or "l"
	Misc      string
}

type Trade struct {
	Channel
	Trades []PublicTrade
}

type SpreadInfo struct {
	Bid       core.Decimal
	Ask       core.Decimal
	Timestamp string
	BidVolume core.Decimal
	AskVolume core.Decimal
}

type Spread struct {
	Channel
	Spread SpreadInfo
}

type Candle struct {
	Time    string
	EndTime string
	Open    core.Decimal
	High    core.Decimal
	Low     core.Decimal
	Close   core.Decimal
	VWAP    core.Decimal
	Volume  core.Decimal
	Count   int64
}

type OHLC struct {
	Channel
	Candle Candle
}

// BookLevel is one price level. UpdateType is "r" for a republished level.
type BookLevel struct {
	Price      core.Decimal
	Volume     core.Decimal
	Timestamp  string
	UpdateType string
}

type BookSnapshot struct {
	Channel
	Asks []BookLevel
	Bids []BookLevel
}

// BookUpdate carries changed levels for one or both sides and the checksum of
// the book after they are applied.
type BookUpdate struct {
	Channel
	Asks     []BookLevel
	Bids     []BookLevel
	Checksum string
}

type OwnTrade struct {
	TradeID   string       `json:"-"`
	OrderTxID string       `json:"ordertxid"`
	PosTxID   string       `json:"postxid"`
	Pair      string       `json:"pair"`
	Time      string       `json:"time"`
	Side      string       `json:"type"`
	OrderType string       `json:"ordertype"`
	Price     core.Decimal `json:"price"`
	Cost      core.Decimal `json:"cost"`
	Fee       core.Decimal `json:"fee"`
	Volume    core.Decimal `json:"vol"`
	Margin    core.Decimal `json:"margin"`
	UserRef   *int64       `json:"userref,omitempty"`
}

type OwnTrades struct {
	Trades      []OwnTrade
	ChannelName string
	Sequence    int64
}

type OrderDescription struct {
	Pair      string        `json:"pair"`
	Side      string        `json:"type"`
	OrderType string        `json:"ordertype"`
	Price     *core.Decimal `json:"price,omitempty"`
	Price2    *core.Decimal `json:"price2,omitempty"`
	Leverage  *string       `json:"leverage,omitempty"`
	Order     string        `json:"order"`
	Close     *string       `json:"close,omitempty"`
}

// OpenOrder is a full order on the first message and a partial change after
// that, so everything except the id may be absent.
type OpenOrder struct {
	TxID         string            `json:"-"`
	RefID        *string           `json:"refid,omitempty"`
	UserRef      *int64            `json:"userref,omitempty"`
	Status       string            `json:"status,omitempty"`
	OpenTime     string            `json:"opentm,omitempty"`
	StartTime    *string           `json:"starttm,omitempty"`
	ExpireTime   *string           `json:"expiretm,omitempty"`
	LastUpdated  string            `json:"lastupdated,omitempty"`
	Descr        *OrderDescription `json:"descr,omitempty"`
	Volume       *core.Decimal     `json:"vol,omitempty"`
	VolumeExec   *core.Decimal     `json:"vol_exec,omitempty"`
	Cost         *core.Decimal     `json:"cost,omitempty"`
	Fee          *core.Decimal     `json:"fee,omitempty"`
	AvgPrice     *core.Decimal     `json:"avg_price,omitempty"`
	StopPrice    *core.Decimal     `json:"stopprice,omitempty"`
	LimitPrice   *core.Decimal     `json:"limitprice,omitempty"`
	Misc         string            `json:"misc,omitempty"`
	OrderFlags   string            `json:"oflags,omitempty"`
	TimeInForce  string            `json:"timeinforce,omitempty"`
	CancelReason string            `json:"cancel_reason,omitempty"`
}

type OpenOrders struct {
	Orders      []OpenOrder
	ChannelName string
	Sequence    int64
}

func (Heartbeat) isMessage()            {}
func (PingPong) isMessage()             {}
func (SystemStatus) isMessage()         {}
func (SubscriptionStatus) isMessage()   {}
func (ErrorMessage) isMessage()         {}
func (AddOrderStatus) isMessage()       {}
func (EditOrderStatus) isMessage()      {}
func (CancelOrderStatus) isMessage()    {}
func (CancelAllStatus) isMessage()      {}
func (CancelAllAfterStatus) isMessage() {}
func (Ticker) isMessage()               {}
func (Trade) isMessage()                {}
func (Spread) isMessage()               {}
func (OHLC) isMessage()                 {}
func (BookSnapshot) isMessage()         {}
func (BookUpdate) isMessage()           {}
func (OwnTrades) isMessage()            {}
func (OpenOrders) isMessage()           {}
