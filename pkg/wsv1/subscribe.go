package wsv1

import "krakenkit/pkg/core"

// Channel names accepted in a Subscription.
const (
	ChannelBook       = "book"
	ChannelOHLC       = "ohlc"
	ChannelOpenOrders = "openOrders"
	ChannelOwnTrades  = "ownTrades"
	ChannelSpread     = "spread"
	ChannelTicker     = "ticker"
	ChannelTrade      = "trade"
	ChannelAll        = "*"
)

// Subscription selects a channel. Use the constructors below; not every field
// applies to every channel.
type Subscription struct {
	Depth            int         `json:"depth,omitempty"`
	Interval         int         `json:"interval,omitempty"`
	Name             string      `json:"name"`
	RateCounter      *bool       `json:"ratecounter,omitempty"`
	Snapshot         *bool       `json:"snapshot,omitempty"`
	Token            *core.Token `json:"token,omitempty"`
	ConsolidateTaker *bool       `json:"consolidate_taker,omitempty"`
}

// BookSubscription subscribes to the order book. Kraken accepts a depth of
// 10, 25, 100, 500 or 1000; zero uses the server default.
func BookSubscription(depth int) Subscription {
	return Subscription{Name: ChannelBook, Depth: depth}
}

// OHLCSubscription subscribes to candles of the given interval in minutes.
func OHLCSubscription(interval int) Subscription {
	return Subscription{Name: ChannelOHLC, Interval: interval}
}

func TradeSubscription() Subscription  { return Subscription{Name: ChannelTrade} }
func TickerSubscription() Subscription { return Subscription{Name: ChannelTicker} }
func SpreadSubscription() Subscription { return Subscription{Name: ChannelSpread} }

// OwnTradesSubscription subscribes to the account's fills. snapshot may be nil.
func OwnTradesSubscription(token core.Token, snapshot *bool) Subscription {
	return Subscription{Name: ChannelOwnTrades, Token: &token, Snapshot: snapshot}
}

// OpenOrdersSubscription subscribes to the account's orders. rateCounter
// asks the server to include rate limit counters.
func OpenOrdersSubscription(token core.Token, rateCounter *bool) Subscription {
	return Subscription{Name: ChannelOpenOrders, Token: &token, RateCounter: rateCounter}
}

// Unsubscription is the subset of Subscription an unsubscribe request carries.
type Unsubscription struct {
	Depth    int         `json:"depth,omitempty"`
	Interval int         `json:"interval,omitempty"`
	Name     string      `json:"name"`
	Token    *core.Token `json:"token,omitempty"`
}

type SubscribeMessage struct {
	Event        string       `json:"event"`
	ReqID        int64        `json:"reqid"`
	Pair         []string     `json:"pair,omitempty"`
	Subscription Subscription `json:"subscription"`
}

func NewSubscribeMessage(reqID int64, pairs []string, sub Subscription) SubscribeMessage {
	return SubscribeMessage{Event: "subscribe", ReqID: reqID, Pair: pairs, Subscription: sub}
}

// Unsubscribe returns the request that undoes m.
func (m SubscribeMessage) Unsubscribe() UnsubscribeMessage {
	return UnsubscribeMessage{
		Event: "unsubscribe",
		ReqID: m.ReqID,
		Pair:  m.Pair,
		Subscription: Unsubscription{
			Depth:    m.Subscription.Depth,
			Interval: m.Subscription.Interval,
			Name:     m.Subscription.Name,
			Token:    m.Subscription.Token,
		},
	}
}

type UnsubscribeMessage struct {
	Event        string         `json:"event"`
	ReqID        int64          `json:"reqid"`
	Pair         []string       `json:"pair,omitempty"`
	Subscription Unsubscription `json:"subscription"`
}

// Ping asks the server for a pong with the same reqid.
func Ping(reqID int64) PingPong {
	return PingPong{Event: "ping", ReqID: reqID}
}
