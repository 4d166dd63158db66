package wsv1

import "krakenkit/pkg/core"

// AddOrder places an order over an authenticated connection. The reply is an
// AddOrderStatus, or an ErrorMessage if it was rejected.
type AddOrder struct {
	Event          string           `json:"event"`
	Token          core.Token       `json:"token"`
	ReqID          *int64           `json:"reqid,omitempty"`
	OrderType      core.OrderType   `json:"ordertype"`
	Side           core.OrderSide   `json:"type"`
	Pair           string           `json:"pair"`
	Volume         core.Decimal     `json:"volume"`
	Price          *core.Decimal    `json:"price,omitempty"`
	Price2         *core.Decimal    `json:"price2,omitempty"`
	Leverage       *int64           `json:"leverage,omitempty"`
	ReduceOnly     *bool            `json:"reduce_only,omitempty"`
	OrderFlags     string           `json:"oflags,omitempty"`
	StartTime      string           `json:"starttm,omitempty"`
	ExpireTime     string           `json:"expiretm,omitempty"`
	Deadline       string           `json:"deadline,omitempty"`
	UserRef        string           `json:"userref,omitempty"`
	Validate       string           `json:"validate,omitempty"`
	CloseOrderType core.OrderType   `json:"close[ordertype],omitempty"`
	ClosePrice     *core.Decimal    `json:"close[price],omitempty"`
	ClosePrice2    *core.Decimal    `json:"close[price2],omitempty"`
	TimeInForce    core.TimeInForce `json:"timeinforce,omitempty"`
}

// NewAddOrder returns an AddOrder with the event name set.
func NewAddOrder(token core.Token, orderType core.OrderType, side core.OrderSide, pair string, volume core.Decimal) AddOrder {
	return AddOrder{
		Event:     "addOrder",
		Token:     token,
		OrderType: orderType,
		Side:      side,
		Pair:      pair,
		Volume:    volume,
	}
}

type EditOrder struct {
	Event      string        `json:"event"`
	Token      core.Token    `json:"token"`
	OrderID    string        `json:"orderid"`
	ReqID      *int64        `json:"reqid,omitempty"`
	Pair       string        `json:"pair"`
	Price      *core.Decimal `json:"price,omitempty"`
	Price2     *core.Decimal `json:"price2,omitempty"`
	Volume     core.Decimal  `json:"volume"`
	OrderFlags string        `json:"oflags,omitempty"`
	NewUserRef string        `json:"newuserref,omitempty"`
	Validate   string        `json:"validate,omitempty"`
}

func NewEditOrder(token core.Token, orderID, pair string, volume core.Decimal) EditOrder {
	return EditOrder{Event: "editOrder", Token: token, OrderID: orderID, Pair: pair, Volume: volume}
}

type CancelOrder struct {
	Event string     `json:"event"`
	Token core.Token `json:"token"`
	TxIDs []string   `json:"txid"`
	ReqID *int64     `json:"reqid,omitempty"`
}

// NewCancelOrder cancels by transaction id or userref. Both may be mixed.
func NewCancelOrder(token core.Token, ids ...string) CancelOrder {
	return CancelOrder{Event: "cancelOrder", Token: token, TxIDs: ids}
}

type CancelAll struct {
	Event string     `json:"event"`
	Token core.Token `json:"token"`
	ReqID *int64     `json:"reqid,omitempty"`
}

func NewCancelAll(token core.Token) CancelAll {
	return CancelAll{Event: "cancelAll", Token: token}
}

// CancelAllAfter arms the dead man's switch. A timeout of zero disarms it.
type CancelAllAfter struct {
	Event   string     `json:"event"`
	Token   core.Token `json:"token"`
	ReqID   *int64     `json:"reqid,omitempty"`
	Timeout int64      `json:"timeout"`
}

func NewCancelAllAfter(token core.Token, timeout int64) CancelAllAfter {
	return CancelAllAfter{Event: "cancelAllOrdersAfter", Token: token, Timeout: timeout}
}
