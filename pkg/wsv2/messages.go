// Package wsv2 models Kraken's v2 WebSocket protocol. Every frame is a JSON
// object: data and status frames carry "channel", replies to requests carry
// "method" and the caller's "req_id".
package wsv2

import "krakenkit/pkg/core"

// Message is implemented by every frame type Classify can return.
type Message interface {
	isMessage()
}

// Unknown is a well-formed frame naming a channel or method this package does
// not model. Raw holds the frame as received.
type Unknown struct {
	Raw []byte
}

type Heartbeat struct{}

type Status struct {
	Type string
	Data StatusUpdate
}

type StatusUpdate struct {
	APIVersion   string `json:"api_version"`
	ConnectionID uint64 `json:"connection_id"`
	System       string `json:"system"`
	Version      string `json:"version"`
}

type TickerData struct {
	Symbol    string       `json:"symbol"`
	Bid       core.Decimal `json:"bid"`
	BidQty    core.Decimal `json:"bid_qty"`
	Ask       core.Decimal `json:"ask"`
	AskQty    core.Decimal `json:"ask_qty"`
	Last      core.Decimal `json:"last"`
	Volume    core.Decimal `json:"volume"`
	VWAP      core.Decimal `json:"vwap"`
	Low       core.Decimal `json:"low"`
	High      core.Decimal `json:"high"`
	Change    core.Decimal `json:"change"`
	ChangePct core.Decimal `json:"change_pct"`
}

type Ticker struct {
	Type string
	Data TickerData
}

type PriceLevel struct {
	Price core.Decimal `json:"price"`
	Qty   core.Decimal `json:"qty"`
}

type L2Book struct {
	Symbol   string       `json:"symbol"`
	Bids     []PriceLevel `json:"bids"`
	Asks     []PriceLevel `json:"asks"`
	Checksum uint32       `json:"checksum"`
}

// BookSnapshot is the full book sent after subscribing.
type BookSnapshot struct {
	Data L2Book
}

type L2Update struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Checksum  uint32       `json:"checksum"`
	Timestamp string       `json:"timestamp"`
}

// BookUpdate carries changed levels. A zero Qty removes the level.
type BookUpdate struct {
	Data L2Update
}

type L3Order struct {
	OrderID    string       `json:"order_id"`
	LimitPrice core.Decimal `json:"limit_price"`
	OrderQty   core.Decimal `json:"order_qty"`
	Timestamp  string       `json:"timestamp"`
}

type L3Book struct {
	Symbol   string    `json:"symbol"`
	Bids     []L3Order `json:"bids"`
	Asks     []L3Order `json:"asks"`
	Checksum uint32    `json:"checksum"`
}

type L3Snapshot struct {
	Data L3Book
}

// L3OrderEvent is one order book change. Event is "add", "modify" or "delete".
type L3OrderEvent struct {
	Event string `json:"event"`
	L3Order
}

type L3BookUpdate struct {
	Symbol   string         `json:"symbol"`
	Bids     []L3OrderEvent `json:"bids"`
	Asks     []L3OrderEvent `json:"asks"`
	Checksum uint32         `json:"checksum"`
}

type L3Update struct {
	Data L3BookUpdate
}

type TradeData struct {
	Symbol    string         `json:"symbol"`
	Side      core.OrderSide `json:"side"`
	Price     core.Decimal   `json:"price"`
	Qty       core.Decimal   `json:"qty"`
	OrderType string         `json:"ord_type"`
	TradeID   int64          `json:"trade_id"`
	Timestamp string         `json:"timestamp"`
}

type Trade struct {
	Type string
	Data []TradeData
}

type Candle struct {
	Symbol        string       `json:"symbol"`
	Open          core.Decimal `json:"open"`
	High          core.Decimal `json:"high"`
	Low           core.Decimal `json:"low"`
	Close         core.Decimal `json:"close"`
	VWAP          core.Decimal `json:"vwap"`
	Trades        int64        `json:"trades"`
	Volume        core.Decimal `json:"volume"`
	IntervalBegin string       `json:"interval_begin"`
	Interval      int          `json:"interval"`
}

type OHLC struct {
	Type string
	Data []Candle
}

type Asset struct {
	ID               string        `json:"id"`
	Status           string        `json:"status"`
	Precision        int           `json:"precision"`
	PrecisionDisplay int           `json:"precision_display"`
	Borrowable       bool          `json:"borrowable"`
	CollateralValue  core.Decimal  `json:"collateral_value"`
	MarginRate       *core.Decimal `json:"margin_rate,omitempty"`
}

type Pair struct {
	Symbol             string        `json:"symbol"`
	Base               string        `json:"base"`
	Quote              string        `json:"quote"`
	Status             string        `json:"status"`
	QtyPrecision       int           `json:"qty_precision"`
	QtyIncrement       core.Decimal  `json:"qty_increment"`
	QtyMin             core.Decimal  `json:"qty_min"`
	PricePrecision     int           `json:"price_precision"`
	PriceIncrement     core.Decimal  `json:"price_increment"`
	CostPrecision      int           `json:"cost_precision"`
	CostMin            core.Decimal  `json:"cost_min"`
	Marginable         bool          `json:"marginable"`
	HasIndex           bool          `json:"has_index"`
	MarginInitial      *core.Decimal `json:"margin_initial,omitempty"`
	PositionLimitLong  *int64        `json:"position_limit_long,omitempty"`
	PositionLimitShort *int64        `json:"position_limit_short,omitempty"`
}

type Instruments struct {
	Assets []Asset `json:"assets"`
	Pairs  []Pair  `json:"pairs"`
}

type Instrument struct {
	Type string
	Data Instruments
}

type Fee struct {
	Asset string       `json:"asset"`
	Qty   core.Decimal `json:"qty"`
}

type TriggerDescription struct {
	Reference   string        `json:"reference"`
	Price       core.Decimal  `json:"price"`
	PriceType   string        `json:"price_type"`
	ActualPrice *core.Decimal `json:"actual_price,omitempty"`
	PeakPrice   *core.Decimal `json:"peak_price,omitempty"`
	LastPrice   *core.Decimal `json:"last_price,omitempty"`
	Status      string        `json:"status"`
	Timestamp   string        `json:"timestamp"`
}

// Execution is an order or fill event. Only the fields relevant to ExecType
// are present, everything else stays nil.
type Execution struct {
	ExecType         string              `json:"exec_type"`
	OrderID          string              `json:"order_id"`
	OrderStatus      string              `json:"order_status"`
	Timestamp        string              `json:"timestamp"`
	ClientOrderID    *string             `json:"cl_ord_id,omitempty"`
	OrderUserRef     *int64              `json:"order_userref,omitempty"`
	ExecID           *string             `json:"exec_id,omitempty"`
	TradeID          *int64              `json:"trade_id,omitempty"`
	Symbol           *string             `json:"symbol,omitempty"`
	Side             *core.OrderSide     `json:"side,omitempty"`
	OrderType        *core.OrderType     `json:"order_type,omitempty"`
	OrderQty         *core.Decimal       `json:"order_qty,omitempty"`
	CashOrderQty     *core.Decimal       `json:"cash_order_qty,omitempty"`
	DisplayQty       *core.Decimal       `json:"display_qty,omitempty"`
	LimitPrice       *core.Decimal       `json:"limit_price,omitempty"`
	LastQty          *core.Decimal       `json:"last_qty,omitempty"`
	LastPrice        *core.Decimal       `json:"last_price,omitempty"`
	AvgPrice         *core.Decimal       `json:"avg_price,omitempty"`
	Cost             *core.Decimal       `json:"cost,omitempty"`
	CumQty           *core.Decimal       `json:"cum_qty,omitempty"`
	CumCost          *core.Decimal       `json:"cum_cost,omitempty"`
	FeeUSDEquiv      *core.Decimal       `json:"fee_usd_equiv,omitempty"`
	Fees             []Fee               `json:"fees,omitempty"`
	LiquidityInd     *string             `json:"liquidity_ind,omitempty"`
	TimeInForce      *string             `json:"time_in_force,omitempty"`
	FeePreference    *string             `json:"fee_ccy_pref,omitempty"`
	EffectiveTime    *string             `json:"effective_time,omitempty"`
	ExpireTime       *string             `json:"expire_time,omitempty"`
	PostOnly         *bool               `json:"post_only,omitempty"`
	ReduceOnly       *bool               `json:"reduce_only,omitempty"`
	Margin           *bool               `json:"margin,omitempty"`
	MarginBorrow     *bool               `json:"margin_borrow,omitempty"`
	Liquidated       *bool               `json:"liquidated,omitempty"`
	NoMPP            *bool               `json:"no_mpp,omitempty"`
	Amended          *bool               `json:"amended,omitempty"`
	PositionStatus   *string             `json:"position_status,omitempty"`
	Reason           *string             `json:"reason,omitempty"`
	SenderSubID      *string             `json:"sender_sub_id,omitempty"`
	Triggers         *TriggerDescription `json:"triggers,omitempty"`
}

type Executions struct {
	Type     string
	Data     []Execution
	Sequence int64
}

type Wallet struct {
	Type    string       `json:"type"`
	ID      string       `json:"id"`
	Balance core.Decimal `json:"balance"`
}

type Balance struct {
	Asset      string       `json:"asset"`
	AssetClass string       `json:"asset_class"`
	Balance    core.Decimal `json:"balance"`
	Wallets    []Wallet     `json:"wallets"`
}

// BalancesSnapshot lists every asset's balance once, right after subscribing.
type BalancesSnapshot struct {
	Data     []Balance
	Sequence int64
}

type LedgerUpdate struct {
	LedgerID   string       `json:"ledger_id"`
	RefID      string       `json:"ref_id"`
	Timestamp  string       `json:"timestamp"`
	Type       string       `json:"type"`
	SubType    string       `json:"subtype,omitempty"`
	Asset      string       `json:"asset"`
	AssetClass string       `json:"asset_class"`
	Category   string       `json:"category"`
	WalletType string       `json:"wallet_type"`
	WalletID   string       `json:"wallet_id"`
	Amount     core.Decimal `json:"amount"`
	Fee        core.Decimal `json:"fee"`
	Balance    core.Decimal `json:"balance"`
}

// BalancesUpdate carries the ledger entries that changed a balance.
type BalancesUpdate struct {
	Data     []LedgerUpdate
	Sequence int64
}

func (Unknown) isMessage()          {}
func (Heartbeat) isMessage()        {}
func (Status) isMessage()           {}
func (Ticker) isMessage()           {}
func (BookSnapshot) isMessage()     {}
func (BookUpdate) isMessage()       {}
func (L3Snapshot) isMessage()       {}
func (L3Update) isMessage()         {}
func (Trade) isMessage()            {}
func (OHLC) isMessage()             {}
func (Instrument) isMessage()       {}
func (Executions) isMessage()       {}
func (BalancesSnapshot) isMessage() {}
func (BalancesUpdate) isMessage()   {}
