package rest

import (
	"fmt"
	"strconv"

	"github.com/valyala/fastjson"

	"krakenkit/pkg/core"
)

// Market data

type ServerTime struct {
	UnixTime int64  `json:"unixtime"`
	RFC1123  string `json:"rfc1123"`
}

// System status values.
const (
	StatusOnline      = "online"
	StatusMaintenance = "maintenance"
	StatusCancelOnly  = "cancel_only"
	StatusPostOnly    = "post_only"
)

type SystemStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type AssetInfo struct {
	AssetClass      string   `json:"aclass"`
	AltName         string   `json:"altname"`
	Decimals        int      `json:"decimals"`
	DisplayDecimals int      `json:"display_decimals"`
	CollateralValue *float64 `json:"collateral_value,omitempty"`
	Status          string   `json:"status"`
}

// FeeTier is one [volume, percent fee] step of a pair's fee schedule.
type FeeTier struct {
	Volume core.Decimal
	Fee    core.Decimal
}

func (f *FeeTier) UnmarshalJSON(data []byte) error {
	items, err := parseTuple(data, 2, "fee tier")
	if err != nil {
		return err
	}
	if f.Volume, err = decimalAt(items, 0); err != nil {
		return err
	}
	f.Fee, err = decimalAt(items, 1)
	return err
}

type AssetPair struct {
	AltName           string       `json:"altname"`
	WSName            string       `json:"wsname"`
	AssetClassBase    string       `json:"aclass_base"`
	Base              string       `json:"base"`
	AssetClassQuote   string       `json:"aclass_quote"`
	Quote             string       `json:"quote"`
	CostDecimals      int          `json:"cost_decimals"`
	PairDecimals      int          `json:"pair_decimals"`
	LotDecimals       int          `json:"lot_decimals"`
	LotMultiplier     int          `json:"lot_multiplier"`
	LeverageBuy       []int        `json:"leverage_buy"`
	LeverageSell      []int        `json:"leverage_sell"`
	Fees              []FeeTier    `json:"fees"`
	FeesMaker         []FeeTier    `json:"fees_maker"`
	FeeVolumeCurrency string       `json:"fee_volume_currency"`
	MarginCall        int          `json:"margin_call"`
	MarginStop        int          `json:"margin_stop"`
	OrderMin          core.Decimal `json:"ordermin"`
	CostMin           core.Decimal `json:"costmin"`
	TickSize          core.Decimal `json:"tick_size"`
	Status            string       `json:"status"`
}

// TickerLevel is a best bid or ask: [price, whole lot volume, lot volume].
type TickerLevel struct {
	Price          core.Decimal
	WholeLotVolume core.Decimal
	LotVolume      core.Decimal
}

func (l *TickerLevel) UnmarshalJSON(data []byte) error {
	items, err := parseTuple(data, 3, "ticker level")
	if err != nil {
		return err
	}
	if l.Price, err = decimalAt(items, 0); err != nil {
		return err
	}
	if l.WholeLotVolume, err = decimalAt(items, 1); err != nil {
		return err
	}
	l.LotVolume, err = decimalAt(items, 2)
	return err
}

// LastTrade is [price, lot volume].
type LastTrade struct {
	Price  core.Decimal
	Volume core.Decimal
}

func (t *LastTrade) UnmarshalJSON(data []byte) error {
	items, err := parseTuple(data, 2, "last trade")
	if err != nil {
		return err
	}
	if t.Price, err = decimalAt(items, 0); err != nil {
		return err
	}
	t.Volume, err = decimalAt(items, 1)
	return err
}

// DayValues is a [today, last 24 hours] pair.
type DayValues struct {
	Today   core.Decimal
	Last24h core.Decimal
}

func (d *DayValues) UnmarshalJSON(data []byte) error {
	items, err := parseTuple(data, 2, "day values")
	if err != nil {
		return err
	}
	if d.Today, err = decimalAt(items, 0); err != nil {
		return err
	}
	d.Last24h, err = decimalAt(items, 1)
	return err
}

type TickerInfo struct {
	Ask    TickerLevel  `json:"a"`
	Bid    TickerLevel  `json:"b"`
	Last   LastTrade    `json:"c"`
	Volume DayValues    `json:"v"`
	VWAP   DayValues    `json:"p"`
	Trades DayValues    `json:"t"`
	Low    DayValues    `json:"l"`
	High   DayValues    `json:"h"`
	Open   core.Decimal `json:"o"`
}

// Candle is one OHLC row.
type Candle struct {
	Time   int64
	Open   core.Decimal
	High   core.Decimal
	Low    core.Decimal
	Close  core.Decimal
	VWAP   core.Decimal
	Volume core.Decimal
	Count  int64
}

func (c *Candle) UnmarshalJSON(data []byte) error {
	items, err := parseTuple(data, 8, "candle")
	if err != nil {
		return err
	}
	return parseCandle(items, c)
}

func parseCandle(items []*fastjson.Value, c *Candle) error {
	var err error
	if c.Time, err = int64At(items, 0); err != nil {
		return err
	}
	fields := []*core.Decimal{&c.Open, &c.High, &c.Low, &c.Close, &c.VWAP, &c.Volume}
	for i, f := range fields {
		if *f, err = decimalAt(items, i+1); err != nil {
			return err
		}
	}
	c.Count, err = int64At(items, 7)
	return err
}

// OHLCResponse holds candles keyed by pair and the cursor for the next poll.
type OHLCResponse struct {
	Last    int64
	Candles map[string][]Candle
}

func (r *OHLCResponse) UnmarshalJSON(data []byte) error {
	r.Candles = make(map[string][]Candle)
	return visitPairs(data, "ohlc", &r.Last, func(pair string, rows []*fastjson.Value) error {
		candles := make([]Candle, len(rows))
		for i, row := range rows {
			items, err := tupleOf(row, 8, "candle")
			if err != nil {
				return err
			}
			if err := parseCandle(items, &candles[i]); err != nil {
				return err
			}
		}
		r.Candles[pair] = candles
		return nil
	})
}

// BookLevel is one order book row: [price, volume, timestamp].
type BookLevel struct {
	Price     core.Decimal
	Volume    core.Decimal
	Timestamp int64
}

func (l *BookLevel) UnmarshalJSON(data []byte) error {
	items, err := parseTuple(data, 3, "book level")
	if err != nil {
		return err
	}
	if l.Price, err = decimalAt(items, 0); err != nil {
		return err
	}
	if l.Volume, err = decimalAt(items, 1); err != nil {
		return err
	}
	l.Timestamp, err = int64At(items, 2)
	return err
}

type OrderBook struct {
	Asks []BookLevel `json:"asks"`
	Bids []BookLevel `json:"bids"`
}

// RecentTrade is one public trade row.
type RecentTrade struct {
	Price   core.Decimal
	Volume  core.Decimal
	Time    float64
	Side    string // "b" or "s"
	Kind    string // "m" market or "l" limit
	Misc    string
	TradeID int64
}

func parseRecentTrade(items []*fastjson.Value, t *RecentTrade) error {
	var err error
	if t.Price, err = decimalAt(items, 0); err != nil {
		return err
	}
	if t.Volume, err = decimalAt(items, 1); err != nil {
		return err
	}
	if t.Time, err = items[2].Float64(); err != nil {
		return fmt.Errorf("trade time: %w", err)
	}
	t.Side = string(items[3].GetStringBytes())
	t.Kind = string(items[4].GetStringBytes())
	t.Misc = string(items[5].GetStringBytes())
	if len(items) > 6 {
		t.TradeID, err = int64At(items, 6)
	}
	return err
}

type RecentTrades struct {
	Last   int64
	Trades map[string][]RecentTrade
}

func (r *RecentTrades) UnmarshalJSON(data []byte) error {
	r.Trades = make(map[string][]RecentTrade)
	return visitPairs(data, "trades", &r.Last, func(pair string, rows []*fastjson.Value) error {
		trades := make([]RecentTrade, len(rows))
		for i, row := range rows {
			items, err := tupleOf(row, 6, "trade")
			if err != nil {
				return err
			}
			if err := parseRecentTrade(items, &trades[i]); err != nil {
				return err
			}
		}
		r.Trades[pair] = trades
		return nil
	})
}

// Spread is [time, bid, ask].
type Spread struct {
	Time int64
	Bid  core.Decimal
	Ask  core.Decimal
}

type RecentSpreads struct {
	Last    int64
	Spreads map[string][]Spread
}

func (r *RecentSpreads) UnmarshalJSON(data []byte) error {
	r.Spreads = make(map[string][]Spread)
	return visitPairs(data, "spreads", &r.Last, func(pair string, rows []*fastjson.Value) error {
		spreads := make([]Spread, len(rows))
		for i, row := range rows {
			items, err := tupleOf(row, 3, "spread")
			if err != nil {
				return err
			}
			if spreads[i].Time, err = int64At(items, 0); err != nil {
				return err
			}
			if spreads[i].Bid, err = decimalAt(items, 1); err != nil {
				return err
			}
			if spreads[i].Ask, err = decimalAt(items, 2); err != nil {
				return err
			}
		}
		r.Spreads[pair] = spreads
		return nil
	})
}

// Account data

type ExtendedBalance struct {
	Balance    core.Decimal  `json:"balance"`
	HoldTrade  core.Decimal  `json:"hold_trade"`
	Credit     *core.Decimal `json:"credit,omitempty"`
	CreditUsed *core.Decimal `json:"credit_used,omitempty"`
}

type TradeBalance struct {
	EquivalentBalance core.Decimal  `json:"eb"`
	TradeBalance      core.Decimal  `json:"tb"`
	Margin            core.Decimal  `json:"m"`
	NetPnLOpen        core.Decimal  `json:"n"`
	CostBasisOpen     core.Decimal  `json:"c"`
	FloatingValuation core.Decimal  `json:"v"`
	Equity            core.Decimal  `json:"e"`
	FreeMargin        core.Decimal  `json:"mf"`
	MarginLevel       *core.Decimal `json:"ml,omitempty"`
	UnexecutedValue   *core.Decimal `json:"uv,omitempty"`
}

type OrderDescription struct {
	Pair      string         `json:"pair"`
	Side      core.OrderSide `json:"type"`
	OrderType core.OrderType `json:"ordertype"`
	Price     core.Decimal   `json:"price"`
	Price2    core.Decimal   `json:"price2"`
	Leverage  string         `json:"leverage"`
	Order     string         `json:"order"`
	Close     string         `json:"close"`
}

// Order statuses.
const (
	OrderPending  = "pending"
	OrderOpen     = "open"
	OrderClosed   = "closed"
	OrderCanceled = "canceled"
	OrderExpired  = "expired"
)

// Order is an open or closed order as returned by the order queries.
type Order struct {
	RefID          *string          `json:"refid"`
	UserRef        *int64           `json:"userref"`
	ClientOrderID  string           `json:"cl_ord_id,omitempty"`
	Status         string           `json:"status"`
	OpenTime       float64          `json:"opentm"`
	StartTime      float64          `json:"starttm"`
	ExpireTime     float64          `json:"expiretm"`
	CloseTime      float64          `json:"closetm,omitempty"`
	Descr          OrderDescription `json:"descr"`
	Volume         core.Decimal     `json:"vol"`
	VolumeExecuted core.Decimal     `json:"vol_exec"`
	Cost           core.Decimal     `json:"cost"`
	Fee            core.Decimal     `json:"fee"`
	Price          core.Decimal     `json:"price"`
	StopPrice      core.Decimal     `json:"stopprice"`
	LimitPrice     core.Decimal     `json:"limitprice"`
	Trigger        string           `json:"trigger,omitempty"`
	Margin         bool             `json:"margin,omitempty"`
	Misc           string           `json:"misc"`
	OrderFlags     string           `json:"oflags"`
	Trades         []string         `json:"trades,omitempty"`
	Reason         *string          `json:"reason"`
}

type OpenOrders struct {
	Open map[string]Order `json:"open"`
}

type ClosedOrders struct {
	Closed map[string]Order `json:"closed"`
	Count  int              `json:"count"`
}

type OrderAmend struct {
	AmendID      string        `json:"amend_id"`
	AmendType    string        `json:"amend_type"`
	OrderQty     core.Decimal  `json:"order_qty"`
	DisplayQty   *core.Decimal `json:"display_qty,omitempty"`
	RemainingQty core.Decimal  `json:"remaining_qty"`
	LimitPrice   *core.Decimal `json:"limit_price,omitempty"`
	TriggerPrice *core.Decimal `json:"trigger_price,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	PostOnly     bool          `json:"post_only"`
	Timestamp    int64         `json:"timestamp"`
}

type OrderAmends struct {
	Amends []OrderAmend `json:"amends"`
	Count  int          `json:"count"`
}

type Trade struct {
	OrderTxID string         `json:"ordertxid"`
	PosTxID   string         `json:"postxid"`
	Pair      string         `json:"pair"`
	Time      float64        `json:"time"`
	Side      core.OrderSide `json:"type"`
	OrderType string         `json:"ordertype"`
	Price     core.Decimal   `json:"price"`
	Cost      core.Decimal   `json:"cost"`
	Fee       core.Decimal   `json:"fee"`
	Volume    core.Decimal   `json:"vol"`
	Margin    core.Decimal   `json:"margin"`
	Misc      string         `json:"misc"`
	Ledgers   []string       `json:"ledgers,omitempty"`
	Maker     bool           `json:"maker"`
}

type TradesHistory struct {
	Trades map[string]Trade `json:"trades"`
	Count  int              `json:"count"`
}

type OpenPosition struct {
	OrderTxID    string         `json:"ordertxid"`
	PosStatus    string         `json:"posstatus"`
	Pair         string         `json:"pair"`
	Time         float64        `json:"time"`
	Side         core.OrderSide `json:"type"`
	OrderType    core.OrderType `json:"ordertype"`
	Cost         core.Decimal   `json:"cost"`
	Fee          core.Decimal   `json:"fee"`
	Volume       core.Decimal   `json:"vol"`
	VolumeClosed core.Decimal   `json:"vol_closed"`
	Margin       core.Decimal   `json:"margin"`
	Value        *core.Decimal  `json:"value,omitempty"`
	Net          *core.Decimal  `json:"net,omitempty"`
	Terms        string         `json:"terms"`
	RolloverTime string         `json:"rollovertm"`
	Misc         string         `json:"misc"`
	OrderFlags   string         `json:"oflags"`
}

type LedgerEntry struct {
	RefID      string       `json:"refid"`
	Time       float64      `json:"time"`
	Type       string       `json:"type"`
	Subtype    string       `json:"subtype"`
	AssetClass string       `json:"aclass"`
	Asset      string       `json:"asset"`
	Amount     core.Decimal `json:"amount"`
	Fee        core.Decimal `json:"fee"`
	Balance    core.Decimal `json:"balance"`
}

type Ledgers struct {
	Ledger map[string]LedgerEntry `json:"ledger"`
	Count  int                    `json:"count"`
}

type Fees struct {
	Fee        core.Decimal  `json:"fee"`
	MinFee     core.Decimal  `json:"minfee"`
	MaxFee     core.Decimal  `json:"maxfee"`
	NextFee    *core.Decimal `json:"nextfee,omitempty"`
	NextVolume *core.Decimal `json:"nextvolume,omitempty"`
	TierVolume *core.Decimal `json:"tiervolume,omitempty"`
}

type TradeVolume struct {
	Currency  string          `json:"currency"`
	Volume    core.Decimal    `json:"volume"`
	Fees      map[string]Fees `json:"fees,omitempty"`
	FeesMaker map[string]Fees `json:"fees_maker,omitempty"`
}

type ExportReport struct {
	ID string `json:"id"`
}

type ExportReportStatus struct {
	ID            string `json:"id"`
	Descr         string `json:"descr"`
	Format        string `json:"format"`
	Report        string `json:"report"`
	Subtype       string `json:"subtype"`
	Status        string `json:"status"`
	Fields        string `json:"fields"`
	CreatedTime   string `json:"createdtm"`
	StartTime     string `json:"starttm"`
	CompletedTime string `json:"completedtm"`
	DataStartTime string `json:"datastarttm"`
	DataEndTime   string `json:"dataendtm"`
	Asset         string `json:"asset"`
}

type DeleteExportResult struct {
	Delete *bool `json:"delete,omitempty"`
	Cancel *bool `json:"cancel,omitempty"`
}

// Trading

type AddOrderDescription struct {
	Order string `json:"order"`
	Close string `json:"close,omitempty"`
}

type AddOrderResult struct {
	TxIDs []string            `json:"txid"`
	Descr AddOrderDescription `json:"descr"`
}

type BatchedOrderResult struct {
	TxID  string              `json:"txid"`
	Descr AddOrderDescription `json:"descr"`
	Error string              `json:"error,omitempty"`
}

type AddOrderBatchResult struct {
	Orders []BatchedOrderResult `json:"orders"`
}

type AmendOrderResult struct {
	AmendID string `json:"amend_id"`
}

type EditOrderResult struct {
	Status          string              `json:"status"`
	TxID            string              `json:"txid"`
	OriginalTxID    string              `json:"originaltxid"`
	Volume          core.Decimal        `json:"volume"`
	Price           core.Decimal        `json:"price"`
	Price2          *core.Decimal       `json:"price2,omitempty"`
	OrdersCancelled int                 `json:"orders_cancelled"`
	Descr           AddOrderDescription `json:"descr"`
}

type CancelOrderResult struct {
	Count   int   `json:"count"`
	Pending *bool `json:"pending,omitempty"`
}

type CancelAllAfterResult struct {
	CurrentTime string `json:"currentTime"`
	TriggerTime string `json:"triggerTime"`
}

// WebSocketsToken authenticates private WebSocket subscriptions for Expires seconds.
type WebSocketsToken struct {
	Token   core.Token `json:"token"`
	Expires int64      `json:"expires"`
}

// tuple helpers

func parseTuple(data []byte, minLen int, what string) ([]*fastjson.Value, error) {
	var parser fastjson.Parser
	val, err := parser.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return tupleOf(val, minLen, what)
}

func tupleOf(val *fastjson.Value, minLen int, what string) ([]*fastjson.Value, error) {
	items, err := val.Array()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if len(items) < minLen {
		return nil, fmt.Errorf("%s: want %d fields, got %d", what, minLen, len(items))
	}
	return items, nil
}

// decimalAt reads a price or volume that may be quoted or bare.
func decimalAt(items []*fastjson.Value, i int) (core.Decimal, error) {
	v := items[i]
	if v.Type() == fastjson.TypeString {
		return core.NewDecimal(string(v.GetStringBytes()))
	}
	return core.NewDecimal(v.String())
}

func int64At(items []*fastjson.Value, i int) (int64, error) {
	v := items[i]
	if v.Type() == fastjson.TypeString {
		return strconv.ParseInt(string(v.GetStringBytes()), 10, 64)
	}
	if n, err := v.Int64(); err == nil {
		return n, nil
	}
	f, err := v.Float64()
	return int64(f), err
}

// visitPairs walks an object of pair -> rows with a "last" cursor next to the pairs.
func visitPairs(data []byte, what string, last *int64, fn func(pair string, rows []*fastjson.Value) error) error {
	var parser fastjson.Parser
	val, err := parser.ParseBytes(data)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	obj, err := val.Object()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}

	var visitErr error
	obj.Visit(func(key []byte, v *fastjson.Value) {
		if visitErr != nil {
			return
		}
		if string(key) == "last" {
			*last, visitErr = int64At([]*fastjson.Value{v}, 0)
			return
		}
		rows, err := v.Array()
		if err != nil {
			visitErr = fmt.Errorf("%s %s: %w", what, key, err)
			return
		}
		visitErr = fn(string(key), rows)
	})
	return visitErr
}
