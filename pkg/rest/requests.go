package rest

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"krakenkit/internal/ratelimit"
	"krakenkit/pkg/core"
)

var validate = validator.New()

func validateRequest(name string, v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid %s request: %w", name, err)
	}
	return nil
}

const (
	publicPath  = "/0/public/"
	privatePath = "/0/private/"
)

func publicRequest(endpoint string) *core.Request {
	return core.NewPublicRequest(publicPath + endpoint)
}

func privateRequest(endpoint string) *core.Request {
	path := privatePath + endpoint
	return core.NewPrivateRequest(path).SetLimit(core.CategoryPrivate, ratelimit.PrivateCost(path))
}

func tradingRequest(endpoint string) *core.Request {
	return core.NewPrivateRequest(privatePath+endpoint).SetLimit(core.CategoryTrading, 0)
}

// CandleInterval is an OHLC interval in minutes.
type CandleInterval int

const (
	Interval1m  CandleInterval = 1
	Interval5m  CandleInterval = 5
	Interval15m CandleInterval = 15
	Interval30m CandleInterval = 30
	Interval1h  CandleInterval = 60
	Interval4h  CandleInterval = 240
	Interval1d  CandleInterval = 1440
	Interval1w  CandleInterval = 10080
	Interval15d CandleInterval = 21600
)

type OHLCRequest struct {
	Pair     string         `validate:"required"`
	Interval CandleInterval `validate:"omitempty,oneof=1 5 15 30 60 240 1440 10080 21600"`
	Since    int64
}

type OrderBookRequest struct {
	Pair  string `validate:"required"`
	Count int    `validate:"min=0,max=500"`
}

type RecentTradesRequest struct {
	Pair  string `validate:"required"`
	Since string
	Count int    `validate:"min=0,max=1000"`
}

type OpenOrdersRequest struct {
	Trades        bool
	UserRef       int64
	ClientOrderID string
}

type ClosedOrdersRequest struct {
	Trades           bool
	UserRef          int64
	ClientOrderID    string
	Start            string
	End              string
	Offset           int
	CloseTime        string `validate:"omitempty,oneof=open close both"`
	ConsolidateTaker bool
}

type QueryOrdersRequest struct {
	TxIDs            []string `validate:"required,min=1,max=50"`
	Trades           bool
	UserRef          int64
	ConsolidateTaker bool
}

type OrderAmendsRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

type TradesHistoryRequest struct {
	Type             string `validate:"omitempty,oneof=all any_position closed_position closing_position no_position"`
	Trades           bool
	Start            string
	End              string
	Offset           int
	ConsolidateTaker bool
}

type QueryTradesRequest struct {
	TxIDs  []string `validate:"required,min=1,max=20"`
	Trades bool
}

type OpenPositionsRequest struct {
	TxIDs         []string
	DoCalcs       bool
	Consolidation string `validate:"omitempty,oneof=market"`
}

type LedgersRequest struct {
	Assets       []string
	AssetClass   string
	Type         string
	Start        string
	End          string
	Offset       int
	WithoutCount bool
}

type QueryLedgersRequest struct {
	IDs    []string `validate:"required,min=1,max=20"`
	Trades bool
}

type ExportReportRequest struct {
	Report      string `validate:"required,oneof=trades ledgers"`
	Format      string `validate:"omitempty,oneof=CSV TSV"`
	Description string `validate:"required"`
	Fields      string
	StartTime   int64
	EndTime     int64
}

type DeleteExportRequest struct {
	ID   string `validate:"required"`
	Type string `validate:"required,oneof=delete cancel"`
}

// AddOrderRequest places a single spot order.
type AddOrderRequest struct {
	UserRef        *int64
	ClientOrderID  string
	OrderType      core.OrderType   `validate:"required"`
	Side           core.OrderSide   `validate:"required,oneof=buy sell"`
	Volume         core.Decimal
	DisplayVolume  *core.Decimal
	Pair           string           `validate:"required"`
	Price          *core.Decimal
	Price2         *core.Decimal
	Trigger        string           `validate:"omitempty,oneof=index last"`
	Leverage       string
	ReduceOnly     bool
	STPType        string           `validate:"omitempty,oneof=cancel-newest cancel-oldest cancel-both"`
	OrderFlags     []string
	TimeInForce    core.TimeInForce `validate:"omitempty,oneof=GTC IOC GTD"`
	StartTime      string
	ExpireTime     string
	CloseOrderType core.OrderType
	ClosePrice     *core.Decimal
	ClosePrice2    *core.Decimal
	Deadline       string
	Validate       bool
}

func (r *AddOrderRequest) params(req *core.Request) {
	req.SetParam("ordertype", string(r.OrderType)).
		SetParam("type", string(r.Side)).
		SetParam("volume", r.Volume).
		SetParam("pair", r.Pair).
		SetOptional("cl_ord_id", r.ClientOrderID).
		SetOptional("displayvol", r.DisplayVolume).
		SetOptional("price", r.Price).
		SetOptional("price2", r.Price2).
		SetOptional("trigger", r.Trigger).
		SetOptional("leverage", r.Leverage).
		SetOptional("reduce_only", r.ReduceOnly).
		SetOptional("stptype", r.STPType).
		SetOptional("oflags", r.OrderFlags).
		SetOptional("timeinforce", string(r.TimeInForce)).
		SetOptional("starttm", r.StartTime).
		SetOptional("expiretm", r.ExpireTime).
		SetOptional("close[ordertype]", string(r.CloseOrderType)).
		SetOptional("close[price]", r.ClosePrice).
		SetOptional("close[price2]", r.ClosePrice2).
		SetOptional("deadline", r.Deadline).
		SetOptional("validate", r.Validate)
	if r.UserRef != nil {
		req.SetParam("userref", strconv.FormatInt(*r.UserRef, 10))
	}
}

// Check validates the request without sending it.
func (r *AddOrderRequest) Check() error {
	if err := validateRequest("add order", r); err != nil {
		return err
	}
	if r.Volume.Sign() <= 0 {
		return fmt.Errorf("invalid add order request: volume must be positive")
	}
	if r.OrderType.RequiresPrice() && r.Price == nil {
		return fmt.Errorf("invalid add order request: %s order requires a price", r.OrderType)
	}
	return nil
}

// BatchOrder is one order inside an AddOrderBatch call. Fields are sent as JSON.
type BatchOrder struct {
	UserRef       *int64           `json:"userref,omitempty"`
	ClientOrderID string           `json:"cl_ord_id,omitempty"`
	OrderType     core.OrderType   `json:"ordertype" validate:"required"`
	Side          core.OrderSide   `json:"type" validate:"required,oneof=buy sell"`
	Volume        core.Decimal     `json:"volume"`
	DisplayVolume *core.Decimal    `json:"displayvol,omitempty"`
	Price         *core.Decimal    `json:"price,omitempty"`
	Price2        *core.Decimal    `json:"price2,omitempty"`
	Trigger       string           `json:"trigger,omitempty"`
	Leverage      string           `json:"leverage,omitempty"`
	ReduceOnly    bool             `json:"reduce_only,omitempty"`
	STPType       string           `json:"stptype,omitempty"`
	OrderFlags    string           `json:"oflags,omitempty"`
	TimeInForce   core.TimeInForce `json:"timeinforce,omitempty"`
	StartTime     string           `json:"starttm,omitempty"`
	ExpireTime    string           `json:"expiretm,omitempty"`
}

type AddOrderBatchRequest struct {
	Orders   []BatchOrder `validate:"required,min=2,max=15,dive"`
	Pair     string       `validate:"required"`
	Deadline string
	Validate bool
}

// AmendOrderRequest changes an order in place, keeping its queue priority where possible.
// Exactly one of TxID and ClientOrderID identifies the order.
type AmendOrderRequest struct {
	TxID            string        `json:"txid,omitempty" validate:"required_without=ClientOrderID"`
	ClientOrderID   string        `json:"cl_ord_id,omitempty" validate:"required_without=TxID"`
	OrderQuantity   *core.Decimal `json:"order_qty,omitempty"`
	DisplayQuantity *core.Decimal `json:"display_qty,omitempty"`
	LimitPrice      string        `json:"limit_price,omitempty"`
	TriggerPrice    string        `json:"trigger_price,omitempty"`
	PostOnly        bool          `json:"post_only,omitempty"`
	Deadline        string        `json:"deadline,omitempty"`
}

type EditOrderRequest struct {
	UserRef        *int64
	TxID           string `validate:"required"`
	Volume         *core.Decimal
	DisplayVolume  *core.Decimal
	Pair           string `validate:"required"`
	Price          *core.Decimal
	Price2         *core.Decimal
	OrderFlags     []string
	Deadline       string
	CancelResponse bool
	Validate       bool
}

// CancelBatchRequest cancels up to 50 orders by txid, userref or client order id.
type CancelBatchRequest struct {
	TxIDs          []string
	UserRefs       []int64
	ClientOrderIDs []string
}

func (r *CancelBatchRequest) size() int {
	return len(r.TxIDs) + len(r.UserRefs) + len(r.ClientOrderIDs)
}
