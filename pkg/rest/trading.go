package rest

import (
	"context"
	"fmt"
	"strconv"

	"krakenkit/internal/ratelimit"
	"krakenkit/pkg/core"
)

// AddOrder places one order. When the client is rate limited the placement
// time of every returned txid is recorded, so later edits and cancels are
// charged the right penalty.
func (c *Client) AddOrder(ctx context.Context, r AddOrderRequest) (*AddOrderResult, error) {
	if err := r.Check(); err != nil {
		return nil, err
	}
	req := tradingRequest("AddOrder")
	r.params(req)

	if err := c.admitTrading(ctx, func(l *ratelimit.TradingLimiter) error { return l.AddOrder(ctx) }); err != nil {
		return nil, err
	}

	var out AddOrderResult
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	if tl := c.trading(); tl != nil {
		now := tl.Now()
		for _, txid := range out.TxIDs {
			tl.NotifyAddOrder(txid, now, r.UserRef)
		}
	}
	return &out, nil
}

// AddOrderBatch places 2 to 15 orders on one pair. The body is JSON.
func (c *Client) AddOrderBatch(ctx context.Context, r AddOrderBatchRequest) (*AddOrderBatchResult, error) {
	if err := validateRequest("add order batch", r); err != nil {
		return nil, err
	}
	req := tradingRequest("AddOrderBatch").
		SetEncoding(core.EncodingJSON).
		SetParam("orders", r.Orders).
		SetParam("pair", r.Pair).
		SetOptional("deadline", r.Deadline).
		SetOptional("validate", r.Validate)

	n := len(r.Orders)
	if err := c.admitTrading(ctx, func(l *ratelimit.TradingLimiter) error { return l.AddOrderBatch(ctx, n) }); err != nil {
		return nil, err
	}

	var out AddOrderBatchResult
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	if tl := c.trading(); tl != nil {
		now := tl.Now()
		// Results come back in request order; failed entries carry no txid.
		for i, placed := range out.Orders {
			var userref *int64
			if i < n {
				userref = r.Orders[i].UserRef
			}
			if placed.TxID != "" {
				tl.NotifyAddOrder(placed.TxID, now, userref)
			}
		}
	}
	return &out, nil
}

// AmendOrder changes quantity or prices in place. The body is JSON.
func (c *Client) AmendOrder(ctx context.Context, r AmendOrderRequest) (*AmendOrderResult, error) {
	if err := validateRequest("amend order", r); err != nil {
		return nil, err
	}
	req := tradingRequest("AmendOrder").
		SetEncoding(core.EncodingJSON).
		SetOptional("txid", r.TxID).
		SetOptional("cl_ord_id", r.ClientOrderID).
		SetOptional("order_qty", r.OrderQuantity).
		SetOptional("display_qty", r.DisplayQuantity).
		SetOptional("limit_price", r.LimitPrice).
		SetOptional("trigger_price", r.TriggerPrice).
		SetOptional("post_only", r.PostOnly).
		SetOptional("deadline", r.Deadline)

	if err := c.admitTrading(ctx, func(l *ratelimit.TradingLimiter) error { return l.AmendOrder(ctx, r.TxID) }); err != nil {
		return nil, err
	}

	var out AmendOrderResult
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditOrder replaces an open order with a new one under a new txid.
func (c *Client) EditOrder(ctx context.Context, r EditOrderRequest) (*EditOrderResult, error) {
	if err := validateRequest("edit order", r); err != nil {
		return nil, err
	}
	req := tradingRequest("EditOrder").
		SetParam("txid", r.TxID).
		SetParam("pair", r.Pair).
		SetOptional("volume", r.Volume).
		SetOptional("displayvol", r.DisplayVolume).
		SetOptional("price", r.Price).
		SetOptional("price2", r.Price2).
		SetOptional("oflags", r.OrderFlags).
		SetOptional("deadline", r.Deadline).
		SetOptional("cancel_response", r.CancelResponse).
		SetOptional("validate", r.Validate)
	if r.UserRef != nil {
		req.SetParam("userref", strconv.FormatInt(*r.UserRef, 10))
	}

	if err := c.admitTrading(ctx, func(l *ratelimit.TradingLimiter) error { return l.EditOrder(ctx, r.TxID) }); err != nil {
		return nil, err
	}

	var out EditOrderResult
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	if tl := c.trading(); tl != nil && out.TxID != "" {
		tl.NotifyAddOrder(out.TxID, tl.Now(), r.UserRef)
	}
	return &out, nil
}

// CancelOrder cancels the order with txid.
func (c *Client) CancelOrder(ctx context.Context, txid string) (*CancelOrderResult, error) {
	if txid == "" {
		return nil, fmt.Errorf("invalid cancel order request: empty txid")
	}
	req := tradingRequest("CancelOrder").SetParam("txid", txid)
	if err := c.admitTrading(ctx, func(l *ratelimit.TradingLimiter) error { return l.CancelOrderTxID(ctx, txid) }); err != nil {
		return nil, err
	}
	return c.cancel(ctx, req)
}

// CancelOrderByUserRef cancels every order placed with userref.
func (c *Client) CancelOrderByUserRef(ctx context.Context, userref int64) (*CancelOrderResult, error) {
	req := tradingRequest("CancelOrder").SetParam("txid", strconv.FormatInt(userref, 10))
	if err := c.admitTrading(ctx, func(l *ratelimit.TradingLimiter) error { return l.CancelOrderUserRef(ctx, userref) }); err != nil {
		return nil, err
	}
	return c.cancel(ctx, req)
}

// CancelOrderByClientID cancels the order with the given client order id.
// Placements are tracked by txid only, so no penalty is charged locally.
func (c *Client) CancelOrderByClientID(ctx context.Context, clOrdID string) (*CancelOrderResult, error) {
	if clOrdID == "" {
		return nil, fmt.Errorf("invalid cancel order request: empty cl_ord_id")
	}
	return c.cancel(ctx, tradingRequest("CancelOrder").SetParam("cl_ord_id", clOrdID))
}

// CancelOrderBatch cancels up to 50 orders in one call. The body is JSON.
func (c *Client) CancelOrderBatch(ctx context.Context, r CancelBatchRequest) (*CancelOrderResult, error) {
	if n := r.size(); n == 0 || n > 50 {
		return nil, fmt.Errorf("invalid cancel batch request: %d orders, want 1 to 50", n)
	}

	// The exchange takes txids and userrefs in one mixed list.
	orders := make([]any, 0, len(r.TxIDs)+len(r.UserRefs))
	for _, id := range r.TxIDs {
		orders = append(orders, id)
	}
	for _, ref := range r.UserRefs {
		orders = append(orders, ref)
	}

	req := tradingRequest("CancelOrderBatch").SetEncoding(core.EncodingJSON)
	if len(orders) > 0 {
		req.SetParam("orders", orders)
	}
	req.SetOptional("cl_ord_ids", r.ClientOrderIDs)

	if err := c.admitTrading(ctx, func(l *ratelimit.TradingLimiter) error {
		return l.CancelOrderBatch(ctx, r.TxIDs, r.UserRefs)
	}); err != nil {
		return nil, err
	}
	return c.cancel(ctx, req)
}

// CancelAllOrders cancels every open order. It is charged as a private call.
func (c *Client) CancelAllOrders(ctx context.Context) (*CancelOrderResult, error) {
	return c.cancel(ctx, privateRequest("CancelAll"))
}

// CancelAllOrdersAfter arms the dead man's switch: all orders are cancelled
// unless the call is repeated within timeout seconds. Zero disarms it.
func (c *Client) CancelAllOrdersAfter(ctx context.Context, timeout int) (*CancelAllAfterResult, error) {
	if timeout < 0 || timeout > 86400 {
		return nil, fmt.Errorf("invalid cancel all after request: timeout %d out of range", timeout)
	}
	req := privateRequest("CancelAllOrdersAfter").SetParam("timeout", timeout)

	var out CancelAllAfterResult
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) cancel(ctx context.Context, req *core.Request) (*CancelOrderResult, error) {
	var out CancelOrderResult
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) trading() *ratelimit.TradingLimiter {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Trading()
}

// admitTrading charges the trading counter before a matching engine call.
func (c *Client) admitTrading(ctx context.Context, charge func(*ratelimit.TradingLimiter) error) error {
	tl := c.trading()
	if tl == nil {
		return nil
	}
	if err := charge(tl); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
