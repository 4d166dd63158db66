package rest

import (
	"context"
	"strings"
)

// GetServerTime returns the exchange clock.
func (c *Client) GetServerTime(ctx context.Context) (*ServerTime, error) {
	var out ServerTime
	if err := c.Do(ctx, publicRequest("Time"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSystemStatus(ctx context.Context) (*SystemStatus, error) {
	var out SystemStatus
	if err := c.Do(ctx, publicRequest("SystemStatus"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAssetInfo returns asset metadata keyed by asset name. No assets means all of them.
func (c *Client) GetAssetInfo(ctx context.Context, assets ...string) (map[string]AssetInfo, error) {
	req := publicRequest("Assets").SetOptional("asset", assets)
	out := make(map[string]AssetInfo)
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTradableAssetPairs returns pair metadata keyed by pair name. No pairs means all of them.
func (c *Client) GetTradableAssetPairs(ctx context.Context, pairs ...string) (map[string]AssetPair, error) {
	req := publicRequest("AssetPairs").SetOptional("pair", pairs)
	out := make(map[string]AssetPair)
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTicker returns ticker data keyed by the exchange's pair name.
func (c *Client) GetTicker(ctx context.Context, pairs ...string) (map[string]TickerInfo, error) {
	req := publicRequest("Ticker").SetOptional("pair", pairs)
	out := make(map[string]TickerInfo)
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOHLC returns candles for one pair. It is limited per pair.
func (c *Client) GetOHLC(ctx context.Context, r OHLCRequest) (*OHLCResponse, error) {
	if err := validateRequest("ohlc", r); err != nil {
		return nil, err
	}
	req := publicRequest("OHLC").
		SetParam("pair", r.Pair).
		SetOptional("interval", int(r.Interval)).
		SetOptional("since", r.Since).
		SetLimitKey(strings.ToUpper(r.Pair))

	var out OHLCResponse
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrderBook returns the book for one pair keyed by the exchange's pair name.
func (c *Client) GetOrderBook(ctx context.Context, r OrderBookRequest) (map[string]OrderBook, error) {
	if err := validateRequest("order book", r); err != nil {
		return nil, err
	}
	req := publicRequest("Depth").
		SetParam("pair", r.Pair).
		SetOptional("count", r.Count)

	out := make(map[string]OrderBook)
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRecentTrades returns up to 1000 trades. It is limited per pair.
func (c *Client) GetRecentTrades(ctx context.Context, r RecentTradesRequest) (*RecentTrades, error) {
	if err := validateRequest("recent trades", r); err != nil {
		return nil, err
	}
	req := publicRequest("Trades").
		SetParam("pair", r.Pair).
		SetOptional("since", r.Since).
		SetOptional("count", r.Count).
		SetLimitKey(strings.ToUpper(r.Pair))

	var out RecentTrades
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRecentSpreads(ctx context.Context, pair string, since int64) (*RecentSpreads, error) {
	req := publicRequest("Spread").
		SetParam("pair", pair).
		SetOptional("since", since)

	var out RecentSpreads
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
