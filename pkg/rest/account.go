package rest

import (
	"context"
	"strings"

	"krakenkit/pkg/core"
)

// GetAccountBalance returns the balance of every asset held.
func (c *Client) GetAccountBalance(ctx context.Context) (map[string]core.Decimal, error) {
	out := make(map[string]core.Decimal)
	if err := c.Do(ctx, privateRequest("Balance"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetExtendedBalances(ctx context.Context) (map[string]ExtendedBalance, error) {
	out := make(map[string]ExtendedBalance)
	if err := c.Do(ctx, privateRequest("BalanceEx"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTradeBalance summarises margin and equity in asset (ZUSD when empty).
func (c *Client) GetTradeBalance(ctx context.Context, asset string) (*TradeBalance, error) {
	req := privateRequest("TradeBalance").SetOptional("asset", asset)
	var out TradeBalance
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOpenOrders(ctx context.Context, r OpenOrdersRequest) (*OpenOrders, error) {
	req := privateRequest("OpenOrders").
		SetOptional("trades", r.Trades).
		SetOptional("userref", r.UserRef).
		SetOptional("cl_ord_id", r.ClientOrderID)

	var out OpenOrders
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetClosedOrders(ctx context.Context, r ClosedOrdersRequest) (*ClosedOrders, error) {
	if err := validateRequest("closed orders", r); err != nil {
		return nil, err
	}
	req := privateRequest("ClosedOrders").
		SetOptional("trades", r.Trades).
		SetOptional("userref", r.UserRef).
		SetOptional("cl_ord_id", r.ClientOrderID).
		SetOptional("start", r.Start).
		SetOptional("end", r.End).
		SetOptional("ofs", r.Offset).
		SetOptional("closetime", r.CloseTime).
		SetOptional("consolidate_taker", r.ConsolidateTaker)

	var out ClosedOrders
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryOrdersInfo returns orders keyed by txid.
func (c *Client) QueryOrdersInfo(ctx context.Context, r QueryOrdersRequest) (map[string]Order, error) {
	if err := validateRequest("query orders", r); err != nil {
		return nil, err
	}
	req := privateRequest("QueryOrders").
		SetParam("txid", r.TxIDs).
		SetOptional("trades", r.Trades).
		SetOptional("userref", r.UserRef).
		SetOptional("consolidate_taker", r.ConsolidateTaker)

	out := make(map[string]Order)
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrderAmends lists the amendment history of an order. The body is JSON.
func (c *Client) GetOrderAmends(ctx context.Context, r OrderAmendsRequest) (*OrderAmends, error) {
	if err := validateRequest("order amends", r); err != nil {
		return nil, err
	}
	req := privateRequest("OrderAmends").
		SetEncoding(core.EncodingJSON).
		SetParam("order_id", r.OrderID)

	var out OrderAmends
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTradesHistory(ctx context.Context, r TradesHistoryRequest) (*TradesHistory, error) {
	if err := validateRequest("trades history", r); err != nil {
		return nil, err
	}
	req := privateRequest("TradesHistory").
		SetOptional("type", r.Type).
		SetOptional("trades", r.Trades).
		SetOptional("start", r.Start).
		SetOptional("end", r.End).
		SetOptional("ofs", r.Offset).
		SetOptional("consolidate_taker", r.ConsolidateTaker)

	var out TradesHistory
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryTradesInfo returns trades keyed by txid.
func (c *Client) QueryTradesInfo(ctx context.Context, r QueryTradesRequest) (map[string]Trade, error) {
	if err := validateRequest("query trades", r); err != nil {
		return nil, err
	}
	req := privateRequest("QueryTrades").
		SetParam("txid", r.TxIDs).
		SetOptional("trades", r.Trades)

	out := make(map[string]Trade)
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOpenPositions(ctx context.Context, r OpenPositionsRequest) (map[string]OpenPosition, error) {
	if err := validateRequest("open positions", r); err != nil {
		return nil, err
	}
	req := privateRequest("OpenPositions").
		SetOptional("txid", r.TxIDs).
		SetOptional("docalcs", r.DoCalcs).
		SetOptional("consolidation", r.Consolidation)

	out := make(map[string]OpenPosition)
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetLedgers(ctx context.Context, r LedgersRequest) (*Ledgers, error) {
	req := privateRequest("Ledgers").
		SetOptional("asset", r.Assets).
		SetOptional("aclass", r.AssetClass).
		SetOptional("type", r.Type).
		SetOptional("start", r.Start).
		SetOptional("end", r.End).
		SetOptional("ofs", r.Offset).
		SetOptional("without_count", r.WithoutCount)

	var out Ledgers
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryLedgers returns ledger entries keyed by ledger id.
func (c *Client) QueryLedgers(ctx context.Context, r QueryLedgersRequest) (map[string]LedgerEntry, error) {
	if err := validateRequest("query ledgers", r); err != nil {
		return nil, err
	}
	req := privateRequest("QueryLedgers").
		SetParam("id", r.IDs).
		SetOptional("trades", r.Trades)

	out := make(map[string]LedgerEntry)
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTradeVolume returns 30-day volume and, for the given pairs, fee tiers.
func (c *Client) GetTradeVolume(ctx context.Context, pairs ...string) (*TradeVolume, error) {
	req := privateRequest("TradeVolume").SetOptional("pair", pairs)
	var out TradeVolume
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RequestExportReport(ctx context.Context, r ExportReportRequest) (*ExportReport, error) {
	if err := validateRequest("export report", r); err != nil {
		return nil, err
	}
	req := privateRequest("AddExport").
		SetParam("report", r.Report).
		SetParam("description", r.Description).
		SetOptional("format", r.Format).
		SetOptional("fields", r.Fields).
		SetOptional("starttm", r.StartTime).
		SetOptional("endtm", r.EndTime)

	var out ExportReport
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetExportReportStatus lists the export jobs for a report type.
func (c *Client) GetExportReportStatus(ctx context.Context, report string) ([]ExportReportStatus, error) {
	req := privateRequest("ExportStatus").SetParam("report", report)
	var out []ExportReportStatus
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RetrieveExport downloads a finished report. The body is a zip archive, not JSON.
func (c *Client) RetrieveExport(ctx context.Context, id string) ([]byte, error) {
	req := privateRequest("RetrieveExport").SetParam("id", id)
	resp, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(resp.Header().Get("Content-Type"), contentTypeJSON) {
		// A JSON reply here carries an error list instead of the archive.
		if err := c.decode(req, resp, nil); err != nil {
			return nil, err
		}
	}
	return resp.Bytes(), nil
}

func (c *Client) DeleteExportReport(ctx context.Context, r DeleteExportRequest) (*DeleteExportResult, error) {
	if err := validateRequest("delete export", r); err != nil {
		return nil, err
	}
	req := privateRequest("RemoveExport").
		SetParam("id", r.ID).
		SetParam("type", r.Type)

	var out DeleteExportResult
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWebSocketsToken returns a token for the authenticated WebSocket endpoints.
func (c *Client) GetWebSocketsToken(ctx context.Context) (*WebSocketsToken, error) {
	var out WebSocketsToken
	if err := c.Do(ctx, privateRequest("GetWebSocketsToken"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
