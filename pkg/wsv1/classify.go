package wsv1

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/valyala/fastjson"

	"krakenkit/pkg/core"
)

// strict rejects unknown fields.
var strict = sonic.Config{DisallowUnknownFields: true}.Froze()

// Classify decodes one frame. It keeps no state, so classifying the same
// bytes twice gives equal results.
func Classify(data []byte) (Message, error) {
	var parser fastjson.Parser
	val, err := parser.ParseBytes(data)
	if err != nil {
		return nil, core.NewClassificationError(core.MalformedFrame, "", "invalid json", err)
	}

	switch val.Type() {
	case fastjson.TypeObject:
		return classifyObject(data, val)
	case fastjson.TypeArray:
		return classifyArray(val.GetArray())
	default:
		return nil, core.NewClassificationError(core.UnrecognizedFrame, "", "frame is neither an array nor an object", nil)
	}
}

func classifyObject(data []byte, val *fastjson.Value) (Message, error) {
	ev := val.Get("event")
	if ev == nil {
		return nil, core.NewClassificationError(core.UnrecognizedFrame, "", "object has no event field", nil)
	}
	event := string(ev.GetStringBytes())
	if ev.Type() != fastjson.TypeString {
		return nil, core.NewClassificationError(core.SchemaMismatch, "", "event is not a string", nil)
	}

	switch event {
	case "heartbeat":
		var hb struct {
			Event string `json:"event"`
		}
		if err := strict.Unmarshal(data, &hb); err != nil {
			return nil, mismatch(event, err)
		}
		return Heartbeat{}, nil
	case "ping", "pong":
		var msg PingPong
		if err := strict.Unmarshal(data, &msg); err != nil {
			return nil, mismatch(event, err)
		}
		return msg, nil
	case "systemStatus":
		return decodeAs[SystemStatus](event, data)
	case "subscriptionStatus":
		return decodeAs[SubscriptionStatus](event, data)
	}

	if isOrderEvent(event) && string(val.GetStringBytes("status")) == "error" {
		return decodeError(event, data, val)
	}
	switch event {
	case "addOrderStatus":
		return decodeAs[AddOrderStatus](event, data)
	case "editOrderStatus":
		return decodeAs[EditOrderStatus](event, data)
	case "cancelOrderStatus":
		return decodeAs[CancelOrderStatus](event, data)
	case "cancelAllStatus":
		return decodeAs[CancelAllStatus](event, data)
	case "cancelAllOrdersAfterStatus":
		return decodeAs[CancelAllAfterStatus](event, data)
	}
	return nil, core.NewClassificationError(core.UnknownEventType, event, "", nil)
}

func isOrderEvent(event string) bool {
	switch event {
	case "addOrderStatus", "editOrderStatus", "cancelOrderStatus", "cancelAllStatus", "cancelAllOrdersAfterStatus":
		return true
	}
	return false
}

func decodeAs[T Message](event string, data []byte) (Message, error) {
	var msg T
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return nil, mismatch(event, err)
	}
	return msg, nil
}

func decodeError(event string, data []byte, val *fastjson.Value) (Message, error) {
	var meta map[string]any
	if err := sonic.Unmarshal(data, &meta); err != nil {
		return nil, mismatch(event, err)
	}
	text, ok := meta["errorMessage"].(string)
	if !ok {
		return nil, mismatch(event, errors.New("errorMessage is missing or not a string"))
	}

	msg := ErrorMessage{Event: event, ErrorMessage: text}
	// reqid is read from the parsed frame so ids past 2^53 stay exact.
	if v := val.Get("reqid"); v != nil && v.Type() == fastjson.TypeNumber {
		if id, err := v.Int64(); err == nil {
			msg.ReqID = &id
		}
	}
	delete(meta, "errorMessage")
	delete(meta, "event")
	delete(meta, "reqid")
	msg.Meta = meta
	return msg, nil
}

func classifyArray(items []*fastjson.Value) (Message, error) {
	if len(items) < 2 {
		return nil, core.NewClassificationError(core.MissingEventField, "", "array has fewer than 2 elements", nil)
	}
	slot := items[len(items)-2]
	if slot.Type() != fastjson.TypeString {
		return nil, core.NewClassificationError(core.MissingEventField, "", "second-to-last element is not a string", nil)
	}
	name := string(slot.GetStringBytes())

	var (
		msg Message
		err error
	)
	switch {
	case name == "ticker":
		msg, err = parseTicker(items)
	case name == "trade":
		msg, err = parseTrade(items)
	case name == "spread":
		msg, err = parseSpread(items)
	case strings.HasPrefix(name, "ohlc"):
		msg, err = parseOHLC(items)
	case strings.HasPrefix(name, "book"):
		if isBookSnapshot(items) {
			msg, err = parseBookSnapshot(items)
		} else {
			msg, err = parseBookUpdate(items)
		}
	case name == "ownTrades":
		msg, err = parseOwnTrades(items)
	case name == "openOrders":
		msg, err = parseOpenOrders(items)
	default:
		return nil, core.NewClassificationError(core.UnknownEventType, name, "", nil)
	}
	if err != nil {
		return nil, mismatch(name, err)
	}
	return msg, nil
}

func mismatch(event string, err error) error {
	return core.NewClassificationError(core.SchemaMismatch, event, "", err)
}

// channelOf reads the [id, ..., name, pair] envelope of public channels.
func channelOf(items []*fastjson.Value, payloads int) (Channel, error) {
	if len(items) != payloads+3 {
		return Channel{}, fmt.Errorf("want %d elements, got %d", payloads+3, len(items))
	}
	id, err := items[0].Int64()
	if err != nil {
		return Channel{}, fmt.Errorf("channel id: %w", err)
	}
	pair, err := str(items[len(items)-1], "pair")
	if err != nil {
		return Channel{}, err
	}
	return Channel{
		ID:   id,
		Name: string(items[len(items)-2].GetStringBytes()),
		Pair: pair,
	}, nil
}

func parseTicker(items []*fastjson.Value) (Message, error) {
	ch, err := channelOf(items, 1)
	if err != nil {
		return nil, err
	}
	o := items[1]
	if o.Type() != fastjson.TypeObject {
		return nil, errors.New("ticker payload is not an object")
	}

	var t TickerInfo
	if t.Ask, err = bidAsk(o.Get("a"), "a"); err != nil {
		return nil, err
	}
	if t.Bid, err = bidAsk(o.Get("b"), "b"); err != nil {
		return nil, err
	}
	c, err := tuple(o.Get("c"), 2, "c")
	if err != nil {
		return nil, err
	}
	if t.ClosePrice, err = decimal(c[0], "c price"); err != nil {
		return nil, err
	}
	if t.CloseLot, err = decimal(c[1], "c volume"); err != nil {
		return nil, err
	}
	windows := []struct {
		key string
		dst *Window
	}{{"v", &t.Volume}, {"p", &t.VWAP}, {"l", &t.Low}, {"h", &t.High}, {"o", &t.Open}}
	for _, w := range windows {
		if *w.dst, err = window(o.Get(w.key), w.key); err != nil {
			return nil, err
		}
	}
	trades, err := tuple(o.Get("t"), 2, "t")
	if err != nil {
		return nil, err
	}
	for i := range t.Trades {
		if t.Trades[i], err = integer(trades[i], "t"); err != nil {
			return nil, err
		}
	}
	return Ticker{Channel: ch, Ticker: t}, nil
}

func parseTrade(items []*fastjson.Value) (Message, error) {
	ch, err := channelOf(items, 1)
	if err != nil {
		return nil, err
	}
	rows, err := items[1].Array()
	if err != nil {
		return nil, fmt.Errorf("trades: %w", err)
	}
	trades := make([]PublicTrade, len(rows))
	for i, row := range rows {
		f, err := tuple(row, 6, "trade")
		if err != nil {
			return nil, err
		}
		tr := &trades[i]
		if tr.Price, err = decimal(f[0], "price"); err != nil {
			return nil, err
		}
		if tr.Volume, err = decimal(f[1], "volume"); err != nil {
			return nil, err
		}
		if tr.Time, err = str(f[2], "time"); err != nil {
			return nil, err
		}
		if tr.Side, err = str(f[3], "side"); err != nil {
			return nil, err
		}
		if tr.OrderType, err = str(f[4], "orderType"); err != nil {
			return nil, err
		}
		if tr.Misc, err = str(f[5], "misc"); err != nil {
			return nil, err
		}
	}
	return Trade{Channel: ch, Trades: trades}, nil
}

func parseSpread(items []*fastjson.Value) (Message, error) {
	ch, err := channelOf(items, 1)
	if err != nil {
		return nil, err
	}
	f, err := tuple(items[1], 5, "spread")
	if err != nil {
		return nil, err
	}
	var s SpreadInfo
	if s.Bid, err = decimal(f[0], "bid"); err != nil {
		return nil, err
	}
	if s.Ask, err = decimal(f[1], "ask"); err != nil {
		return nil, err
	}
	if s.Timestamp, err = str(f[2], "timestamp"); err != nil {
		return nil, err
	}
	if s.BidVolume, err = decimal(f[3], "bidVolume"); err != nil {
		return nil, err
	}
	if s.AskVolume, err = decimal(f[4], "askVolume"); err != nil {
		return nil, err
	}
	return Spread{Channel: ch, Spread: s}, nil
}

func parseOHLC(items []*fastjson.Value) (Message, error) {
	ch, err := channelOf(items, 1)
	if err != nil {
		return nil, err
	}
	f, err := tuple(items[1], 9, "ohlc")
	if err != nil {
		return nil, err
	}
	var c Candle
	if c.Time, err = str(f[0], "time"); err != nil {
		return nil, err
	}
	if c.EndTime, err = str(f[1], "etime"); err != nil {
		return nil, err
	}
	prices := []*core.Decimal{&c.Open, &c.High, &c.Low, &c.Close, &c.VWAP, &c.Volume}
	for i, p := range prices {
		if *p, err = decimal(f[i+2], "ohlc"); err != nil {
			return nil, err
		}
	}
	if c.Count, err = integer(f[8], "count"); err != nil {
		return nil, err
	}
	return OHLC{Channel: ch, Candle: c}, nil
}

// isBookSnapshot reports whether the payload carries "as" or "bs". Updates use "a" and "b".
func isBookSnapshot(items []*fastjson.Value) bool {
	return items[1].Exists("as") || items[1].Exists("bs")
}

func parseBookSnapshot(items []*fastjson.Value) (Message, error) {
	ch, err := channelOf(items, 1)
	if err != nil {
		return nil, err
	}
	asks, err := levels(items[1].Get("as"), "as")
	if err != nil {
		return nil, err
	}
	bids, err := levels(items[1].Get("bs"), "bs")
	if err != nil {
		return nil, err
	}
	return BookSnapshot{Channel: ch, Asks: asks, Bids: bids}, nil
}

// parseBookUpdate handles [id, {a|b, c?}, name, pair] and
// [id, {a}, {b, c}, name, pair]. The checksum rides on the last side.
func parseBookUpdate(items []*fastjson.Value) (Message, error) {
	payloads := len(items) - 3
	if payloads != 1 && payloads != 2 {
		return nil, fmt.Errorf("book update: want 4 or 5 elements, got %d", len(items))
	}
	ch, err := channelOf(items, payloads)
	if err != nil {
		return nil, err
	}

	msg := BookUpdate{Channel: ch}
	for _, side := range items[1 : 1+payloads] {
		obj, err := side.Object()
		if err != nil {
			return nil, fmt.Errorf("book update side: %w", err)
		}
		var found bool
		var visitErr error
		obj.Visit(func(key []byte, v *fastjson.Value) {
			if visitErr != nil {
				return
			}
			switch string(key) {
			case "a":
				found = true
				msg.Asks, visitErr = levels(v, "a")
			case "b":
				found = true
				msg.Bids, visitErr = levels(v, "b")
			case "c":
				msg.Checksum, visitErr = str(v, "c")
			default:
				visitErr = fmt.Errorf("book update: unexpected key %q", key)
			}
		})
		if visitErr != nil {
			return nil, visitErr
		}
		if !found {
			return nil, errors.New("book update side has neither a nor b")
		}
	}
	if msg.Checksum == "" {
		return nil, errors.New("book update has no checksum")
	}
	return msg, nil
}

func levels(v *fastjson.Value, what string) ([]BookLevel, error) {
	if v == nil {
		return nil, fmt.Errorf("%s: missing", what)
	}
	rows, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	out := make([]BookLevel, len(rows))
	for i, row := range rows {
		// Price, volume and timestamp are required. A missing timestamp is an error, not a zero.
		f, err := tuple(row, 3, what)
		if err != nil {
			return nil, err
		}
		if out[i].Price, err = decimal(f[0], what); err != nil {
			return nil, err
		}
		if out[i].Volume, err = decimal(f[1], what); err != nil {
			return nil, err
		}
		if out[i].Timestamp, err = str(f[2], what); err != nil {
			return nil, err
		}
		if len(f) > 3 {
			if out[i].UpdateType, err = str(f[3], what); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// privateEnvelope reads [payload, name, {"sequence": n}].
func privateEnvelope(items []*fastjson.Value) ([]*fastjson.Value, string, int64, error) {
	if len(items) != 3 {
		return nil, "", 0, fmt.Errorf("want 3 elements, got %d", len(items))
	}
	rows, err := items[0].Array()
	if err != nil {
		return nil, "", 0, fmt.Errorf("payload: %w", err)
	}
	seq := items[2].Get("sequence")
	if seq == nil {
		return nil, "", 0, errors.New("sequence: missing")
	}
	n, err := seq.Int64()
	if err != nil {
		return nil, "", 0, fmt.Errorf("sequence: %w", err)
	}
	return rows, string(items[1].GetStringBytes()), n, nil
}

// keyed calls fn with each id and its raw object in a list of {id: object} entries.
func keyed(rows []*fastjson.Value, fn func(id string, raw []byte) error) error {
	for _, row := range rows {
		obj, err := row.Object()
		if err != nil {
			return err
		}
		var visitErr error
		obj.Visit(func(key []byte, v *fastjson.Value) {
			if visitErr == nil {
				visitErr = fn(string(key), v.MarshalTo(nil))
			}
		})
		if visitErr != nil {
			return visitErr
		}
	}
	return nil
}

func parseOwnTrades(items []*fastjson.Value) (Message, error) {
	rows, name, seq, err := privateEnvelope(items)
	if err != nil {
		return nil, err
	}
	msg := OwnTrades{ChannelName: name, Sequence: seq, Trades: make([]OwnTrade, 0, len(rows))}
	err = keyed(rows, func(id string, raw []byte) error {
		var t OwnTrade
		if err := sonic.Unmarshal(raw, &t); err != nil {
			return fmt.Errorf("trade %s: %w", id, err)
		}
		t.TradeID = id
		msg.Trades = append(msg.Trades, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func parseOpenOrders(items []*fastjson.Value) (Message, error) {
	rows, name, seq, err := privateEnvelope(items)
	if err != nil {
		return nil, err
	}
	msg := OpenOrders{ChannelName: name, Sequence: seq, Orders: make([]OpenOrder, 0, len(rows))}
	err = keyed(rows, func(id string, raw []byte) error {
		var o OpenOrder
		if err := sonic.Unmarshal(raw, &o); err != nil {
			return fmt.Errorf("order %s: %w", id, err)
		}
		o.TxID = id
		msg.Orders = append(msg.Orders, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// field helpers

func tuple(v *fastjson.Value, minLen int, what string) ([]*fastjson.Value, error) {
	if v == nil {
		return nil, fmt.Errorf("%s: missing", what)
	}
	items, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if len(items) < minLen {
		return nil, fmt.Errorf("%s: want %d fields, got %d", what, minLen, len(items))
	}
	return items, nil
}

func str(v *fastjson.Value, what string) (string, error) {
	b, err := v.StringBytes()
	if err != nil {
		return "", fmt.Errorf("%s: %w", what, err)
	}
	return string(b), nil
}

// decimal accepts "1.5" and 1.5 alike.
func decimal(v *fastjson.Value, what string) (core.Decimal, error) {
	var (
		d   core.Decimal
		err error
	)
	switch v.Type() {
	case fastjson.TypeString:
		d, err = core.NewDecimal(string(v.GetStringBytes()))
	case fastjson.TypeNumber:
		d, err = core.NewDecimal(v.String())
	default:
		err = fmt.Errorf("unexpected %s", v.Type())
	}
	if err != nil {
		return core.Decimal{}, fmt.Errorf("%s: %w", what, err)
	}
	return d, nil
}

func integer(v *fastjson.Value, what string) (int64, error) {
	if v.Type() == fastjson.TypeString {
		n, err := strconv.ParseInt(string(v.GetStringBytes()), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", what, err)
		}
		return n, nil
	}
	n, err := v.Int64()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return n, nil
}

func bidAsk(v *fastjson.Value, what string) (BidAsk, error) {
	f, err := tuple(v, 3, what)
	if err != nil {
		return BidAsk{}, err
	}
	var b BidAsk
	if b.Price, err = decimal(f[0], what); err != nil {
		return BidAsk{}, err
	}
	if b.WholeLotVolume, err = decimal(f[1], what); err != nil {
		return BidAsk{}, err
	}
	if b.LotVolume, err = decimal(f[2], what); err != nil {
		return BidAsk{}, err
	}
	return b, nil
}

func window(v *fastjson.Value, what string) (Window, error) {
	f, err := tuple(v, 2, what)
	if err != nil {
		return Window{}, err
	}
	var w Window
	if w.Today, err = decimal(f[0], what); err != nil {
		return Window{}, err
	}
	if w.Last24h, err = decimal(f[1], what); err != nil {
		return Window{}, err
	}
	return w, nil
}
