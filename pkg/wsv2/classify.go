package wsv2

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/valyala/fastjson"

	"krakenkit/pkg/core"
)

var strict = sonic.Config{DisallowUnknownFields: true}.Froze()

// Classify decodes one frame. Frames naming a channel or method that is not
// modelled here come back as Unknown rather than as an error.
func Classify(data []byte) (Message, error) {
	var parser fastjson.Parser
	val, err := parser.ParseBytes(data)
	if err != nil {
		return nil, core.NewClassificationError(core.MalformedFrame, "", "invalid json", err)
	}
	if val.Type() != fastjson.TypeObject {
		return nil, core.NewClassificationError(core.UnrecognizedFrame, "", "frame is not an object", nil)
	}

	if ch := val.Get("channel"); ch != nil {
		if ch.Type() != fastjson.TypeString {
			return nil, core.NewClassificationError(core.SchemaMismatch, "", "channel is not a string", nil)
		}
		return classifyChannel(string(ch.GetStringBytes()), data, val)
	}
	if m := val.Get("method"); m != nil {
		if m.Type() != fastjson.TypeString {
			return nil, core.NewClassificationError(core.SchemaMismatch, "", "method is not a string", nil)
		}
		return classifyMethod(string(m.GetStringBytes()), data, val)
	}
	return nil, core.NewClassificationError(core.UnrecognizedFrame, "", "object has neither channel nor method", nil)
}

// channel frames

type envelope[T any] struct {
	Channel  string `json:"channel"`
	Type     string `json:"type"`
	Data     T      `json:"data"`
	Sequence int64  `json:"sequence"`
}

func decodeEnvelope[T any](channel string, data []byte) (envelope[T], error) {
	var env envelope[T]
	if err := sonic.Unmarshal(data, &env); err != nil {
		return env, mismatch(channel, err)
	}
	return env, nil
}

// first decodes a channel whose data is a list holding exactly one entry.
func first[T any](channel string, data []byte) (string, T, error) {
	var zero T
	env, err := decodeEnvelope[[]T](channel, data)
	if err != nil {
		return "", zero, err
	}
	if len(env.Data) == 0 {
		return "", zero, mismatch(channel, errors.New("data is empty"))
	}
	return env.Type, env.Data[0], nil
}

func classifyChannel(channel string, data []byte, val *fastjson.Value) (Message, error) {
	kind := string(val.GetStringBytes("type"))

	switch channel {
	case "heartbeat":
		var hb struct {
			Channel string `json:"channel"`
		}
		if err := strict.Unmarshal(data, &hb); err != nil {
			return nil, mismatch(channel, err)
		}
		return Heartbeat{}, nil

	case "status":
		typ, s, err := first[StatusUpdate](channel, data)
		if err != nil {
			return nil, err
		}
		return Status{Type: typ, Data: s}, nil

	case "ticker":
		typ, t, err := first[TickerData](channel, data)
		if err != nil {
			return nil, err
		}
		return Ticker{Type: typ, Data: t}, nil

	case "book":
		switch kind {
		case "snapshot":
			_, b, err := first[L2Book](channel, data)
			if err != nil {
				return nil, err
			}
			return BookSnapshot{Data: b}, nil
		case "update":
			_, b, err := first[L2Update](channel, data)
			if err != nil {
				return nil, err
			}
			return BookUpdate{Data: b}, nil
		}
		return nil, badType(channel, kind)

	case "level3":
		switch kind {
		case "snapshot":
			_, b, err := first[L3Book](channel, data)
			if err != nil {
				return nil, err
			}
			return L3Snapshot{Data: b}, nil
		case "update":
			_, b, err := first[L3BookUpdate](channel, data)
			if err != nil {
				return nil, err
			}
			return L3Update{Data: b}, nil
		}
		return nil, badType(channel, kind)

	case "trade":
		env, err := decodeEnvelope[[]TradeData](channel, data)
		if err != nil {
			return nil, err
		}
		return Trade{Type: env.Type, Data: env.Data}, nil

	case "ohlc":
		env, err := decodeEnvelope[[]Candle](channel, data)
		if err != nil {
			return nil, err
		}
		return OHLC{Type: env.Type, Data: env.Data}, nil

	case "instrument":
		env, err := decodeEnvelope[Instruments](channel, data)
		if err != nil {
			return nil, err
		}
		return Instrument{Type: env.Type, Data: env.Data}, nil

	case "executions":
		env, err := decodeEnvelope[[]Execution](channel, data)
		if err != nil {
			return nil, err
		}
		return Executions{Type: env.Type, Data: env.Data, Sequence: env.Sequence}, nil

	case "balances":
		switch kind {
		case "snapshot":
			env, err := decodeEnvelope[[]Balance](channel, data)
			if err != nil {
				return nil, err
			}
			return BalancesSnapshot{Data: env.Data, Sequence: env.Sequence}, nil
		case "update":
			env, err := decodeEnvelope[[]LedgerUpdate](channel, data)
			if err != nil {
				return nil, err
			}
			return BalancesUpdate{Data: env.Data, Sequence: env.Sequence}, nil
		}
		return nil, badType(channel, kind)
	}
	return unknown(data), nil
}

// method replies

func classifyMethod(method string, data []byte, val *fastjson.Value) (Message, error) {
	switch method {
	case "add_order":
		return decodeMethod[AddOrderResult](method, data)
	case "amend_order":
		return decodeMethod[AmendOrderResult](method, data)
	case "edit_order":
		return decodeMethod[EditOrderResult](method, data)
	case "cancel_order":
		return decodeMethod[CancelOrderResult](method, data)
	case "cancel_all":
		return decodeMethod[CancelAllResult](method, data)
	case "cancel_all_orders_after":
		return decodeMethod[CancelAllAfterResult](method, data)
	case "batch_add":
		return decodeMethod[[]AddOrderResult](method, data)
	case "ping":
		return decodeMethod[Empty](method, data)
	case "batch_cancel":
		var resp BatchCancelResponse
		if err := sonic.Unmarshal(data, &resp); err != nil {
			return nil, mismatch(method, err)
		}
		return resp, nil
	case "pong":
		var resp Pong
		if err := sonic.Unmarshal(data, &resp); err != nil {
			return nil, mismatch(method, err)
		}
		return resp, nil
	case "subscribe", "unsubscribe":
		return decodeSubscription(method, data, val)
	}
	return unknown(data), nil
}

func decodeMethod[T any](method string, data []byte) (Message, error) {
	var resp MethodResponse[T]
	if err := sonic.Unmarshal(data, &resp); err != nil {
		return nil, mismatch(method, err)
	}
	return resp, nil
}

// decodeSubscription picks the result schema from result.channel, since
// every channel shares the subscribe method.
func decodeSubscription(method string, data []byte, val *fastjson.Value) (Message, error) {
	var resp SubscribeResponse
	if err := sonic.Unmarshal(data, &resp.Header); err != nil {
		return nil, mismatch(method, err)
	}

	result := val.Get("result")
	if result == nil || result.Type() == fastjson.TypeNull {
		return resp, nil
	}
	raw := result.MarshalTo(nil)

	var err error
	switch channel := string(result.GetStringBytes("channel")); channel {
	case "ticker":
		resp.Result, err = decodeResult[TickerSubscribed](raw)
	case "book":
		resp.Result, err = decodeResult[BookSubscribed](raw)
	case "ohlc":
		resp.Result, err = decodeResult[OHLCSubscribed](raw)
	case "trade", "level3", "instrument":
		resp.Result, err = decodeResult[MarketSubscribed](raw)
	case "executions":
		resp.Result, err = decodeResult[ExecutionsSubscribed](raw)
	case "balances":
		resp.Result, err = decodeResult[BalancesSubscribed](raw)
	case "":
		return nil, mismatch(method, errors.New("result has no channel"))
	default:
		return unknown(data), nil
	}
	if err != nil {
		return nil, mismatch(method, err)
	}
	return resp, nil
}

func decodeResult[T SubscriptionResult](raw []byte) (SubscriptionResult, error) {
	var r T
	if err := sonic.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return r, nil
}

func unknown(data []byte) Unknown {
	return Unknown{Raw: append([]byte(nil), data...)}
}

func mismatch(event string, err error) error {
	return core.NewClassificationError(core.SchemaMismatch, event, "", err)
}

func badType(channel, kind string) error {
	return mismatch(channel, fmt.Errorf("unexpected type %q", kind))
}
