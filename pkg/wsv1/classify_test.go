package wsv1

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenkit/pkg/core"
)

const (
	heartbeat    = `{"event":"heartbeat"}`
	ping         = `{"event":"ping", "reqid": 42}`
	pong         = `{"event":"pong", "reqid": 42}`
	systemStatus = `{"connectionID":7858587364768643506,"event":"systemStatus","status":"online","version":"1.9.1"}`

	subscribeBook       = `{"channelID":336,"channelName":"book-10","event":"subscriptionStatus","pair":"XBT/USD","reqid":0,"status":"subscribed","subscription":{"depth":10,"name":"book"}}`
	subscribeOpenOrders = `{"channelName":"openOrders","event":"subscriptionStatus","reqid":0,"status":"subscribed","subscription":{"maxratecount":125,"name":"openOrders"}}`

	spread = `[341,["37080.10000","37080.20000","1699797184.943422","21.82608437","0.50775187"],"spread","XBT/USD"]`
	ohlc   = `[343,["1699797181.803577","1699797240.000000","37080.20000","37080.20000","37080.20000","37080.20000","37080.20000","0.01032369",2],"ohlc-1","XBT/USD"]`
	ticker = `[340,{"a":["37080.20000",0,"0.49479977"],"b":["37080.10000",24,"24.49109974"],"c":["37080.10000","0.01268510"],"v":["537.03329406","1394.36071246"],"p":["37012.52371","37042.48940"],"t":[8495,21019],"l":["36727.30000","36658.00000"],"h":["37185.60000","37289.70000"],"o":["37139.90000","37160.10000"]},"ticker","XBT/USD"]`
	trade  = `[337,[["37080.10000","0.00015891","1699797222.188887","s","m",""]],"trade","XBT/USD"]`

	bookSnapshot             = `[336,{"as":[["37080.20000","0.44907155","1699797211.976902"],["37080.50000","0.01086516","1699797210.264751"],["37096.10000","0.00100000","1699797210.168531"]],"bs":[["37080.10000","24.49109974","1699797200.242011"],["37079.90000","0.08764809","1699797196.230889"],["37079.80000","0.02789714","1699797179.654731"]]},"book-10","XBT/USD"]`
	bookSnapshotMissingField = `[336,{"as":[["37080.20000","0.44907155"],["37080.50000","0.01086516","1699797210.264751"]],"bs":[["37080.10000","24.49109974","1699797200.242011"]]},"book-10","XBT/USD"]`
	bookBidsOnly             = `[336,{"b":[["37079.40000","0.36000000","1699797212.921034"],["37080.10000","24.89569974","1699797212.921050"]],"c":"2845854188"},"book-10","XBT/USD"]`
	bookBidsOnlyMissingField = `[336,{"b":[["37079.40000","0.36000000","1699797212.921034"],["37080.10000","24.89569974"]],"c":"2845854188"},"book-10","XBT/USD"]`
	bookAsksOnly             = `[336,{"a":[["37109.60000","0.00000000","1699797213.027747"],["37110.40000","2.69466902","1699797200.313276","r"]],"c":"1339898949"},"book-10","XBT/USD"]`
	bookBothSides            = `[336,{"a":[["37109.60000","0.00000000","1699797213.027747"]]},{"b":[["37079.40000","0.36000000","1699797212.921034"]],"c":"2845854188"},"book-10","XBT/USD"]`

	openOrdersNew    = `[[{"O7AIWV-HEBBH-COCEUU":{"avg_price":"0.00000","cost":"0.00000","descr":{"close":null,"leverage":null,"order":"buy 1.00000000 SOL/USD @ limit 25.00000","ordertype":"limit","pair":"SOL/USD","price":"25.00000","price2":"0.00000","type":"buy"},"expiretm":null,"fee":"0.00000","limitprice":"0.00000","misc":"","oflags":"fciq","opentm":"1700220661.985020","refid":null,"starttm":null,"status":"pending","stopprice":"0.00000","timeinforce":"GTC","userref":0,"vol":"1.00000000","vol_exec":"0.00000000"}}],"openOrders",{"sequence":2}]`
	openOrdersOpen   = `[[{"O7AIWV-HEBBH-COCEUU":{"status":"open","userref":0}}],"openOrders",{"sequence":3}]`
	openOrdersCancel = `[[{"O7AIWV-HEBBH-COCEUU":{"lastupdated":"1700220675.012776","status":"canceled","vol_exec":"0.00000000","cost":"0.00000","fee":"0.00000","avg_price":"0.00000","userref":0,"cancel_reason":"User requested"}}],"openOrders",{"sequence":4}]`
	ownTradesExec    = `[[{"TROWH4-DD6XR-2O7DPH":{"cost":"19.67680","fee":"0.03148","margin":"0.00000","ordertxid":"OX6J4U-3FWTH-NPST2W","ordertype":"limit","pair":"ETH/USD","postxid":"TKH2SE-M7IF5-CFI7LT","price":"1967.68000","time":"1700220761.062896","type":"buy","vol":"0.01000000"}}],"ownTrades",{"sequence":2}]`

	addOrderResponse    = `{"descr":"buy 10.00000000 USDCUSD @ limit 0.9000","event":"addOrderStatus","status":"ok","txid":"OA7JUX-OKLO3-M6IEVL"}`
	addOrderInvalidArgs = `{"errorMessage":"EGeneral:Invalid arguments:timeinforce","event":"addOrderStatus","status":"error"}`
	editOrderResponse   = `{"descr":"buy 20.00000000 USDCUSD @ limit 0.9","event":"editOrderStatus","originaltxid":"OA7JUX-OKLO3-M6IEVL","status":"ok","txid":"O7NE5Y-QUARV-HHHUCA"}`
	cancelOrderReqID    = `{"event":"cancelOrderStatus","reqid":1234,"status":"ok"}`
	cancelOrderUnknown  = `{"errorMessage":"EOrder:Unknown order","event":"cancelOrderStatus","reqid":7,"status":"error"}`
	cancelAllResponse   = `{"count":2,"event":"cancelAllStatus","status":"ok"}`
	cancelAfterResponse = `{"currentTime":"2023-11-17T12:00:00Z","event":"cancelAllOrdersAfterStatus","status":"ok","triggerTime":"2023-11-17T12:01:00Z"}`
)

func dec(s string) core.Decimal { return core.MustDecimal(s) }

func classify(t *testing.T, frame string) Message {
	t.Helper()
	msg, err := Classify([]byte(frame))
	require.NoError(t, err)
	return msg
}

func TestClassify_Admin(t *testing.T) {
	assert.Equal(t, Heartbeat{}, classify(t, heartbeat))
	assert.Equal(t, PingPong{Event: "ping", ReqID: 42}, classify(t, ping))
	assert.Equal(t, PingPong{Event: "pong", ReqID: 42}, classify(t, pong))
	assert.Equal(t, SystemStatus{
		ConnectionID: 7858587364768643506,
		Event:        "systemStatus",
		Status:       "online",
		Version:      "1.9.1",
	}, classify(t, systemStatus))
}

func TestClassify_SubscriptionStatus(t *testing.T) {
	msg := classify(t, subscribeBook)
	status, ok := msg.(SubscriptionStatus)
	require.True(t, ok, "got %T", msg)
	require.NotNil(t, status.ChannelID)
	assert.Equal(t, int64(336), *status.ChannelID)
	assert.Equal(t, "book-10", status.ChannelName)
	assert.Equal(t, "XBT/USD", status.Pair)
	assert.Equal(t, "subscribed", status.Status)
	assert.Equal(t, "book", status.Subscription.Name)
	assert.Equal(t, 10, status.Subscription.Depth)

	status = classify(t, subscribeOpenOrders).(SubscriptionStatus)
	assert.Nil(t, status.ChannelID)
	assert.Equal(t, 125, status.Subscription.MaxRateCount)
}

func TestClassify_Spread(t *testing.T) {
	msg := classify(t, spread)
	assert.Equal(t, Spread{
		Channel: Channel{ID: 341, Name: "spread", Pair: "XBT/USD"},
		Spread: SpreadInfo{
			Bid:       dec("37080.10000"),
			Ask:       dec("37080.20000"),
			Timestamp: "1699797184.943422",
			BidVolume: dec("21.82608437"),
			AskVolume: dec("0.50775187"),
		},
	}, msg)
}

func TestClassify_OHLC(t *testing.T) {
	msg, ok := classify(t, ohlc).(OHLC)
	require.True(t, ok)
	assert.Equal(t, Channel{ID: 343, Name: "ohlc-1", Pair: "XBT/USD"}, msg.Channel)
	assert.Equal(t, "1699797181.803577", msg.Candle.Time)
	assert.Equal(t, "1699797240.000000", msg.Candle.EndTime)
	assert.True(t, msg.Candle.Close.Equal(dec("37080.2")))
	assert.True(t, msg.Candle.Volume.Equal(dec("0.01032369")))
	assert.Equal(t, int64(2), msg.Candle.Count)
}

func TestClassify_Ticker(t *testing.T) {
	msg, ok := classify(t, ticker).(Ticker)
	require.True(t, ok)
	assert.Equal(t, Channel{ID: 340, Name: "ticker", Pair: "XBT/USD"}, msg.Channel)
	assert.True(t, msg.Ticker.Ask.Price.Equal(dec("37080.2")))
	assert.True(t, msg.Ticker.Ask.WholeLotVolume.Equal(dec("0")))
	assert.True(t, msg.Ticker.Bid.WholeLotVolume.Equal(dec("24")))
	assert.True(t, msg.Ticker.CloseLot.Equal(dec("0.0126851")))
	assert.Equal(t, [2]int64{8495, 21019}, msg.Ticker.Trades)
	assert.True(t, msg.Ticker.High.Last24h.Equal(dec("37289.7")))
	assert.True(t, msg.Ticker.Open.Today.Equal(dec("37139.9")))
}

func TestClassify_Trade(t *testing.T) {
	assert.Equal(t, Trade{
		Channel: Channel{ID: 337, Name: "trade", Pair: "XBT/USD"},
		Trades: []PublicTrade{{
			Price:     dec("37080.10000"),
			Volume:    dec("0.00015891"),
			Time:      "1699797222.188887",
			Side:      "s",
			OrderType: "m",
		}},
	}, classify(t, trade))
}

func TestClassify_Book(t *testing.T) {
	t.Run("snapshot", func(t *testing.T) {
		msg, ok := classify(t, bookSnapshot).(BookSnapshot)
		require.True(t, ok)
		assert.Equal(t, Channel{ID: 336, Name: "book-10", Pair: "XBT/USD"}, msg.Channel)
		require.Len(t, msg.Asks, 3)
		require.Len(t, msg.Bids, 3)
		assert.True(t, msg.Asks[0].Price.Equal(dec("37080.2")))
		assert.Equal(t, "1699797179.654731", msg.Bids[2].Timestamp)
	})

	t.Run("bids only", func(t *testing.T) {
		msg, ok := classify(t, bookBidsOnly).(BookUpdate)
		require.True(t, ok)
		assert.Empty(t, msg.Asks)
		assert.Len(t, msg.Bids, 2)
		assert.Equal(t, "2845854188", msg.Checksum)
	})

	t.Run("asks only with republish", func(t *testing.T) {
		msg, ok := classify(t, bookAsksOnly).(BookUpdate)
		require.True(t, ok)
		require.Len(t, msg.Asks, 2)
		assert.Empty(t, msg.Bids)
		assert.Equal(t, "", msg.Asks[0].UpdateType)
		assert.Equal(t, "r", msg.Asks[1].UpdateType)
		assert.Equal(t, "1339898949", msg.Checksum)
	})

	t.Run("both sides", func(t *testing.T) {
		msg, ok := classify(t, bookBothSides).(BookUpdate)
		require.True(t, ok)
		assert.Len(t, msg.Asks, 1)
		assert.Len(t, msg.Bids, 1)
		assert.Equal(t, "2845854188", msg.Checksum)
		assert.Equal(t, "XBT/USD", msg.Pair)
	})

	for name, frame := range map[string]string{
		"snapshot level without timestamp": bookSnapshotMissingField,
		"update level without timestamp":   bookBidsOnlyMissingField,
		"update without checksum":          `[336,{"b":[["1","1","1"]]},"book-10","XBT/USD"]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Classify([]byte(frame))
			assert.True(t, core.IsClassificationKind(err, core.SchemaMismatch), "%v", err)
		})
	}
}

func TestClassify_OpenOrders(t *testing.T) {
	msg, ok := classify(t, openOrdersNew).(OpenOrders)
	require.True(t, ok)
	assert.Equal(t, "openOrders", msg.ChannelName)
	assert.Equal(t, int64(2), msg.Sequence)
	require.Len(t, msg.Orders, 1)

	order := msg.Orders[0]
	assert.Equal(t, "O7AIWV-HEBBH-COCEUU", order.TxID)
	assert.Equal(t, "pending", order.Status)
	require.NotNil(t, order.Descr)
	assert.Equal(t, "SOL/USD", order.Descr.Pair)
	assert.Nil(t, order.Descr.Leverage)
	require.NotNil(t, order.Descr.Price)
	assert.True(t, order.Descr.Price.Equal(dec("25")))
	assert.Nil(t, order.ExpireTime)
	require.NotNil(t, order.Volume)
	assert.True(t, order.Volume.Equal(dec("1")))

	msg = classify(t, openOrdersOpen).(OpenOrders)
	require.Len(t, msg.Orders, 1)
	assert.Equal(t, "open", msg.Orders[0].Status)
	assert.Nil(t, msg.Orders[0].Descr)
	require.NotNil(t, msg.Orders[0].UserRef)
	assert.Equal(t, int64(0), *msg.Orders[0].UserRef)

	msg = classify(t, openOrdersCancel).(OpenOrders)
	assert.Equal(t, "User requested", msg.Orders[0].CancelReason)
	assert.Equal(t, int64(4), msg.Sequence)
}

func TestClassify_OwnTrades(t *testing.T) {
	msg, ok := classify(t, ownTradesExec).(OwnTrades)
	require.True(t, ok)
	assert.Equal(t, int64(2), msg.Sequence)
	require.Len(t, msg.Trades, 1)

	tr := msg.Trades[0]
	assert.Equal(t, "TROWH4-DD6XR-2O7DPH", tr.TradeID)
	assert.Equal(t, "OX6J4U-3FWTH-NPST2W", tr.OrderTxID)
	assert.Equal(t, "buy", tr.Side)
	assert.True(t, tr.Price.Equal(dec("1967.68")))
	assert.True(t, tr.Volume.Equal(dec("0.01")))
}

func TestClassify_OrderResponses(t *testing.T) {
	add, ok := classify(t, addOrderResponse).(AddOrderStatus)
	require.True(t, ok)
	assert.Equal(t, "OA7JUX-OKLO3-M6IEVL", add.TxID)
	assert.Equal(t, "ok", add.Status)
	assert.Nil(t, add.ReqID)

	edit, ok := classify(t, editOrderResponse).(EditOrderStatus)
	require.True(t, ok)
	assert.Equal(t, "OA7JUX-OKLO3-M6IEVL", edit.OriginalTxID)
	assert.Equal(t, "O7NE5Y-QUARV-HHHUCA", edit.TxID)

	cancel, ok := classify(t, cancelOrderReqID).(CancelOrderStatus)
	require.True(t, ok)
	require.NotNil(t, cancel.ReqID)
	assert.Equal(t, int64(1234), *cancel.ReqID)

	all, ok := classify(t, cancelAllResponse).(CancelAllStatus)
	require.True(t, ok)
	assert.Equal(t, 2, all.Count)

	after, ok := classify(t, cancelAfterResponse).(CancelAllAfterStatus)
	require.True(t, ok)
	assert.Equal(t, "2023-11-17T12:01:00Z", after.TriggerTime)
}

func TestClassify_OrderErrors(t *testing.T) {
	msg, ok := classify(t, addOrderInvalidArgs).(ErrorMessage)
	require.True(t, ok)
	assert.Equal(t, "addOrderStatus", msg.Event)
	assert.Equal(t, "EGeneral:Invalid arguments:timeinforce", msg.ErrorMessage)
	assert.Nil(t, msg.ReqID)
	assert.Equal(t, map[string]any{"status": "error"}, msg.Meta)

	msg, ok = classify(t, cancelOrderUnknown).(ErrorMessage)
	require.True(t, ok)
	require.NotNil(t, msg.ReqID)
	assert.Equal(t, int64(7), *msg.ReqID)
}

func TestClassify_OrderErrorLargeReqID(t *testing.T) {
	frame := `{"errorMessage":"EOrder:Unknown order","event":"cancelOrderStatus","reqid":9007199254740993,"status":"error"}`

	msg, ok := classify(t, frame).(ErrorMessage)
	require.True(t, ok)
	require.NotNil(t, msg.ReqID)
	assert.Equal(t, int64(9007199254740993), *msg.ReqID)
	assert.NotContains(t, msg.Meta, "reqid")
}

func TestClassify_Failures(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		kind  core.ClassificationKind
	}{
		{"invalid json", `{"event":`, core.MalformedFrame},
		{"empty", ``, core.MalformedFrame},
		{"bare string", `"channel-message"`, core.UnrecognizedFrame},
		{"bare number", `42`, core.UnrecognizedFrame},
		{"object without event", `{"reqid": 42}`, core.UnrecognizedFrame},
		{"unknown object event", `{"event":"emergency", "reqid": 42}`, core.UnknownEventType},
		{"unknown event with status fields", `{"connectionID":7858587364768643506,"event":"airdrop","status":"online","version":"1.9.1"}`, core.UnknownEventType},
		{"unknown array channel", `[341,[],"incorrect-event","XBT/USD"]`, core.UnknownEventType},
		{"array event not a string", `[341,[],42,"XBT/USD"]`, core.MissingEventField},
		{"array too short", `["channel-message"]`, core.MissingEventField},
		{"system status bad connection id", `{"connectionID":"notAnInt","event":"systemStatus","status":"online","version":"1.9.1"}`, core.SchemaMismatch},
		{"unsubscribe bad reqid", `{"channelID":341,"channelName":"spread","event":"subscriptionStatus","pair":"XBT/USD","reqid":"zero!","status":"unsubscribed","subscription":{"name":"spread"}}`, core.SchemaMismatch},
		{"heartbeat with extra field", `{"event":"heartbeat","reqid":1}`, core.SchemaMismatch},
		{"spread too short", `[341,["37080.10000"],"spread","XBT/USD"]`, core.SchemaMismatch},
		{"ticker channel id not a number", `["x",{},"ticker","XBT/USD"]`, core.SchemaMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Classify([]byte(tt.frame))
			assert.Nil(t, msg)
			require.Error(t, err)
			assert.True(t, core.IsClassificationKind(err, tt.kind), "want %s, got %v", tt.kind, err)
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	for _, frame := range []string{heartbeat, systemStatus, ticker, bookSnapshot, bookAsksOnly, openOrdersNew, addOrderInvalidArgs} {
		first, err := Classify([]byte(frame))
		require.NoError(t, err)
		second, err := Classify([]byte(frame))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestSubscribeMessage_JSON(t *testing.T) {
	snapshot := true
	msg := NewSubscribeMessage(7, []string{"XBT/USD"}, OwnTradesSubscription(core.NewToken("secret-token"), &snapshot))

	body, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"subscribe","reqid":7,"pair":["XBT/USD"],"subscription":{"name":"ownTrades","snapshot":true,"token":"secret-token"}}`, string(body))

	body, err = json.Marshal(msg.Unsubscribe())
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"unsubscribe","reqid":7,"pair":["XBT/USD"],"subscription":{"name":"ownTrades","token":"secret-token"}}`, string(body))

	body, err = json.Marshal(NewSubscribeMessage(1, nil, BookSubscription(10)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"subscribe","reqid":1,"subscription":{"name":"book","depth":10}}`, string(body))
}

func TestOrderRequests_JSON(t *testing.T) {
	price := dec("25.5")
	add := NewAddOrder(core.NewToken("tok"), core.TypeLimit, core.SideBuy, "SOL/USD", dec("1.25"))
	add.Price = &price
	add.TimeInForce = core.GTC

	body, err := json.Marshal(add)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"addOrder","token":"tok","ordertype":"limit","type":"buy","pair":"SOL/USD","volume":"1.25","price":"25.5","timeinforce":"GTC"}`, string(body))

	body, err = json.Marshal(NewCancelOrder(core.NewToken("tok"), "OA7JUX-OKLO3-M6IEVL"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"cancelOrder","token":"tok","txid":["OA7JUX-OKLO3-M6IEVL"]}`, string(body))

	body, err = json.Marshal(NewCancelAllAfter(core.NewToken("tok"), 60))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"cancelAllOrdersAfter","token":"tok","timeout":60}`, string(body))
}
