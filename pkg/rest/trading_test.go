package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenkit/pkg/auth"
	"krakenkit/pkg/core"
)

func newRateLimitedTestClient(t *testing.T, baseURL string) *RateLimitedClient {
	t.Helper()
	client, err := NewRateLimitedClient(core.DefaultConfig().WithBaseURL(baseURL),
		WithSecrets(auth.NewStaticProvider(testKey, testSecret)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRateLimitedClient_RecordsPlacements(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, `{"error":[],"result":{"descr":{"order":"sell 0.5 XBTUSD @ market"},"txid":["OQCLML-BW3P3-BUCMWZ"]}}`)
	})
	client := newRateLimitedTestClient(t, server.URL)

	userref := int64(77)
	_, err := client.AddOrder(context.Background(), AddOrderRequest{
		UserRef:   &userref,
		OrderType: core.TypeMarket,
		Side:      core.SideSell,
		Volume:    core.MustDecimal("0.5"),
		Pair:      "XBTUSD",
	})
	require.NoError(t, err)

	trading := client.Limiter().Trading()
	_, ok := trading.OrderAge("OQCLML-BW3P3-BUCMWZ")
	assert.True(t, ok)
	assert.InDelta(t, 100, trading.Bucket().Usage(), 5)
	assert.Equal(t, core.TierIntermediate, client.Limiter().Tier())
}

func TestRateLimitedClient_BatchPlacements(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var payload struct {
			Orders []map[string]any `json:"orders"`
			Pair   string           `json:"pair"`
			Nonce  uint64           `json:"nonce"`
		}
		assert.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "XBTUSD", payload.Pair)
		assert.NotZero(t, payload.Nonce)
		assert.Len(t, payload.Orders, 2)
		assert.Equal(t, "limit", payload.Orders[0]["ordertype"])
		assert.Equal(t, "1.0", payload.Orders[0]["volume"])

		reply(w, `{"error":[],"result":{"orders":[
			{"txid":"O5OR23-ZLZZB-6AHR2V","descr":{"order":"buy 1.0 XBTUSD @ limit 30000"}},
			{"txid":"OR6HF2-ULNJS-A3V6JE","descr":{"order":"sell 1.0 XBTUSD @ limit 31000"}}]}}`)
	})
	client := newRateLimitedTestClient(t, server.URL)

	low, high := core.MustDecimal("30000"), core.MustDecimal("31000")
	out, err := client.AddOrderBatch(context.Background(), AddOrderBatchRequest{
		Pair: "XBTUSD",
		Orders: []BatchOrder{
			{OrderType: core.TypeLimit, Side: core.SideBuy, Volume: core.MustDecimal("1.0"), Price: &low},
			{OrderType: core.TypeLimit, Side: core.SideSell, Volume: core.MustDecimal("1.0"), Price: &high},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Orders, 2)

	trading := client.Limiter().Trading()
	for _, o := range out.Orders {
		_, ok := trading.OrderAge(o.TxID)
		assert.True(t, ok, o.TxID)
	}
	assert.InDelta(t, 200, trading.Bucket().Usage(), 5)
}

func TestRateLimitedClient_CancelChargesPenalty(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/0/private/AddOrder":
			reply(w, `{"error":[],"result":{"descr":{"order":"x"},"txid":["OFRESH-00000-000000"]}}`)
		default:
			reply(w, `{"error":[],"result":{"count":1}}`)
		}
	})
	client := newRateLimitedTestClient(t, server.URL)

	_, err := client.AddOrder(context.Background(), AddOrderRequest{
		OrderType: core.TypeMarket,
		Side:      core.SideBuy,
		Volume:    core.MustDecimal("1"),
		Pair:      "XBTUSD",
	})
	require.NoError(t, err)

	out, err := client.CancelOrder(context.Background(), "OFRESH-00000-000000")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)

	// Cancelling within five seconds of placement costs eight orders on top of the placement.
	assert.InDelta(t, 900, client.Limiter().Trading().Bucket().Usage(), 10)
}

func TestCancelOrderBatch_Body(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any
		assert.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, []any{"OG5V2Y-RYKVL-DT3V3B", float64(42)}, payload["orders"])
		assert.Equal(t, []any{"my-order-1"}, payload["cl_ord_ids"])
		reply(w, `{"error":[],"result":{"count":3}}`)
	})
	client := newTestClient(t, server.URL, WithSecrets(auth.NewStaticProvider(testKey, testSecret)))

	out, err := client.CancelOrderBatch(context.Background(), CancelBatchRequest{
		TxIDs:          []string{"OG5V2Y-RYKVL-DT3V3B"},
		UserRefs:       []int64{42},
		ClientOrderIDs: []string{"my-order-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Count)
}

func TestCancelOrderBatch_Size(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", WithSecrets(auth.NewStaticProvider(testKey, testSecret)))

	_, err := client.CancelOrderBatch(context.Background(), CancelBatchRequest{})
	assert.Error(t, err)

	_, err = client.CancelOrderBatch(context.Background(), CancelBatchRequest{TxIDs: make([]string, 51)})
	assert.Error(t, err)
}

func TestAddOrder_Validation(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", WithSecrets(auth.NewStaticProvider(testKey, testSecret)))

	tests := []struct {
		name string
		req  AddOrderRequest
	}{
		{"missing pair", AddOrderRequest{OrderType: core.TypeMarket, Side: core.SideBuy, Volume: core.MustDecimal("1")}},
		{"bad side", AddOrderRequest{OrderType: core.TypeMarket, Side: "hold", Volume: core.MustDecimal("1"), Pair: "XBTUSD"}},
		{"zero volume", AddOrderRequest{OrderType: core.TypeMarket, Side: core.SideBuy, Pair: "XBTUSD"}},
		{"limit without price", AddOrderRequest{OrderType: core.TypeLimit, Side: core.SideBuy, Volume: core.MustDecimal("1"), Pair: "XBTUSD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.AddOrder(context.Background(), tt.req)
			assert.Error(t, err)
		})
	}
}

func TestCancelAllOrdersAfter(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "60", r.PostForm.Get("timeout"))
		reply(w, `{"error":[],"result":{"currentTime":"2023-03-24T17:41:56Z","triggerTime":"2023-03-24T17:42:56Z"}}`)
	})
	client := newTestClient(t, server.URL, WithSecrets(auth.NewStaticProvider(testKey, testSecret)))

	out, err := client.CancelAllOrdersAfter(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, "2023-03-24T17:42:56Z", out.TriggerTime)

	_, err = client.CancelAllOrdersAfter(context.Background(), -1)
	assert.Error(t, err)
}

func TestGetWebSocketsToken_Redacted(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, `{"error":[],"result":{"token":"1Dwc4lzSwNWOAwkMdqhssNNFhs1ed606d1WcF3XfEMw","expires":900}}`)
	})
	client := newTestClient(t, server.URL, WithSecrets(auth.NewStaticProvider(testKey, testSecret)))

	out, err := client.GetWebSocketsToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1Dwc4lzSwNWOAwkMdqhssNNFhs1ed606d1WcF3XfEMw", out.Token.Expose())
	assert.Equal(t, int64(900), out.Expires)
	assert.NotContains(t, out.Token.String(), "1Dwc4")
}
