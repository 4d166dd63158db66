package order

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenkit/pkg/core"
	"krakenkit/pkg/wsv2"
)

const (
	openSnapshot = `{"channel":"executions","type":"snapshot","data":[
		{"order_id":"OA1","cl_ord_id":"c1","exec_type":"new","order_status":"new","symbol":"BTC/USD","side":"buy","order_type":"limit","order_qty":0.5,"limit_price":60000.1,"cum_qty":0,"timestamp":"2024-05-18T12:00:00Z"},
		{"order_id":"OA2","exec_type":"new","order_status":"new","symbol":"ETH/USD","side":"sell","order_type":"limit","order_qty":2,"limit_price":3100,"cum_qty":0,"timestamp":"2024-05-18T12:00:01Z"}],
		"sequence":1}`
	partialFill = `{"channel":"executions","type":"update","data":[
		{"order_id":"OA1","exec_type":"trade","order_status":"partially_filled","cum_qty":0.2,"avg_price":60000.1,"last_qty":0.2,"last_price":60000.1,"timestamp":"2024-05-18T12:00:05Z"}],
		"sequence":2}`
	cancelled = `{"channel":"executions","type":"update","data":[
		{"order_id":"OA2","exec_type":"canceled","order_status":"canceled","reason":"User requested","timestamp":"2024-05-18T12:00:09Z"}],
		"sequence":3}`
)

func executions(t *testing.T, frame string) wsv2.Executions {
	t.Helper()
	msg, err := wsv2.Classify([]byte(frame))
	require.NoError(t, err)
	e, ok := msg.(wsv2.Executions)
	require.True(t, ok, "got %T", msg)
	return e
}

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker()

	var seen []Order
	tr.OnUpdate(func(o Order) { seen = append(seen, o) })

	tr.Apply(executions(t, openSnapshot))
	require.Len(t, tr.Open(Filter{}), 2)

	o, ok := tr.GetByClientID("c1")
	require.True(t, ok)
	assert.Equal(t, "OA1", o.ID)
	assert.Equal(t, core.SideBuy, o.Side)
	assert.True(t, o.LimitPrice.Equal(core.MustDecimal("60000.1")))

	tr.Apply(executions(t, partialFill))
	o, ok = tr.Get("OA1")
	require.True(t, ok)
	assert.Equal(t, StatusPartiallyFilled, o.Status)
	assert.True(t, o.CumQty.Equal(core.MustDecimal("0.2")))
	// Fields absent from the update are kept.
	assert.Equal(t, "BTC/USD", o.Symbol)
	assert.True(t, o.OrderQty.Equal(core.MustDecimal("0.5")))

	tr.Apply(executions(t, cancelled))
	_, ok = tr.Get("OA2")
	assert.False(t, ok)
	assert.Equal(t, []string{"OA1"}, ids(tr.Open(Filter{})))
	assert.Equal(t, int64(3), tr.Sequence())

	require.Len(t, seen, 4)
	assert.Equal(t, StatusCanceled, seen[3].Status)
	assert.Equal(t, "ETH/USD", seen[3].Symbol)
}

func TestTracker_SnapshotReplaces(t *testing.T) {
	tr := NewTracker()
	tr.Apply(executions(t, openSnapshot))

	tr.Apply(wsv2.Executions{Type: "snapshot", Sequence: 1})
	assert.Empty(t, tr.Open(Filter{}))
	_, ok := tr.GetByClientID("c1")
	assert.False(t, ok)
}

func TestTracker_Filter(t *testing.T) {
	tr := NewTracker()
	tr.Apply(executions(t, openSnapshot))

	assert.Equal(t, []string{"OA2"}, ids(tr.Open(Filter{Symbol: "ETH/USD"})))
	assert.Equal(t, []string{"OA1"}, ids(tr.Open(Filter{Side: core.SideBuy})))
	assert.Empty(t, tr.Open(Filter{Status: StatusFilled}))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusFilled))
	assert.True(t, IsTerminal(StatusExpired))
	assert.False(t, IsTerminal(StatusPartiallyFilled))
	assert.False(t, IsTerminal(StatusPendingNew))
}

func ids(orders []Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestTracker_SetLoggerWhileApplying(t *testing.T) {
	tr := NewTracker()
	snapshot := executions(t, openSnapshot)
	gap := executions(t, cancelled)

	var wg sync.WaitGroup
	wg.Go(func() {
		for range 100 {
			tr.SetLogger(zerolog.Nop())
		}
	})
	for range 100 {
		tr.Apply(snapshot)
		tr.Apply(gap)
	}
	wg.Wait()

	var buf bytes.Buffer
	tr.SetLogger(zerolog.New(&buf))
	tr.Apply(snapshot)
	tr.Apply(gap)
	assert.Contains(t, buf.String(), "executions sequence gap")
	assert.Contains(t, buf.String(), `"component":"order_tracker"`)
}
