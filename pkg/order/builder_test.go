package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenkit/pkg/core"
)

func TestBuilder_Limit(t *testing.T) {
	req, err := NewBuilder("XBTUSD").
		Buy().
		Limit("37500.1").
		Volume("1.25").
		PostOnly().
		GTD("+3600").
		UserRef(42).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "XBTUSD", req.Pair)
	assert.Equal(t, core.SideBuy, req.Side)
	assert.Equal(t, core.TypeLimit, req.OrderType)
	require.NotNil(t, req.Price)
	assert.Equal(t, "37500.1", req.Price.String())
	assert.Equal(t, "1.25", req.Volume.String())
	assert.Equal(t, []string{"post"}, req.OrderFlags)
	assert.Equal(t, core.GTD, req.TimeInForce)
	assert.Equal(t, "+3600", req.ExpireTime)
	require.NotNil(t, req.UserRef)
	assert.Equal(t, int64(42), *req.UserRef)
}

func TestBuilder_MarketWithGeneratedClientOrderID(t *testing.T) {
	req, err := NewBuilder("ETHUSD").
		Sell().
		Market().
		VolumeDecimal(core.MustDecimal("0.5")).
		ClientOrderID("").
		ReduceOnly().
		ValidateOnly().
		Build()
	require.NoError(t, err)

	assert.Nil(t, req.Price)
	assert.True(t, req.ReduceOnly)
	assert.True(t, req.Validate)
	_, err = uuid.Parse(req.ClientOrderID)
	assert.NoError(t, err)
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		want    string
	}{
		{
			name:    "bad price",
			builder: NewBuilder("XBTUSD").Buy().Limit("abc").Volume("1"),
			want:    "parse price",
		},
		{
			name:    "first error wins",
			builder: NewBuilder("XBTUSD").Buy().Market().Volume("x").Price2("y"),
			want:    "parse volume",
		},
		{
			name:    "missing side",
			builder: NewBuilder("XBTUSD").Market().Volume("1"),
			want:    "Side",
		},
		{
			name:    "missing pair",
			builder: NewBuilder("").Buy().Market().Volume("1"),
			want:    "Pair",
		},
		{
			name:    "zero volume",
			builder: NewBuilder("XBTUSD").Buy().Market().Volume("0"),
			want:    "volume must be positive",
		},
		{
			name:    "limit without price",
			builder: NewBuilder("XBTUSD").Buy().Type(core.TypeLimit).Volume("1"),
			want:    "requires a price",
		},
		{
			name:    "userref with cl_ord_id",
			builder: NewBuilder("XBTUSD").Buy().Market().Volume("1").UserRef(1).ClientOrderID("abc"),
			want:    "mutually exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.builder.Build()
			assert.Nil(t, req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
