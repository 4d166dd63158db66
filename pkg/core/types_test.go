package core

import (
	"fmt"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationTier_String(t *testing.T) {
	assert.Equal(t, "starter", TierStarter.String())
	assert.Equal(t, "intermediate", TierIntermediate.String())
	assert.Equal(t, "pro", TierPro.String())
}

func TestStringers_OutOfRange(t *testing.T) {
	assert.Equal(t, "Unknown(7)", VerificationTier(7).String())
	assert.Equal(t, "Unknown(-1)", VerificationTier(-1).String())
	assert.Equal(t, "trading", CategoryTrading.String())
	assert.Equal(t, "Unknown(4)", EndpointCategory(4).String())
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    VerificationTier
		wantErr bool
	}{
		{"starter", TierStarter, false},
		{"Intermediate", TierIntermediate, false},
		{" PRO ", TierPro, false},
		{"", TierIntermediate, false},
		{"gold", TierIntermediate, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecimal_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"quoted", `"34240.10000"`, "34240.10000"},
		{"bare_number", `66732.5`, "66732.5"},
		{"integer", `5`, "5"},
		{"small", `"0.00000001"`, "0.00000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decimal
			require.NoError(t, sonic.Unmarshal([]byte(tt.input), &d))
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDecimal_UnmarshalJSON_Invalid(t *testing.T) {
	var d Decimal
	assert.Error(t, sonic.Unmarshal([]byte(`"abc"`), &d))
	assert.Error(t, sonic.Unmarshal([]byte(`""`), &d))
}

func TestDecimal_InStruct(t *testing.T) {
	var level struct {
		Price Decimal `json:"price"`
		Qty   Decimal `json:"qty"`
	}
	require.NoError(t, sonic.Unmarshal([]byte(`{"price":66732.5,"qty":"5.48256063"}`), &level))

	assert.True(t, level.Price.Equal(MustDecimal("66732.50")))
	assert.Equal(t, "5.48256063", level.Qty.String())

	out, err := sonic.Marshal(level)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"66732.5","qty":"5.48256063"}`, string(out))
}

func TestMustDecimal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustDecimal("1.2.3") })
}

func TestOrderType_RequiresPrice(t *testing.T) {
	assert.False(t, TypeMarket.RequiresPrice())
	assert.False(t, TypeSettlePosition.RequiresPrice())
	assert.True(t, TypeLimit.RequiresPrice())
	assert.True(t, TypeStopLossLimit.RequiresPrice())
}

func TestToken_Redacted(t *testing.T) {
	token := NewToken("WW91ciBhdXRoZW50aWNhdGlvbiB0b2tlbiBnb2VzIGhlcmUu")

	assert.Equal(t, "Token{****}", token.String())
	assert.Equal(t, "Token{****}", fmt.Sprintf("%v", token))
	assert.Equal(t, "Token{****}", fmt.Sprintf("%#v", token))
	assert.NotContains(t, fmt.Sprintf("%+v", token), "WW91")
	assert.Equal(t, "WW91ciBhdXRoZW50aWNhdGlvbiB0b2tlbiBnb2VzIGhlcmUu", token.Expose())
	assert.False(t, token.IsZero())

	var decoded Token
	require.NoError(t, sonic.Unmarshal([]byte(`"abc"`), &decoded))
	assert.Equal(t, "abc", decoded.Expose())
}

func TestToken_MarshalJSON_Escapes(t *testing.T) {
	raw := `ab"c\d` + "\n"
	data, err := sonic.Marshal(struct {
		Token Token `json:"token"`
	}{NewToken(raw)})
	require.NoError(t, err)
	assert.Equal(t, `{"token":"ab\"c\\d\n"}`, string(data))

	var decoded struct {
		Token Token `json:"token"`
	}
	require.NoError(t, sonic.Unmarshal(data, &decoded))
	assert.Equal(t, raw, decoded.Token.Expose())
}
