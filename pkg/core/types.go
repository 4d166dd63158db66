package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
)

// VerificationTier is the account verification level. It fixes the rate limit
// capacity and decay rate for a client and never changes after construction.
type VerificationTier int

const (
	TierStarter VerificationTier = iota
	TierIntermediate
	TierPro
)

// String returns the lowercase tier name.
func (t VerificationTier) String() string {
	names := [...]string{"starter", "intermediate", "pro"}
	if t < 0 || int(t) >= len(names) {
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
	return names[t]
}

// ParseTier converts a tier name into a VerificationTier.
func ParseTier(s string) (VerificationTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "starter":
		return TierStarter, nil
	case "intermediate", "":
		return TierIntermediate, nil
	case "pro":
		return TierPro, nil
	}
	return TierIntermediate, fmt.Errorf("unknown verification tier %q", s)
}

// EndpointCategory groups endpoints that share one rate limit bucket.
type EndpointCategory int

const (
	// CategoryPublic is the shared public sliding window.
	CategoryPublic EndpointCategory = iota
	// CategoryPublicPair is a public endpoint limited per asset pair (OHLC, Trades).
	CategoryPublicPair
	// CategoryPrivate is the private decay bucket.
	CategoryPrivate
	// CategoryTrading is the matching engine decay bucket.
	CategoryTrading
)

func (c EndpointCategory) String() string {
	names := [...]string{"public", "public_pair", "private", "trading"}
	if c < 0 || int(c) >= len(names) {
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
	return names[c]
}

// Decimal is an arbitrary precision number. It decodes from JSON strings
// ("37500.1") and bare JSON numbers (37500.1) without going through float64.
type Decimal struct {
	apd.Decimal
}

// NewDecimal parses s into a Decimal.
func NewDecimal(s string) (Decimal, error) {
	var d Decimal
	if _, _, err := d.Decimal.SetString(s); err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

// MustDecimal is like NewDecimal but panics on invalid input. Intended for constants and tests.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the plain (non-scientific) representation.
func (d Decimal) String() string {
	return d.Decimal.Text('f')
}

// Equal reports whether d and other are numerically equal.
func (d Decimal) Equal(other Decimal) bool {
	return d.Decimal.Cmp(&other.Decimal) == 0
}

// MarshalJSON encodes the decimal as a JSON string.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts quoted and unquoted numbers.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	if s == "" {
		return fmt.Errorf("parse decimal: empty value")
	}
	if _, _, err := d.Decimal.SetString(s); err != nil {
		return fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return nil
}

// OrderSide represents the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderType is the Kraken order type name as sent on the wire.
type OrderType string

const (
	TypeMarket            OrderType = "market"
	TypeLimit             OrderType = "limit"
	TypeIceberg           OrderType = "iceberg"
	TypeStopLoss          OrderType = "stop-loss"
	TypeStopLossLimit     OrderType = "stop-loss-limit"
	TypeTakeProfit        OrderType = "take-profit"
	TypeTakeProfitLimit   OrderType = "take-profit-limit"
	TypeTrailingStop      OrderType = "trailing-stop"
	TypeTrailingStopLimit OrderType = "trailing-stop-limit"
	TypeSettlePosition    OrderType = "settle-position"
)

// RequiresPrice reports whether the order type needs a primary price.
func (t OrderType) RequiresPrice() bool {
	return t != TypeMarket && t != TypeSettlePosition
}

// TimeInForce specifies how long an order remains active.
type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	GTD TimeInForce = "GTD"
)

// Token is a WebSocket session token obtained from GetWebSocketsToken.
// It is redacted whenever it is formatted.
type Token struct {
	value string
}

// NewToken wraps a raw token string.
func NewToken(value string) Token {
	return Token{value: value}
}

// Expose returns the raw token. Only call this when putting it on the wire.
func (t Token) Expose() string {
	return t.value
}

// IsZero reports whether the token is empty.
func (t Token) IsZero() bool {
	return t.value == ""
}

func (t Token) String() string {
	return "Token{****}"
}

func (t Token) GoString() string {
	return t.String()
}

// MarshalJSON sends the raw token; tokens only ever travel inside subscribe requests.
func (t Token) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(t.value)
}

// UnmarshalJSON reads a token from a JSON string. null leaves it empty.
func (t *Token) UnmarshalJSON(data []byte) error {
	var value string
	if err := sonic.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	t.value = value
	return nil
}
