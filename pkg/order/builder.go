// Package order builds REST order requests.
package order

import (
	"fmt"

	"github.com/google/uuid"

	"krakenkit/pkg/core"
	"krakenkit/pkg/rest"
)

// Builder provides a fluent interface for AddOrder requests. The first
// error is kept and reported by Build; later calls are no-ops.
//
//	req, err := order.NewBuilder("XBTUSD").
//	    Buy().
//	    Limit("37500.1").
//	    Volume("0.001").
//	    PostOnly().
//	    Build()
type Builder struct {
	req rest.AddOrderRequest
	err error
}

func NewBuilder(pair string) *Builder {
	return &Builder{req: rest.AddOrderRequest{Pair: pair}}
}

func (b *Builder) Side(side core.OrderSide) *Builder {
	if b.err == nil {
		b.req.Side = side
	}
	return b
}

func (b *Builder) Buy() *Builder  { return b.Side(core.SideBuy) }
func (b *Builder) Sell() *Builder { return b.Side(core.SideSell) }

func (b *Builder) Type(orderType core.OrderType) *Builder {
	if b.err == nil {
		b.req.OrderType = orderType
	}
	return b
}

func (b *Builder) Market() *Builder {
	return b.Type(core.TypeMarket)
}

// Limit makes this a limit order at price.
func (b *Builder) Limit(price string) *Builder {
	return b.Type(core.TypeLimit).Price(price)
}

// StopLoss makes this a stop-loss order triggered at price.
func (b *Builder) StopLoss(price string) *Builder {
	return b.Type(core.TypeStopLoss).Price(price)
}

func (b *Builder) TakeProfit(price string) *Builder {
	return b.Type(core.TypeTakeProfit).Price(price)
}

func (b *Builder) Price(price string) *Builder {
	b.req.Price = b.decimal("price", price)
	return b
}

// Price2 sets the secondary price used by the -limit and trailing types.
func (b *Builder) Price2(price string) *Builder {
	b.req.Price2 = b.decimal("price2", price)
	return b
}

func (b *Builder) Volume(volume string) *Builder {
	if d := b.decimal("volume", volume); d != nil {
		b.req.Volume = *d
	}
	return b
}

func (b *Builder) VolumeDecimal(volume core.Decimal) *Builder {
	if b.err == nil {
		b.req.Volume = volume
	}
	return b
}

func (b *Builder) decimal(field, s string) *core.Decimal {
	if b.err != nil {
		return nil
	}
	d, err := core.NewDecimal(s)
	if err != nil {
		b.err = fmt.Errorf("parse %s: %w", field, err)
		return nil
	}
	return &d
}

func (b *Builder) TimeInForce(tif core.TimeInForce) *Builder {
	if b.err == nil {
		b.req.TimeInForce = tif
	}
	return b
}

func (b *Builder) GTC() *Builder { return b.TimeInForce(core.GTC) }
func (b *Builder) IOC() *Builder { return b.TimeInForce(core.IOC) }

// GTD keeps the order until expireTime, given as a unix timestamp or "+<seconds>".
func (b *Builder) GTD(expireTime string) *Builder {
	if b.err == nil {
		b.req.ExpireTime = expireTime
	}
	return b.TimeInForce(core.GTD)
}

// PostOnly adds the "post" order flag.
func (b *Builder) PostOnly() *Builder {
	return b.flag("post")
}

func (b *Builder) flag(f string) *Builder {
	if b.err == nil {
		b.req.OrderFlags = append(b.req.OrderFlags, f)
	}
	return b
}

func (b *Builder) ReduceOnly() *Builder {
	if b.err == nil {
		b.req.ReduceOnly = true
	}
	return b
}

func (b *Builder) UserRef(ref int64) *Builder {
	if b.err == nil {
		b.req.UserRef = &ref
	}
	return b
}

// ClientOrderID sets cl_ord_id. An empty id generates a random UUID.
func (b *Builder) ClientOrderID(id string) *Builder {
	if b.err != nil {
		return b
	}
	if id == "" {
		id = uuid.NewString()
	}
	b.req.ClientOrderID = id
	return b
}

// ValidateOnly asks the exchange to check the order without placing it.
func (b *Builder) ValidateOnly() *Builder {
	if b.err == nil {
		b.req.Validate = true
	}
	return b
}

func (b *Builder) Deadline(deadline string) *Builder {
	if b.err == nil {
		b.req.Deadline = deadline
	}
	return b
}

// Build returns the request or the first error met while building it.
func (b *Builder) Build() (*rest.AddOrderRequest, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.req.UserRef != nil && b.req.ClientOrderID != "" {
		return nil, fmt.Errorf("userref and cl_ord_id are mutually exclusive")
	}
	req := b.req
	if err := req.Check(); err != nil {
		return nil, err
	}
	return &req, nil
}
