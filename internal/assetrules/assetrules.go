// Package assetrules defines the per-asset-class plug-in surface the
// matching engine consults before it mutates a book, plus a couple of
// reference implementations so the venue is runnable without a deployer
// wiring their own rule set first.
//
// Implementations must be pure: the same (order, wall clock) input
// always produces the same verdict. The engine calls MarketOpen and
// Validate at most once per Submit, before any mutation.
package assetrules

import (
	"errors"
	"time"

	"github.com/saiputravu/matchbook/internal/domain"
)

// Rules is the capability record the spec calls the asset rule
// interface. A book holds one reference to a Rules for its whole
// lifetime.
type Rules interface {
	// MarketOpen gates matching entirely; a closed market rejects every
	// order with MarketClosed before any mutation.
	MarketOpen(ts time.Time) bool

	// Validate enforces tick size, lot size, min/max notional and
	// precision. A zero-quantity order must be rejected here.
	Validate(o domain.Order) error

	// TickPrecision is metadata for the owning context; it does not
	// gate matching.
	TickPrecision() uint32
}

var (
	ErrInvalidQuantity = errors.New("assetrules: quantity must be positive")
	ErrTickSize        = errors.New("assetrules: price is not a multiple of the tick size")
	ErrLotSize         = errors.New("assetrules: quantity is not a multiple of the lot size")
	ErrMinNotional     = errors.New("assetrules: order notional is below the configured minimum")
)

// Equities implements exchange-hours gating plus tick/lot/notional
// validation, the way a real cash-equities venue would. The hours
// check is intentionally simple (a daily open/close window, every
// day) — weekday/holiday calendars are a deployer concern, not a core
// one.
type Equities struct {
	TickSize    domain.Price
	LotSize     domain.Qty
	MinNotional domain.Price

	// Open and Close are minutes-since-midnight, UTC. A zero value for
	// both means "always open", useful for tests.
	Open, Close int
}

func (e Equities) MarketOpen(ts time.Time) bool {
	if e.Open == 0 && e.Close == 0 {
		return true
	}
	minutes := ts.UTC().Hour()*60 + ts.UTC().Minute()
	return minutes >= e.Open && minutes < e.Close
}

func (e Equities) Validate(o domain.Order) error {
	if o.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if e.LotSize > 0 && o.Quantity%e.LotSize != 0 {
		return ErrLotSize
	}
	if o.Kind.Kind != domain.Market && o.Kind.Kind != domain.Stop {
		if e.TickSize > 0 && o.Price%e.TickSize != 0 {
			return ErrTickSize
		}
		if e.MinNotional > 0 && domain.Price(o.Quantity)*o.Price < e.MinNotional {
			return ErrMinNotional
		}
	}
	return nil
}

func (e Equities) TickPrecision() uint32 {
	precision := uint32(0)
	for tick := e.TickSize; tick > 1; tick /= 10 {
		precision++
	}
	return precision
}

// Crypto implements a 24/7 market with lot-size validation only: no
// tick-size restriction (crypto venues commonly allow arbitrary price
// granularity) and no minimum notional.
type Crypto struct {
	LotSize domain.Qty
}

func (c Crypto) MarketOpen(time.Time) bool { return true }

func (c Crypto) Validate(o domain.Order) error {
	if o.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if c.LotSize > 0 && o.Quantity%c.LotSize != 0 {
		return ErrLotSize
	}
	return nil
}

func (c Crypto) TickPrecision() uint32 { return 8 }
