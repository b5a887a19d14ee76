// Package domain holds the fixed-point value types shared by the book,
// the matching engine and the router. Nothing in here touches a clock,
// a socket, or a lock: nowhere here is wall-clock time used for
// ordering, only for the timestamp carried on a trade report.
package domain

import "math"

// Price is an integer number of ticks. The minimum tradable increment is
// defined by the owning asset's rules, not by this type.
type Price int64

// Qty is an integer number of lots.
type Qty int64

// OrderID is externally assigned by the ingress adapter; the core never
// generates one.
type OrderID uint64

// Seq is a strictly monotonic counter. A book uses two independent
// instances: one for submit_ts (price-time priority), one for trade
// sequence numbers.
type Seq uint64

// Symbol is an opaque routing key.
type Symbol string

// Side of an order.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Kind tags the variant carried by an OrderKind.
type Kind uint8

const (
	Limit Kind = iota
	Market
	IOC
	FOK
	Iceberg
	Stop
)

func (k Kind) String() string {
	switch k {
	case Limit:
		return "limit"
	case Market:
		return "market"
	case IOC:
		return "ioc"
	case FOK:
		return "fok"
	case Iceberg:
		return "iceberg"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// OrderKind carries the Kind tag plus whatever payload that variant
// needs. Display is only meaningful for Iceberg; Trigger and Underlying
// are only meaningful for Stop. Kept as a flat struct rather than an
// interface so Order stays a plain value with no heap indirection for
// its kind, the way the teacher's engine.Order stayed a flat struct.
type OrderKind struct {
	Kind       Kind
	Display    Qty   // Iceberg only: size of the visible slice.
	Trigger    Price // Stop only: activation price.
	Underlying Kind  // Stop only: Market or Limit once triggered.
}

// PriceMarketBuy and PriceMarketSell are sentinel crossing bounds. The
// matching engine assigns one to Order.Price for every Market order at
// admit time ("treat as if price = +infinity (buy) or 0 (sell)"), so its
// generic price-crossing test needs no Market-kind special case. Market
// orders never rest, so neither sentinel is ever stored on a resting
// order.
const (
	PriceMarketBuy  Price = math.MaxInt64
	PriceMarketSell Price = math.MinInt64
)

// Order is the unit of work submitted to a book. Quantity is the
// original size; Remaining is mutated in place as the order is matched.
type Order struct {
	ID        OrderID
	Symbol    Symbol
	Side      Side
	Price     Price // ignored for a pure Market order
	Quantity  Qty   // original submitted size, never mutated after admit
	Remaining Qty
	Kind      OrderKind
	SubmitTS  Seq // assigned at engine admit; tie-break only

	// IcebergReserve is the hidden quantity not yet sliced into the
	// resting display. Only meaningful while Kind.Kind == Iceberg and
	// the order is resting.
	IcebergReserve Qty
}

// Resting reports whether the order still has quantity left to match or
// display.
func (o *Order) Resting() bool {
	return o.Remaining > 0
}

// TradeReport is an append-only execution record. Seq is strictly
// increasing per symbol.
type TradeReport struct {
	Seq      Seq
	Symbol   Symbol
	MakerID  OrderID
	TakerID  OrderID
	Price    Price
	Quantity Qty
	TS       int64 // unix nanoseconds, wall clock, informational only
}

// Reason enumerates the explicit, non-exceptional error/outcome codes
// of the engine.
type Reason uint8

const (
	ReasonNone Reason = iota
	MarketClosed
	InvalidPrice
	InvalidQuantity
	UnknownSymbol
	FOKUnfillable
	StopWithoutTrigger
	DuplicateId
	NotFound
	UnfilledResidual
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case MarketClosed:
		return "market_closed"
	case InvalidPrice:
		return "invalid_price"
	case InvalidQuantity:
		return "invalid_quantity"
	case UnknownSymbol:
		return "unknown_symbol"
	case FOKUnfillable:
		return "fok_unfillable"
	case StopWithoutTrigger:
		return "stop_without_trigger"
	case DuplicateId:
		return "duplicate_id"
	case NotFound:
		return "not_found"
	case UnfilledResidual:
		return "unfilled_residual"
	default:
		return "unknown"
	}
}

// OutcomeStatus is the terminal disposition of one Submit call.
type OutcomeStatus uint8

const (
	Rested OutcomeStatus = iota
	Filled
	PartiallyFilledRested
	Cancelled
	Rejected
)

func (s OutcomeStatus) String() string {
	switch s {
	case Rested:
		return "rested"
	case Filled:
		return "filled"
	case PartiallyFilledRested:
		return "partially_filled_rested"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal event a Submit or Cancel emits,
// alongside zero or more TradeReports.
type Outcome struct {
	Status   OutcomeStatus
	OrderID  OrderID
	Reason   Reason // only meaningful for Rejected and Cancelled
	Residual Qty    // only meaningful for Cancelled{UnfilledResidual}
}
