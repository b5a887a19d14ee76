// Package matching implements the per-symbol matching state machine:
// admit, gate, route by kind, match against the opposite side, rest the
// remainder per time-in-force, and fire stop activations transitively.
// One Engine owns exactly one book.Book; it is not safe for concurrent
// use — that discipline belongs to internal/router, which pins one
// Engine to one goroutine per symbol.
package matching

import (
	"errors"
	"time"

	"github.com/saiputravu/matchbook/internal/assetrules"
	"github.com/saiputravu/matchbook/internal/book"
	"github.com/saiputravu/matchbook/internal/domain"
)

// Result is everything one Submit call produces: the trade log it
// generated (possibly including trades from a stop cascade it
// triggered) followed by exactly one outcome describing the disposition
// of the order that was submitted.
type Result struct {
	Trades  []domain.TradeReport
	Outcome domain.Outcome
}

// Engine is the matching state machine for a single book.
type Engine struct {
	book *book.Book
	now  func() time.Time
}

// New creates an engine over b using the wall clock for trade
// timestamps and market-open checks.
func New(b *book.Book) *Engine {
	return &Engine{book: b, now: time.Now}
}

// NewWithClock creates an engine with an injected clock, for
// deterministic tests of market-hours gating and trade timestamps.
func NewWithClock(b *book.Book, now func() time.Time) *Engine {
	return &Engine{book: b, now: now}
}

// Book exposes the underlying book for read-only queries (best bid/ask,
// snapshots) by callers that hold the same single-writer discipline the
// router enforces.
func (e *Engine) Book() *book.Book { return e.book }

// Submit is the engine's single entry point for a new order. It runs
// the full admit/gate/route/match/rest pipeline for the order, then — if
// that pipeline produced at least one trade that moved the book's last
// trade price — drains the stop cascade until a full pass triggers
// nothing new. Trades from the cascade are appended to the same trade
// log; the returned Outcome always describes the originally submitted
// order, never a cascaded stop.
func (e *Engine) Submit(o domain.Order) Result {
	trades, outcome, changed := e.processOne(o)
	if changed {
		trades = append(trades, e.runStopCascade()...)
	}
	return Result{Trades: trades, Outcome: outcome}
}

// Cancel is best-effort and idempotent: cancelling twice returns
// Cancelled then Rejected{NotFound}, and neither call produces trades.
func (e *Engine) Cancel(id domain.OrderID) domain.Outcome {
	if e.book.Cancel(id) {
		return domain.Outcome{Status: domain.Cancelled, OrderID: id}
	}
	return domain.Outcome{Status: domain.Rejected, OrderID: id, Reason: domain.NotFound}
}

// processOne runs steps 1 through 5 of the submit algorithm for a
// single order (fresh submission or a triggered stop's underlying
// order) and reports whether it moved the book's last trade price,
// which is the gate for running a stop cascade.
func (e *Engine) processOne(o domain.Order) (trades []domain.TradeReport, outcome domain.Outcome, lastPriceChanged bool) {
	// Step 1: admit.
	o.SubmitTS = e.book.NextSubmitSeq()
	o.Remaining = o.Quantity

	// Open question resolution (spec.md §9): an iceberg whose display
	// is not a genuine partial reveal (<= 0 or >= the order's total
	// quantity) is treated as a plain Limit of the full size.
	if o.Kind.Kind == domain.Iceberg && (o.Kind.Display <= 0 || o.Kind.Display >= o.Quantity) {
		o.Kind = domain.OrderKind{Kind: domain.Limit}
	}

	// A Market order's price is pinned to the crossing-bound sentinel
	// for its side so match's crossing test ("does this order's price
	// cross that level's price") needs no kind special-case: a Market
	// buy's sentinel price is above every possible ask, a Market sell's
	// is below every possible bid.
	if o.Kind.Kind == domain.Market {
		if o.Side == domain.Buy {
			o.Price = domain.PriceMarketBuy
		} else {
			o.Price = domain.PriceMarketSell
		}
	}

	// Step 2: gate.
	if !e.book.Rules.MarketOpen(e.now()) {
		return nil, rejected(o.ID, domain.MarketClosed), false
	}
	if err := e.book.Rules.Validate(o); err != nil {
		return nil, rejected(o.ID, reasonFor(err)), false
	}
	if o.Quantity <= 0 {
		// The asset rules should have caught this; the engine treats a
		// surviving zero/negative quantity as a defect in the rule set,
		// not a pass.
		return nil, rejected(o.ID, domain.InvalidQuantity), false
	}

	// Step 3: route by kind.
	switch o.Kind.Kind {
	case domain.Stop:
		if o.Kind.Underlying != domain.Market && o.Kind.Underlying != domain.Limit {
			return nil, rejected(o.ID, domain.StopWithoutTrigger), false
		}
		e.book.PutStop(o)
		return nil, domain.Outcome{Status: domain.Rested, OrderID: o.ID}, false
	case domain.FOK:
		if e.maxExecutable(o) < o.Quantity {
			return nil, rejected(o.ID, domain.FOKUnfillable), false
		}
	}

	// Step 4: match.
	trades, lastPriceChanged = e.match(&o)

	// Step 5: rest remainder.
	outcome = e.restRemainder(&o, len(trades) > 0)
	return trades, outcome, lastPriceChanged
}

// match sweeps the opposite side of the book for as long as o's price
// crosses the opposite side's best level, consuming resting orders in
// strict price-time priority. Iceberg refills are collected and applied
// only after the sweep concludes, so the order that triggers a refill
// never gets to match against the refill it just caused — the refill's
// priority loss means it is not visible to the sweep that produced it.
func (e *Engine) match(o *domain.Order) ([]domain.TradeReport, bool) {
	var trades []domain.TradeReport
	var pendingRefills []*domain.Order
	changed := false
	oppSide := o.Side.Opposite()
	prevPrice, hadPrice := e.book.LastTradePrice()

	for o.Remaining > 0 {
		level := e.book.BestLevel(oppSide)
		if level == nil {
			break
		}
		if !crosses(o.Side, o.Price, level.Price) {
			break
		}
		price := level.Price

		for o.Remaining > 0 && level.Len() > 0 {
			maker := level.PeekHead()
			q := o.Remaining
			if maker.Remaining < q {
				q = maker.Remaining
			}
			consumed := level.ConsumeHead(q)
			if consumed == 0 {
				break
			}
			o.Remaining -= consumed

			trades = append(trades, domain.TradeReport{
				Seq:      e.book.NextTradeSeq(),
				Symbol:   e.book.Symbol,
				MakerID:  maker.ID,
				TakerID:  o.ID,
				Price:    price,
				Quantity: consumed,
				TS:       e.now().UnixNano(),
			})
			e.book.SetLastTradePrice(price)
			if !hadPrice || price != prevPrice {
				changed = true
			}

			if maker.Remaining == 0 {
				e.book.Forget(maker.ID)
				if maker.Kind.Kind == domain.Iceberg && maker.IcebergReserve > 0 {
					pendingRefills = append(pendingRefills, maker)
				}
			}
		}

		if level.Len() == 0 {
			e.book.RemoveLevel(oppSide, price)
		}
	}

	for _, r := range pendingRefills {
		slice := r.Kind.Display
		if slice > r.IcebergReserve {
			slice = r.IcebergReserve
		}
		r.IcebergReserve -= slice
		r.Remaining = slice
		r.SubmitTS = e.book.NextSubmitSeq()
		e.book.Rest(r)
	}

	return trades, changed
}

// restRemainder implements step 5: rest what's left per the order's
// kind, or report it as filled / cancelled-with-residual.
func (e *Engine) restRemainder(o *domain.Order, traded bool) domain.Outcome {
	if o.Remaining == 0 {
		return domain.Outcome{Status: domain.Filled, OrderID: o.ID}
	}

	switch o.Kind.Kind {
	case domain.Limit:
		e.book.Rest(o)
	case domain.Iceberg:
		slice := o.Kind.Display
		if slice > o.Remaining {
			slice = o.Remaining
		}
		o.IcebergReserve = o.Remaining - slice
		o.Remaining = slice
		e.book.Rest(o)
	default: // Market, IOC, FOK: unfilled residual is dropped, not rested.
		residual := o.Remaining
		o.Remaining = 0
		return domain.Outcome{
			Status:   domain.Cancelled,
			OrderID:  o.ID,
			Reason:   domain.UnfilledResidual,
			Residual: residual,
		}
	}

	if traded {
		return domain.Outcome{Status: domain.PartiallyFilledRested, OrderID: o.ID}
	}
	return domain.Outcome{Status: domain.Rested, OrderID: o.ID}
}

// maxExecutable computes, without mutating the book, the maximum
// quantity of o that could be matched against the opposite side given
// o's price bound. Used only by FOK's all-or-nothing pre-check.
func (e *Engine) maxExecutable(o domain.Order) domain.Qty {
	tree := e.book.SideTree(o.Side.Opposite())
	var total domain.Qty
	tree.Scan(func(l *book.Level) bool {
		if !crosses(o.Side, o.Price, l.Price) {
			return false
		}
		for _, mo := range l.Orders {
			if total >= o.Quantity {
				return false
			}
			need := o.Quantity - total
			avail := mo.Remaining
			if avail < need {
				total += avail
			} else {
				total += need
			}
		}
		return total < o.Quantity
	})
	return total
}

// runStopCascade drains every currently-triggered stop order, in
// ascending id order, re-entering each through processOne as its
// underlying kind. It keeps scanning for newly-triggered stops after
// each pass until a pass triggers nothing, implemented as an explicit
// work queue (not recursion) so its depth is bounded by the number of
// resting stops.
func (e *Engine) runStopCascade() []domain.TradeReport {
	var all []domain.TradeReport
	for {
		triggered := e.collectTriggeredStops()
		if len(triggered) == 0 {
			break
		}
		for _, stop := range triggered {
			underlying := domain.Order{
				ID:       stop.ID,
				Symbol:   stop.Symbol,
				Side:     stop.Side,
				Price:    stop.Price,
				Quantity: stop.Quantity,
				Kind:     domain.OrderKind{Kind: stop.Kind.Underlying},
			}
			trades, _, _ := e.processOne(underlying)
			all = append(all, trades...)
		}
	}
	return all
}

func (e *Engine) collectTriggeredStops() []domain.Order {
	price, ok := e.book.LastTradePrice()
	if !ok {
		return nil
	}
	var triggered []domain.Order
	for _, stop := range e.book.Stops() { // ascending id
		if stopTriggered(stop, price) {
			if removed, ok := e.book.TakeStop(stop.ID); ok {
				triggered = append(triggered, removed)
			}
		}
	}
	return triggered
}

func stopTriggered(o domain.Order, lastPrice domain.Price) bool {
	if o.Side == domain.Buy {
		return lastPrice >= o.Kind.Trigger
	}
	return lastPrice <= o.Kind.Trigger
}

// crosses reports whether an order on side, with the given order price,
// can execute against a resting level at levelPrice. A Market order's
// price has already been pinned to PriceMarketBuy/PriceMarketSell at
// admit time (processOne), so it crosses every level on the opposite
// side without a separate kind check here — spec.md's "treat as if
// price = +infinity (buy) or 0 (sell)" rule, made literal.
func crosses(side domain.Side, orderPrice, levelPrice domain.Price) bool {
	if side == domain.Buy {
		return orderPrice >= levelPrice
	}
	return orderPrice <= levelPrice
}

func rejected(id domain.OrderID, reason domain.Reason) domain.Outcome {
	return domain.Outcome{Status: domain.Rejected, OrderID: id, Reason: reason}
}

func reasonFor(err error) domain.Reason {
	switch {
	case errors.Is(err, assetrules.ErrInvalidQuantity), errors.Is(err, assetrules.ErrLotSize):
		return domain.InvalidQuantity
	case errors.Is(err, assetrules.ErrTickSize), errors.Is(err, assetrules.ErrMinNotional):
		return domain.InvalidPrice
	default:
		return domain.InvalidPrice
	}
}
