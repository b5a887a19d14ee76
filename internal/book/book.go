// Package book owns the order-book data structure: two price-indexed
// trees of Levels, a stop-order table, and the last-trade price. It
// enforces the structural invariants (no empty levels rest, every
// resting order lives in exactly one level) but the crossed-book
// invariant and the matching algorithm itself belong to
// internal/matching, which is the only caller allowed to mutate a Book.
package book

import (
	"github.com/tidwall/btree"

	"github.com/saiputravu/matchbook/internal/assetrules"
	"github.com/saiputravu/matchbook/internal/domain"
)

// Book is the per-symbol resting state. Grounded on the teacher's
// OrderBook (internal/engine/orderbook.go): two tidwall/btree.BTreeG
// trees keyed by price, bids sorted descending and asks ascending so
// Min() on either tree is always "best price for that side".
type Book struct {
	Symbol domain.Symbol
	Rules  assetrules.Rules

	bids *btree.BTreeG[*Level]
	asks *btree.BTreeG[*Level]
	stops map[domain.OrderID]domain.Order

	// locations indexes every resting or stopped order id so Cancel can
	// run in O(log |levels| + depth at the matched level) instead of a
	// full book scan, per spec.md's resource model (§5).
	locations map[domain.OrderID]location

	lastTradePrice    domain.Price
	hasLastTradePrice bool

	submitSeq domain.Seq
	tradeSeq  domain.Seq
}

type location struct {
	side  domain.Side
	price domain.Price
	stop  bool
}

// New creates an empty book for symbol, governed by rules.
func New(symbol domain.Symbol, rules assetrules.Rules) *Book {
	return &Book{
		Symbol: symbol,
		Rules:  rules,
		bids: btree.NewBTreeG(func(a, b *Level) bool {
			return a.Price > b.Price // descending: best bid is Min()
		}),
		asks: btree.NewBTreeG(func(a, b *Level) bool {
			return a.Price < b.Price // ascending: best ask is Min()
		}),
		stops:     make(map[domain.OrderID]domain.Order),
		locations: make(map[domain.OrderID]location),
	}
}

// SideTree exposes the underlying ordered tree for a side, read-only
// traversal use (e.g. the matching engine's FOK dry-run scan).
func (b *Book) SideTree(side domain.Side) *btree.BTreeG[*Level] {
	if side == domain.Buy {
		return b.bids
	}
	return b.asks
}

// BestBid returns the highest resting bid price, if any.
func (b *Book) BestBid() (domain.Price, bool) {
	l, ok := b.bids.Min()
	if !ok {
		return 0, false
	}
	return l.Price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *Book) BestAsk() (domain.Price, bool) {
	l, ok := b.asks.Min()
	if !ok {
		return 0, false
	}
	return l.Price, true
}

// BestLevel returns the best (price-priority-first) level on side,
// mutably, or nil if that side is empty.
func (b *Book) BestLevel(side domain.Side) *Level {
	l, ok := b.SideTree(side).MinMut()
	if !ok {
		return nil
	}
	return l
}

// RemoveLevel drops price from side. Called once a level has been
// drained to empty; never removes a non-empty level.
func (b *Book) RemoveLevel(side domain.Side, price domain.Price) {
	b.SideTree(side).Delete(&Level{Price: price})
}

// Rest inserts order into the appropriate side at order.Price, creating
// the level if needed. The caller (the matching engine) is responsible
// for having already matched whatever could be matched.
func (b *Book) Rest(o *domain.Order) {
	tree := b.SideTree(o.Side)
	existing, ok := tree.GetMut(&Level{Price: o.Price})
	if ok {
		existing.append(o)
	} else {
		l := newLevel(o.Price)
		l.append(o)
		tree.Set(l)
	}
	b.locations[o.ID] = location{side: o.Side, price: o.Price}
}

// Forget drops the location index entry for id without touching a
// level. Called by the matching engine once a resting order's
// remaining quantity reaches zero through matching (as opposed to an
// explicit Cancel).
func (b *Book) Forget(id domain.OrderID) {
	delete(b.locations, id)
}

// PutStop places a conditional order in the stop table.
func (b *Book) PutStop(o domain.Order) {
	b.stops[o.ID] = o
	b.locations[o.ID] = location{stop: true}
}

// TakeStop removes and returns a stop order by id.
func (b *Book) TakeStop(id domain.OrderID) (domain.Order, bool) {
	o, ok := b.stops[id]
	if ok {
		delete(b.stops, id)
		delete(b.locations, id)
	}
	return o, ok
}

// Cancel locates the order with id, wherever it is resting (either
// side's book or the stop table), and removes it. Idempotent: a second
// call for the same id returns false, matching the spec's NotFound
// semantics for an already-cancelled or already-filled order.
func (b *Book) Cancel(id domain.OrderID) bool {
	loc, ok := b.locations[id]
	if !ok {
		return false
	}
	delete(b.locations, id)
	if loc.stop {
		delete(b.stops, id)
		return true
	}
	tree := b.SideTree(loc.side)
	l, ok := tree.GetMut(&Level{Price: loc.price})
	if !ok {
		return false
	}
	if !l.cancel(id) {
		return false
	}
	if l.IsEmpty() {
		tree.Delete(l)
	}
	return true
}

// Stops returns a snapshot slice of resting stop orders, sorted by
// ascending id, matching the spec's required deterministic cascade
// trigger order.
func (b *Book) Stops() []domain.Order {
	out := make([]domain.Order, 0, len(b.stops))
	for _, o := range b.stops {
		out = append(out, o)
	}
	sortOrdersByID(out)
	return out
}

func sortOrdersByID(orders []domain.Order) {
	// Insertion sort: the stop table is expected to stay small relative
	// to the resting book, and this keeps the dependency footprint to
	// what the matching package already needs.
	for i := 1; i < len(orders); i++ {
		for j := i; j > 0 && orders[j].ID < orders[j-1].ID; j-- {
			orders[j], orders[j-1] = orders[j-1], orders[j]
		}
	}
}

// LastTradePrice returns the last execution price for this book, if
// any trade has occurred yet.
func (b *Book) LastTradePrice() (domain.Price, bool) {
	return b.lastTradePrice, b.hasLastTradePrice
}

// SetLastTradePrice records the most recent execution price.
func (b *Book) SetLastTradePrice(p domain.Price) {
	b.lastTradePrice = p
	b.hasLastTradePrice = true
}

// NextSubmitSeq hands out the next strictly monotonic submit_ts for
// this book, used for price-time priority tie-breaking only.
func (b *Book) NextSubmitSeq() domain.Seq {
	b.submitSeq++
	return b.submitSeq
}

// NextTradeSeq hands out the next strictly monotonic trade sequence
// number for this book's trade log.
func (b *Book) NextTradeSeq() domain.Seq {
	b.tradeSeq++
	return b.tradeSeq
}

// Crossed reports whether the book is in a crossed state
// (best_bid >= best_ask). It is a query only: the matching engine does
// not call it after Submit, and no Book or level operation enforces the
// condition; levels may transiently cross mid-match.
func (b *Book) Crossed() bool {
	bid, bidOK := b.BestBid()
	ask, askOK := b.BestAsk()
	if !bidOK || !askOK {
		return false
	}
	return bid >= ask
}

// LevelSummary is one row of a depth snapshot: the aggregate resting
// quantity at a price.
type LevelSummary struct {
	Price    domain.Price
	Quantity domain.Qty
}

// Snapshot is a read-only, point-in-time aggregate view of the book,
// safe to publish off the owning goroutine once copied out — it holds
// no pointers into the live book.
type Snapshot struct {
	Symbol domain.Symbol
	Bids   []LevelSummary
	Asks   []LevelSummary
}

// Snapshot aggregates remaining quantity per price for the top depth
// levels on each side, best price first.
func (b *Book) Snapshot(depth int) Snapshot {
	snap := Snapshot{Symbol: b.Symbol}
	snap.Bids = summarize(b.bids, depth)
	snap.Asks = summarize(b.asks, depth)
	return snap
}

func summarize(tree *btree.BTreeG[*Level], depth int) []LevelSummary {
	out := make([]LevelSummary, 0, depth)
	tree.Scan(func(l *Level) bool {
		if len(out) >= depth {
			return false
		}
		var qty domain.Qty
		for _, o := range l.Orders {
			qty += o.Remaining
		}
		out = append(out, LevelSummary{Price: l.Price, Quantity: qty})
		return true
	})
	return out
}
