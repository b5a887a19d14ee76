// Package router maps a symbol to its book and serializes every
// mutation on that book through a single owning goroutine, the way
// spec.md §4.F and §5 require: one logical execution context per
// symbol, strictly sequential and non-suspending inside that context,
// parallel and sharing nothing across symbols.
//
// Grounded on the teacher's WorkerPool/tomb.Tomb pattern
// (internal/worker.go, internal/net/server.go), but re-purposed from a
// shared N-worker pool into one dedicated goroutine per symbol — a
// shared pool would let two orders for the same symbol race on one
// book, which the single-writer requirement forbids.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/matchbook/internal/assetrules"
	"github.com/saiputravu/matchbook/internal/book"
	"github.com/saiputravu/matchbook/internal/domain"
	"github.com/saiputravu/matchbook/internal/matching"
)

// MetricsSink and TradePublisher are the router's observability and
// egress ports. They're defined here, not imported from
// internal/metrics or internal/ingress/wsfeed, so the router stays
// decoupled from any concrete collector or transport — the same
// "accept an interface, take a concrete reporter at the call site"
// shape as the teacher's engine.SetReporter. A Router with neither set
// runs exactly as before; both are optional.
type MetricsSink interface {
	ObserveOrder(symbol domain.Symbol, kind domain.Kind)
	ObserveResult(symbol domain.Symbol, outcome domain.Outcome, tradeCount int)
	ObserveLatency(symbol domain.Symbol, seconds float64)
	ObserveDepth(symbol domain.Symbol, side domain.Side, count int)
}

type TradePublisher interface {
	PublishTrade(t domain.TradeReport)
}

// request is the shared envelope every worker drains from its inbound
// channel; exactly one of the op fields is meaningful given kind.
type requestKind uint8

const (
	reqSubmit requestKind = iota
	reqCancel
	reqSnapshot
)

type request struct {
	kind  requestKind
	order domain.Order
	id    domain.OrderID
	depth int
	reply chan response
}

type response struct {
	result   matching.Result
	outcome  domain.Outcome
	snapshot book.Snapshot
}

// worker pins one matching.Engine to one goroutine, reading requests
// off its own inbound channel. Nothing outside this goroutine ever
// touches the engine or its book directly.
type worker struct {
	symbol domain.Symbol
	engine *matching.Engine
	inbox  chan request
}

// Router owns a symbol -> worker table. Registering a symbol is a
// control-plane operation; Submit/Cancel/Snapshot against an
// unregistered symbol are data-plane rejections (UnknownSymbol), never
// an implicit book creation, per spec.md §4.F.
type Router struct {
	t         *tomb.Tomb
	workers   map[domain.Symbol]*worker
	inbox     int // inbound channel buffer size per worker
	metrics   MetricsSink
	publisher TradePublisher
}

// New creates a router bound to t's lifecycle: killing t (or any
// worker returning a fatal error) tears the whole router down.
func New(t *tomb.Tomb) *Router {
	return &Router{
		t:       t,
		workers: make(map[domain.Symbol]*worker),
		inbox:   64,
	}
}

// SetMetrics attaches the collector every worker reports order intake,
// submit outcomes, submit latency and top-of-book depth to. Safe to
// call any time before the first Submit/Cancel/Snapshot reaches a
// worker; a nil sink (the default) disables metrics entirely.
func (r *Router) SetMetrics(m MetricsSink) {
	r.metrics = m
}

// SetTradePublisher attaches the egress fan-out every trade produced by
// a Submit call is forwarded to, in the order the matching engine
// generated them (triggering trade first, then any stop-cascade
// trades). A nil publisher (the default) disables egress entirely.
func (r *Router) SetTradePublisher(p TradePublisher) {
	r.publisher = p
}

// Register spins up a new single-writer worker for symbol, governed by
// rules. Registering an already-registered symbol replaces nothing and
// returns an error — re-registration is a control-plane mistake, not a
// data-plane event.
func (r *Router) Register(symbol domain.Symbol, rules assetrules.Rules) error {
	if _, ok := r.workers[symbol]; ok {
		return fmt.Errorf("router: symbol %q already registered", symbol)
	}
	b := book.New(symbol, rules)
	w := &worker{
		symbol: symbol,
		engine: matching.New(b),
		inbox:  make(chan request, r.inbox),
	}
	r.workers[symbol] = w
	r.t.Go(func() error { return r.run(w) })
	return nil
}

// run is the single owning goroutine for one symbol's book. It never
// suspends except on the inbound channel receive, per spec.md §5's
// "only blocking allowed is on the inbound-queue receive" rule. A panic
// inside the matching engine (an invariant violation) is recovered,
// logged as a diagnostic, and the worker exits with an error, which
// kills the router's tomb and so stops every other worker too. The
// router does not restart anything, and the halted symbol stays in the
// worker table, so a later Register for it returns an error.
func (r *Router) run(w *worker) (err error) {
	logger := log.With().Str("symbol", string(w.symbol)).Logger()
	logger.Info().Msg("symbol worker starting")
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Msg("matching engine invariant violation, worker halting")
			err = fmt.Errorf("router: symbol %q halted on invariant violation: %v", w.symbol, rec)
		}
	}()

	for {
		select {
		case <-r.t.Dying():
			logger.Info().Msg("symbol worker shutting down")
			return nil
		case req := <-w.inbox:
			r.handle(w, logger, req)
		}
	}
}

func (r *Router) handle(w *worker, logger zerolog.Logger, req request) {
	switch req.kind {
	case reqSubmit:
		if r.metrics != nil {
			r.metrics.ObserveOrder(w.symbol, req.order.Kind.Kind)
		}
		start := time.Now()
		result := w.engine.Submit(req.order)
		elapsed := time.Since(start)

		if result.Outcome.Status == domain.Rejected {
			logger.Debug().
				Uint64("order_id", uint64(req.order.ID)).
				Str("reason", result.Outcome.Reason.String()).
				Msg("order rejected")
		}
		if r.publisher != nil {
			for _, trade := range result.Trades {
				r.publisher.PublishTrade(trade)
			}
		}
		if r.metrics != nil {
			r.metrics.ObserveResult(w.symbol, result.Outcome, len(result.Trades))
			r.metrics.ObserveLatency(w.symbol, elapsed.Seconds())
			r.observeDepth(w)
		}
		req.reply <- response{result: result}
	case reqCancel:
		outcome := w.engine.Cancel(req.id)
		if r.metrics != nil {
			r.observeDepth(w)
		}
		req.reply <- response{outcome: outcome}
	case reqSnapshot:
		req.reply <- response{snapshot: w.engine.Book().Snapshot(req.depth)}
	}
}

// observeDepth reports the resting order count at the best price on
// each side, the cheapest depth signal available without walking the
// whole book on every mutation.
func (r *Router) observeDepth(w *worker) {
	if bid := w.engine.Book().BestLevel(domain.Buy); bid != nil {
		r.metrics.ObserveDepth(w.symbol, domain.Buy, bid.Len())
	}
	if ask := w.engine.Book().BestLevel(domain.Sell); ask != nil {
		r.metrics.ObserveDepth(w.symbol, domain.Sell, ask.Len())
	}
}

// Submit enqueues order on its symbol's worker and blocks for the
// result. An unregistered symbol is rejected without ever reaching a
// book, per spec.md's "unknown symbol -> Rejected{UnknownSymbol}" rule.
func (r *Router) Submit(ctx context.Context, order domain.Order) matching.Result {
	w, ok := r.workers[order.Symbol]
	if !ok {
		return matching.Result{
			Outcome: domain.Outcome{
				Status:  domain.Rejected,
				OrderID: order.ID,
				Reason:  domain.UnknownSymbol,
			},
		}
	}
	reply := make(chan response, 1)
	select {
	case w.inbox <- request{kind: reqSubmit, order: order, reply: reply}:
	case <-ctx.Done():
		return matching.Result{Outcome: domain.Outcome{Status: domain.Rejected, OrderID: order.ID}}
	case <-r.t.Dying():
		return matching.Result{Outcome: domain.Outcome{Status: domain.Rejected, OrderID: order.ID}}
	}
	select {
	case resp := <-reply:
		return resp.result
	case <-ctx.Done():
		return matching.Result{Outcome: domain.Outcome{Status: domain.Rejected, OrderID: order.ID}}
	}
}

// Cancel enqueues a cancel for id on symbol's worker and blocks for the
// outcome.
func (r *Router) Cancel(ctx context.Context, symbol domain.Symbol, id domain.OrderID) domain.Outcome {
	w, ok := r.workers[symbol]
	if !ok {
		return domain.Outcome{Status: domain.Rejected, OrderID: id, Reason: domain.UnknownSymbol}
	}
	reply := make(chan response, 1)
	select {
	case w.inbox <- request{kind: reqCancel, id: id, reply: reply}:
	case <-ctx.Done():
		return domain.Outcome{Status: domain.Rejected, OrderID: id}
	case <-r.t.Dying():
		return domain.Outcome{Status: domain.Rejected, OrderID: id}
	}
	select {
	case resp := <-reply:
		return resp.outcome
	case <-ctx.Done():
		return domain.Outcome{Status: domain.Rejected, OrderID: id}
	}
}

// Snapshot enqueues a read-only depth query for symbol and blocks for
// the result. The returned Snapshot is a value copy, safe to use off
// the caller's goroutine; it is consistent only up to the seq it was
// taken after, per spec.md §5.
func (r *Router) Snapshot(ctx context.Context, symbol domain.Symbol, depth int) (book.Snapshot, bool) {
	w, ok := r.workers[symbol]
	if !ok {
		return book.Snapshot{}, false
	}
	reply := make(chan response, 1)
	select {
	case w.inbox <- request{kind: reqSnapshot, depth: depth, reply: reply}:
	case <-ctx.Done():
		return book.Snapshot{}, false
	case <-r.t.Dying():
		return book.Snapshot{}, false
	}
	select {
	case resp := <-reply:
		return resp.snapshot, true
	case <-ctx.Done():
		return book.Snapshot{}, false
	}
}
