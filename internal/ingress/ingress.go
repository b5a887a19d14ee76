// Package ingress is the reference adapter between an external order
// source and an internal/router.Router: it assigns correlation ids for
// tracing, drops duplicate client submissions, and dispatches onto the
// router's per-symbol workers. It is "reference" because a real
// deployment is expected to replace ChannelBus with a durable transport
// (Kafka, NATS, a FIX gateway) — the Gateway itself is transport-agnostic.
//
// Grounded on the teacher's WorkerPool task-channel pattern
// (internal/worker.go), recast from a shared worker pool into a single
// dispatch loop that hands work to the router (which does its own
// per-symbol fan-out).
package ingress

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/matchbook/internal/domain"
	"github.com/saiputravu/matchbook/internal/router"
)

// Envelope wraps a client-submitted order with an ingress-assigned
// correlation id, used for log tracing across the gateway and the
// eventual execution report — never exposed to the matching core, which
// only ever sees domain.OrderID.
type Envelope struct {
	CorrelationID uuid.UUID
	Order         domain.Order
}

// ChannelBus is the in-process reference transport: a single buffered
// channel standing in for whatever durable bus a deployment would swap
// in. Publish is non-blocking up to the buffer; a full bus blocks the
// publisher, applying backpressure rather than dropping.
type ChannelBus struct {
	orders chan Envelope
}

// NewChannelBus creates a bus with the given buffer depth.
func NewChannelBus(buffer int) *ChannelBus {
	return &ChannelBus{orders: make(chan Envelope, buffer)}
}

// Publish hands env to the bus, assigning a correlation id if one isn't
// already set.
func (c *ChannelBus) Publish(ctx context.Context, env Envelope) error {
	if env.CorrelationID == uuid.Nil {
		env.CorrelationID = uuid.New()
	}
	select {
	case c.orders <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Gateway drains a ChannelBus and submits each order to a Router,
// deduplicating by domain.OrderID within a bounded recent-id window: a
// resubmitted id is dropped with a warning log and never reaches the
// router, so no outcome is produced for it. An at-least-once transport
// redelivery is the most likely source of a duplicate.
type Gateway struct {
	bus    *ChannelBus
	router *router.Router

	mu       sync.Mutex
	seen     map[domain.OrderID]struct{}
	seenList []domain.OrderID
	window   int
}

// NewGateway creates a gateway dispatching onto r, remembering up to
// window recently-seen order ids for deduplication.
func NewGateway(bus *ChannelBus, r *router.Router, window int) *Gateway {
	if window <= 0 {
		window = 4096
	}
	return &Gateway{
		bus:    bus,
		router: r,
		seen:   make(map[domain.OrderID]struct{}, window),
		window: window,
	}
}

// Run drains the bus until t is dying, submitting each order to the
// router and logging its outcome. Intended to be started with t.Go.
func (g *Gateway) Run(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case env := <-g.bus.orders:
			g.dispatch(t.Context(context.Background()), env)
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, env Envelope) {
	logger := log.With().
		Str("correlation_id", env.CorrelationID.String()).
		Uint64("order_id", uint64(env.Order.ID)).
		Str("symbol", string(env.Order.Symbol)).
		Logger()

	if g.duplicate(env.Order.ID) {
		logger.Warn().Msg("duplicate order id rejected at ingress")
		return
	}

	result := g.router.Submit(ctx, env.Order)
	logger.Info().
		Str("status", result.Outcome.Status.String()).
		Int("trades", len(result.Trades)).
		Msg("order processed")
}

// duplicate reports whether id has been seen within the current window,
// recording it if not. The window is a simple FIFO eviction over a map,
// adequate for the bounded-recency guarantee the spec asks for without
// pulling in an external cache.
func (g *Gateway) duplicate(id domain.OrderID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[id]; ok {
		return true
	}
	g.seen[id] = struct{}{}
	g.seenList = append(g.seenList, id)
	if len(g.seenList) > g.window {
		oldest := g.seenList[0]
		g.seenList = g.seenList[1:]
		delete(g.seen, oldest)
	}
	return false
}
