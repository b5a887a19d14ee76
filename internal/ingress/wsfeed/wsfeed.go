// Package wsfeed fans execution reports and book snapshots out to
// websocket subscribers. It is strictly read-only egress: nothing here
// can submit or cancel an order, so it carries none of the single-writer
// discipline internal/router enforces — many goroutines may call Publish
// concurrently, one per upstream trade producer.
package wsfeed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/saiputravu/matchbook/internal/book"
	"github.com/saiputravu/matchbook/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// tradeMessage and snapshotMessage are the wire JSON shapes pushed to
// subscribers; kept separate from domain types so the feed's public
// contract can evolve independently of the matching core.
type tradeMessage struct {
	Type     string        `json:"type"`
	Symbol   domain.Symbol `json:"symbol"`
	Seq      domain.Seq    `json:"seq"`
	Price    domain.Price  `json:"price"`
	Quantity domain.Qty    `json:"quantity"`
	TS       int64         `json:"ts"`
}

type snapshotMessage struct {
	Type string        `json:"type"`
	Snap book.Snapshot `json:"snapshot"`
}

type subscriber struct {
	conn    *websocket.Conn
	outbox  chan []byte
	symbol  domain.Symbol
}

// Hub tracks live subscribers per symbol and serializes writes to each
// connection through its own outbox goroutine, so a slow reader can
// never block a trade publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[domain.Symbol]map[*subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[domain.Symbol]map[*subscriber]struct{})}
}

// ServeHTTP upgrades the request to a websocket and subscribes the
// connection to the symbol named in the "symbol" query parameter until
// the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	symbol := domain.Symbol(r.URL.Query().Get("symbol"))
	if symbol == "" {
		http.Error(w, "missing symbol query parameter", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("wsfeed: upgrade failed")
		return
	}

	sub := &subscriber{conn: conn, outbox: make(chan []byte, 256), symbol: symbol}
	h.add(sub)
	defer h.remove(sub)

	go sub.writeLoop()
	sub.readLoop()
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.symbol]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[sub.symbol] = set
	}
	set[sub] = struct{}{}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[sub.symbol], sub)
	close(sub.outbox)
	sub.conn.Close()
}

// readLoop discards client frames but must keep reading so gorilla's
// control-frame (ping/close) handling fires; an egress-only feed has no
// inbound payload use.
func (sub *subscriber) readLoop() {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (sub *subscriber) writeLoop() {
	for msg := range sub.outbox {
		sub.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// PublishTrade fans t out to every subscriber of its symbol. Never
// blocks on a slow subscriber: a full outbox drops the message for that
// subscriber rather than stalling the matching pipeline that called in.
func (h *Hub) PublishTrade(t domain.TradeReport) {
	payload, err := json.Marshal(tradeMessage{
		Type: "trade", Symbol: t.Symbol, Seq: t.Seq,
		Price: t.Price, Quantity: t.Quantity, TS: t.TS,
	})
	if err != nil {
		return
	}
	h.broadcast(t.Symbol, payload)
}

// PublishSnapshot fans a depth snapshot out to every subscriber of its
// symbol.
func (h *Hub) PublishSnapshot(snap book.Snapshot) {
	payload, err := json.Marshal(snapshotMessage{Type: "snapshot", Snap: snap})
	if err != nil {
		return
	}
	h.broadcast(snap.Symbol, payload)
}

func (h *Hub) broadcast(symbol domain.Symbol, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[symbol] {
		select {
		case sub.outbox <- payload:
		default:
			log.Warn().Str("symbol", string(symbol)).Msg("wsfeed: subscriber outbox full, dropping message")
		}
	}
}
