// Command matchbookd is the venue process: it wires a router, the
// in-process ingress gateway, the websocket trade feed and the
// Prometheus metrics endpoint together and serves HTTP until signalled
// to stop.
//
// Grounded on the teacher's cmd/main.go signal.NotifyContext shutdown
// pattern, extended with gopkg.in/tomb.v2 to supervise the router's
// per-symbol goroutines the way internal/net/server.go supervised its
// connection handlers.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/matchbook/internal/assetrules"
	"github.com/saiputravu/matchbook/internal/domain"
	"github.com/saiputravu/matchbook/internal/ingress"
	"github.com/saiputravu/matchbook/internal/ingress/wsfeed"
	"github.com/saiputravu/matchbook/internal/metrics"
	"github.com/saiputravu/matchbook/internal/router"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var t tomb.Tomb
	r := router.New(&t)

	met := metrics.New()
	hub := wsfeed.NewHub()
	r.SetMetrics(met)
	r.SetTradePublisher(hub)

	if err := r.Register("AAPL", assetrules.Equities{
		TickSize: 1, LotSize: 1, MinNotional: 100,
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to register symbol")
	}
	if err := r.Register("BTC-USD", assetrules.Crypto{LotSize: 1}); err != nil {
		log.Fatal().Err(err).Msg("failed to register symbol")
	}

	bus := ingress.NewChannelBus(1024)
	gw := ingress.NewGateway(bus, r, 4096)
	t.Go(func() error { return gw.Run(&t) })

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(met.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/ws/trades", hub.ServeHTTP)
	mux.HandleFunc("/orders", newOrderHandler(ctx, bus))
	mux.HandleFunc("/orders/cancel", cancelHandler(ctx, r))
	mux.HandleFunc("/snapshot", snapshotHandler(ctx, r))

	srv := &http.Server{Addr: "0.0.0.0:8080", Handler: mux}
	t.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("matchbookd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	t.Kill(nil)
	if err := t.Wait(); err != nil {
		log.Error().Err(err).Msg("matchbookd exited with error")
	}
}

type newOrderRequest struct {
	ID       uint64 `json:"id"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Kind     string `json:"kind"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	Display  int64  `json:"display,omitempty"`
	Trigger  int64  `json:"trigger,omitempty"`
}

func newOrderHandler(_ context.Context, bus *ingress.ChannelBus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req newOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		order := domain.Order{
			ID:       domain.OrderID(req.ID),
			Symbol:   domain.Symbol(req.Symbol),
			Side:     parseSide(req.Side),
			Price:    domain.Price(req.Price),
			Quantity: domain.Qty(req.Quantity),
			Kind: domain.OrderKind{
				Kind:    parseKind(req.Kind),
				Display: domain.Qty(req.Display),
				Trigger: domain.Price(req.Trigger),
			},
		}
		if err := bus.Publish(r.Context(), ingress.Envelope{Order: order}); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func cancelHandler(_ context.Context, r *router.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		symbol := domain.Symbol(req.URL.Query().Get("symbol"))
		id, err := strconv.ParseUint(req.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		outcome := r.Cancel(req.Context(), symbol, domain.OrderID(id))
		json.NewEncoder(w).Encode(outcome)
	}
}

func snapshotHandler(_ context.Context, r *router.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		symbol := domain.Symbol(req.URL.Query().Get("symbol"))
		snap, ok := r.Snapshot(req.Context(), symbol, 10)
		if !ok {
			http.Error(w, "unknown symbol", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(snap)
	}
}

func parseSide(s string) domain.Side {
	if s == "sell" {
		return domain.Sell
	}
	return domain.Buy
}

func parseKind(s string) domain.Kind {
	switch s {
	case "market":
		return domain.Market
	case "ioc":
		return domain.IOC
	case "fok":
		return domain.FOK
	case "iceberg":
		return domain.Iceberg
	case "stop":
		return domain.Stop
	default:
		return domain.Limit
	}
}

