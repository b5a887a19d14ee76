// Package metrics exposes the venue's operational counters and
// histograms via prometheus/client_golang, registered against a
// dedicated registry rather than the global default so a binary can run
// more than one venue instance in-process (tests, multi-tenant
// deployments) without a metric-name collision panic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/saiputravu/matchbook/internal/domain"
)

// Metrics bundles every collector the matching path and router touch.
type Metrics struct {
	Registry *prometheus.Registry

	TradesTotal      *prometheus.CounterVec
	RejectionsTotal  *prometheus.CounterVec
	OrdersTotal      *prometheus.CounterVec
	BookDepth        *prometheus.GaugeVec
	SubmitLatencySec *prometheus.HistogramVec
}

// New builds and registers a fresh Metrics on a new registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchbook",
			Name:      "trades_total",
			Help:      "Total number of trades executed, by symbol.",
		}, []string{"symbol"}),
		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchbook",
			Name:      "rejections_total",
			Help:      "Total number of rejected orders, by symbol and reason.",
		}, []string{"symbol", "reason"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchbook",
			Name:      "orders_total",
			Help:      "Total number of orders submitted, by symbol and kind.",
		}, []string{"symbol", "kind"}),
		BookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "matchbook",
			Name:      "book_depth",
			Help:      "Resting order count at the top of book, by symbol and side.",
		}, []string{"symbol", "side"}),
		SubmitLatencySec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matchbook",
			Name:      "submit_latency_seconds",
			Help:      "Time spent inside Engine.Submit, by symbol.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12), // 1us .. ~4s
		}, []string{"symbol"}),
	}
	reg.MustRegister(m.TradesTotal, m.RejectionsTotal, m.OrdersTotal, m.BookDepth, m.SubmitLatencySec)
	return m
}

// ObserveOrder records an admitted order before it's processed.
func (m *Metrics) ObserveOrder(symbol domain.Symbol, kind domain.Kind) {
	m.OrdersTotal.WithLabelValues(string(symbol), kind.String()).Inc()
}

// ObserveResult records the outcome of one Engine.Submit call: every
// trade it produced and, if rejected, the rejection reason.
func (m *Metrics) ObserveResult(symbol domain.Symbol, outcome domain.Outcome, tradeCount int) {
	if tradeCount > 0 {
		m.TradesTotal.WithLabelValues(string(symbol)).Add(float64(tradeCount))
	}
	if outcome.Status == domain.Rejected {
		m.RejectionsTotal.WithLabelValues(string(symbol), outcome.Reason.String()).Inc()
	}
}

// ObserveDepth records the current top-of-book resting count for a side.
func (m *Metrics) ObserveDepth(symbol domain.Symbol, side domain.Side, count int) {
	m.BookDepth.WithLabelValues(string(symbol), side.String()).Set(float64(count))
}

// ObserveLatency records the wall-clock time one Engine.Submit call
// took, in seconds.
func (m *Metrics) ObserveLatency(symbol domain.Symbol, seconds float64) {
	m.SubmitLatencySec.WithLabelValues(string(symbol)).Observe(seconds)
}
