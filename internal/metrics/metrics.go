// Package metrics exposes the engine's prometheus instrumentation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the concrete engine.Recorder backed by prometheus
// collectors, registered on construction.
type Metrics struct {
	ordersPlaced      *prometheus.CounterVec
	bracketsCompleted *prometheus.CounterVec
	stopLossHits      *prometheus.CounterVec
	balance           prometheus.Gauge
	reconcilerSweeps  prometheus.Counter
	reconcilerOrphans prometheus.Counter
}

// New registers the engine's collectors against reg and returns a ready
// Metrics. Pass prometheus.DefaultRegisterer to use the global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalcore_orders_placed_total",
			Help: "Entry orders placed, by symbol.",
		}, []string{"symbol"}),
		bracketsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalcore_brackets_completed_total",
			Help: "Brackets that completed via their final target fill, by symbol.",
		}, []string{"symbol"}),
		stopLossHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalcore_stop_loss_hits_total",
			Help: "Brackets that closed via stop loss, by symbol.",
		}, []string{"symbol"}),
		balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalcore_account_balance_usdt",
			Help: "Last observed available USDT balance.",
		}),
		reconcilerSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalcore_reconciler_sweeps_total",
			Help: "Reconciler sweep runs.",
		}),
		reconcilerOrphans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalcore_reconciler_orphans_total",
			Help: "Orphaned child orders dropped by the reconciler.",
		}),
	}
	reg.MustRegister(
		m.ordersPlaced, m.bracketsCompleted, m.stopLossHits,
		m.balance, m.reconcilerSweeps, m.reconcilerOrphans,
	)
	return m
}

func (m *Metrics) OrderPlaced(symbol string)      { m.ordersPlaced.WithLabelValues(symbol).Inc() }
func (m *Metrics) BracketCompleted(symbol string) { m.bracketsCompleted.WithLabelValues(symbol).Inc() }
func (m *Metrics) StopLossHit(symbol string)       { m.stopLossHits.WithLabelValues(symbol).Inc() }
func (m *Metrics) SetBalance(usdt float64)         { m.balance.Set(usdt) }
func (m *Metrics) ReconcilerSwept(orphans int) {
	m.reconcilerSweeps.Inc()
	m.reconcilerOrphans.Add(float64(orphans))
}
