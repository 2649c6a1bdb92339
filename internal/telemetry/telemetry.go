package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "argo_lab"

// Metrics holds the backtest counters. Collectors live on their own registry so
// several instances can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	RunsTotal      *prometheus.CounterVec
	BarsProcessed  prometheus.Counter
	TradesTotal    *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	StrategyErrors *prometheus.CounterVec
	FinalEquity    *prometheus.GaugeVec
	SelectionScore *prometheus.GaugeVec
}

// NewMetrics creates and registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of backtest runs (by status).",
			},
			[]string{"status"},
		),
		BarsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bars_processed_total",
				Help:      "Total number of bars evaluated by the engine.",
			},
		),
		TradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Total number of simulated fills (by side).",
			},
			[]string{"side"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of a single backtest run.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		StrategyErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "strategy_errors_total",
				Help:      "Strategies excluded from a batch because they failed (by strategy).",
			},
			[]string{"strategy"},
		),
		FinalEquity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "final_capital",
				Help:      "Realized capital at the end of the last run (by strategy).",
			},
			[]string{"strategy"},
		),
		SelectionScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "selection_score",
				Help:      "Composite score from the last selection (by strategy).",
			},
			[]string{"strategy"},
		),
	}

	m.Registry.MustRegister(m.RunsTotal, m.BarsProcessed, m.TradesTotal, m.RunDuration, m.StrategyErrors, m.FinalEquity, m.SelectionScore)

	return m
}

// Status labels for RunsTotal.
const (
	StatusOK        = "ok"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ObserveRun records the outcome of one run. A nil receiver is a no-op.
func (m *Metrics) ObserveRun(strategy, status string, seconds float64, bars, buys, sells int, finalCapital float64) {
	if m == nil {
		return
	}

	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(seconds)
	m.BarsProcessed.Add(float64(bars))
	m.TradesTotal.WithLabelValues("buy").Add(float64(buys))
	m.TradesTotal.WithLabelValues("sell").Add(float64(sells))

	if status == StatusOK {
		m.FinalEquity.WithLabelValues(strategy).Set(finalCapital)
	}
}

// ObserveStrategyError counts a strategy excluded from a batch. A nil receiver is a no-op.
func (m *Metrics) ObserveStrategyError(strategy string) {
	if m == nil {
		return
	}

	m.StrategyErrors.WithLabelValues(strategy).Inc()
}

// ObserveScore records the composite score a strategy got in the last selection.
func (m *Metrics) ObserveScore(strategy string, score float64) {
	if m == nil {
		return
	}

	m.SelectionScore.WithLabelValues(strategy).Set(score)
}
