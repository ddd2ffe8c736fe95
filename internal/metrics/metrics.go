// Package metrics provides the centralized Prometheus metrics registry.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	DecisionsEvaluatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fairline",
		Name:      "decisions_evaluated_total",
		Help:      "Total number of edge decisions evaluated",
	})
	BetsPlacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fairline",
		Name:      "bets_placed_total",
		Help:      "Total number of bets placed",
	})
	BetsSettledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fairline",
		Name:      "bets_settled_total",
		Help:      "Total number of bets settled",
	})
	DecisionsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fairline",
		Name:      "decisions_skipped_total",
		Help:      "Total number of skipped decisions by reason",
	}, []string{"reason"})
)

// Gauge metrics
var (
	CurrentBankroll = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fairline",
		Name:      "current_bankroll",
		Help:      "Current bankroll in currency units",
	})
	TotalExposure = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fairline",
		Name:      "total_exposure",
		Help:      "Total open stake as a fraction of bankroll",
	})
	PeakBankroll = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fairline",
		Name:      "peak_bankroll",
		Help:      "High-water mark of the bankroll",
	})
)

// Histogram metrics
var (
	EdgeDistribution = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fairline",
		Name:      "edge_distribution",
		Help:      "Distribution of computed edges over evaluated decisions",
		Buckets:   []float64{-0.10, -0.05, -0.02, 0, 0.01, 0.02, 0.03, 0.05, 0.08, 0.12, 0.20},
	})
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fairline",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(DecisionsEvaluatedTotal)
		registry.MustRegister(BetsPlacedTotal)
		registry.MustRegister(BetsSettledTotal)
		registry.MustRegister(DecisionsSkippedTotal)

		// Register gauge metrics
		registry.MustRegister(CurrentBankroll)
		registry.MustRegister(TotalExposure)
		registry.MustRegister(PeakBankroll)

		// Register histogram metrics
		registry.MustRegister(EdgeDistribution)
		registry.MustRegister(BacktestDuration)

		// Register backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestFinalReturn)

		// Register ingestion metrics
		registry.MustRegister(IngestionRequestsTotal)
		registry.MustRegister(IngestionRecordsStored)
		registry.MustRegister(IngestionDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordDecisionEvaluated records an edge evaluation and its computed edge.
func RecordDecisionEvaluated(edge float64) {
	DecisionsEvaluatedTotal.Inc()
	EdgeDistribution.Observe(edge)
}

// RecordBetPlaced records a bet placement event.
func RecordBetPlaced() {
	BetsPlacedTotal.Inc()
}

// RecordBetSettled records a bet settlement event.
func RecordBetSettled() {
	BetsSettledTotal.Inc()
}

// RecordDecisionSkipped records a skipped decision by reason.
func RecordDecisionSkipped(reason string) {
	DecisionsSkippedTotal.WithLabelValues(reason).Inc()
}

// UpdateBankroll updates the current bankroll gauge.
func UpdateBankroll(amount float64) {
	CurrentBankroll.Set(amount)
}

// UpdateExposure updates the total exposure gauge.
func UpdateExposure(fraction float64) {
	TotalExposure.Set(fraction)
}

// UpdatePeakBankroll updates the bankroll high-water mark gauge.
func UpdatePeakBankroll(amount float64) {
	PeakBankroll.Set(amount)
}

// RecordBacktestDuration records backtest duration.
func RecordBacktestDuration(durationSeconds float64) {
	BacktestDuration.Observe(durationSeconds)
}
