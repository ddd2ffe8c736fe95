// Package metrics defines backtesting and ingestion specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fairline",
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by mode and status",
	}, []string{"mode", "status"})
)

// Backtest gauge vectors
var (
	BacktestFinalReturn = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fairline",
		Name:      "backtest_final_return",
		Help:      "Final return on investment for each backtest run",
	}, []string{"run_id"})
)

// Ingestion metrics
var (
	IngestionRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fairline",
		Name:      "ingestion_requests_total",
		Help:      "Total number of upstream ingestion requests by source and status",
	}, []string{"source", "status"})

	IngestionRecordsStored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fairline",
		Name:      "ingestion_records_stored_total",
		Help:      "Total number of records stored by source and kind",
	}, []string{"source", "kind"})

	IngestionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fairline",
		Name:      "ingestion_duration_seconds",
		Help:      "Duration of ingestion sync cycles in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"source", "kind"})
)

// RecordBacktestRun records a backtest run event.
// mode should be one of: "walk_forward", "monte_carlo"
// status should be one of: "success", "failure", "cancelled"
func RecordBacktestRun(mode, status string) {
	BacktestRunsTotal.WithLabelValues(mode, status).Inc()
}

// UpdateBacktestReturn updates the final return gauge for a run.
func UpdateBacktestReturn(runID string, roi float64) {
	BacktestFinalReturn.WithLabelValues(runID).Set(roi)
}

// RecordIngestionRequest records an upstream request outcome.
func RecordIngestionRequest(source, status string) {
	IngestionRequestsTotal.WithLabelValues(source, status).Inc()
}

// RecordIngestionStored records stored records for a sync cycle.
func RecordIngestionStored(source, kind string, count int) {
	IngestionRecordsStored.WithLabelValues(source, kind).Add(float64(count))
}

// RecordIngestionDuration records the duration of a sync cycle.
func RecordIngestionDuration(source, kind string, durationSeconds float64) {
	IngestionDuration.WithLabelValues(source, kind).Observe(durationSeconds)
}
