package metrics

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	// Initialize the registry
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestRegistryGathersDecisionMetrics(t *testing.T) {
	InitRegistry()

	RecordDecisionEvaluated(0.08)
	RecordBetPlaced()
	RecordDecisionSkipped("below_min_edge")
	UpdateBankroll(1042.5)
	UpdatePeakBankroll(1050)

	families, err := GetRegistry().Gather()
	assert.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["fairline_decisions_evaluated_total"])
	assert.True(t, names["fairline_bets_placed_total"])
	assert.True(t, names["fairline_decisions_skipped_total"])
	assert.True(t, names["fairline_current_bankroll"])
	assert.True(t, names["fairline_peak_bankroll"])
}

func TestRecordBetPlaced(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordBetPlaced()
	})
}

func TestRecordDecisionEvaluated(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name string
		edge float64
	}{
		{
			name: "positive edge",
			edge: 0.042,
		},
		{
			name: "negative edge",
			edge: -0.015,
		},
		{
			name: "zero edge",
			edge: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordDecisionEvaluated(tt.edge)
			})
		})
	}
}

func TestRecordDecisionSkipped(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordDecisionSkipped("below_min_edge")
	})

	assert.NotPanics(t, func() {
		RecordDecisionSkipped("exposure_cap_reached")
	})
}

func TestUpdateBankroll(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name     string
		bankroll float64
	}{
		{
			name:     "positive bankroll",
			bankroll: 10000,
		},
		{
			name:     "zero bankroll",
			bankroll: 0,
		},
		{
			name:     "negative bankroll",
			bankroll: -100, // Should still record
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateBankroll(tt.bankroll)
			})
		})
	}
}

func TestUpdateExposure(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name     string
		exposure float64
	}{
		{
			name:     "normal exposure",
			exposure: 0.08,
		},
		{
			name:     "at cap",
			exposure: 0.20,
		},
		{
			name:     "zero exposure",
			exposure: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateExposure(tt.exposure)
			})
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()

	handler := Handler()
	assert.NotNil(t, handler)
	assert.Implements(t, (*http.Handler)(nil), handler)
}

func TestBacktestMetrics(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordBacktestRun("walk_forward", "success")
	})

	assert.NotPanics(t, func() {
		UpdateBacktestReturn("run_001", 0.124)
	})

	assert.NotPanics(t, func() {
		RecordBacktestDuration(12.5)
	})
}

func TestIngestionMetrics(t *testing.T) {
	InitRegistry()

	source := "odds_api"

	assert.NotPanics(t, func() {
		RecordIngestionRequest(source, "success")
	})

	assert.NotPanics(t, func() {
		RecordIngestionStored(source, "quotes", 150)
	})

	assert.NotPanics(t, func() {
		RecordIngestionDuration(source, "quotes", 1.2)
	})
}

func BenchmarkRecordBetPlaced(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordBetPlaced()
	}
}

func BenchmarkUpdateBankroll(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		UpdateBankroll(10000.0)
	}
}

func BenchmarkRecordDecisionEvaluated(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordDecisionEvaluated(0.035)
	}
}
