package backtest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yourusername/fairline/internal/models"
)

func TestRunMonteCarloDeterministicWithSeed(t *testing.T) {
	records := []*models.BetRecord{
		settledRecord("ev1", 50, 1000, 45.5, 0.58, true),
		settledRecord("ev2", 50, 1000, -50, 0.55, false),
	}
	cfg := MonteCarloConfig{Iterations: 200, Seed: 42, InitialBankroll: 1000}

	first, err := RunMonteCarlo(context.Background(), records, cfg)
	if err != nil {
		t.Fatalf("RunMonteCarlo: %v", err)
	}
	second, err := RunMonteCarlo(context.Background(), records, cfg)
	if err != nil {
		t.Fatalf("RunMonteCarlo: %v", err)
	}

	if first.Iterations != 200 {
		t.Fatalf("iterations = %d, want 200", first.Iterations)
	}
	if len(first.Distribution) != 200 {
		t.Fatalf("distribution length = %d, want 200", len(first.Distribution))
	}
	for i := range first.Distribution {
		if first.Distribution[i] != second.Distribution[i] {
			t.Fatalf("seeded runs diverged at iteration %d", i)
		}
	}
}

func TestRunMonteCarloSkipsUnstakedRecords(t *testing.T) {
	records := []*models.BetRecord{
		{ID: uuid.New(), EventID: "ev1", SkipReason: models.SkipReasonBelowMinEdge},
	}
	result, err := RunMonteCarlo(context.Background(), records, MonteCarloConfig{
		Iterations: 10, Seed: 1, InitialBankroll: 500,
	})
	if err != nil {
		t.Fatalf("RunMonteCarlo: %v", err)
	}
	for _, v := range result.Distribution {
		if v != 500 {
			t.Fatalf("skip-only run should leave bankroll unchanged, got %f", v)
		}
	}
	if result.ProbabilityOfRuin != 0 {
		t.Fatalf("probability of ruin = %f, want 0", result.ProbabilityOfRuin)
	}
}

func TestRunMonteCarloRejectsBadBankroll(t *testing.T) {
	_, err := RunMonteCarlo(context.Background(), nil, MonteCarloConfig{Iterations: 10})
	if err == nil {
		t.Fatalf("expected error for non-positive bankroll")
	}
}

func TestPercentileBounds(t *testing.T) {
	values := []float64{3, 1, 2}
	if got := percentile(values, 0); got != 1 {
		t.Fatalf("p0 = %f, want 1", got)
	}
	if got := percentile(values, 1); got != 3 {
		t.Fatalf("p100 = %f, want 3", got)
	}
}
