package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/fairline/internal/models"
)

func settledRecord(eventID string, stake, bankrollBefore, pnl, modelProb float64, won bool) *models.BetRecord {
	outcome := "home"
	realized := "home"
	if !won {
		realized = "away"
	}
	return &models.BetRecord{
		ID:               uuid.New(),
		EventID:          eventID,
		Outcome:          outcome,
		OutcomeRealized:  realized,
		ModelProbability: modelProb,
		StakeFraction:    stake / bankrollBefore,
		StakeAmount:      stake,
		BankrollBefore:   bankrollBefore,
		ProfitLoss:       pnl,
		ReferencePrice:   1.91,
		ResolvedAt:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCalculateMetricsBasics(t *testing.T) {
	state := NewBacktestState(1000)
	state.RecordDecision(settledRecord("ev1", 50, 1000, 45.5, 0.58, true))
	state.RecordDecision(settledRecord("ev2", 50, 1045.5, -50, 0.55, false))
	state.RecordDecision(&models.BetRecord{
		ID:         uuid.New(),
		EventID:    "ev3",
		SkipReason: models.SkipReasonBelowMinEdge,
	})

	metrics := CalculateMetrics(state, BacktestConfig{InitialBankroll: 1000})
	if metrics.TotalDecisions != 3 {
		t.Fatalf("total decisions = %d, want 3", metrics.TotalDecisions)
	}
	if metrics.BetsPlaced != 2 {
		t.Fatalf("bets placed = %d, want 2", metrics.BetsPlaced)
	}
	if metrics.WinningBets != 1 || metrics.LosingBets != 1 {
		t.Fatalf("wins/losses = %d/%d, want 1/1", metrics.WinningBets, metrics.LosingBets)
	}
	if metrics.WinRate != 0.5 {
		t.Fatalf("win rate = %f, want 0.5", metrics.WinRate)
	}
	if math.Abs(metrics.NetProfit-(-4.5)) > 1e-9 {
		t.Fatalf("net profit = %f, want -4.5", metrics.NetProfit)
	}
	if math.Abs(metrics.TotalStaked-100) > 1e-9 {
		t.Fatalf("total staked = %f, want 100", metrics.TotalStaked)
	}
	if metrics.SkippedByReason[models.SkipReasonBelowMinEdge] != 1 {
		t.Fatalf("expected skip count for below_min_edge")
	}
}

func TestCalculateGrowthRate(t *testing.T) {
	bets := []*models.BetRecord{
		settledRecord("ev1", 50, 1000, 45.5, 0.58, true),
		settledRecord("ev2", 50, 1045.5, -50, 0.55, false),
	}
	want := (math.Log(1+45.5/1000) + math.Log(1-50/1045.5)) / 2
	got := calculateGrowthRate(bets)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("growth rate = %f, want %f", got, want)
	}
}

func TestCalculateBrierScore(t *testing.T) {
	bets := []*models.BetRecord{
		settledRecord("ev1", 50, 1000, 45.5, 0.58, true),
		settledRecord("ev2", 50, 1000, -50, 0.55, false),
	}
	want := (0.42*0.42 + 0.55*0.55) / 2
	got := calculateBrierScore(bets)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("brier score = %f, want %f", got, want)
	}
}

func TestMaxDrawdown(t *testing.T) {
	curve := EquityCurve{
		{Value: 1000},
		{Value: 1200},
		{Value: 900},
		{Value: 1100},
	}
	got := calculateMaxDrawdown(curve)
	want := (1200.0 - 900.0) / 1200.0
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("max drawdown = %f, want %f", got, want)
	}
}

func TestSharpeRatioNonZero(t *testing.T) {
	returns := []float64{0.01, 0.02, -0.01, 0.03}
	if calculateSharpeRatio(returns, 0) == 0 {
		t.Fatalf("expected non-zero sharpe ratio")
	}
}

func TestEquityCurveReturns(t *testing.T) {
	curve := EquityCurve{
		{Value: 1000},
		{Value: 1100},
		{Value: 990},
	}
	returns := curve.GetReturns()
	if len(returns) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(returns))
	}
	if math.Abs(returns[0]-0.1) > 1e-12 {
		t.Fatalf("first return = %f, want 0.1", returns[0])
	}
	if math.Abs(returns[1]-(-0.1)) > 1e-12 {
		t.Fatalf("second return = %f, want -0.1", returns[1])
	}
}
