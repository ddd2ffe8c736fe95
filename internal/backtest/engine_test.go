package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/fairline/internal/audit"
	"github.com/yourusername/fairline/internal/devig"
	"github.com/yourusername/fairline/internal/edge"
	"github.com/yourusername/fairline/internal/models"
)

func testConfig() BacktestConfig {
	return BacktestConfig{
		InitialBankroll:          1000,
		MinEdgeThreshold:         0.03,
		KellyMultiplier:          0.5,
		MaxSingleBetFraction:     0.10,
		MaxTotalExposureFraction: 0.10,
		DevigMethod:              devig.MethodProportional,
		ReferenceBookPolicy:      edge.PolicyBestPrice,
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func snapshot(eventID, bookID string, observedAt time.Time, prices map[string]float64) models.MarketSnapshot {
	s := models.MarketSnapshot{
		EventID:    eventID,
		MarketType: models.MarketTypeHeadToHead,
		BookID:     bookID,
		ObservedAt: observedAt,
	}
	for outcome, price := range prices {
		s.Quotes = append(s.Quotes, models.Quote{
			EventID:    eventID,
			MarketType: models.MarketTypeHeadToHead,
			Outcome:    outcome,
			BookID:     bookID,
			Price:      price,
			ObservedAt: observedAt,
		})
	}
	return s
}

func probability(eventID, outcome string, p float64, producedAt time.Time) models.ModelProbability {
	return models.ModelProbability{
		EventID:     eventID,
		MarketType:  models.MarketTypeHeadToHead,
		Outcome:     outcome,
		Probability: p,
		ProducedAt:  producedAt,
	}
}

func TestRunPlacesBetAndSettlesWin(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	engine, err := NewEngine(testConfig(), recorder, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := Inputs{
		Snapshots: []models.MarketSnapshot{
			snapshot("ev1", "bookA", base, map[string]float64{"home": 1.91, "away": 1.91}),
		},
		Probabilities: []models.ModelProbability{
			probability("ev1", "home", 0.58, base.Add(time.Minute)),
		},
		Resolutions: []models.EventResolution{
			{EventID: "ev1", OutcomeRealized: "home", ResolvedAt: base.Add(2 * time.Hour)},
		},
	}

	state, metrics, err := engine.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if metrics.BetsPlaced != 1 {
		t.Fatalf("expected 1 bet placed, got %d", metrics.BetsPlaced)
	}

	record := state.Records[0]
	if record.SkipReason != models.SkipReasonNone {
		t.Fatalf("unexpected skip: %s", record.SkipReason)
	}
	// fair prob 0.5 at 1.91/1.91, half Kelly on k* = (0.58*1.91 - 1)/0.91
	wantKelly := (0.58*1.91 - 1.0) / 0.91
	wantStake := 0.5 * wantKelly
	if math.Abs(record.StakeFraction-wantStake) > 1e-9 {
		t.Fatalf("stake fraction = %f, want %f", record.StakeFraction, wantStake)
	}
	wantPnL := record.StakeAmount * 0.91
	if math.Abs(record.ProfitLoss-wantPnL) > 1e-9 {
		t.Fatalf("profit = %f, want %f", record.ProfitLoss, wantPnL)
	}
	if math.Abs(state.CurrentBankroll-(1000+wantPnL)) > 1e-9 {
		t.Fatalf("bankroll = %f, want %f", state.CurrentBankroll, 1000+wantPnL)
	}
	if len(recorder.Records()) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(recorder.Records()))
	}
}

func TestRunIgnoresDataAtOrAfterResolution(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	engine, err := NewEngine(testConfig(), recorder, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	resolvedAt := base.Add(time.Hour)
	inputs := Inputs{
		Snapshots: []models.MarketSnapshot{
			snapshot("ev1", "bookA", base, map[string]float64{"home": 1.91, "away": 1.91}),
			// poisoned quotes the replay must never see
			snapshot("ev1", "bookB", resolvedAt, map[string]float64{"home": 50.0, "away": 1.01}),
			snapshot("ev1", "bookC", resolvedAt.Add(time.Minute), map[string]float64{"home": 80.0, "away": 1.01}),
		},
		Probabilities: []models.ModelProbability{
			probability("ev1", "home", 0.58, base.Add(time.Minute)),
			probability("ev1", "home", 0.99, resolvedAt),
		},
		Resolutions: []models.EventResolution{
			{EventID: "ev1", OutcomeRealized: "home", ResolvedAt: resolvedAt},
		},
	}

	state, _, err := engine.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	record := state.Records[0]
	if record.ReferenceBookID != "bookA" {
		t.Fatalf("reference book = %q, want bookA", record.ReferenceBookID)
	}
	if record.ReferencePrice != 1.91 {
		t.Fatalf("reference price = %f, want 1.91", record.ReferencePrice)
	}
	if record.ModelProbability != 0.58 {
		t.Fatalf("model probability = %f, want 0.58", record.ModelProbability)
	}
}

func TestRunAuditTrailReplayMatchesLiveRun(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	engine, err := NewEngine(testConfig(), recorder, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := Inputs{
		Snapshots: []models.MarketSnapshot{
			snapshot("ev1", "bookA", base, map[string]float64{"home": 1.91, "away": 1.91}),
			snapshot("ev2", "bookA", base, map[string]float64{"home": 1.91, "away": 1.91}),
			snapshot("ev3", "bookA", base, map[string]float64{"home": 2.50, "away": 1.55}),
		},
		Probabilities: []models.ModelProbability{
			probability("ev1", "home", 0.58, base.Add(time.Minute)),
			probability("ev2", "away", 0.58, base.Add(time.Minute)),
			// edge below threshold, recorded as a skip
			probability("ev3", "home", 0.40, base.Add(time.Minute)),
		},
		Resolutions: []models.EventResolution{
			{EventID: "ev1", OutcomeRealized: "home", ResolvedAt: base.Add(time.Hour)},
			{EventID: "ev2", OutcomeRealized: "home", ResolvedAt: base.Add(2 * time.Hour)},
			{EventID: "ev3", OutcomeRealized: "away", ResolvedAt: base.Add(3 * time.Hour)},
		},
	}

	state, _, err := engine.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	summary, err := audit.Replay(recorder.Records())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if math.Abs(summary.FinalBankroll-state.CurrentBankroll) > 1e-9 {
		t.Fatalf("replay bankroll = %f, live = %f", summary.FinalBankroll, state.CurrentBankroll)
	}
	for reason, count := range state.SkipCounts {
		if summary.SkippedByReason[reason] != count {
			t.Fatalf("replay skips[%s] = %d, live = %d", reason, summary.SkippedByReason[reason], count)
		}
	}
	if summary.BetsPlaced != 2 {
		t.Fatalf("replay bets placed = %d, want 2", summary.BetsPlaced)
	}
}

func TestRunDuplicateResolutionIsFatal(t *testing.T) {
	engine, err := NewEngine(testConfig(), audit.NewMemoryRecorder(), quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := Inputs{
		Resolutions: []models.EventResolution{
			{EventID: "ev1", OutcomeRealized: "home", ResolvedAt: base},
			{EventID: "ev1", OutcomeRealized: "away", ResolvedAt: base.Add(time.Hour)},
		},
	}

	_, _, err = engine.Run(context.Background(), inputs)
	if !errors.Is(err, models.ErrNonCausalInput) {
		t.Fatalf("expected ErrNonCausalInput, got %v", err)
	}
}

func TestRunCompoundsBankrollInResolutionOrder(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	engine, err := NewEngine(testConfig(), recorder, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := Inputs{
		Snapshots: []models.MarketSnapshot{
			snapshot("ev1", "bookA", base, map[string]float64{"home": 1.91, "away": 1.91}),
			snapshot("ev2", "bookA", base, map[string]float64{"home": 1.91, "away": 1.91}),
		},
		Probabilities: []models.ModelProbability{
			probability("ev1", "home", 0.58, base),
			probability("ev2", "home", 0.58, base),
		},
		// ev2 listed first but resolves second
		Resolutions: []models.EventResolution{
			{EventID: "ev2", OutcomeRealized: "away", ResolvedAt: base.Add(2 * time.Hour)},
			{EventID: "ev1", OutcomeRealized: "home", ResolvedAt: base.Add(time.Hour)},
		},
	}

	state, _, err := engine.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(state.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(state.Records))
	}
	first, second := state.Records[0], state.Records[1]
	if first.EventID != "ev1" || second.EventID != "ev2" {
		t.Fatalf("records out of resolution order: %s then %s", first.EventID, second.EventID)
	}
	if first.BankrollBefore != 1000 {
		t.Fatalf("first bankroll = %f, want 1000", first.BankrollBefore)
	}
	wantSecond := 1000 + first.ProfitLoss
	if math.Abs(second.BankrollBefore-wantSecond) > 1e-9 {
		t.Fatalf("second bankroll = %f, want %f", second.BankrollBefore, wantSecond)
	}
	if second.ProfitLoss != -second.StakeAmount {
		t.Fatalf("losing bet should forfeit stake, got %f", second.ProfitLoss)
	}
}

func TestRunSameInstantEventsShareBankrollAndExposure(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSingleBetFraction = 0.06
	cfg.MaxTotalExposureFraction = 0.08
	recorder := audit.NewMemoryRecorder()
	engine, err := NewEngine(cfg, recorder, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	resolvedAt := base.Add(time.Hour)
	inputs := Inputs{
		Snapshots: []models.MarketSnapshot{
			snapshot("ev1", "bookA", base, map[string]float64{"home": 1.91, "away": 1.91}),
			snapshot("ev2", "bookA", base, map[string]float64{"home": 1.91, "away": 1.91}),
		},
		Probabilities: []models.ModelProbability{
			probability("ev1", "home", 0.60, base),
			probability("ev2", "home", 0.60, base),
		},
		Resolutions: []models.EventResolution{
			{EventID: "ev1", OutcomeRealized: "home", ResolvedAt: resolvedAt},
			{EventID: "ev2", OutcomeRealized: "home", ResolvedAt: resolvedAt},
		},
	}

	state, _, err := engine.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	first, second := state.Records[0], state.Records[1]
	if first.BankrollBefore != 1000 || second.BankrollBefore != 1000 {
		t.Fatalf("same-instant events must share the bankroll snapshot, got %f and %f",
			first.BankrollBefore, second.BankrollBefore)
	}
	// k* = (0.60*1.91 - 1)/0.91 ~ 0.1604, half Kelly ~ 0.0802, single-bet
	// capped to 0.06; the second bet only gets the remaining 0.02 headroom.
	if math.Abs(first.StakeFraction-0.06) > 1e-9 {
		t.Fatalf("first stake = %f, want 0.06", first.StakeFraction)
	}
	if math.Abs(second.StakeFraction-0.02) > 1e-9 {
		t.Fatalf("second stake = %f, want 0.02", second.StakeFraction)
	}
}

func TestRunSkipsEventWithoutUsableInputs(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	engine, err := NewEngine(testConfig(), recorder, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := Inputs{
		Snapshots: []models.MarketSnapshot{
			snapshot("ev2", "bookA", base, map[string]float64{"home": 1.91, "away": 1.91}),
		},
		Probabilities: []models.ModelProbability{
			probability("ev2", "home", 0.58, base),
		},
		Resolutions: []models.EventResolution{
			{EventID: "ev1", OutcomeRealized: "home", ResolvedAt: base.Add(time.Hour)},
			{EventID: "ev2", OutcomeRealized: "home", ResolvedAt: base.Add(2 * time.Hour)},
			{EventID: "ev3", OutcomeRealized: "home", ResolvedAt: base.Add(3 * time.Hour)},
		},
	}
	// ev3 has a probability but no snapshot
	inputs.Probabilities = append(inputs.Probabilities, probability("ev3", "home", 0.58, base))

	state, metrics, err := engine.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if metrics.BetsPlaced != 1 {
		t.Fatalf("expected 1 bet placed, got %d", metrics.BetsPlaced)
	}
	if state.SkipCounts[models.SkipReasonMissingModelProb] != 1 {
		t.Fatalf("expected 1 missing-probability skip, got %d",
			state.SkipCounts[models.SkipReasonMissingModelProb])
	}
	if state.SkipCounts[models.SkipReasonMissingSnapshot] != 1 {
		t.Fatalf("expected 1 missing-snapshot skip, got %d",
			state.SkipCounts[models.SkipReasonMissingSnapshot])
	}
}

func TestRunVoidSettlesToZero(t *testing.T) {
	recorder := audit.NewMemoryRecorder()
	engine, err := NewEngine(testConfig(), recorder, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := Inputs{
		Snapshots: []models.MarketSnapshot{
			snapshot("ev1", "bookA", base, map[string]float64{"home": 1.91, "away": 1.91}),
		},
		Probabilities: []models.ModelProbability{
			probability("ev1", "home", 0.58, base),
		},
		Resolutions: []models.EventResolution{
			{EventID: "ev1", OutcomeRealized: "void", ResolvedAt: base.Add(time.Hour)},
		},
	}

	state, _, err := engine.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	record := state.Records[0]
	if record.StakeAmount <= 0 {
		t.Fatalf("expected a bet to be placed")
	}
	if record.ProfitLoss != 0 {
		t.Fatalf("void should settle to zero, got %f", record.ProfitLoss)
	}
	if state.CurrentBankroll != 1000 {
		t.Fatalf("bankroll = %f, want 1000", state.CurrentBankroll)
	}
}

func TestRunCancelledContext(t *testing.T) {
	engine, err := NewEngine(testConfig(), audit.NewMemoryRecorder(), quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := Inputs{
		Resolutions: []models.EventResolution{
			{EventID: "ev1", OutcomeRealized: "home", ResolvedAt: base},
		},
	}
	_, _, err = engine.Run(ctx, inputs)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
