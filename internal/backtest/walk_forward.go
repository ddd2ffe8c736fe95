package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/fairline/internal/edge"
	"github.com/yourusername/fairline/internal/kelly"
	"github.com/yourusername/fairline/internal/models"
)

// Inputs are the pre-fetched, in-memory sequences a run replays. The core
// does no I/O of its own; the ingestion boundary owns these values.
type Inputs struct {
	Snapshots     []models.MarketSnapshot
	Probabilities []models.ModelProbability
	Resolutions   []models.EventResolution
}

// replayEvent is one event with everything observed about it
type replayEvent struct {
	resolution    models.EventResolution
	snapshots     []models.MarketSnapshot
	probabilities []models.ModelProbability
}

// Realized outcome labels that settle to zero P&L
const (
	outcomeVoid = "void"
	outcomePush = "push"
)

// buildReplay groups the inputs per event and orders events by nondecreasing
// resolution time. A duplicate resolution for one event id is the dependent
// same-instant case the causality rule forbids.
func buildReplay(inputs Inputs) ([]replayEvent, error) {
	byEvent := make(map[string]*replayEvent, len(inputs.Resolutions))
	for _, resolution := range inputs.Resolutions {
		if _, exists := byEvent[resolution.EventID]; exists {
			return nil, fmt.Errorf("%w: duplicate resolution for event %q",
				models.ErrNonCausalInput, resolution.EventID)
		}
		byEvent[resolution.EventID] = &replayEvent{resolution: resolution}
	}

	for _, snapshot := range inputs.Snapshots {
		if ev, ok := byEvent[snapshot.EventID]; ok {
			ev.snapshots = append(ev.snapshots, snapshot)
		}
	}
	for _, probability := range inputs.Probabilities {
		if ev, ok := byEvent[probability.EventID]; ok {
			ev.probabilities = append(ev.probabilities, probability)
		}
	}

	events := make([]replayEvent, 0, len(byEvent))
	for _, ev := range byEvent {
		events = append(events, *ev)
	}
	sort.Slice(events, func(i, j int) bool {
		ri, rj := events[i].resolution, events[j].resolution
		if !ri.ResolvedAt.Equal(rj.ResolvedAt) {
			return ri.ResolvedAt.Before(rj.ResolvedAt)
		}
		return ri.EventID < rj.EventID
	})
	return events, nil
}

// replay folds the time-ordered events into the state. Events resolving at
// the same instant form one batch: they are all evaluated against the same
// bankroll snapshot and share exposure headroom, then settle together. The
// bankroll mutates only after a batch resolves; that fold is the sole
// serialization point.
func (e *Engine) replay(ctx context.Context, events []replayEvent, state *BacktestState) error {
	tracker := kelly.NewExposureTracker(e.config.MaxTotalExposureFraction)

	for start := 0; start < len(events); {
		// Cancellation is honored at batch boundaries only, so records and
		// bankroll state stay consistent.
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + 1
		for end < len(events) && events[end].resolution.ResolvedAt.Equal(events[start].resolution.ResolvedAt) {
			end++
		}

		bankrollBefore := state.CurrentBankroll
		batch := make([]*models.BetRecord, 0, end-start)
		for i := start; i < end; i++ {
			record := e.evaluateEvent(&events[i], state.RunID, bankrollBefore, tracker.Headroom())
			if record.StakeFraction > 0 {
				tracker.Commit(record.EventID+"/"+record.Outcome, record.StakeFraction)
			}
			batch = append(batch, record)
		}

		for i, record := range batch {
			settleRecord(record, events[start+i].resolution)
			tracker.Release(record.EventID + "/" + record.Outcome)
			state.RecordDecision(record)
			if err := e.recorder.Record(ctx, record); err != nil {
				return fmt.Errorf("audit write failed for event %q: %w", record.EventID, err)
			}
		}
		start = end
	}
	return nil
}

// evaluateEvent runs the odds -> devig -> edge -> kelly chain for one event
// using only data timestamped strictly before the event's resolution time.
// Evaluation errors are converted into zero-stake skip records.
func (e *Engine) evaluateEvent(ev *replayEvent, runID uuid.UUID, bankroll float64, headroom float64) *models.BetRecord {
	resolvedAt := ev.resolution.ResolvedAt
	record := &models.BetRecord{
		ID:             uuid.New(),
		RunID:          runID,
		EventID:        ev.resolution.EventID,
		BankrollBefore: bankroll,
		EvaluatedAt:    resolvedAt,
		ResolvedAt:     resolvedAt,
	}

	probability, ok := latestProbability(ev.probabilities, resolvedAt)
	if !ok {
		record.SkipReason = models.SkipReasonMissingModelProb
		return record
	}
	record.MarketType = probability.MarketType
	record.Outcome = probability.Outcome
	record.ModelProbability = probability.Probability
	record.EvaluatedAt = probability.ProducedAt

	snapshots := latestSnapshotsPerBook(ev.snapshots, probability.MarketType, resolvedAt)
	if len(snapshots) == 0 {
		record.SkipReason = models.SkipReasonMissingSnapshot
		return record
	}
	record.Snapshots = snapshots
	for _, snapshot := range snapshots {
		if snapshot.ObservedAt.After(record.EvaluatedAt) {
			record.EvaluatedAt = snapshot.ObservedAt
		}
	}

	markets := make([]edge.BookMarket, 0, len(snapshots))
	var lastErr error
	for _, snapshot := range snapshots {
		fair, err := e.converter.Convert(snapshot)
		if err != nil {
			lastErr = err
			e.logger.WithError(err).WithFields(logrus.Fields{
				"event_id": snapshot.EventID,
				"book_id":  snapshot.BookID,
			}).Warn("De-vig failed for book, excluding from reference selection")
			continue
		}
		markets = append(markets, edge.BookMarket{Snapshot: snapshot, Fair: fair})
	}
	if len(markets) == 0 {
		record.SkipReason = models.SkipReasonForError(lastErr)
		return record
	}

	decision, err := e.calculator.Evaluate(probability, markets)
	if err != nil {
		record.SkipReason = models.SkipReasonNoReferencePrice
		return record
	}
	record.Edge = decision.Edge
	record.ReferencePrice = decision.ReferencePrice
	record.ReferenceBookID = decision.ReferenceBookID
	for _, market := range markets {
		if market.Snapshot.BookID == decision.ReferenceBookID {
			record.Fair = market.Fair
		}
	}

	sized, err := e.sizer.Size(decision, headroom)
	if err != nil {
		record.SkipReason = models.SkipReasonForError(err)
		return record
	}
	record.SkipReason = sized.SkipReason
	record.StakeFraction = sized.StakeFraction
	record.StakeAmount = sized.StakeFraction * bankroll
	return record
}

// settleRecord resolves a record against the realized outcome: a win pays
// stake*(price-1), a void or push returns the stake, anything else loses it.
func settleRecord(record *models.BetRecord, resolution models.EventResolution) {
	record.OutcomeRealized = resolution.OutcomeRealized
	record.ResolvedAt = resolution.ResolvedAt
	if record.StakeAmount <= 0 {
		return
	}
	switch resolution.OutcomeRealized {
	case record.Outcome:
		record.ProfitLoss = record.StakeAmount * (record.ReferencePrice - 1.0)
	case outcomeVoid, outcomePush:
		record.ProfitLoss = 0
	default:
		record.ProfitLoss = -record.StakeAmount
	}
}

// latestProbability returns the most recently produced model probability
// strictly before the cutoff
func latestProbability(probabilities []models.ModelProbability, cutoff time.Time) (models.ModelProbability, bool) {
	var latest models.ModelProbability
	found := false
	for _, p := range probabilities {
		if !p.ProducedAt.Before(cutoff) {
			continue
		}
		if !found || p.ProducedAt.After(latest.ProducedAt) {
			latest = p
			found = true
		}
	}
	return latest, found
}

// latestSnapshotsPerBook returns, for each book, the newest snapshot of the
// given market type observed strictly before the cutoff
func latestSnapshotsPerBook(snapshots []models.MarketSnapshot, marketType models.MarketType, cutoff time.Time) []models.MarketSnapshot {
	latest := make(map[string]models.MarketSnapshot)
	for _, snapshot := range snapshots {
		if snapshot.MarketType != marketType {
			continue
		}
		if !snapshot.ObservedAt.Before(cutoff) {
			continue
		}
		existing, ok := latest[snapshot.BookID]
		if !ok || snapshot.ObservedAt.After(existing.ObservedAt) {
			latest[snapshot.BookID] = snapshot
		}
	}

	books := make([]string, 0, len(latest))
	for book := range latest {
		books = append(books, book)
	}
	sort.Strings(books)

	out := make([]models.MarketSnapshot, 0, len(books))
	for _, book := range books {
		out = append(out, latest[book])
	}
	return out
}
