// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/fairline/internal/models"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogEdgeEvaluation logs one edge calculation against the fair line.
func (al *AuditLogger) LogEdgeEvaluation(decision models.EdgeDecision) {
	al.WithFields(logrus.Fields{
		"event_id":        decision.EventID,
		"market_type":     decision.MarketType,
		"outcome":         decision.Outcome,
		"model_prob":      decision.ModelProbability,
		"fair_prob":       decision.FairProbability,
		"edge":            decision.Edge,
		"qualifies":       decision.Qualifies,
		"reference_price": decision.ReferencePrice,
		"reference_book":  decision.ReferenceBookID,
	}).Info("Edge evaluated")
}

// LogStakeDecision logs a sizing outcome, bet or skip.
func (al *AuditLogger) LogStakeDecision(record *models.BetRecord) {
	fields := logrus.Fields{
		"event_id":        record.EventID,
		"outcome":         record.Outcome,
		"bankroll_before": record.BankrollBefore,
	}
	if record.IsSkip() {
		fields["skip_reason"] = record.SkipReason
		al.WithFields(fields).Info("Decision skipped")
		return
	}
	fields["stake_fraction"] = record.StakeFraction
	fields["stake_amount"] = record.StakeAmount
	fields["reference_price"] = record.ReferencePrice
	al.WithFields(fields).Info("Stake committed")
}

// LogSettlement logs a resolved bet with its realized profit or loss.
func (al *AuditLogger) LogSettlement(record *models.BetRecord) {
	al.WithFields(logrus.Fields{
		"event_id":         record.EventID,
		"outcome":          record.Outcome,
		"outcome_realized": record.OutcomeRealized,
		"won":              record.Won(),
		"profit_loss":      record.ProfitLoss,
		"resolved_at":      record.ResolvedAt.Unix(),
	}).Info("Bet settled")
}

// LogRunStarted logs the start of a walk-forward run.
func (al *AuditLogger) LogRunStarted(runID string, initialBankroll float64, events int, startedAt time.Time) {
	al.WithFields(logrus.Fields{
		"run_id":           runID,
		"initial_bankroll": initialBankroll,
		"events":           events,
		"started_at":       startedAt.Unix(),
	}).Info("Walk-forward run started")
}

// LogRunCompleted logs the completion of a walk-forward run.
func (al *AuditLogger) LogRunCompleted(runID string, finalBankroll float64, betsPlaced int, duration time.Duration) {
	al.WithFields(logrus.Fields{
		"run_id":         runID,
		"final_bankroll": finalBankroll,
		"bets_placed":    betsPlaced,
		"duration_ms":    duration.Milliseconds(),
	}).Info("Walk-forward run completed")
}
