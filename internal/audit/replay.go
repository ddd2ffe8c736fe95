package audit

import (
	"fmt"

	"github.com/yourusername/fairline/internal/models"
)

// ReplaySummary is the aggregate reconstructed from an audit trail without
// re-running the model or the market pipeline.
type ReplaySummary struct {
	InitialBankroll float64                   `json:"initial_bankroll"`
	FinalBankroll   float64                   `json:"final_bankroll"`
	TotalStaked     float64                   `json:"total_staked"`
	TotalReturn     float64                   `json:"total_return"`
	BetsPlaced      int                       `json:"bets_placed"`
	SkippedByReason map[models.SkipReason]int `json:"skipped_by_reason"`
}

// Replay folds a recorded sequence back into its aggregate P&L. Replaying a
// recorder's output must reproduce the original run's aggregate exactly; a
// record whose stake is inconsistent with the recorded bankroll snapshot
// indicates a corrupted trail.
func Replay(records []*models.BetRecord) (ReplaySummary, error) {
	summary := ReplaySummary{SkippedByReason: make(map[models.SkipReason]int)}
	if len(records) == 0 {
		return summary, nil
	}

	first := true
	bankroll := 0.0
	for i, record := range records {
		if record == nil {
			return summary, fmt.Errorf("nil record at position %d", i)
		}
		if first {
			summary.InitialBankroll = record.BankrollBefore
			bankroll = record.BankrollBefore
			first = false
		}

		if record.IsSkip() {
			summary.SkippedByReason[record.SkipReason]++
			continue
		}

		summary.BetsPlaced++
		summary.TotalStaked += record.StakeAmount
		summary.TotalReturn += record.ProfitLoss
		bankroll += record.ProfitLoss
	}

	summary.FinalBankroll = bankroll
	return summary, nil
}
