package models

import (
	"time"

	"github.com/google/uuid"
)

// BetRecord is one realized decision from a walk-forward run, with every
// intermediate value needed to reproduce it. Immutable once resolved.
type BetRecord struct {
	ID               uuid.UUID         `db:"id" json:"id"`
	RunID            uuid.UUID         `db:"run_id" json:"run_id"`
	EventID          string            `db:"event_id" json:"event_id"`
	MarketType       MarketType        `db:"market_type" json:"market_type"`
	Outcome          string            `db:"outcome" json:"outcome"`
	Snapshots        []MarketSnapshot  `db:"-" json:"snapshots"`
	Fair             *FairDistribution `db:"-" json:"fair,omitempty"`
	ModelProbability float64           `db:"model_probability" json:"model_probability"`
	Edge             float64           `db:"edge" json:"edge"`
	ReferencePrice   float64           `db:"reference_price" json:"reference_price"`
	ReferenceBookID  string            `db:"reference_book_id" json:"reference_book_id"`
	StakeFraction    float64           `db:"stake_fraction" json:"stake_fraction"`
	StakeAmount      float64           `db:"stake_amount" json:"stake_amount"`
	BankrollBefore   float64           `db:"bankroll_before" json:"bankroll_before"`
	SkipReason       SkipReason        `db:"skip_reason" json:"skip_reason,omitempty"`
	OutcomeRealized  string            `db:"outcome_realized" json:"outcome_realized"`
	ProfitLoss       float64           `db:"profit_loss" json:"profit_loss"`
	EvaluatedAt      time.Time         `db:"evaluated_at" json:"evaluated_at"`
	ResolvedAt       time.Time         `db:"resolved_at" json:"resolved_at"`
}

// Won reports whether the staked outcome was the realized one
func (r *BetRecord) Won() bool {
	return r.StakeAmount > 0 && r.Outcome == r.OutcomeRealized
}

// IsSkip reports whether the record carries no stake
func (r *BetRecord) IsSkip() bool {
	return r.SkipReason != SkipReasonNone || r.StakeAmount == 0
}
