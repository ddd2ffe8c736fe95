package models

import "errors"

// SkipReason explains why a decision produced a zero stake. These are sizing
// outcomes, not errors: a completed run reports counts per reason.
type SkipReason string

const (
	SkipReasonNone                 SkipReason = ""
	SkipReasonBelowMinEdge         SkipReason = "below_min_edge"
	SkipReasonNoReferencePrice     SkipReason = "no_reference_price"
	SkipReasonNonPositiveKelly     SkipReason = "non_positive_kelly"
	SkipReasonExposureCap          SkipReason = "exposure_cap_reached"
	SkipReasonEvaluationFailed     SkipReason = "evaluation_failed"
	SkipReasonMissingModelProb     SkipReason = "missing_model_probability"
	SkipReasonMissingSnapshot      SkipReason = "missing_market_snapshot"
	SkipReasonInvalidPrice         SkipReason = "invalid_price"
	SkipReasonInsufficientOutcomes SkipReason = "insufficient_outcomes"
	SkipReasonDegenerateMarket     SkipReason = "degenerate_market"
	SkipReasonDegeneratePrice      SkipReason = "degenerate_price"
)

// EdgeDecision compares a calibrated model probability against the no-vig
// fair probability for one outcome.
type EdgeDecision struct {
	EventID          string     `json:"event_id"`
	MarketType       MarketType `json:"market_type"`
	Outcome          string     `json:"outcome"`
	ModelProbability float64    `json:"model_probability"`
	FairProbability  float64    `json:"fair_probability"`
	Edge             float64    `json:"edge"`
	Qualifies        bool       `json:"qualifies"`
	ReferencePrice   float64    `json:"reference_price"`
	ReferenceBookID  string     `json:"reference_book_id"`
}

// StakeDecision is the sized outcome of a qualifying edge decision. The stake
// is a fraction of bankroll, already clipped to the configured caps.
type StakeDecision struct {
	Edge          EdgeDecision `json:"edge"`
	KellyFraction float64      `json:"kelly_fraction"`
	StakeFraction float64      `json:"stake_fraction"`
	SkipReason    SkipReason   `json:"skip_reason,omitempty"`
}

// IsBet reports whether the decision commits a non-zero stake
func (d *StakeDecision) IsBet() bool {
	return d.StakeFraction > 0 && d.SkipReason == SkipReasonNone
}

// SkipReasonForError maps a per-event evaluation error to the skip reason
// recorded on the decision, so data quality issues stay observable in the
// run summary.
func SkipReasonForError(err error) SkipReason {
	switch {
	case errors.Is(err, ErrInvalidPrice):
		return SkipReasonInvalidPrice
	case errors.Is(err, ErrInsufficientOutcomes):
		return SkipReasonInsufficientOutcomes
	case errors.Is(err, ErrDegenerateMarket):
		return SkipReasonDegenerateMarket
	case errors.Is(err, ErrDegeneratePrice):
		return SkipReasonDegeneratePrice
	default:
		return SkipReasonEvaluationFailed
	}
}
