// Package kelly sizes stakes with the fractional Kelly criterion under
// single-bet and cumulative exposure caps.
package kelly

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/fairline/internal/models"
)

// minPayoutMultiple is the smallest b = price - 1 the sizer will divide by.
// Below this the Kelly denominator is numerically meaningless.
const minPayoutMultiple = 1e-6

// Sizer converts qualifying edge decisions into bankroll-fraction stakes
type Sizer struct {
	multiplier       float64
	maxSingleBet     float64
	maxTotalExposure float64
	logger           *logrus.Logger
}

// NewSizer creates a sizer. multiplier is the fractional-Kelly alpha in (0,1].
func NewSizer(multiplier, maxSingleBet, maxTotalExposure float64, logger *logrus.Logger) (*Sizer, error) {
	if multiplier <= 0 || multiplier > 1 {
		return nil, fmt.Errorf("kelly multiplier must be in (0,1], got %f", multiplier)
	}
	if maxSingleBet <= 0 || maxSingleBet > 1 {
		return nil, fmt.Errorf("max single bet fraction must be in (0,1], got %f", maxSingleBet)
	}
	if maxTotalExposure <= 0 || maxTotalExposure > 1 {
		return nil, fmt.Errorf("max total exposure fraction must be in (0,1], got %f", maxTotalExposure)
	}
	if maxSingleBet > maxTotalExposure {
		return nil, fmt.Errorf("max single bet fraction %f exceeds max total exposure %f", maxSingleBet, maxTotalExposure)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Sizer{
		multiplier:       multiplier,
		maxSingleBet:     maxSingleBet,
		maxTotalExposure: maxTotalExposure,
		logger:           logger,
	}, nil
}

// MaxTotalExposure returns the cumulative exposure cap
func (s *Sizer) MaxTotalExposure() float64 {
	return s.maxTotalExposure
}

// Size computes the stake fraction for one edge decision given the exposure
// headroom still available in the current bankroll snapshot.
//
// Full Kelly: k* = (m*(b+1) - 1) / b with b = price - 1, then stake = alpha*k*
// clipped to the single-bet cap. A marginal stake that would breach the total
// exposure cap is reduced to the remaining headroom; zero headroom rejects
// with ExposureCapReached.
func (s *Sizer) Size(decision models.EdgeDecision, headroom float64) (models.StakeDecision, error) {
	out := models.StakeDecision{Edge: decision}

	if !decision.Qualifies {
		out.SkipReason = models.SkipReasonBelowMinEdge
		if decision.ReferencePrice <= 1.0 {
			out.SkipReason = models.SkipReasonNoReferencePrice
		}
		return out, nil
	}

	b := decision.ReferencePrice - 1.0
	if b < minPayoutMultiple {
		return out, fmt.Errorf("%w: payout multiple %g too close to zero", models.ErrDegeneratePrice, b)
	}

	m := decision.ModelProbability
	kelly := (m*(b+1.0) - 1.0) / b
	out.KellyFraction = kelly

	// Positive edge against the fair probability does not guarantee k* > 0
	// when the quoted price barely clears even money.
	if kelly <= 0 {
		out.SkipReason = models.SkipReasonNonPositiveKelly
		return out, nil
	}

	stake := s.multiplier * kelly
	if stake > s.maxSingleBet {
		stake = s.maxSingleBet
	}

	if headroom <= 0 {
		out.SkipReason = models.SkipReasonExposureCap
		return out, nil
	}
	if stake > headroom {
		s.logger.WithFields(logrus.Fields{
			"event_id": decision.EventID,
			"outcome":  decision.Outcome,
			"stake":    stake,
			"headroom": headroom,
		}).Debug("Stake reduced to exposure headroom")
		stake = headroom
	}

	out.StakeFraction = stake
	return out, nil
}
