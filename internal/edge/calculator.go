// Package edge compares calibrated model probabilities against no-vig fair
// market probabilities and decides which outcomes qualify for staking.
package edge

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/fairline/internal/models"
)

// Calculator derives signed edges and qualification decisions
type Calculator struct {
	minEdgeThreshold float64
	selector         *ReferenceSelector
	logger           *logrus.Logger
}

// NewCalculator creates an edge calculator
func NewCalculator(minEdgeThreshold float64, selector *ReferenceSelector, logger *logrus.Logger) (*Calculator, error) {
	if selector == nil {
		return nil, fmt.Errorf("reference selector is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Calculator{
		minEdgeThreshold: minEdgeThreshold,
		selector:         selector,
		logger:           logger,
	}, nil
}

// Evaluate computes edge = model probability - fair probability for the
// model's outcome, using the reference book selected by policy. A negative or
// sub-threshold edge never qualifies; the threshold is a hard filter.
func (c *Calculator) Evaluate(model models.ModelProbability, markets []BookMarket) (models.EdgeDecision, error) {
	ref, err := c.selector.Select(markets, model.Outcome)
	if err != nil {
		return models.EdgeDecision{}, err
	}

	decision := models.EdgeDecision{
		EventID:          model.EventID,
		MarketType:       model.MarketType,
		Outcome:          model.Outcome,
		ModelProbability: model.Probability,
		FairProbability:  ref.FairProbability,
		Edge:             model.Probability - ref.FairProbability,
		ReferencePrice:   ref.Price,
		ReferenceBookID:  ref.BookID,
	}
	decision.Qualifies = decision.Edge > c.minEdgeThreshold && ref.Price > 1.0

	c.logger.WithFields(logrus.Fields{
		"event_id":   decision.EventID,
		"outcome":    decision.Outcome,
		"model_prob": decision.ModelProbability,
		"fair_prob":  decision.FairProbability,
		"edge":       decision.Edge,
		"ref_book":   decision.ReferenceBookID,
		"ref_price":  decision.ReferencePrice,
		"qualifies":  decision.Qualifies,
	}).Debug("Edge evaluated")

	return decision, nil
}

// MinEdgeThreshold returns the configured qualification threshold
func (c *Calculator) MinEdgeThreshold() float64 {
	return c.minEdgeThreshold
}
