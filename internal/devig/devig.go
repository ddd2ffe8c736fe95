// Package devig removes bookmaker margin (overround) from market snapshots,
// producing fair probability distributions.
package devig

import (
	"fmt"

	"github.com/yourusername/fairline/internal/models"
	"github.com/yourusername/fairline/internal/odds"
)

// Method identifies a de-vig algorithm. All methods implement the same
// implied-probabilities -> FairDistribution contract so new ones (e.g. Shin)
// can be added behind configuration.
type Method string

const (
	// MethodProportional normalizes each implied probability by the sum,
	// removing the overround uniformly across outcomes.
	MethodProportional Method = "proportional"
)

// Converter de-vigs market snapshots with a configured method
type Converter struct {
	method Method
}

// NewConverter creates a converter for the given method
func NewConverter(method Method) (*Converter, error) {
	switch method {
	case MethodProportional:
		return &Converter{method: method}, nil
	default:
		return nil, fmt.Errorf("unknown devig method %q", method)
	}
}

// Method returns the configured de-vig method
func (c *Converter) Method() Method {
	return c.method
}

// Convert removes the overround from one market snapshot. The snapshot must
// quote at least two mutually exclusive outcomes.
func (c *Converter) Convert(snapshot models.MarketSnapshot) (*models.FairDistribution, error) {
	if len(snapshot.Quotes) < 2 {
		return nil, fmt.Errorf("%w: got %d outcome(s), need at least 2",
			models.ErrInsufficientOutcomes, len(snapshot.Quotes))
	}

	implied, err := odds.SnapshotImplied(snapshot)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, p := range implied {
		total += p
	}
	// Unreachable while the price > 1.0 invariant holds, but guarded so a
	// degenerate snapshot cannot emit NaN probabilities.
	if total <= 0 {
		return nil, fmt.Errorf("%w: implied probabilities sum to %f", models.ErrDegenerateMarket, total)
	}

	fair := make(map[string]float64, len(implied))
	for outcome, p := range implied {
		fair[outcome] = p / total
	}

	return &models.FairDistribution{
		EventID:       snapshot.EventID,
		MarketType:    snapshot.MarketType,
		BookID:        snapshot.BookID,
		ObservedAt:    snapshot.ObservedAt,
		Overround:     total - 1.0,
		Probabilities: fair,
	}, nil
}
