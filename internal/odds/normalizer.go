// Package odds converts bookmaker prices between formats and into implied
// probabilities.
package odds

import (
	"fmt"
	"math"

	"github.com/yourusername/fairline/internal/models"
)

// AmericanToDecimal converts American odds to decimal odds.
// +150 -> 2.50, -150 -> 1.67
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("%w: american odds cannot be 0", models.ErrInvalidPrice)
	}
	if american > 0 {
		return (float64(american) / 100.0) + 1.0, nil
	}
	return (100.0 / float64(-american)) + 1.0, nil
}

// FractionalToDecimal converts fractional odds to decimal odds.
// 5/2 -> 3.50, 1/4 -> 1.25
func FractionalToDecimal(numerator, denominator int) (float64, error) {
	if numerator <= 0 || denominator <= 0 {
		return 0, fmt.Errorf("%w: fractional odds %d/%d", models.ErrInvalidPrice, numerator, denominator)
	}
	return float64(numerator)/float64(denominator) + 1.0, nil
}

// ImpliedProbability converts a decimal price into its implied probability
// 1/price. The price must be finite and strictly greater than 1.0: a price at
// or below 1.0 is a guaranteed-loss quote and is rejected.
func ImpliedProbability(price float64) (float64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: price is not finite", models.ErrInvalidPrice)
	}
	if price <= 1.0 {
		return 0, fmt.Errorf("%w: price %.4f must exceed 1.0", models.ErrInvalidPrice, price)
	}
	return 1.0 / price, nil
}

// SnapshotImplied converts every quote in a snapshot into an implied
// probability, keyed by outcome label. Fails on the first invalid price.
func SnapshotImplied(snapshot models.MarketSnapshot) (map[string]float64, error) {
	implied := make(map[string]float64, len(snapshot.Quotes))
	for _, quote := range snapshot.Quotes {
		p, err := ImpliedProbability(quote.Price)
		if err != nil {
			return nil, fmt.Errorf("outcome %q at %s: %w", quote.Outcome, quote.BookID, err)
		}
		implied[quote.Outcome] = p
	}
	return implied, nil
}
