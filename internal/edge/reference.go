package edge

import (
	"fmt"

	"github.com/yourusername/fairline/internal/models"
)

// ReferenceBookPolicy selects which book's quote anchors the edge calculation
type ReferenceBookPolicy string

const (
	// PolicyBestPrice picks the book quoting the highest decimal price for
	// the outcome.
	PolicyBestPrice ReferenceBookPolicy = "best_price"
	// PolicyConfiguredBook pins the reference to a fixed book id.
	PolicyConfiguredBook ReferenceBookPolicy = "configured_book"
)

// BookMarket pairs one book's snapshot with its independently de-vigged
// fair distribution.
type BookMarket struct {
	Snapshot models.MarketSnapshot
	Fair     *models.FairDistribution
}

// Reference is the selected price and fair probability for one outcome
type Reference struct {
	BookID          string
	Price           float64
	FairProbability float64
}

// ReferenceSelector applies a reference book policy
type ReferenceSelector struct {
	policy ReferenceBookPolicy
	bookID string
}

// NewReferenceSelector creates a selector. bookID is required only for the
// configured_book policy.
func NewReferenceSelector(policy ReferenceBookPolicy, bookID string) (*ReferenceSelector, error) {
	switch policy {
	case PolicyBestPrice:
		return &ReferenceSelector{policy: policy}, nil
	case PolicyConfiguredBook:
		if bookID == "" {
			return nil, fmt.Errorf("configured_book policy requires a book id")
		}
		return &ReferenceSelector{policy: policy, bookID: bookID}, nil
	default:
		return nil, fmt.Errorf("unknown reference book policy %q", policy)
	}
}

// Select resolves the reference quote and fair probability for an outcome
// across the books quoting it.
func (s *ReferenceSelector) Select(markets []BookMarket, outcome string) (Reference, error) {
	var best Reference
	found := false

	for _, market := range markets {
		if market.Fair == nil {
			continue
		}
		quote, ok := market.Snapshot.QuoteFor(outcome)
		if !ok {
			continue
		}
		fair, ok := market.Fair.ProbabilityFor(outcome)
		if !ok {
			continue
		}

		if s.policy == PolicyConfiguredBook {
			if market.Snapshot.BookID != s.bookID {
				continue
			}
			return Reference{BookID: market.Snapshot.BookID, Price: quote.Price, FairProbability: fair}, nil
		}

		if !found || quote.Price > best.Price {
			best = Reference{BookID: market.Snapshot.BookID, Price: quote.Price, FairProbability: fair}
			found = true
		}
	}

	if !found {
		return Reference{}, fmt.Errorf("no reference price for outcome %q", outcome)
	}
	return best, nil
}
