package service

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/fairline/internal/models"
)

// DataNormalizer canonicalizes raw provider data before validation
type DataNormalizer struct {
	logger *logrus.Logger
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer(logger *logrus.Logger) *DataNormalizer {
	return &DataNormalizer{logger: logger}
}

type quoteKey struct {
	eventID    string
	marketType models.MarketType
	outcome    string
	bookID     string
}

// NormalizeQuotes trims identifier fields and collapses duplicate quotes,
// keeping the most recent observation per (event, market, outcome, book).
// Output is ordered by observation time, then event, book and outcome so
// batch inserts are deterministic.
func (n *DataNormalizer) NormalizeQuotes(quotes []models.Quote) []models.Quote {
	latest := make(map[quoteKey]models.Quote, len(quotes))
	dropped := 0

	for _, q := range quotes {
		q.EventID = strings.TrimSpace(q.EventID)
		q.Outcome = strings.TrimSpace(q.Outcome)
		q.BookID = strings.ToLower(strings.TrimSpace(q.BookID))

		key := quoteKey{q.EventID, q.MarketType, q.Outcome, q.BookID}
		if existing, ok := latest[key]; ok && !q.ObservedAt.After(existing.ObservedAt) {
			dropped++
			continue
		}
		latest[key] = q
	}

	if dropped > 0 && n.logger != nil {
		n.logger.WithField("dropped", dropped).Debug("collapsed duplicate quotes")
	}

	normalized := make([]models.Quote, 0, len(latest))
	for _, q := range latest {
		normalized = append(normalized, q)
	}
	sort.Slice(normalized, func(i, j int) bool {
		a, b := normalized[i], normalized[j]
		if !a.ObservedAt.Equal(b.ObservedAt) {
			return a.ObservedAt.Before(b.ObservedAt)
		}
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		if a.BookID != b.BookID {
			return a.BookID < b.BookID
		}
		return a.Outcome < b.Outcome
	})
	return normalized
}

// NormalizeResolutions trims identifier fields and drops exact duplicates.
// Conflicting resolutions for the same event are kept; the repository layer
// surfaces those as duplicate-key errors rather than silently picking one.
func (n *DataNormalizer) NormalizeResolutions(resolutions []models.EventResolution) []models.EventResolution {
	seen := make(map[models.EventResolution]struct{}, len(resolutions))
	normalized := make([]models.EventResolution, 0, len(resolutions))

	for _, r := range resolutions {
		r.EventID = strings.TrimSpace(r.EventID)
		r.OutcomeRealized = strings.TrimSpace(r.OutcomeRealized)

		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		normalized = append(normalized, r)
	}

	sort.Slice(normalized, func(i, j int) bool {
		if !normalized[i].ResolvedAt.Equal(normalized[j].ResolvedAt) {
			return normalized[i].ResolvedAt.Before(normalized[j].ResolvedAt)
		}
		return normalized[i].EventID < normalized[j].EventID
	})
	return normalized
}
