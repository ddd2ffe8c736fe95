package models

import (
	"time"
)

// PriceFormat identifies the quoting convention of a raw price
type PriceFormat string

const (
	PriceFormatDecimal    PriceFormat = "decimal"
	PriceFormatAmerican   PriceFormat = "american"
	PriceFormatFractional PriceFormat = "fractional"
)

// MarketType represents the type of market being quoted
type MarketType string

const (
	MarketTypeHeadToHead MarketType = "h2h"
	MarketTypeSpread     MarketType = "spread"
	MarketTypeTotal      MarketType = "total"
)

// Quote represents one bookmaker's price for one outcome of one market
type Quote struct {
	EventID    string     `db:"event_id" json:"event_id" validate:"required"`
	MarketType MarketType `db:"market_type" json:"market_type" validate:"required,oneof=h2h spread total"`
	Outcome    string     `db:"outcome" json:"outcome" validate:"required"`
	BookID     string     `db:"book_id" json:"book_id" validate:"required"`
	Price      float64    `db:"price" json:"price" validate:"required,gt=1"`
	ObservedAt time.Time  `db:"observed_at" json:"observed_at" validate:"required"`
}

// ImpliedProbability returns the raw (vigged) probability implied by the price
func (q *Quote) ImpliedProbability() float64 {
	if q.Price <= 1.0 {
		return 0
	}
	return 1.0 / q.Price
}

// MarketSnapshot is the set of quotes for all outcomes of one market at one
// book at one observation time. Outcomes are mutually exclusive and
// collectively exhaustive for the market type.
type MarketSnapshot struct {
	EventID    string     `json:"event_id"`
	MarketType MarketType `json:"market_type"`
	BookID     string     `json:"book_id"`
	ObservedAt time.Time  `json:"observed_at"`
	Quotes     []Quote    `json:"quotes"`
}

// QuoteFor returns the quote for an outcome label, if present
func (s *MarketSnapshot) QuoteFor(outcome string) (Quote, bool) {
	for _, q := range s.Quotes {
		if q.Outcome == outcome {
			return q, true
		}
	}
	return Quote{}, false
}

// Outcomes returns the outcome labels in quote order
func (s *MarketSnapshot) Outcomes() []string {
	labels := make([]string, 0, len(s.Quotes))
	for _, q := range s.Quotes {
		labels = append(labels, q.Outcome)
	}
	return labels
}

// FairDistribution maps outcome label to de-vigged fair probability.
// Probabilities are in (0,1) and sum to 1 within floating tolerance.
type FairDistribution struct {
	EventID       string             `json:"event_id"`
	MarketType    MarketType         `json:"market_type"`
	BookID        string             `json:"book_id"`
	ObservedAt    time.Time          `json:"observed_at"`
	Overround     float64            `json:"overround"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// ProbabilityFor returns the fair probability for an outcome label
func (f *FairDistribution) ProbabilityFor(outcome string) (float64, bool) {
	p, ok := f.Probabilities[outcome]
	return p, ok
}
