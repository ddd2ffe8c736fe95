package service

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/fairline/internal/models"
)

// maxObservationSkew is how far in the future an observation timestamp may
// sit before it is treated as corrupt upstream data.
const maxObservationSkew = 5 * time.Minute

// DataValidator validates quote and resolution data before persistence
type DataValidator struct {
	logger *logrus.Logger
}

// NewDataValidator creates a new data validator
func NewDataValidator(logger *logrus.Logger) *DataValidator {
	return &DataValidator{logger: logger}
}

// ValidateQuote validates quote data for required fields and constraints
func (v *DataValidator) ValidateQuote(quote *models.Quote) []string {
	var errors []string

	if quote.EventID == "" {
		errors = append(errors, "event_id is required")
	}

	if quote.Outcome == "" {
		errors = append(errors, "outcome is required")
	}

	if quote.BookID == "" {
		errors = append(errors, "book_id is required")
	}

	switch quote.MarketType {
	case models.MarketTypeHeadToHead, models.MarketTypeSpread, models.MarketTypeTotal:
	default:
		errors = append(errors, fmt.Sprintf("unsupported market_type %q", quote.MarketType))
	}

	if quote.Price <= 1.0 {
		errors = append(errors, fmt.Sprintf("price must exceed 1.0, got %g", quote.Price))
	}

	if quote.Price > 1000.0 {
		errors = append(errors, fmt.Sprintf("price out of range (1.0-1000.0), got %g", quote.Price))
	}

	if quote.ObservedAt.IsZero() {
		errors = append(errors, "observed_at is required")
	} else if quote.ObservedAt.After(time.Now().Add(maxObservationSkew)) {
		errors = append(errors, fmt.Sprintf("observed_at is in the future: %v", quote.ObservedAt))
	}

	return errors
}

// ValidateResolution validates event resolution data
func (v *DataValidator) ValidateResolution(resolution *models.EventResolution) []string {
	var errors []string

	if resolution.EventID == "" {
		errors = append(errors, "event_id is required")
	}

	if resolution.OutcomeRealized == "" {
		errors = append(errors, "outcome_realized is required")
	}

	if resolution.ResolvedAt.IsZero() {
		errors = append(errors, "resolved_at is required")
	} else if resolution.ResolvedAt.After(time.Now().Add(maxObservationSkew)) {
		errors = append(errors, fmt.Sprintf("resolved_at is in the future: %v", resolution.ResolvedAt))
	}

	return errors
}

// ValidateProbability validates a model probability record
func (v *DataValidator) ValidateProbability(probability *models.ModelProbability) []string {
	var errors []string

	if probability.EventID == "" {
		errors = append(errors, "event_id is required")
	}

	if probability.Outcome == "" {
		errors = append(errors, "outcome is required")
	}

	if probability.Probability <= 0 || probability.Probability >= 1 {
		errors = append(errors, fmt.Sprintf("probability must be in (0,1), got %g", probability.Probability))
	}

	if probability.ProducedAt.IsZero() {
		errors = append(errors, "produced_at is required")
	}

	return errors
}
