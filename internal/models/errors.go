package models

import "errors"

// Custom errors
var (
	// ErrInvalidPrice indicates a quote price that is non-finite or <= 1.0
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInsufficientOutcomes indicates a market snapshot with fewer than two outcomes
	ErrInsufficientOutcomes = errors.New("insufficient outcomes for de-vig")

	// ErrDegenerateMarket indicates implied probabilities that sum to zero or less
	ErrDegenerateMarket = errors.New("degenerate market")

	// ErrDegeneratePrice indicates a payout multiple too close to zero to size against
	ErrDegeneratePrice = errors.New("degenerate price")

	// ErrNonCausalInput indicates input ordering that would leak future information
	ErrNonCausalInput = errors.New("non-causal input")

	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
)
