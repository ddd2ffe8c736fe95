package models

import (
	"time"
)

// ModelProbability is a calibrated win probability produced by an external
// model. The core treats it as an opaque scalar in (0,1).
type ModelProbability struct {
	EventID     string     `db:"event_id" json:"event_id" validate:"required"`
	MarketType  MarketType `db:"market_type" json:"market_type" validate:"required,oneof=h2h spread total"`
	Outcome     string     `db:"outcome" json:"outcome" validate:"required"`
	Probability float64    `db:"probability" json:"probability" validate:"required,gt=0,lt=1"`
	ProducedAt  time.Time  `db:"produced_at" json:"produced_at" validate:"required"`
}

// EventResolution records the realized outcome of one event
type EventResolution struct {
	EventID         string    `db:"event_id" json:"event_id" validate:"required"`
	OutcomeRealized string    `db:"outcome_realized" json:"outcome_realized" validate:"required"`
	ResolvedAt      time.Time `db:"resolved_at" json:"resolved_at" validate:"required"`
}
