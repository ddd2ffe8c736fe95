package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/fairline/internal/database"
	"github.com/yourusername/fairline/internal/models"
)

// PostgresModelProbabilityRepository implements ModelProbabilityRepository for PostgreSQL
type PostgresModelProbabilityRepository struct {
	db *database.DB
}

// NewPostgresModelProbabilityRepository creates a new model probability repository
func NewPostgresModelProbabilityRepository(db *database.DB) ModelProbabilityRepository {
	return &PostgresModelProbabilityRepository{db: db}
}

// Insert stores a single model probability
func (r *PostgresModelProbabilityRepository) Insert(ctx context.Context, probability *models.ModelProbability) error {
	query := `
		INSERT INTO model_probabilities (event_id, market_type, outcome, probability, produced_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, market_type, outcome, produced_at) DO NOTHING
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		probability.EventID, probability.MarketType, probability.Outcome,
		probability.Probability, probability.ProducedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert model probability: %w", err)
	}

	return nil
}

// InsertBatch stores multiple model probabilities in a single round trip
func (r *PostgresModelProbabilityRepository) InsertBatch(ctx context.Context, probabilities []*models.ModelProbability) error {
	if len(probabilities) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO model_probabilities (event_id, market_type, outcome, probability, produced_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, market_type, outcome, produced_at) DO NOTHING
	`
	for _, probability := range probabilities {
		batch.Queue(query,
			probability.EventID, probability.MarketType, probability.Outcome,
			probability.Probability, probability.ProducedAt,
		)
	}

	results := r.db.GetPool().SendBatch(ctx, batch)
	defer results.Close()

	for range probabilities {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert probability batch: %w", err)
		}
	}

	return nil
}

// GetByEventID retrieves all model probabilities for an event
func (r *PostgresModelProbabilityRepository) GetByEventID(ctx context.Context, eventID string) ([]*models.ModelProbability, error) {
	query := `
		SELECT event_id, market_type, outcome, probability, produced_at
		FROM model_probabilities
		WHERE event_id = $1
		ORDER BY produced_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query model probabilities: %w", err)
	}
	defer rows.Close()

	var probabilities []*models.ModelProbability
	for rows.Next() {
		probability := &models.ModelProbability{}
		err := rows.Scan(
			&probability.EventID, &probability.MarketType, &probability.Outcome,
			&probability.Probability, &probability.ProducedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model probability: %w", err)
		}
		probabilities = append(probabilities, probability)
	}

	return probabilities, rows.Err()
}

// GetLatestBefore retrieves the freshest probability produced strictly before the cutoff
func (r *PostgresModelProbabilityRepository) GetLatestBefore(ctx context.Context, eventID string, marketType models.MarketType, cutoff time.Time) (*models.ModelProbability, error) {
	query := `
		SELECT event_id, market_type, outcome, probability, produced_at
		FROM model_probabilities
		WHERE event_id = $1 AND market_type = $2 AND produced_at < $3
		ORDER BY produced_at DESC
		LIMIT 1
	`

	probability := &models.ModelProbability{}
	err := r.db.GetPool().QueryRow(ctx, query, eventID, marketType, cutoff).Scan(
		&probability.EventID, &probability.MarketType, &probability.Outcome,
		&probability.Probability, &probability.ProducedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest model probability: %w", err)
	}

	return probability, nil
}
