package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yourusername/fairline/internal/database"
	"github.com/yourusername/fairline/internal/models"
)

// PostgresResolutionRepository implements ResolutionRepository for PostgreSQL
type PostgresResolutionRepository struct {
	db *database.DB
}

// NewPostgresResolutionRepository creates a new resolution repository
func NewPostgresResolutionRepository(db *database.DB) ResolutionRepository {
	return &PostgresResolutionRepository{db: db}
}

// Insert stores an event resolution. One resolution per event: a second
// insert for the same event id is rejected, never overwritten.
func (r *PostgresResolutionRepository) Insert(ctx context.Context, resolution *models.EventResolution) error {
	query := `
		INSERT INTO event_resolutions (event_id, outcome_realized, resolved_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		resolution.EventID, resolution.OutcomeRealized, resolution.ResolvedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: resolution for event %q", models.ErrDuplicateKey, resolution.EventID)
		}
		return fmt.Errorf("failed to insert resolution: %w", err)
	}

	return nil
}

// GetByEventID retrieves the resolution for one event
func (r *PostgresResolutionRepository) GetByEventID(ctx context.Context, eventID string) (*models.EventResolution, error) {
	query := `
		SELECT event_id, outcome_realized, resolved_at
		FROM event_resolutions
		WHERE event_id = $1
	`

	resolution := &models.EventResolution{}
	err := r.db.GetPool().QueryRow(ctx, query, eventID).Scan(
		&resolution.EventID, &resolution.OutcomeRealized, &resolution.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resolution: %w", err)
	}

	return resolution, nil
}

// GetByDateRange retrieves resolutions inside a window ordered by resolution time
func (r *PostgresResolutionRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.EventResolution, error) {
	query := `
		SELECT event_id, outcome_realized, resolved_at
		FROM event_resolutions
		WHERE resolved_at >= $1 AND resolved_at <= $2
		ORDER BY resolved_at ASC, event_id ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []*models.EventResolution
	for rows.Next() {
		resolution := &models.EventResolution{}
		err := rows.Scan(&resolution.EventID, &resolution.OutcomeRealized, &resolution.ResolvedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		resolutions = append(resolutions, resolution)
	}

	return resolutions, rows.Err()
}
