package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/fairline/internal/database"
	"github.com/yourusername/fairline/internal/models"
)

// PostgresBetRecordRepository implements BetRecordRepository for PostgreSQL
type PostgresBetRecordRepository struct {
	db *database.DB
}

// NewPostgresBetRecordRepository creates a new bet record repository
func NewPostgresBetRecordRepository(db *database.DB) BetRecordRepository {
	return &PostgresBetRecordRepository{db: db}
}

const betRecordColumns = `id, run_id, event_id, market_type, outcome, model_probability, edge,
	reference_price, reference_book_id, stake_fraction, stake_amount, bankroll_before,
	skip_reason, outcome_realized, profit_loss, evaluated_at, resolved_at`

// Insert appends a bet record. Records are append-only: there is no Update.
func (r *PostgresBetRecordRepository) Insert(ctx context.Context, record *models.BetRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO bet_records (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, betRecordColumns)

	_, err := r.db.GetPool().Exec(ctx, query,
		record.ID, record.RunID, record.EventID, record.MarketType, record.Outcome,
		record.ModelProbability, record.Edge, record.ReferencePrice, record.ReferenceBookID,
		record.StakeFraction, record.StakeAmount, record.BankrollBefore,
		record.SkipReason, record.OutcomeRealized, record.ProfitLoss,
		record.EvaluatedAt, record.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bet record: %w", err)
	}

	return nil
}

// GetByID retrieves a bet record by ID
func (r *PostgresBetRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BetRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM bet_records WHERE id = $1`, betRecordColumns)

	record := &models.BetRecord{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&record.ID, &record.RunID, &record.EventID, &record.MarketType, &record.Outcome,
		&record.ModelProbability, &record.Edge, &record.ReferencePrice, &record.ReferenceBookID,
		&record.StakeFraction, &record.StakeAmount, &record.BankrollBefore,
		&record.SkipReason, &record.OutcomeRealized, &record.ProfitLoss,
		&record.EvaluatedAt, &record.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet record: %w", err)
	}

	return record, nil
}

// GetByRunID retrieves all records of one walk-forward run in replay order
func (r *PostgresBetRecordRepository) GetByRunID(ctx context.Context, runID uuid.UUID) ([]*models.BetRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bet_records
		WHERE run_id = $1
		ORDER BY resolved_at ASC, event_id ASC
	`, betRecordColumns)

	rows, err := r.db.GetPool().Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bet records by run: %w", err)
	}
	defer rows.Close()

	return scanBetRecords(rows)
}

// GetSettled retrieves staked records resolved inside a window
func (r *PostgresBetRecordRepository) GetSettled(ctx context.Context, start, end time.Time) ([]*models.BetRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bet_records
		WHERE stake_amount > 0 AND resolved_at >= $1 AND resolved_at <= $2
		ORDER BY resolved_at ASC
	`, betRecordColumns)

	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query settled bet records: %w", err)
	}
	defer rows.Close()

	return scanBetRecords(rows)
}

func scanBetRecords(rows pgx.Rows) ([]*models.BetRecord, error) {
	var records []*models.BetRecord
	for rows.Next() {
		record := &models.BetRecord{}
		err := rows.Scan(
			&record.ID, &record.RunID, &record.EventID, &record.MarketType, &record.Outcome,
			&record.ModelProbability, &record.Edge, &record.ReferencePrice, &record.ReferenceBookID,
			&record.StakeFraction, &record.StakeAmount, &record.BankrollBefore,
			&record.SkipReason, &record.OutcomeRealized, &record.ProfitLoss,
			&record.EvaluatedAt, &record.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
