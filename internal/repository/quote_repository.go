package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/fairline/internal/database"
	"github.com/yourusername/fairline/internal/models"
)

// PostgresQuoteRepository implements QuoteRepository for PostgreSQL
type PostgresQuoteRepository struct {
	db *database.DB
}

// NewPostgresQuoteRepository creates a new quote repository
func NewPostgresQuoteRepository(db *database.DB) QuoteRepository {
	return &PostgresQuoteRepository{db: db}
}

const quoteColumns = "event_id, market_type, outcome, book_id, price, observed_at"

// Insert stores a single quote
func (r *PostgresQuoteRepository) Insert(ctx context.Context, quote *models.Quote) error {
	query := `
		INSERT INTO quotes (event_id, market_type, outcome, book_id, price, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id, market_type, outcome, book_id, observed_at) DO NOTHING
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		quote.EventID, quote.MarketType, quote.Outcome, quote.BookID, quote.Price, quote.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}

	return nil
}

// InsertBatch stores multiple quotes in a single round trip
func (r *PostgresQuoteRepository) InsertBatch(ctx context.Context, quotes []*models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO quotes (event_id, market_type, outcome, book_id, price, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id, market_type, outcome, book_id, observed_at) DO NOTHING
	`
	for _, quote := range quotes {
		batch.Queue(query,
			quote.EventID, quote.MarketType, quote.Outcome, quote.BookID, quote.Price, quote.ObservedAt,
		)
	}

	results := r.db.GetPool().SendBatch(ctx, batch)
	defer results.Close()

	for range quotes {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert quote batch: %w", err)
		}
	}

	return nil
}

// GetByEventID retrieves quotes for an event within an observation window
func (r *PostgresQuoteRepository) GetByEventID(ctx context.Context, eventID string, start, end time.Time) ([]*models.Quote, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM quotes
		WHERE event_id = $1 AND observed_at >= $2 AND observed_at <= $3
		ORDER BY observed_at ASC
	`, quoteColumns)

	rows, err := r.db.GetPool().Query(ctx, query, eventID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	return scanQuotes(rows)
}

// GetSnapshots retrieves all quotes for an event observed strictly before the
// cutoff and regroups them into per-book, per-instant market snapshots.
func (r *PostgresQuoteRepository) GetSnapshots(ctx context.Context, eventID string, marketType models.MarketType, before time.Time) ([]models.MarketSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM quotes
		WHERE event_id = $1 AND market_type = $2 AND observed_at < $3
		ORDER BY book_id, observed_at, outcome
	`, quoteColumns)

	rows, err := r.db.GetPool().Query(ctx, query, eventID, marketType, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote snapshots: %w", err)
	}
	defer rows.Close()

	quotes, err := scanQuotes(rows)
	if err != nil {
		return nil, err
	}
	return groupSnapshots(quotes), nil
}

// GetLatestSnapshot retrieves the most recent snapshot for one book
func (r *PostgresQuoteRepository) GetLatestSnapshot(ctx context.Context, eventID, bookID string, marketType models.MarketType) (*models.MarketSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM quotes
		WHERE event_id = $1 AND book_id = $2 AND market_type = $3
		  AND observed_at = (
			SELECT MAX(observed_at) FROM quotes
			WHERE event_id = $1 AND book_id = $2 AND market_type = $3
		  )
		ORDER BY outcome
	`, quoteColumns)

	rows, err := r.db.GetPool().Query(ctx, query, eventID, bookID, marketType)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	defer rows.Close()

	quotes, err := scanQuotes(rows)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, models.ErrNotFound
	}

	snapshots := groupSnapshots(quotes)
	return &snapshots[len(snapshots)-1], nil
}

func scanQuotes(rows pgx.Rows) ([]*models.Quote, error) {
	var quotes []*models.Quote
	for rows.Next() {
		quote := &models.Quote{}
		err := rows.Scan(
			&quote.EventID, &quote.MarketType, &quote.Outcome, &quote.BookID, &quote.Price, &quote.ObservedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}
	return quotes, rows.Err()
}

// groupSnapshots folds quote rows into snapshots keyed by book and
// observation instant, ordered by observation time then book id.
func groupSnapshots(quotes []*models.Quote) []models.MarketSnapshot {
	type key struct {
		bookID     string
		observedAt time.Time
	}
	grouped := make(map[key]*models.MarketSnapshot)
	for _, quote := range quotes {
		k := key{bookID: quote.BookID, observedAt: quote.ObservedAt}
		snapshot, ok := grouped[k]
		if !ok {
			snapshot = &models.MarketSnapshot{
				EventID:    quote.EventID,
				MarketType: quote.MarketType,
				BookID:     quote.BookID,
				ObservedAt: quote.ObservedAt,
			}
			grouped[k] = snapshot
		}
		snapshot.Quotes = append(snapshot.Quotes, *quote)
	}

	out := make([]models.MarketSnapshot, 0, len(grouped))
	for _, snapshot := range grouped {
		out = append(out, *snapshot)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ObservedAt.Equal(out[j].ObservedAt) {
			return out[i].ObservedAt.Before(out[j].ObservedAt)
		}
		return out[i].BookID < out[j].BookID
	})
	return out
}
