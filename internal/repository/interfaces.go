package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/fairline/internal/models"
)

// QuoteRepository defines the interface for market quote data access
type QuoteRepository interface {
	Insert(ctx context.Context, quote *models.Quote) error
	InsertBatch(ctx context.Context, quotes []*models.Quote) error
	GetByEventID(ctx context.Context, eventID string, start, end time.Time) ([]*models.Quote, error)
	GetSnapshots(ctx context.Context, eventID string, marketType models.MarketType, before time.Time) ([]models.MarketSnapshot, error)
	GetLatestSnapshot(ctx context.Context, eventID, bookID string, marketType models.MarketType) (*models.MarketSnapshot, error)
}

// ModelProbabilityRepository defines the interface for model probability data access
type ModelProbabilityRepository interface {
	Insert(ctx context.Context, probability *models.ModelProbability) error
	InsertBatch(ctx context.Context, probabilities []*models.ModelProbability) error
	GetByEventID(ctx context.Context, eventID string) ([]*models.ModelProbability, error)
	GetLatestBefore(ctx context.Context, eventID string, marketType models.MarketType, cutoff time.Time) (*models.ModelProbability, error)
}

// ResolutionRepository defines the interface for event resolution data access
type ResolutionRepository interface {
	Insert(ctx context.Context, resolution *models.EventResolution) error
	GetByEventID(ctx context.Context, eventID string) (*models.EventResolution, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.EventResolution, error)
}

// BetRecordRepository defines the interface for bet record data access
type BetRecordRepository interface {
	Insert(ctx context.Context, record *models.BetRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BetRecord, error)
	GetByRunID(ctx context.Context, runID uuid.UUID) ([]*models.BetRecord, error)
	GetSettled(ctx context.Context, start, end time.Time) ([]*models.BetRecord, error)
}
