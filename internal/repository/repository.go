package repository

import (
	"fmt"

	"github.com/yourusername/fairline/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Quote            QuoteRepository
	ModelProbability ModelProbabilityRepository
	Resolution       ResolutionRepository
	BetRecord        BetRecordRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Quote:            NewPostgresQuoteRepository(db),
		ModelProbability: NewPostgresModelProbabilityRepository(db),
		Resolution:       NewPostgresResolutionRepository(db),
		BetRecord:        NewPostgresBetRecordRepository(db),
	}, nil
}
