package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/fairline/internal/backtest"
	"github.com/yourusername/fairline/internal/models"
	"github.com/yourusername/fairline/internal/repository"
)

const dateLayout = "2006-01-02"

// MarketDataService assembles stored market data into replay inputs
type MarketDataService struct {
	quoteRepo       repository.QuoteRepository
	probabilityRepo repository.ModelProbabilityRepository
	resolutionRepo  repository.ResolutionRepository
	logger          *logrus.Logger
}

// NewMarketDataService creates a new market data service
func NewMarketDataService(
	quoteRepo repository.QuoteRepository,
	probabilityRepo repository.ModelProbabilityRepository,
	resolutionRepo repository.ResolutionRepository,
	logger *logrus.Logger,
) *MarketDataService {
	if logger == nil {
		logger = logrus.New()
	}

	return &MarketDataService{
		quoteRepo:       quoteRepo,
		probabilityRepo: probabilityRepo,
		resolutionRepo:  resolutionRepo,
		logger:          logger,
	}
}

// LoadReplayInputs gathers all resolutions in the date range together with
// every stored snapshot and model probability for the resolved events. The
// replay engine applies its own causality cutoffs; this loads everything on
// record so the engine sees the same history a live run would have seen.
func (m *MarketDataService) LoadReplayInputs(
	ctx context.Context,
	marketType models.MarketType,
	start, end time.Time,
) (*backtest.Inputs, error) {
	m.logger.WithFields(logrus.Fields{
		"start": start.Format(dateLayout),
		"end":   end.Format(dateLayout),
	}).Info("loading replay inputs")

	resolutions, err := m.resolutionRepo.GetByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load resolutions: %w", err)
	}

	inputs := &backtest.Inputs{
		Resolutions: make([]models.EventResolution, 0, len(resolutions)),
	}

	for _, resolution := range resolutions {
		inputs.Resolutions = append(inputs.Resolutions, *resolution)

		snapshots, err := m.quoteRepo.GetSnapshots(ctx, resolution.EventID, marketType, resolution.ResolvedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshots for event %s: %w", resolution.EventID, err)
		}
		inputs.Snapshots = append(inputs.Snapshots, snapshots...)

		probabilities, err := m.probabilityRepo.GetByEventID(ctx, resolution.EventID)
		if err != nil {
			return nil, fmt.Errorf("failed to load probabilities for event %s: %w", resolution.EventID, err)
		}
		for _, probability := range probabilities {
			if probability.MarketType != marketType {
				continue
			}
			inputs.Probabilities = append(inputs.Probabilities, *probability)
		}
	}

	m.logger.WithFields(logrus.Fields{
		"resolutions":   len(inputs.Resolutions),
		"snapshots":     len(inputs.Snapshots),
		"probabilities": len(inputs.Probabilities),
	}).Info("replay inputs loaded")

	return inputs, nil
}
