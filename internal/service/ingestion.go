package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/fairline/internal/config"
	"github.com/yourusername/fairline/internal/datasource"
	"github.com/yourusername/fairline/internal/logger"
	"github.com/yourusername/fairline/internal/metrics"
	"github.com/yourusername/fairline/internal/models"
	"github.com/yourusername/fairline/internal/repository"
)

// IngestionService handles the odds and results ingestion workflow
type IngestionService struct {
	sources        []datasource.DataSource
	sourceConfigs  map[string]config.DataSourceConfig
	quoteRepo      repository.QuoteRepository
	resolutionRepo repository.ResolutionRepository
	validator      *DataValidator
	normalizer     *DataNormalizer
	metrics        *IngestionMetrics
	logger         *logger.IngestionLogger
	batchSize      int
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	sources []datasource.DataSource,
	cfg config.DataIngestionConfig,
	quoteRepo repository.QuoteRepository,
	resolutionRepo repository.ResolutionRepository,
	validator *DataValidator,
	normalizer *DataNormalizer,
	ingestionLogger *logger.IngestionLogger,
) *IngestionService {
	sourceConfigs := make(map[string]config.DataSourceConfig, len(cfg.Sources))
	batchSize := 100
	for _, srcCfg := range cfg.Sources {
		sourceConfigs[srcCfg.Name] = srcCfg
		if srcCfg.BatchSize > 0 {
			batchSize = srcCfg.BatchSize
		}
	}

	return &IngestionService{
		sources:        sources,
		sourceConfigs:  sourceConfigs,
		quoteRepo:      quoteRepo,
		resolutionRepo: resolutionRepo,
		validator:      validator,
		normalizer:     normalizer,
		metrics:        NewIngestionMetrics(),
		logger:         ingestionLogger,
		batchSize:      batchSize,
	}
}

// SyncOdds fetches current quotes from a source and persists them
func (s *IngestionService) SyncOdds(ctx context.Context, sourceName string) (*IngestionMetrics, error) {
	s.metrics.Reset()
	startTime := time.Now()
	s.logger.LogSyncStarted(sourceName, "quotes")

	source, err := s.findSource(sourceName)
	if err != nil {
		return s.metrics, err
	}

	var fetched []models.Quote
	for _, sport := range s.sportsFor(sourceName) {
		quotes, err := source.FetchOdds(ctx, sport)
		if err != nil {
			s.metrics.RecordError()
			metrics.RecordIngestionRequest(sourceName, "failure")
			s.logger.LogSyncFailed(sourceName, "quotes", err)
			return s.metrics, fmt.Errorf("failed to fetch odds for %s: %w", sport, err)
		}
		metrics.RecordIngestionRequest(sourceName, "success")
		fetched = append(fetched, quotes...)
	}
	s.metrics.QuotesFetched = len(fetched)

	normalized := s.normalizer.NormalizeQuotes(fetched)
	valid := make([]*models.Quote, 0, len(normalized))
	for i := range normalized {
		if errs := s.validator.ValidateQuote(&normalized[i]); len(errs) > 0 {
			s.metrics.RecordValidationError()
			continue
		}
		valid = append(valid, &normalized[i])
	}

	// Insert in batches; the repository ignores already-seen observations
	for i := 0; i < len(valid); i += s.batchSize {
		end := i + s.batchSize
		if end > len(valid) {
			end = len(valid)
		}
		if err := s.quoteRepo.InsertBatch(ctx, valid[i:end]); err != nil {
			s.metrics.RecordError()
			s.logger.LogSyncFailed(sourceName, "quotes", err)
			return s.metrics, fmt.Errorf("failed to store quote batch: %w", err)
		}
		s.metrics.RecordQuotesStored(end - i)
	}

	s.metrics.Duration = time.Since(startTime)
	metrics.RecordIngestionStored(sourceName, "quotes", s.metrics.QuotesStored)
	metrics.RecordIngestionDuration(sourceName, "quotes", s.metrics.Duration.Seconds())
	s.logger.LogSyncCompleted(sourceName, "quotes", s.metrics.QuotesFetched, s.metrics.QuotesStored, float64(s.metrics.Duration.Milliseconds()))

	return s.metrics, nil
}

// SyncResults fetches resolved events from a source and persists them.
// A resolution that conflicts with one already stored is counted as a
// duplicate and skipped; replays of the same feed are expected.
func (s *IngestionService) SyncResults(ctx context.Context, sourceName string, daysFrom int) (*IngestionMetrics, error) {
	s.metrics.Reset()
	startTime := time.Now()
	s.logger.LogSyncStarted(sourceName, "results")

	source, err := s.findSource(sourceName)
	if err != nil {
		return s.metrics, err
	}

	var fetched []models.EventResolution
	for _, sport := range s.sportsFor(sourceName) {
		resolutions, err := source.FetchResults(ctx, sport, daysFrom)
		if err != nil {
			s.metrics.RecordError()
			metrics.RecordIngestionRequest(sourceName, "failure")
			s.logger.LogSyncFailed(sourceName, "results", err)
			return s.metrics, fmt.Errorf("failed to fetch results for %s: %w", sport, err)
		}
		metrics.RecordIngestionRequest(sourceName, "success")
		fetched = append(fetched, resolutions...)
	}
	s.metrics.ResolutionsFetched = len(fetched)

	for _, resolution := range s.normalizer.NormalizeResolutions(fetched) {
		if errs := s.validator.ValidateResolution(&resolution); len(errs) > 0 {
			s.metrics.RecordValidationError()
			continue
		}

		err := s.resolutionRepo.Insert(ctx, &resolution)
		switch {
		case err == nil:
			s.metrics.RecordResolutionStored()
		case errors.Is(err, models.ErrDuplicateKey):
			s.metrics.RecordDuplicate()
		default:
			s.metrics.RecordError()
			s.logger.LogSyncFailed(sourceName, "results", err)
			return s.metrics, fmt.Errorf("failed to store resolution: %w", err)
		}
	}

	s.metrics.Duration = time.Since(startTime)
	metrics.RecordIngestionStored(sourceName, "results", s.metrics.ResolutionsStored)
	metrics.RecordIngestionDuration(sourceName, "results", s.metrics.Duration.Seconds())
	s.logger.LogSyncCompleted(sourceName, "results", s.metrics.ResolutionsFetched, s.metrics.ResolutionsStored, float64(s.metrics.Duration.Milliseconds()))

	return s.metrics, nil
}

// GetMetrics returns the metrics from the most recent sync
func (s *IngestionService) GetMetrics() *IngestionMetrics {
	return s.metrics
}

func (s *IngestionService) findSource(sourceName string) (datasource.DataSource, error) {
	for _, src := range s.sources {
		if src.Name() == sourceName {
			return src, nil
		}
	}
	return nil, fmt.Errorf("data source not found: %s", sourceName)
}

func (s *IngestionService) sportsFor(sourceName string) []string {
	if cfg, ok := s.sourceConfigs[sourceName]; ok && len(cfg.Sports) > 0 {
		return cfg.Sports
	}
	return []string{"upcoming"}
}
