package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/fairline/internal/config"
)

// Factory creates DataSource implementations based on configuration
type Factory struct {
	logger *logrus.Logger
}

// NewFactory creates a new data source factory
func NewFactory(logger *logrus.Logger) *Factory {
	return &Factory{logger: logger}
}

// NewDataSource creates a new DataSource based on the provided configuration
func (f *Factory) NewDataSource(cfg config.DataSourceConfig, httpClient *RateLimitedHTTPClient) (DataSource, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("HTTP client is required")
	}

	switch cfg.Name {
	case "odds_api":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("odds_api: API key is required")
		}
		cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
		return NewOddsAPIClient(httpClient, cfg.BaseURL, cfg.APIKey, cfg.Regions, cfg.Markets, cfg.Enabled, cacheTTL, f.logger), nil

	default:
		return nil, fmt.Errorf("unknown data source: %s", cfg.Name)
	}
}

// NewHTTPClient builds a rate-limited HTTP client from source configuration
func (f *Factory) NewHTTPClient(cfg config.DataSourceConfig) *RateLimitedHTTPClient {
	clientCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		clientCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RetryAttempts > 0 {
		clientCfg.MaxRetries = cfg.RetryAttempts
	}
	if cfg.RatePerSecond > 0 {
		clientCfg.RateLimit = cfg.RatePerSecond
	}
	return NewRateLimitedHTTPClient(clientCfg, f.logger)
}

// NewDataSources creates all enabled data sources from configuration
func (f *Factory) NewDataSources(dataCfg config.DataIngestionConfig) ([]DataSource, error) {
	var sources []DataSource

	for _, srcCfg := range dataCfg.Sources {
		if !srcCfg.Enabled {
			if f.logger != nil {
				f.logger.WithField("source", srcCfg.Name).Info("skipping disabled data source")
			}
			continue
		}

		source, err := f.NewDataSource(srcCfg, f.NewHTTPClient(srcCfg))
		if err != nil {
			return nil, fmt.Errorf("failed to create data source %s: %w", srcCfg.Name, err)
		}

		sources = append(sources, source)
		if f.logger != nil {
			f.logger.WithField("source", srcCfg.Name).Info("created data source")
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no enabled data sources configured")
	}

	return sources, nil
}
