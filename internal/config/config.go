// Package config provides configuration management for the Fairline application.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App           AppConfig           `mapstructure:"app" validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database" validate:"required"`
	Betting       BettingConfig       `mapstructure:"betting" validate:"required"`
	Backtest      BacktestConfig      `mapstructure:"backtest" validate:"required"`
	DataIngestion DataIngestionConfig `mapstructure:"data_ingestion" validate:"required"`
	Metrics       MetricsConfig       `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// BettingConfig holds the decision parameters: edge qualification, de-vig
// method, reference price policy and Kelly sizing caps.
type BettingConfig struct {
	MinEdgeThreshold         float64 `mapstructure:"min_edge_threshold" validate:"gte=0,lte=1"`
	KellyMultiplier          float64 `mapstructure:"kelly_multiplier" validate:"required,gt=0,lte=1"`
	MaxSingleBetFraction     float64 `mapstructure:"max_single_bet_fraction" validate:"required,gt=0,lte=1"`
	MaxTotalExposureFraction float64 `mapstructure:"max_total_exposure_fraction" validate:"required,gt=0,lte=1,gtefield=MaxSingleBetFraction"`
	DevigMethod              string  `mapstructure:"devig_method" validate:"required,devigmethod"`
	ReferenceBookPolicy      string  `mapstructure:"reference_book_policy" validate:"required,bookpolicy"`
	ReferenceBook            string  `mapstructure:"reference_book" validate:"required_if=ReferenceBookPolicy configured_book"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	InitialBankroll      float64 `mapstructure:"initial_bankroll" validate:"required,gt=0"`
	MonteCarloIterations int     `mapstructure:"monte_carlo_iterations" validate:"required,gt=0"`
	OutputPath           string  `mapstructure:"output_path" validate:"required"`
	RiskFreeRate         float64 `mapstructure:"risk_free_rate" validate:"gte=0,lte=1"`
}

// DataIngestionConfig represents odds and results ingestion configuration
type DataIngestionConfig struct {
	Sources  []DataSourceConfig `mapstructure:"sources" validate:"required,min=1"`
	Schedule ScheduleConfig     `mapstructure:"schedule" validate:"required"`
}

// DataSourceConfig represents a single data source configuration
type DataSourceConfig struct {
	Name            string   `mapstructure:"name" validate:"required"`
	Enabled         bool     `mapstructure:"enabled"`
	BaseURL         string   `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey          string   `mapstructure:"api_key"`
	Sports          []string `mapstructure:"sports"`
	Regions         []string `mapstructure:"regions"`
	Markets         []string `mapstructure:"markets" validate:"omitempty,markets"`
	BatchSize       int      `mapstructure:"batch_size" validate:"omitempty,gt=0"`
	RatePerSecond   float64  `mapstructure:"rate_per_second" validate:"omitempty,gt=0"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
	RetryAttempts   int      `mapstructure:"retry_attempts" validate:"omitempty,gte=0"`
	CacheTTLSeconds int      `mapstructure:"cache_ttl_seconds" validate:"omitempty,gt=0"`
}

// ScheduleConfig represents data ingestion scheduling
type ScheduleConfig struct {
	OddsSync    string `mapstructure:"odds_sync" validate:"required"`
	ResultsSync string `mapstructure:"results_sync" validate:"required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SourceByName returns the ingestion source config with the given name
func (c *Config) SourceByName(name string) (DataSourceConfig, bool) {
	for _, source := range c.DataIngestion.Sources {
		if source.Name == name {
			return source, true
		}
	}
	return DataSourceConfig{}, false
}
