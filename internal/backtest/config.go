package backtest

import (
	"fmt"

	"github.com/yourusername/fairline/internal/config"
	"github.com/yourusername/fairline/internal/devig"
	"github.com/yourusername/fairline/internal/edge"
)

// BacktestConfig holds the parameters of one walk-forward run
type BacktestConfig struct {
	InitialBankroll          float64
	MinEdgeThreshold         float64
	KellyMultiplier          float64
	MaxSingleBetFraction     float64
	MaxTotalExposureFraction float64
	DevigMethod              devig.Method
	ReferenceBookPolicy      edge.ReferenceBookPolicy
	ReferenceBookID          string
	OutputPath               string
	RiskFreeRate             float64
	MonteCarloIterations     int
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.Config) (BacktestConfig, error) {
	if cfg == nil {
		return BacktestConfig{}, fmt.Errorf("config is required")
	}

	bt := BacktestConfig{
		InitialBankroll:          cfg.Backtest.InitialBankroll,
		MinEdgeThreshold:         cfg.Betting.MinEdgeThreshold,
		KellyMultiplier:          cfg.Betting.KellyMultiplier,
		MaxSingleBetFraction:     cfg.Betting.MaxSingleBetFraction,
		MaxTotalExposureFraction: cfg.Betting.MaxTotalExposureFraction,
		DevigMethod:              devig.Method(cfg.Betting.DevigMethod),
		ReferenceBookPolicy:      edge.ReferenceBookPolicy(cfg.Betting.ReferenceBookPolicy),
		ReferenceBookID:          cfg.Betting.ReferenceBook,
		OutputPath:               cfg.Backtest.OutputPath,
		RiskFreeRate:             cfg.Backtest.RiskFreeRate,
		MonteCarloIterations:     cfg.Backtest.MonteCarloIterations,
	}

	return bt, bt.Validate()
}

// Validate validates backtest config parameters
func (b BacktestConfig) Validate() error {
	if b.InitialBankroll <= 0 {
		return fmt.Errorf("initial bankroll must be positive")
	}
	if b.MinEdgeThreshold < 0 {
		return fmt.Errorf("min edge threshold cannot be negative")
	}
	if b.KellyMultiplier <= 0 || b.KellyMultiplier > 1 {
		return fmt.Errorf("kelly multiplier must be in (0,1]")
	}
	if b.MaxSingleBetFraction <= 0 || b.MaxSingleBetFraction > 1 {
		return fmt.Errorf("max single bet fraction must be in (0,1]")
	}
	if b.MaxTotalExposureFraction <= 0 || b.MaxTotalExposureFraction > 1 {
		return fmt.Errorf("max total exposure fraction must be in (0,1]")
	}
	if b.MaxSingleBetFraction > b.MaxTotalExposureFraction {
		return fmt.Errorf("max single bet fraction cannot exceed max total exposure fraction")
	}
	if b.ReferenceBookPolicy == edge.PolicyConfiguredBook && b.ReferenceBookID == "" {
		return fmt.Errorf("configured_book policy requires a reference book id")
	}
	return nil
}
