package backtest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/fairline/internal/audit"
	"github.com/yourusername/fairline/internal/devig"
	"github.com/yourusername/fairline/internal/edge"
	"github.com/yourusername/fairline/internal/kelly"
)

// Engine orchestrates walk-forward backtest runs over pre-fetched input
// sequences: de-vig, edge, Kelly sizing, sequential settlement, audit.
type Engine struct {
	config     BacktestConfig
	converter  *devig.Converter
	calculator *edge.Calculator
	sizer      *kelly.Sizer
	recorder   audit.Recorder
	logger     *logrus.Logger
}

// NewEngine creates a new backtesting engine
func NewEngine(cfg BacktestConfig, recorder audit.Recorder, logger *logrus.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	converter, err := devig.NewConverter(cfg.DevigMethod)
	if err != nil {
		return nil, err
	}
	selector, err := edge.NewReferenceSelector(cfg.ReferenceBookPolicy, cfg.ReferenceBookID)
	if err != nil {
		return nil, err
	}
	calculator, err := edge.NewCalculator(cfg.MinEdgeThreshold, selector, logger)
	if err != nil {
		return nil, err
	}
	sizer, err := kelly.NewSizer(cfg.KellyMultiplier, cfg.MaxSingleBetFraction, cfg.MaxTotalExposureFraction, logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:     cfg,
		converter:  converter,
		calculator: calculator,
		sizer:      sizer,
		recorder:   recorder,
		logger:     logger,
	}, nil
}

// Config returns the backtest configuration
func (e *Engine) Config() BacktestConfig {
	return e.config
}

// Run replays the inputs in walk-forward order and returns the final state
// with aggregate metrics. Structural problems (non-causal input) abort the
// run; per-event evaluation failures are recorded as skips and processing
// continues.
func (e *Engine) Run(ctx context.Context, inputs Inputs) (*BacktestState, Metrics, error) {
	events, err := buildReplay(inputs)
	if err != nil {
		return nil, Metrics{}, err
	}

	e.logger.WithFields(logrus.Fields{
		"events":        len(events),
		"snapshots":     len(inputs.Snapshots),
		"probabilities": len(inputs.Probabilities),
	}).Info("Starting walk-forward replay")

	state := NewBacktestState(e.config.InitialBankroll)
	if err := e.replay(ctx, events, state); err != nil {
		return nil, Metrics{}, err
	}

	metrics := CalculateMetrics(state, e.config)
	e.logger.WithFields(logrus.Fields{
		"run_id":       state.RunID,
		"bets_placed":  metrics.BetsPlaced,
		"total_staked": metrics.TotalStaked,
		"total_return": metrics.TotalReturn,
	}).Info("Walk-forward replay complete")

	return state, metrics, nil
}
