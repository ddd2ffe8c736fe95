// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/fairline/internal/audit"
	"github.com/yourusername/fairline/internal/backtest"
	"github.com/yourusername/fairline/internal/config"
	"github.com/yourusername/fairline/internal/database"
	"github.com/yourusername/fairline/internal/logger"
	"github.com/yourusername/fairline/internal/metrics"
	"github.com/yourusername/fairline/internal/models"
	"github.com/yourusername/fairline/internal/repository"
	"github.com/yourusername/fairline/internal/service"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		inputPath  = flag.String("input", "", "Path to a JSON replay input file (bypasses the database)")
		startDate  = flag.String("start-date", "", "Replay window start (YYYY-MM-DD)")
		endDate    = flag.String("end-date", "", "Replay window end (YYYY-MM-DD)")
		market     = flag.String("market", "h2h", "Market type to replay: h2h, spread, total")
		output     = flag.String("output", "", "Override output directory for results")
		monteCarlo = flag.Bool("monte-carlo", false, "Run Monte Carlo resampling after the replay")
		seed       = flag.Int64("seed", 0, "Monte Carlo random seed (0 uses current time)")
	)
	flag.Parse()

	log := newLogger()
	ctx := context.Background()
	metrics.InitRegistry()

	cfg := loadConfigWithSecrets(*configPath, log)
	btConfig, err := backtest.FromConfig(cfg)
	if err != nil {
		log.Fatalf("Invalid backtest config: %v", err)
	}
	if *output != "" {
		btConfig.OutputPath = *output
	}

	inputs := loadInputs(ctx, cfg, log, *inputPath, *market, *startDate, *endDate)

	if err := os.MkdirAll(btConfig.OutputPath, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	auditPath := filepath.Join(btConfig.OutputPath, "audit.jsonl")
	recorder, err := audit.NewJSONLRecorder(auditPath)
	if err != nil {
		log.Fatalf("Failed to open audit trail: %v", err)
	}
	defer recorder.Close()

	engine, err := backtest.NewEngine(btConfig, recorder, log)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	auditLog := logger.NewAuditLogger(log)
	runStart := time.Now()

	state, runMetrics, err := engine.Run(ctx, *inputs)
	if err != nil {
		metrics.RecordBacktestRun("walk_forward", "failure")
		log.Fatalf("Backtest failed: %v", err)
	}
	metrics.RecordBacktestRun("walk_forward", "success")
	metrics.RecordBacktestDuration(time.Since(runStart).Seconds())
	metrics.UpdateBacktestReturn(state.RunID.String(), runMetrics.ROI)
	publishRunMetrics(state)

	auditLog.LogRunCompleted(state.RunID.String(), state.CurrentBankroll, runMetrics.BetsPlaced, time.Since(runStart))

	verifyAuditTrail(auditPath, state, log)
	writeResults(state, runMetrics, btConfig.OutputPath, log)
	fmt.Println(backtest.GenerateConsoleReport(runMetrics))

	if *monteCarlo {
		runMonteCarlo(ctx, state, btConfig, *seed, log)
	}
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	return log
}

func loadConfigWithSecrets(path string, log *logrus.Logger) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// loadInputs reads replay inputs from a JSON file when one is given,
// otherwise assembles them from stored market data.
func loadInputs(ctx context.Context, cfg *config.Config, log *logrus.Logger, inputPath, market, startOverride, endOverride string) *backtest.Inputs {
	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			log.Fatalf("Failed to read input file: %v", err)
		}
		var inputs backtest.Inputs
		if err := json.Unmarshal(data, &inputs); err != nil {
			log.Fatalf("Failed to parse input file: %v", err)
		}
		return &inputs
	}

	start, end := resolveWindow(startOverride, endOverride, log)

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	marketData := service.NewMarketDataService(repos.Quote, repos.ModelProbability, repos.Resolution, log)

	inputs, err := marketData.LoadReplayInputs(ctx, models.MarketType(market), start, end)
	if err != nil {
		log.Fatalf("Failed to load replay inputs: %v", err)
	}
	return inputs
}

func resolveWindow(startOverride, endOverride string, log *logrus.Logger) (time.Time, time.Time) {
	end := time.Now().UTC()
	start := end.AddDate(0, -3, 0)
	if startOverride != "" {
		parsed, err := time.Parse("2006-01-02", startOverride)
		if err != nil {
			log.Fatalf("Invalid start date: %v", err)
		}
		start = parsed
	}
	if endOverride != "" {
		parsed, err := time.Parse("2006-01-02", endOverride)
		if err != nil {
			log.Fatalf("Invalid end date: %v", err)
		}
		end = parsed
	}
	if !start.Before(end) {
		log.Fatalf("Start date %s must precede end date %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return start, end
}

// verifyAuditTrail replays the persisted trail and checks it reproduces the
// run's final bankroll.
func publishRunMetrics(state *backtest.BacktestState) {
	for _, record := range state.Records {
		metrics.RecordDecisionEvaluated(record.Edge)
		if !record.IsSkip() {
			metrics.RecordBetPlaced()
			metrics.RecordBetSettled()
		}
	}
	for reason, count := range state.SkipCounts {
		for i := 0; i < count; i++ {
			metrics.RecordDecisionSkipped(string(reason))
		}
	}
	metrics.UpdateBankroll(state.CurrentBankroll)
	metrics.UpdatePeakBankroll(state.PeakBankroll)
}

func verifyAuditTrail(auditPath string, state *backtest.BacktestState, log *logrus.Logger) {
	records, err := audit.ReadJSONL(auditPath)
	if err != nil {
		log.WithError(err).Error("Failed to read back audit trail")
		return
	}
	summary, err := audit.Replay(records)
	if err != nil {
		log.WithError(err).Error("Failed to replay audit trail")
		return
	}
	if math.Abs(summary.FinalBankroll-state.CurrentBankroll) > 1e-9 {
		log.WithFields(logrus.Fields{
			"replayed": summary.FinalBankroll,
			"live":     state.CurrentBankroll,
		}).Error("Audit replay does not reproduce final bankroll")
		return
	}
	log.WithField("final_bankroll", summary.FinalBankroll).Info("Audit trail verified")
}

func writeResults(state *backtest.BacktestState, runMetrics backtest.Metrics, outputPath string, log *logrus.Logger) {
	if err := backtest.GenerateJSONExport(runMetrics, filepath.Join(outputPath, "metrics.json")); err != nil {
		log.WithError(err).Error("Failed to write metrics JSON")
	}
	if err := backtest.GenerateCSVExport(runMetrics, filepath.Join(outputPath, "metrics.csv")); err != nil {
		log.WithError(err).Error("Failed to write metrics CSV")
	}
	equityPath := filepath.Join(outputPath, "equity_curve.csv")
	if err := os.WriteFile(equityPath, []byte(state.EquityCurve.ToCSV()), 0o644); err != nil {
		log.WithError(err).Error("Failed to write equity curve")
	}
}

func runMonteCarlo(ctx context.Context, state *backtest.BacktestState, btConfig backtest.BacktestConfig, seed int64, log *logrus.Logger) {
	result, err := backtest.RunMonteCarlo(ctx, state.Records, backtest.MonteCarloConfig{
		Iterations:      btConfig.MonteCarloIterations,
		Seed:            seed,
		InitialBankroll: btConfig.InitialBankroll,
	})
	if err != nil {
		metrics.RecordBacktestRun("monte_carlo", "failure")
		log.Fatalf("Monte Carlo failed: %v", err)
	}
	metrics.RecordBacktestRun("monte_carlo", "success")

	log.WithFields(logrus.Fields{
		"iterations":            result.Iterations,
		"mean_return":           result.MeanReturn,
		"var_95":                result.VaR95,
		"var_99":                result.VaR99,
		"probability_of_profit": result.ProbabilityOfProfit,
		"probability_of_ruin":   result.ProbabilityOfRuin,
	}).Info("Monte Carlo completed")
}
