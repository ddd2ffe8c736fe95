// Package main provides the bet evaluation CLI. It prices stored market
// snapshots against model probabilities and prints qualifying picks ranked
// by edge.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/fairline/internal/config"
	"github.com/yourusername/fairline/internal/database"
	"github.com/yourusername/fairline/internal/devig"
	"github.com/yourusername/fairline/internal/edge"
	"github.com/yourusername/fairline/internal/kelly"
	applogger "github.com/yourusername/fairline/internal/logger"
	"github.com/yourusername/fairline/internal/metrics"
	"github.com/yourusername/fairline/internal/models"
	"github.com/yourusername/fairline/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	marketFlag string
	bankroll   float64
	appLogger  *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
)

// Pick is one qualifying, sized betting opportunity
type Pick struct {
	EventID          string  `json:"event_id"`
	MarketType       string  `json:"market_type"`
	Outcome          string  `json:"outcome"`
	ReferenceBookID  string  `json:"reference_book_id"`
	ReferencePrice   float64 `json:"reference_price"`
	ModelProbability float64 `json:"model_probability"`
	FairProbability  float64 `json:"fair_probability"`
	Edge             float64 `json:"edge"`
	KellyFraction    float64 `json:"kelly_fraction"`
	StakeFraction    float64 `json:"stake_fraction"`
	StakeAmount      float64 `json:"stake_amount"`
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	picksCmd.Flags().StringVar(&marketFlag, "market", "h2h", "Market type to evaluate: h2h, spread, total")
	picksCmd.Flags().Float64Var(&bankroll, "bankroll", 0, "Bankroll for stake amounts (0 skips amounts)")
	rootCmd.AddCommand(picksCmd)
}

var rootCmd = &cobra.Command{
	Use:   "bet",
	Short: "Evaluate betting opportunities from stored market data",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return setupDependencies()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var picksCmd = &cobra.Command{
	Use:   "picks <event-id>...",
	Short: "Rank qualifying picks for the given events",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPicks(cmd.Context(), args)
	},
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setupDependencies() error {
	appLogger = logrus.New()
	appLogger.SetFormatter(&logrus.JSONFormatter{})
	appLogger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		appLogger.SetLevel(level)
	}
	metrics.InitRegistry()

	var err error
	db, err = database.NewDB(context.Background(), &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	return nil
}

func runPicks(ctx context.Context, eventIDs []string) error {
	converter, err := devig.NewConverter(devig.Method(cfg.Betting.DevigMethod))
	if err != nil {
		return err
	}
	selector, err := edge.NewReferenceSelector(edge.ReferenceBookPolicy(cfg.Betting.ReferenceBookPolicy), cfg.Betting.ReferenceBook)
	if err != nil {
		return err
	}
	calculator, err := edge.NewCalculator(cfg.Betting.MinEdgeThreshold, selector, appLogger)
	if err != nil {
		return err
	}
	sizer, err := kelly.NewSizer(cfg.Betting.KellyMultiplier, cfg.Betting.MaxSingleBetFraction, cfg.Betting.MaxTotalExposureFraction, appLogger)
	if err != nil {
		return err
	}

	auditLog := applogger.NewAuditLogger(appLogger)
	tracker := kelly.NewExposureTracker(cfg.Betting.MaxTotalExposureFraction)
	marketType := models.MarketType(marketFlag)
	now := time.Now().UTC()

	var picks []Pick
	for _, eventID := range eventIDs {
		pick, ok, err := evaluateEvent(ctx, eventID, marketType, now, converter, calculator, sizer, tracker, auditLog)
		if err != nil {
			appLogger.WithError(err).WithField("event_id", eventID).Warn("skipping event")
			continue
		}
		if ok {
			picks = append(picks, pick)
		}
	}

	sort.Slice(picks, func(i, j int) bool { return picks[i].Edge > picks[j].Edge })

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(picks)
}

func evaluateEvent(
	ctx context.Context,
	eventID string,
	marketType models.MarketType,
	now time.Time,
	converter *devig.Converter,
	calculator *edge.Calculator,
	sizer *kelly.Sizer,
	tracker *kelly.ExposureTracker,
	auditLog *applogger.AuditLogger,
) (Pick, bool, error) {
	probability, err := repos.ModelProbability.GetLatestBefore(ctx, eventID, marketType, now)
	if err != nil {
		return Pick{}, false, fmt.Errorf("no model probability: %w", err)
	}

	snapshots, err := repos.Quote.GetSnapshots(ctx, eventID, marketType, now)
	if err != nil {
		return Pick{}, false, fmt.Errorf("no market snapshots: %w", err)
	}

	// Latest snapshot per book, each de-vigged independently.
	latest := make(map[string]models.MarketSnapshot)
	for _, snapshot := range snapshots {
		if existing, ok := latest[snapshot.BookID]; !ok || snapshot.ObservedAt.After(existing.ObservedAt) {
			latest[snapshot.BookID] = snapshot
		}
	}

	var markets []edge.BookMarket
	for _, snapshot := range latest {
		fair, err := converter.Convert(snapshot)
		if err != nil {
			appLogger.WithError(err).WithFields(logrus.Fields{
				"event_id": eventID,
				"book_id":  snapshot.BookID,
			}).Debug("excluding book from evaluation")
			continue
		}
		markets = append(markets, edge.BookMarket{Snapshot: snapshot, Fair: fair})
	}
	if len(markets) == 0 {
		return Pick{}, false, fmt.Errorf("no usable market snapshots")
	}

	decision, err := calculator.Evaluate(*probability, markets)
	if err != nil {
		return Pick{}, false, err
	}
	auditLog.LogEdgeEvaluation(decision)
	metrics.RecordDecisionEvaluated(decision.Edge)

	stake, err := sizer.Size(decision, tracker.Headroom())
	if err != nil {
		return Pick{}, false, err
	}
	if !stake.IsBet() {
		metrics.RecordDecisionSkipped(string(stake.SkipReason))
		return Pick{}, false, nil
	}
	tracker.Commit(eventID+"/"+decision.Outcome, stake.StakeFraction)
	metrics.RecordBetPlaced()
	metrics.UpdateExposure(tracker.Total())

	pick := Pick{
		EventID:          decision.EventID,
		MarketType:       string(decision.MarketType),
		Outcome:          decision.Outcome,
		ReferenceBookID:  decision.ReferenceBookID,
		ReferencePrice:   decision.ReferencePrice,
		ModelProbability: decision.ModelProbability,
		FairProbability:  decision.FairProbability,
		Edge:             decision.Edge,
		KellyFraction:    stake.KellyFraction,
		StakeFraction:    stake.StakeFraction,
		StakeAmount:      stake.StakeFraction * bankroll,
	}
	return pick, true, nil
}
