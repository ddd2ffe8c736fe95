// Package main provides the entry point for the data ingestion service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/fairline/internal/config"
	"github.com/yourusername/fairline/internal/database"
	"github.com/yourusername/fairline/internal/datasource"
	"github.com/yourusername/fairline/internal/health"
	applogger "github.com/yourusername/fairline/internal/logger"
	"github.com/yourusername/fairline/internal/metrics"
	"github.com/yourusername/fairline/internal/repository"
	"github.com/yourusername/fairline/internal/scheduler"
	"github.com/yourusername/fairline/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	bootLog := applogger.NewLogger("info", "development")

	cfg, err := loadConfig()
	if err != nil {
		bootLog.Fatalf("Configuration error: %v", err)
	}
	log := applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	factory := datasource.NewFactory(log)
	sources, err := factory.NewDataSources(cfg.DataIngestion)
	if err != nil {
		log.Fatalf("Failed to create data sources: %v", err)
	}

	ingestionSvc := service.NewIngestionService(
		sources,
		cfg.DataIngestion,
		repos.Quote,
		repos.Resolution,
		service.NewDataValidator(log),
		service.NewDataNormalizer(log),
		applogger.NewIngestionLogger(log),
	)

	metrics.InitRegistry()

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name + "-ingestion",
		Version:     Version,
		Commit:      GitCommit,
		Port:        fmt.Sprintf("%d", cfg.Metrics.Port),
		MetricsPath: metricsPath,
		Logger:      log,
	})
	healthServer.RegisterCheck("database", db.Ping)

	sched := scheduler.NewScheduler(ingestionSvc, log)
	healthServer.RegisterCheck("scheduler", func(ctx context.Context) error {
		if !sched.IsRunning() {
			return fmt.Errorf("scheduler not running")
		}
		return nil
	})
	if err := healthServer.Start(ctx); err != nil {
		log.Fatalf("Failed to start health server: %v", err)
	}
	for _, source := range sources {
		if err := sched.ScheduleOddsSync(cfg.DataIngestion.Schedule.OddsSync, source.Name()); err != nil {
			log.Fatalf("Failed to schedule odds sync: %v", err)
		}
		if err := sched.ScheduleResultsSync(cfg.DataIngestion.Schedule.ResultsSync, source.Name()); err != nil {
			log.Fatalf("Failed to schedule results sync: %v", err)
		}
	}
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	healthServer.SetReady(true)

	log.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"sources":     len(sources),
		"next_run":    sched.GetNextRun(),
	}).Info("Data ingestion service started")

	<-ctx.Done()
	log.Info("Shutdown signal received")

	healthServer.SetReady(false)
	if err := sched.Stop(); err != nil {
		log.WithError(err).Error("Scheduler shutdown error")
	}
	if err := healthServer.Shutdown(); err != nil {
		log.WithError(err).Error("Health server shutdown error")
	}
	log.Info("Data ingestion service stopped")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return nil, fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.ValidateEnvironment(cfg); err != nil {
		return nil, fmt.Errorf("environment validation failed: %w", err)
	}

	return cfg, nil
}
