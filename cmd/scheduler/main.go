package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/app"
	"github.com/segyhp/khaata-engine/internal/config"
	"github.com/segyhp/khaata-engine/internal/logger"
	"github.com/segyhp/khaata-engine/internal/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	if cfg.Storage.Driver == config.DriverMemory {
		zl.Warn("scheduler running against an in-memory store it does not share with the server")
	}

	application, err := app.New(context.Background(), cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	// Initialize cron scheduler in the ledger's zone so "midnight" is local midnight
	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.Location()))

	jobs := scheduler.NewJobs(application.Loans, application.Summary, cfg.Scheduler.ReminderWithinDays, zl.Named("scheduler"))
	if err := jobs.Register(c, cfg.Scheduler.StatusCron, cfg.Scheduler.ReminderCron); err != nil {
		zl.Fatal("failed to schedule jobs", zap.Error(err))
	}

	c.Start()
	zl.Info("scheduler started",
		zap.String("status_cron", cfg.Scheduler.StatusCron),
		zap.String("reminder_cron", cfg.Scheduler.ReminderCron),
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down scheduler")
	<-c.Stop().Done()
	zl.Info("scheduler stopped")
}
