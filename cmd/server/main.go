package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/segyhp/khaata-engine/internal/app"
	"github.com/segyhp/khaata-engine/internal/config"
	"github.com/segyhp/khaata-engine/internal/handler"
	"github.com/segyhp/khaata-engine/internal/logger"
	"github.com/segyhp/khaata-engine/internal/metrics"
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

	ctx := context.Background()
	application, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	loc := cfg.Location()
	router := handler.NewRouter(handler.Handlers{
		Auth:       handler.NewAuthHandler(application.Auth),
		Customers:  handler.NewCustomerHandler(application.Customers, application.Loans),
		Loans:      handler.NewLoanHandler(application.Loans, application.Repayments, loc),
		Repayments: handler.NewRepaymentHandler(application.Repayments, loc),
		Dashboard:  handler.NewDashboardHandler(application.Summary, loc, cfg.Scheduler.ReminderWithinDays),
		Health:     handler.NewHealthHandler(application.DB, application.Redis, cfg.GetHealthTimeout()),
		Metrics:    promhttp.Handler(),
	}, application.Auth, zl)

	// Start server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		zl.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	zl.Info("server exited")
}
