package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/segyhp/parking-billing/internal/app"
	"github.com/segyhp/parking-billing/internal/config"
	"github.com/segyhp/parking-billing/internal/logging"
	"github.com/segyhp/parking-billing/internal/metrics"
	"github.com/segyhp/parking-billing/internal/scheduler"
	"github.com/segyhp/parking-billing/internal/tracing"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(cfg.Logging, "parking-billing-scheduler")
	log.Logger = logger

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	metrics.Register()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	s, err := scheduler.New(cfg, application.Service, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.Scheduler.Spec).Msg("failed to schedule jobs")
	}
	s.Start()

	var metricsServer *http.Server
	if addr := cfg.SchedulerMetricsAddr(); addr != "" {
		metricsServer = scheduler.NewMetricsServer(addr)
		go func() {
			logger.Info().Str("addr", addr).Msg("serving scheduler metrics")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down scheduler")
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s.Stop(stopCtx)
	if metricsServer != nil {
		_ = metricsServer.Shutdown(stopCtx)
	}
	logger.Info().Msg("scheduler stopped")
}
