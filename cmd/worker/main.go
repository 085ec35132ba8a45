package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/reviewboost-backend/internal/app"
	"github.com/unclebandit/reviewboost-backend/internal/config"
	"github.com/unclebandit/reviewboost-backend/internal/observ"
	"github.com/unclebandit/reviewboost-backend/internal/tracing"
)

// The worker consumes campaign_sends and feedback_alerts from RabbitMQ.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is required for the worker; without it the server consumes jobs itself")
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if _, err := tracing.Init(tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.JaegerEndpoint,
		Environment: cfg.Env,
	}); err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open dependencies", zap.Error(err))
	}
	defer deps.Close()

	services := app.NewServices(cfg, deps, logger)
	if err := services.Worker(deps.Queue, logger).Start(); err != nil {
		logger.Fatal("failed to subscribe", zap.Error(err))
	}

	logger.Info("worker running, waiting for jobs")
	<-ctx.Done()
	logger.Info("worker stopping")
	tracing.Shutdown(context.Background())
}
