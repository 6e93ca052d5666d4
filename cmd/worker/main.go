package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"evaladmin/internal/bootstrap"
	"evaladmin/internal/config"
	"evaladmin/internal/logging"
	"evaladmin/internal/metrics"
	"evaladmin/internal/queue"
)

// Worker consumes professor.deleted jobs and removes the questions and image
// that belonged to the deleted professor.
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Open(ctx, cfg, metrics.New(prometheus.DefaultRegisterer), logger)
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}
	defer func() { _ = app.Close() }()

	if _, inProcess := app.Queue.(*queue.InMemory); inProcess {
		logger.Fatal("worker needs QUEUE_BACKEND=redis; the api runs jobs itself with the in-memory queue")
	}

	logger.Info("worker started, waiting for messages", zap.String("queue", cfg.QueueName))
	if err := bootstrap.Consume(ctx, app.Queue, app.Service, logger); err != nil {
		logger.Fatal("worker failed", zap.Error(err))
	}
	logger.Info("worker stopped")
}
