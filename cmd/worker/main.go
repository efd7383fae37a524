package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/bootstrap"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/config"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/logging"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/metrics"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/notify"
)

// Worker drains the shared redis event queue and delivers notifications
// published by the API server.
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Production(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend != "redis" {
		logger.Fatal("worker requires QUEUE_BACKEND=redis; the memory queue is drained by the api process",
			zap.String("queue_backend", cfg.QueueBackend))
	}

	q, rdb, err := bootstrap.OpenQueue(cfg)
	if err != nil {
		logger.Fatal("queue init failed", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	if !rdb.Healthy(ctx) {
		logger.Warn("redis not reachable, consumer will keep retrying", zap.String("addr", cfg.RedisAddr))
	}

	courier := notify.NewCourier(q, nil, logger, metrics.New(prometheus.DefaultRegisterer))
	logger.Info("worker started, waiting for events", zap.String("queue", cfg.QueueKey))
	if err := courier.Run(ctx); err != nil {
		logger.Fatal("queue consume init failed", zap.Error(err))
	}
	logger.Info("worker stopped")
}
