package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/bootstrap"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/config"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/handler"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/httpmiddleware"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/logging"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/notify"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Production(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	for _, w := range cfg.Warnings {
		logger.Warn("config", zap.String("warning", w))
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	checks := map[string]handler.HealthCheck{}
	if app.Redis != nil {
		checks["redis"] = app.Redis.Healthy
	}

	r := handler.NewRouter(handler.Config{
		Backend:     app.Backend,
		Issuer:      app.Issuer,
		Logger:      logger,
		Limiter:     httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin, app.Metrics),
		CORSOrigins: cfg.CORSOrigins,
		Checks:      checks,
		Metrics:     promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	// With the redis queue, cmd/worker owns delivery.
	if app.Redis == nil {
		g.Go(func() error {
			return notify.NewCourier(app.Queue, nil, logger.Named("courier"), app.Metrics).Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		// Give outstanding requests 10 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server forced shutdown", zap.Error(err))
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server exited")
	return err
}
