// Package bootstrap assembles a backend and its dependencies from config.
// The API server, the worker and eptactl all start here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/auth"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/backend"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/blob"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/config"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/latency"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/metrics"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/queue"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/store"
)

// App is a fully wired backend.
type App struct {
	Backend *backend.Backend
	Issuer  *auth.Issuer
	Queue   queue.Queue
	// Redis is nil unless the queue runs on redis.
	Redis   *queue.Redis
	Metrics *metrics.Metrics
}

// Close releases external connections.
func (a *App) Close() error {
	return a.Redis.Close()
}

// Build loads fixtures and wires the backend. reg may be nil to skip metrics.
func Build(ctx context.Context, cfg config.App, log *zap.Logger, reg prometheus.Registerer) (*App, error) {
	st, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	q, rdb, err := OpenQueue(cfg)
	if err != nil {
		return nil, err
	}
	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}
	issuer := auth.NewIssuer(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
	b := backend.New(st,
		backend.WithLatency(latency.New(cfg.Latency.Default, cfg.Latency.Operations)),
		backend.WithPolicy(cfg.Policy),
		backend.WithIssuer(issuer),
		backend.WithBlobStore(blobs),
		backend.WithQueue(q),
		backend.WithLogger(log),
		backend.WithMetrics(m),
		backend.WithPasswordCost(cfg.PasswordCost),
	)
	log.Info("backend ready",
		zap.String("fixtures", cfg.FixtureSource),
		zap.String("queue", cfg.QueueBackend),
		zap.String("blob", string(blobs.Driver())),
		zap.Int("users", st.Users.Len()),
	)
	return &App{Backend: b, Issuer: issuer, Queue: q, Redis: rdb, Metrics: m}, nil
}

// OpenStore builds the store from the embedded data set or from Postgres.
func OpenStore(ctx context.Context, cfg config.App, log *zap.Logger) (*store.Store, error) {
	opts := []store.Option{store.WithPasswordCost(cfg.PasswordCost)}
	switch cfg.FixtureSource {
	case "", "embedded":
		st, err := store.Seed(opts...)
		if err != nil {
			return nil, fmt.Errorf("seed store: %w", err)
		}
		return st, nil
	case "postgres":
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect fixture database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Warn("close fixture database", zap.Error(err))
			}
		}()
		f, err := db.Fixtures(ctx)
		if err != nil {
			return nil, err
		}
		st := store.New(opts...)
		if err := st.Load(f); err != nil {
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown fixture source %q", cfg.FixtureSource)
	}
}

// ErrUnknownQueue is returned for a QueueBackend other than memory or redis.
var ErrUnknownQueue = errors.New("unknown queue backend")

// OpenQueue returns the event queue. The redis handle is nil for memory.
func OpenQueue(cfg config.App) (queue.Queue, *queue.Redis, error) {
	switch cfg.QueueBackend {
	case "", "memory":
		return queue.NewInMemory(256), nil, nil
	case "redis":
		rdb := queue.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		return queue.NewRedisQueue(rdb.Client, cfg.QueueKey), rdb, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownQueue, cfg.QueueBackend)
	}
}
