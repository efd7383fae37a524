package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the client shared by the event queue and health checks.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts. The connection is lazy;
// call Healthy to check reachability.
func NewRedis(addr, password string, db int) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  6 * time.Second, // longer than the BRPOP wait
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
