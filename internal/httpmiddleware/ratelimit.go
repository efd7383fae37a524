package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/auth"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/metrics"
)

// TokenBucket is an in-memory rate limiter. Authenticated callers are
// limited per user, everyone else per client IP.
type TokenBucket struct {
	capacity int
	rate     int
	metrics  *metrics.Metrics
	now      func() time.Time

	mu    sync.Mutex
	state map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates a limiter with capacity tokens refilled at perMinute.
// m may be nil.
func NewTokenBucket(capacity, perMinute int, m *metrics.Metrics) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		capacity: capacity,
		rate:     perMinute,
		metrics:  m,
		now:      time.Now,
		state:    make(map[string]*bucket),
	}
}

// GinMiddleware rejects requests over the limit with 429. Install it after
// auth.Bearer on protected routes so the caller's identity is the key.
func (l *TokenBucket) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.rate <= 0 {
			c.Next()
			return
		}
		if !l.allow(key(c)) {
			l.metrics.RateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func key(c *gin.Context) string {
	if id, ok := auth.CallerFrom(c); ok {
		return "user:" + id.UserID
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func (l *TokenBucket) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := l.now()
	if !ok {
		b = &bucket{tokens: l.capacity - 1, last: now}
		l.state[key] = b
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
