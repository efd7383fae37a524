package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types published by the backend.
const (
	AnnouncementPublished = "announcement.published"
	MeetingCreated        = "meeting.created"
	ContributionVerified  = "contribution.verified"
	ClearanceApproved     = "clearance.approved"
	ClearanceRejected     = "clearance.rejected"
)

// Event is a domain event addressed to zero or more users.
type Event struct {
	Type       string    `json:"type"`
	RefID      string    `json:"refId"`
	Recipients []string  `json:"recipients"`
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, evt Event) error
	Consume(ctx context.Context) (<-chan Event, error)
}

// ErrFull is returned by InMemory.Publish when the buffer is full.
var ErrFull = errors.New("queue full")

// InMemory is a channel-backed queue for single-process deployments and tests.
type InMemory struct {
	ch chan Event
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Event, size)}
}

// Publish enqueues an event without blocking the caller.
func (q *InMemory) Publish(ctx context.Context, evt Event) error {
	select {
	case q.ch <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrFull
	}
}

// Consume returns a channel for workers. It closes when ctx is done.
func (q *InMemory) Consume(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case evt := <-q.ch:
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
	wait   time.Duration
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "epta:events"
	}
	return &RedisQueue{client: client, key: key, wait: 5 * time.Second}
}

// Publish enqueues an event as JSON.
func (q *RedisQueue) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Consume streams events using BRPOP. Undecodable entries are dropped.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, q.wait, q.key).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !errors.Is(err, redis.Nil) {
					// back off on connection errors instead of spinning
					select {
					case <-time.After(time.Second):
					case <-ctx.Done():
						return
					}
				}
				continue
			}
			if len(res) != 2 {
				continue
			}
			var evt Event
			if err := json.Unmarshal([]byte(res[1]), &evt); err != nil {
				continue
			}
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
