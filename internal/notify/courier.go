package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/metrics"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/queue"
)

// DeliverFunc sends one event over an outbound channel such as email or SMS.
type DeliverFunc func(ctx context.Context, evt queue.Event) error

// Courier drains the event queue and delivers each event.
type Courier struct {
	q       queue.Queue
	deliver DeliverFunc
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewCourier creates a courier. A nil deliver logs each event, which is the
// only outbound channel available in simulation mode.
func NewCourier(q queue.Queue, deliver DeliverFunc, log *zap.Logger, m *metrics.Metrics) *Courier {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Courier{q: q, deliver: deliver, log: log, metrics: m}
	if c.deliver == nil {
		c.deliver = c.logDelivery
	}
	return c
}

// Run consumes until ctx is done. Delivery failures are logged and the event dropped.
func (c *Courier) Run(ctx context.Context) error {
	events, err := c.q.Consume(ctx)
	if err != nil {
		return err
	}
	c.log.Info("courier started")
	for evt := range events {
		if err := c.deliver(ctx, evt); err != nil {
			c.log.Warn("event delivery failed",
				zap.String("type", evt.Type),
				zap.String("ref_id", evt.RefID),
				zap.Error(err))
			c.metrics.Event(evt.Type, "failed")
			continue
		}
		c.metrics.Event(evt.Type, "delivered")
	}
	c.log.Info("courier stopped")
	return nil
}

func (c *Courier) logDelivery(_ context.Context, evt queue.Event) error {
	c.log.Info("event delivered",
		zap.String("type", evt.Type),
		zap.String("ref_id", evt.RefID),
		zap.String("title", evt.Title),
		zap.Int("recipients", len(evt.Recipients)),
		zap.Time("occurred_at", evt.OccurredAt))
	return nil
}
