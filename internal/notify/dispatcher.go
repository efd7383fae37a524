// Package notify turns domain events into in-app notifications and hands them
// to the outbound queue.
package notify

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/metrics"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/queue"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/store"
)

// Dispatcher records a notification per recipient and publishes the event
// for outbound delivery. Publishing is best effort.
type Dispatcher struct {
	st      *store.Store
	q       queue.Queue
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewDispatcher creates a dispatcher. q may be nil when nothing delivers
// events outside the process.
func NewDispatcher(st *store.Store, q queue.Queue, log *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{st: st, q: q, log: log, metrics: m}
}

// Dispatch writes notifications for evt's recipients and returns them.
// Unknown and repeated recipients are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, evt queue.Event) []model.Notification {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = d.st.Now()
	}
	recipients := slices.Clone(evt.Recipients)
	slices.Sort(recipients)
	recipients = slices.Compact(recipients)

	out := make([]model.Notification, 0, len(recipients))
	delivered := make([]string, 0, len(recipients))
	for _, userID := range recipients {
		if !d.st.Users.Has(userID) {
			d.log.Debug("skipping unknown recipient", zap.String("type", evt.Type), zap.String("user_id", userID))
			continue
		}
		n := model.Notification{
			ID:        d.st.NewID(),
			UserID:    userID,
			Kind:      evt.Type,
			Title:     evt.Title,
			Body:      evt.Body,
			RefID:     evt.RefID,
			CreatedAt: evt.OccurredAt,
		}
		if err := d.st.Notifications.Insert(n, nil); err != nil {
			d.log.Warn("notification insert failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		out = append(out, n)
		delivered = append(delivered, userID)
	}
	evt.Recipients = delivered

	if d.q == nil || len(delivered) == 0 {
		return out
	}
	if err := d.q.Publish(ctx, evt); err != nil {
		d.log.Warn("event publish failed", zap.String("type", evt.Type), zap.String("ref_id", evt.RefID), zap.Error(err))
		d.metrics.Event(evt.Type, "dropped")
		return out
	}
	d.metrics.Event(evt.Type, "published")
	return out
}
