package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/queue"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newStore(t *testing.T, ids ...string) *store.Store {
	t.Helper()
	st := store.New()
	for _, id := range ids {
		require.NoError(t, st.Users.Insert(model.User{ID: id, Email: id + "@x.test", Role: model.RoleParent, IsActive: true}, nil))
	}
	return st
}

func TestDispatchWritesNotifications(t *testing.T) {
	st := newStore(t, "u1", "u2")
	q := queue.NewInMemory(4)
	d := NewDispatcher(st, q, nil, nil)

	got := d.Dispatch(context.Background(), queue.Event{
		Type:       queue.MeetingCreated,
		RefID:      "m-1",
		Recipients: []string{"u2", "ghost", "u1", "u2"},
		Title:      "General assembly",
	})

	require.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].UserID)
	assert.Equal(t, "u2", got[1].UserID)
	assert.Equal(t, 2, st.Notifications.Len())
	for _, n := range got {
		assert.Equal(t, queue.MeetingCreated, n.Kind)
		assert.False(t, n.IsRead())
		assert.False(t, n.CreatedAt.IsZero())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := q.Consume(ctx)
	require.NoError(t, err)
	select {
	case evt := <-events:
		assert.Equal(t, []string{"u1", "u2"}, evt.Recipients)
	case <-time.After(time.Second):
		t.Fatal("event was not published")
	}
	cancel()
	for range events {
	}
}

func TestDispatchSurvivesFullQueue(t *testing.T) {
	st := newStore(t, "u1")
	q := queue.NewInMemory(0)
	core, logs := observer.New(zapcore.WarnLevel)
	d := NewDispatcher(st, q, zap.New(core), nil)

	got := d.Dispatch(context.Background(), queue.Event{Type: queue.ClearanceApproved, Recipients: []string{"u1"}})

	assert.Len(t, got, 1)
	assert.Equal(t, 1, logs.FilterMessage("event publish failed").Len())
}

func TestDispatchWithoutRecipientsSkipsQueue(t *testing.T) {
	st := newStore(t)
	q := queue.NewInMemory(0)
	core, logs := observer.New(zapcore.WarnLevel)
	d := NewDispatcher(st, q, zap.New(core), nil)

	got := d.Dispatch(context.Background(), queue.Event{Type: queue.AnnouncementPublished, Recipients: []string{"nobody"}})

	assert.Empty(t, got)
	assert.Zero(t, logs.Len())
}

func TestCourierDelivers(t *testing.T) {
	q := queue.NewInMemory(4)
	delivered := make(chan queue.Event, 4)
	c := NewCourier(q, func(_ context.Context, evt queue.Event) error {
		if evt.RefID == "bad" {
			return errors.New("smtp down")
		}
		delivered <- evt
		return nil
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.NoError(t, q.Publish(ctx, queue.Event{Type: queue.ContributionVerified, RefID: "bad"}))
	require.NoError(t, q.Publish(ctx, queue.Event{Type: queue.ContributionVerified, RefID: "c-1"}))

	select {
	case evt := <-delivered:
		assert.Equal(t, "c-1", evt.RefID)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
	cancel()
	assert.NoError(t, <-done)
}

func TestCourierLogsByDefault(t *testing.T) {
	q := queue.NewInMemory(1)
	core, logs := observer.New(zapcore.InfoLevel)
	c := NewCourier(q, nil, zap.New(core), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.NoError(t, q.Publish(ctx, queue.Event{Type: queue.ClearanceRejected, RefID: "cl-9", Recipients: []string{"u1"}}))
	require.Eventually(t, func() bool {
		return logs.FilterMessage("event delivered").Len() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	entry := logs.FilterMessage("event delivered").All()[0]
	assert.Equal(t, "cl-9", entry.ContextMap()["ref_id"])
}
