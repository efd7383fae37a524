package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/rules"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/store"
)

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	st, err := store.Seed(store.WithClock(func() time.Time { return now }), store.WithPasswordCost(bcrypt.MinCost))
	require.NoError(t, err)
	return NewService(st, rules.DefaultPolicy()), st
}

func kindOf(t *testing.T, err error) envelope.Kind {
	t.Helper()
	var e *envelope.Error
	require.True(t, errors.As(err, &e), "expected *envelope.Error, got %v", err)
	return e.Kind
}

func TestRecordCreatesThenDeduplicates(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	before := st.Attendance.Len()

	first, created, err := svc.Record(ctx, "m-07", "u-p10", model.AttendancePresent, "u-a01")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, first.IsPresent)
	assert.Equal(t, before+1, st.Attendance.Len())

	second, created, err := svc.Record(ctx, "m-07", "u-p10", model.AttendanceAbsent, "u-a02")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.IsPresent)
	assert.Equal(t, before+1, st.Attendance.Len())
}

func TestRecordLateCountsAsPresent(t *testing.T) {
	svc, _ := newService(t)
	mark, _, err := svc.Record(context.Background(), "m-08", "u-p10", model.AttendanceLate, "")
	require.NoError(t, err)
	assert.True(t, mark.IsPresent)
	assert.Nil(t, mark.RecordedBy)
}

func TestRecordValidatesReferences(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	before := st.Attendance.Len()

	_, _, err := svc.Record(ctx, "nope", "u-p01", model.AttendancePresent, "")
	assert.Equal(t, envelope.KindNotFound, kindOf(t, err))

	_, _, err = svc.Record(ctx, "m-07", "nobody", model.AttendancePresent, "")
	assert.Equal(t, envelope.KindNotFound, kindOf(t, err))

	_, _, err = svc.Record(ctx, "m-07", "u-a01", model.AttendancePresent, "")
	assert.Equal(t, envelope.KindValidation, kindOf(t, err))

	_, _, err = svc.Record(ctx, "m-07", "u-p01", model.AttendanceStatus("sleeping"), "")
	assert.Equal(t, envelope.KindValidation, kindOf(t, err))

	_, _, err = svc.Record(ctx, "m-06", "u-p01", model.AttendancePresent, "")
	assert.Equal(t, envelope.KindConflict, kindOf(t, err))

	assert.Equal(t, before, st.Attendance.Len(), "failed records leave the collection untouched")
}

func TestRecordConcurrentSamePairKeepsOneMark(t *testing.T) {
	svc, st := newService(t)
	before := st.Attendance.Len()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := model.AttendancePresent
			if i%2 == 0 {
				status = model.AttendanceAbsent
			}
			_, _, err := svc.Record(context.Background(), "m-08", "u-p02", status, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, before+1, st.Attendance.Len())
}

func TestForMeeting(t *testing.T) {
	svc, _ := newService(t)
	rep, err := svc.ForMeeting(context.Background(), "m-01")
	require.NoError(t, err)

	assert.Len(t, rep.Attendance, 8)
	assert.Equal(t, 7, rep.Present)
	assert.Equal(t, 1, rep.Absent)
	assert.Equal(t, 88, rep.Rate)

	_, err = svc.ForMeeting(context.Background(), "missing")
	assert.Equal(t, envelope.KindNotFound, kindOf(t, err))
}

func TestForParent(t *testing.T) {
	svc, _ := newService(t)
	rep, err := svc.ForParent(context.Background(), "u-p02")
	require.NoError(t, err)

	assert.Equal(t, 5, rep.Total)
	assert.Equal(t, 4, rep.Attended)
	assert.Equal(t, 80, rep.Rate)
	assert.Equal(t, 50.0, rep.Penalty)
	require.Len(t, rep.RecentMeetings, 5)
	assert.Equal(t, "m-05", rep.RecentMeetings[0].ID)
}

func TestSummarySkipsDeletedMeetings(t *testing.T) {
	svc, st := newService(t)
	require.NoError(t, st.Attendance.Insert(model.Attendance{ID: "dangling", MeetingID: "m-gone", ParentID: "u-p10", IsPresent: false}, nil))

	sum := svc.Summary("u-p10")
	assert.Zero(t, sum.Total)
	assert.Zero(t, sum.Rate)

	rep, err := svc.ForParent(context.Background(), "u-p10")
	require.NoError(t, err)
	assert.Empty(t, rep.Attendance)
}
