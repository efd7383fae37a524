package backend

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/attendance"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/queue"
)

// upcomingLimit is used when GetUpcomingMeetings gets no positive limit.
const upcomingLimit = 5

// MeetingInput schedules a meeting.
type MeetingInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Venue       string    `json:"venue" validate:"max=200"`
	Date        time.Time `json:"date" validate:"required"`
}

// GetAllMeetings lists meetings; filters: status.
func (b *Backend) GetAllMeetings(ctx context.Context, p query.Params) envelope.Response[envelope.List[model.Meeting]] {
	return run(ctx, b, "GetAllMeetings", "Meetings retrieved successfully", func() (envelope.List[model.Meeting], error) {
		return list("meetings", meetingQuery, b.st.Meetings.All(), p)
	})
}

// GetUpcomingMeetings returns scheduled meetings that have not started, soonest first.
func (b *Backend) GetUpcomingMeetings(ctx context.Context, limit int) envelope.Response[[]model.Meeting] {
	return run(ctx, b, "GetUpcomingMeetings", "Upcoming meetings retrieved successfully", func() ([]model.Meeting, error) {
		if limit <= 0 {
			limit = upcomingLimit
		}
		now := b.st.Now()
		out := b.st.Meetings.Where(func(m model.Meeting) bool {
			return m.Status == model.MeetingScheduled && !m.Date.Before(now)
		})
		slices.SortStableFunc(out, func(a, b model.Meeting) int { return a.Date.Compare(b.Date) })
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	})
}

// GetMeetingByID returns one meeting.
func (b *Backend) GetMeetingByID(ctx context.Context, id string) envelope.Response[model.Meeting] {
	return run(ctx, b, "GetMeetingByID", "Meeting retrieved successfully", func() (model.Meeting, error) {
		return get(b.st.Meetings, id)
	})
}

// CreateMeeting schedules a meeting and notifies active parents.
func (b *Backend) CreateMeeting(ctx context.Context, createdBy string, in MeetingInput) envelope.Response[model.Meeting] {
	return run(ctx, b, "CreateMeeting", "Meeting created successfully", func() (model.Meeting, error) {
		in.Title = strings.TrimSpace(in.Title)
		if err := b.validate.Struct(in); err != nil {
			return model.Meeting{}, err
		}
		now := b.st.Now()
		m := model.Meeting{
			ID:          b.st.NewID(),
			Title:       in.Title,
			Description: in.Description,
			Venue:       in.Venue,
			Date:        in.Date.UTC(),
			Status:      model.MeetingScheduled,
			CreatedBy:   optional(createdBy),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := b.st.Meetings.Insert(m, nil); err != nil {
			return model.Meeting{}, err
		}
		b.notify(ctx, queue.Event{
			Type:       queue.MeetingCreated,
			RefID:      m.ID,
			Recipients: b.activeIDs(model.RoleParent),
			Title:      "New meeting: " + m.Title,
			Body:       fmt.Sprintf("%s at %s", m.Date.Format("Jan 2, 2006 15:04 MST"), m.Venue),
		})
		return m, nil
	})
}

// UpdateMeetingStatus moves a scheduled meeting to completed or cancelled.
// Completed and cancelled meetings keep their status.
func (b *Backend) UpdateMeetingStatus(ctx context.Context, id string, status model.MeetingStatus) envelope.Response[model.Meeting] {
	return run(ctx, b, "UpdateMeetingStatus", "Meeting status updated successfully", func() (model.Meeting, error) {
		if !status.Valid() {
			return model.Meeting{}, envelope.Invalid("unknown meeting status", map[string]string{"status": "oneof"})
		}
		return update(b.st.Meetings, id, func(m *model.Meeting) error {
			if m.Status == status {
				return nil
			}
			if m.Status != model.MeetingScheduled {
				return envelope.Conflict("meeting is already %s", m.Status)
			}
			m.Status = status
			m.UpdatedAt = b.st.Now()
			return nil
		})
	})
}

// AttendanceMark is a recorded mark and whether the call created it.
type AttendanceMark struct {
	model.Attendance
	Created bool `json:"created"`
}

// RecordAttendance marks a parent for a meeting. Marking the same pair again
// updates the existing record and reports Created false.
func (b *Backend) RecordAttendance(ctx context.Context, meetingID, parentID string, status model.AttendanceStatus, recordedBy string) envelope.Response[AttendanceMark] {
	resp := run(ctx, b, "RecordAttendance", "Attendance recorded successfully", func() (AttendanceMark, error) {
		mark, created, err := b.attendance.Record(ctx, meetingID, parentID, status, recordedBy)
		return AttendanceMark{Attendance: mark, Created: created}, err
	})
	if resp.Success && !resp.Data.Created {
		resp.Message = "Attendance updated successfully"
	}
	return resp
}

// GetMeetingAttendance returns the roll call for one meeting.
func (b *Backend) GetMeetingAttendance(ctx context.Context, meetingID string) envelope.Response[attendance.MeetingReport] {
	return run(ctx, b, "GetMeetingAttendance", "Meeting attendance retrieved successfully", func() (attendance.MeetingReport, error) {
		return b.attendance.ForMeeting(ctx, meetingID)
	})
}

// GetMyAttendance returns the parent's attendance history and rate.
func (b *Backend) GetMyAttendance(ctx context.Context, parentID string) envelope.Response[attendance.ParentReport] {
	return run(ctx, b, "GetMyAttendance", "Attendance retrieved successfully", func() (attendance.ParentReport, error) {
		return b.attendance.ForParent(ctx, parentID)
	})
}
