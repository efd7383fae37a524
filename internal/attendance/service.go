package attendance

import (
	"context"
	"slices"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/rules"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/store"
)

// Service coordinates attendance recording and deduplication.
type Service struct {
	repo   *Repository
	st     *store.Store
	policy rules.Policy
}

// NewService creates a service backed by a repository.
func NewService(st *store.Store, policy rules.Policy) *Service {
	return &Service{repo: NewRepository(st), st: st, policy: policy}
}

// Record marks a parent's attendance for a meeting. A second mark for the
// same pair updates the first instead of adding a duplicate; created reports
// which happened.
func (s *Service) Record(ctx context.Context, meetingID, parentID string, status model.AttendanceStatus, recordedBy string) (mark model.Attendance, created bool, err error) {
	if meetingID == "" || parentID == "" {
		return model.Attendance{}, false, envelope.Invalid("meeting and parent required", map[string]string{"meetingId": "required", "parentId": "required"})
	}
	if !status.Valid() {
		return model.Attendance{}, false, envelope.Invalid("unknown attendance status", map[string]string{"status": "oneof"})
	}
	meeting, err := s.st.Meetings.Get(meetingID)
	if err != nil {
		return model.Attendance{}, false, envelope.NotFound("meeting", meetingID)
	}
	if meeting.Status == model.MeetingCancelled {
		return model.Attendance{}, false, envelope.Conflict("meeting %s was cancelled", meeting.Title)
	}
	parent, err := s.st.Users.Get(parentID)
	if err != nil {
		return model.Attendance{}, false, envelope.NotFound("user", parentID)
	}
	if parent.Role != model.RoleParent {
		return model.Attendance{}, false, envelope.Invalid("attendance is only tracked for parents", map[string]string{"parentId": "role"})
	}

	var by *string
	if recordedBy != "" {
		by = &recordedBy
	}

	if recent, ok := s.repo.Find(meetingID, parentID); ok {
		mark, err := s.repo.UpdateStatus(recent.ID, status, by)
		return mark, false, err
	}
	mark, err = s.repo.Insert(model.Attendance{
		MeetingID:  meetingID,
		ParentID:   parentID,
		Status:     status,
		IsPresent:  status.Present(),
		RecordedBy: by,
	})
	if isConflict(err) {
		// Lost a race with another writer for the same pair; last write wins.
		if recent, ok := s.repo.Find(meetingID, parentID); ok {
			mark, err := s.repo.UpdateStatus(recent.ID, status, by)
			return mark, false, err
		}
	}
	if err != nil {
		return model.Attendance{}, false, wrap("record attendance", err)
	}
	return mark, true, nil
}

// MeetingReport is the roll call for one meeting.
type MeetingReport struct {
	Meeting    model.Meeting      `json:"meeting"`
	Attendance []model.Attendance `json:"attendance"`
	Present    int                `json:"present"`
	Absent     int                `json:"absent"`
	Rate       int                `json:"rate"`
}

// ForMeeting builds the roll call for meetingID.
func (s *Service) ForMeeting(ctx context.Context, meetingID string) (MeetingReport, error) {
	meeting, err := s.st.Meetings.Get(meetingID)
	if err != nil {
		return MeetingReport{}, envelope.NotFound("meeting", meetingID)
	}
	marks := s.repo.ForMeeting(meetingID)
	rep := MeetingReport{Meeting: meeting, Attendance: marks}
	for _, m := range marks {
		if m.IsPresent {
			rep.Present++
		} else {
			rep.Absent++
		}
	}
	rep.Rate = rules.AttendanceRate(rep.Present, len(marks))
	return rep, nil
}

// ParentReport is a parent's attendance history and standing.
type ParentReport struct {
	Attendance     []model.Attendance `json:"attendance"`
	Total          int                `json:"total"`
	Attended       int                `json:"attended"`
	Rate           int                `json:"rate"`
	Penalty        float64            `json:"penalty"`
	RecentMeetings []model.Meeting    `json:"recentMeetings"`
}

// recentMeetingLimit caps ParentReport.RecentMeetings.
const recentMeetingLimit = 5

// ForParent summarizes parentID's attendance. Marks pointing at meetings that
// no longer exist are left out of both the list and the figures.
func (s *Service) ForParent(ctx context.Context, parentID string) (ParentReport, error) {
	if _, err := s.st.Users.Get(parentID); err != nil {
		return ParentReport{}, envelope.NotFound("user", parentID)
	}
	marks := slices.DeleteFunc(s.repo.ForParent(parentID), func(a model.Attendance) bool {
		return !s.repo.MeetingExists(a.MeetingID)
	})
	sum := s.Summary(parentID)

	recent := s.st.Meetings.Where(func(m model.Meeting) bool { return m.Status == model.MeetingCompleted })
	slices.SortStableFunc(recent, func(a, b model.Meeting) int { return b.Date.Compare(a.Date) })
	if len(recent) > recentMeetingLimit {
		recent = recent[:recentMeetingLimit]
	}

	return ParentReport{
		Attendance:     marks,
		Total:          sum.Total,
		Attended:       sum.Attended,
		Rate:           sum.Rate,
		Penalty:        sum.Penalty,
		RecentMeetings: recent,
	}, nil
}

// Summary reduces parentID's marks to the figures the rules engine uses.
func (s *Service) Summary(parentID string) rules.AttendanceSummary {
	return rules.SummarizeAttendance(s.policy, s.repo.ForParent(parentID), s.repo.MeetingExists)
}
