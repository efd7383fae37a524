package attendance

import (
	"errors"
	"fmt"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/store"
)

// Repository reads and writes attendance marks in the store.
type Repository struct {
	st *store.Store
}

// NewRepository creates a repo.
func NewRepository(st *store.Store) *Repository {
	return &Repository{st: st}
}

// Find returns the mark for a (meeting, parent) pair.
func (r *Repository) Find(meetingID, parentID string) (model.Attendance, bool) {
	return r.st.Attendance.Find(samePair(meetingID, parentID))
}

// ForMeeting lists marks recorded for a meeting.
func (r *Repository) ForMeeting(meetingID string) []model.Attendance {
	return r.st.Attendance.Where(func(a model.Attendance) bool { return a.MeetingID == meetingID })
}

// ForParent lists a parent's marks.
func (r *Repository) ForParent(parentID string) []model.Attendance {
	return r.st.Attendance.Where(func(a model.Attendance) bool { return a.ParentID == parentID })
}

// Insert writes a new mark unless the pair already has one, in which case
// store.ErrConflict is returned.
func (r *Repository) Insert(a model.Attendance) (model.Attendance, error) {
	if a.ID == "" {
		a.ID = r.st.NewID()
	}
	if a.RecordedAt.IsZero() {
		a.RecordedAt = r.st.Now()
	}
	if err := r.st.Attendance.Insert(a, samePair(a.MeetingID, a.ParentID)); err != nil {
		return model.Attendance{}, err
	}
	return a, nil
}

// UpdateStatus overwrites the status of an existing mark.
func (r *Repository) UpdateStatus(id string, status model.AttendanceStatus, recordedBy *string) (model.Attendance, error) {
	return r.st.Attendance.Update(id, func(a *model.Attendance) error {
		a.Status = status
		a.IsPresent = status.Present()
		a.RecordedBy = recordedBy
		a.RecordedAt = r.st.Now()
		return nil
	})
}

// MeetingExists reports whether the meeting is still in the store.
func (r *Repository) MeetingExists(id string) bool {
	return r.st.Meetings.Has(id)
}

func samePair(meetingID, parentID string) func(model.Attendance) bool {
	return func(a model.Attendance) bool { return a.MeetingID == meetingID && a.ParentID == parentID }
}

func isConflict(err error) bool {
	return errors.Is(err, store.ErrConflict)
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
