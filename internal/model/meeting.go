package model

import "time"

// MeetingStatus is the lifecycle state of a general assembly or meeting.
type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "scheduled"
	MeetingCompleted MeetingStatus = "completed"
	MeetingCancelled MeetingStatus = "cancelled"
)

// Valid reports whether s is a known meeting status.
func (s MeetingStatus) Valid() bool {
	return s == MeetingScheduled || s == MeetingCompleted || s == MeetingCancelled
}

// Meeting is a scheduled association meeting whose attendance is tracked.
type Meeting struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description,omitempty" yaml:"description"`
	Venue       string        `json:"venue,omitempty" yaml:"venue"`
	Date        time.Time     `json:"date" yaml:"date"`
	Status      MeetingStatus `json:"status" yaml:"status"`
	CreatedBy   *string       `json:"createdBy,omitempty" yaml:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" yaml:"updatedAt"`
}

// AttendanceStatus records how a parent attended a meeting.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// Valid reports whether s is a known attendance status.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// Present reports whether the status counts as attended. Late arrivals count.
func (s AttendanceStatus) Present() bool {
	return s == AttendancePresent || s == AttendanceLate
}

// Attendance is one parent's attendance mark for one meeting.
type Attendance struct {
	ID         string           `json:"id" yaml:"id"`
	MeetingID  string           `json:"meetingId" yaml:"meetingId"`
	ParentID   string           `json:"parentId" yaml:"parentId"`
	IsPresent  bool             `json:"isPresent" yaml:"isPresent"`
	Status     AttendanceStatus `json:"status" yaml:"status"`
	RecordedBy *string          `json:"recordedBy,omitempty" yaml:"recordedBy"`
	RecordedAt time.Time        `json:"recordedAt" yaml:"recordedAt"`
}
