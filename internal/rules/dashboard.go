package rules

import (
	"time"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
)

// DashboardStats is the administrator overview.
type DashboardStats struct {
	TotalUsers           int     `json:"totalUsers"`
	ActiveUsers          int     `json:"activeUsers"`
	TotalParents         int     `json:"totalParents"`
	TotalStudents        int     `json:"totalStudents"`
	ActiveStudents       int     `json:"activeStudents"`
	TotalMeetings        int     `json:"totalMeetings"`
	UpcomingMeetings     int     `json:"upcomingMeetings"`
	TotalContributions   float64 `json:"totalContributions"`
	PendingContributions float64 `json:"pendingContributions"`
	ActiveAnnouncements  int     `json:"activeAnnouncements"`
	ActiveProjects       int     `json:"activeProjects"`
	PendingClearances    int     `json:"pendingClearances"`
}

// Snapshot is the set of collections the dashboard reduces over.
type Snapshot struct {
	Users         []model.User
	Students      []model.Student
	Meetings      []model.Meeting
	Contributions []model.Contribution
	Announcements []model.Announcement
	Projects      []model.Project
	Clearances    []model.ClearanceRequest
}

// Dashboard reduces each collection in a single pass.
func Dashboard(s Snapshot, now time.Time) DashboardStats {
	var d DashboardStats
	for _, u := range s.Users {
		d.TotalUsers++
		if u.IsActive {
			d.ActiveUsers++
		}
		if u.Role == model.RoleParent {
			d.TotalParents++
		}
	}
	for _, st := range s.Students {
		d.TotalStudents++
		if st.Status == model.StudentActive {
			d.ActiveStudents++
		}
	}
	for _, m := range s.Meetings {
		d.TotalMeetings++
		if m.Status == model.MeetingScheduled && !m.Date.Before(now) {
			d.UpcomingMeetings++
		}
	}
	var paid, pending float64
	for _, c := range s.Contributions {
		if c.IsVerified {
			paid += c.Amount
		} else {
			pending += c.Amount
		}
	}
	d.TotalContributions = Money(paid)
	d.PendingContributions = Money(pending)
	for _, a := range s.Announcements {
		if a.ActiveAt(now) {
			d.ActiveAnnouncements++
		}
	}
	for _, p := range s.Projects {
		if p.Status.Running() {
			d.ActiveProjects++
		}
	}
	for _, c := range s.Clearances {
		if c.Status == model.ClearancePending {
			d.PendingClearances++
		}
	}
	return d
}
