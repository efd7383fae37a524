// Package rules derives attendance, financial and clearance figures from the
// collections. Every figure is recomputed from current data on each call.
package rules

import (
	"math"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
)

// Policy holds the association's configurable thresholds.
type Policy struct {
	MinAttendanceRate       int     `yaml:"minAttendanceRate"`
	RequiredAmount          float64 `yaml:"requiredAmount"`
	PenaltyPerAbsence       float64 `yaml:"penaltyPerAbsence"`
	MultiChildDiscount      float64 `yaml:"multiChildDiscount"`
	ApplyMultiChildDiscount bool    `yaml:"applyMultiChildDiscount"`
}

// DefaultPolicy mirrors the association's published requirements.
func DefaultPolicy() Policy {
	return Policy{
		MinAttendanceRate:  80,
		RequiredAmount:     2500,
		PenaltyPerAbsence:  50,
		MultiChildDiscount: 0.10,
	}
}

// RequiredFor is the contribution a parent with the given number of children owes.
func (p Policy) RequiredFor(children int) float64 {
	if p.ApplyMultiChildDiscount && children > 1 && p.MultiChildDiscount > 0 && p.MultiChildDiscount < 1 {
		return Money(p.RequiredAmount * (1 - p.MultiChildDiscount))
	}
	return Money(p.RequiredAmount)
}

// Money rounds to whole cents.
func Money(v float64) float64 {
	return math.Round(v*100) / 100
}

// AttendanceRate is round(attended/total*100) with halves rounded up, or 0
// when there is nothing to count.
func AttendanceRate(attended, total int) int {
	if total <= 0 {
		return 0
	}
	attended = min(max(attended, 0), total)
	return (attended*200 + total) / (2 * total)
}

// AttendanceSummary is a parent's attendance record reduced to counts.
type AttendanceSummary struct {
	Total    int     `json:"total"`
	Attended int     `json:"attended"`
	Absences int     `json:"absences"`
	Rate     int     `json:"rate"`
	Penalty  float64 `json:"penalty"`
}

// SummarizeAttendance counts records whose meeting still exists. Records that
// point at a missing meeting are skipped.
func SummarizeAttendance(p Policy, records []model.Attendance, meetingExists func(id string) bool) AttendanceSummary {
	var s AttendanceSummary
	for _, r := range records {
		if meetingExists != nil && !meetingExists(r.MeetingID) {
			continue
		}
		s.Total++
		if r.IsPresent {
			s.Attended++
		}
	}
	s.Absences = s.Total - s.Attended
	s.Rate = AttendanceRate(s.Attended, s.Total)
	s.Penalty = Money(float64(s.Absences) * p.PenaltyPerAbsence)
	return s
}

// Balance is a parent's financial standing.
type Balance struct {
	TotalPaid           float64         `json:"totalPaid"`
	Outstanding         float64         `json:"outstanding"`
	PendingVerification float64         `json:"pendingVerification"`
	TotalRequired       float64         `json:"totalRequired"`
	Children            []model.Student `json:"children"`
}

// ComputeBalance sums verified and unverified contributions against the
// required amount. Outstanding never goes below zero.
func ComputeBalance(p Policy, contributions []model.Contribution, children []model.Student) Balance {
	var paid, pending float64
	for _, c := range contributions {
		if c.IsVerified {
			paid += c.Amount
		} else {
			pending += c.Amount
		}
	}
	if children == nil {
		children = []model.Student{}
	}
	required := p.RequiredFor(len(children))
	return Balance{
		TotalPaid:           Money(paid),
		PendingVerification: Money(pending),
		TotalRequired:       required,
		Outstanding:         Money(max(0, required-paid)),
		Children:            children,
	}
}

// Eligibility is the clearance verdict with the figures that produced it.
type Eligibility struct {
	Eligible      bool
	AttendanceMet bool
	FinancialMet  bool
	Attendance    AttendanceSummary
	Balance       Balance
}

// Evaluate applies the clearance criteria: attendance at or above the
// minimum rate and nothing outstanding.
func Evaluate(p Policy, att AttendanceSummary, bal Balance) Eligibility {
	attMet := att.Rate >= p.MinAttendanceRate
	finMet := bal.Outstanding == 0
	return Eligibility{
		Eligible:      attMet && finMet,
		AttendanceMet: attMet,
		FinancialMet:  finMet,
		Attendance:    att,
		Balance:       bal,
	}
}
