package backend

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/queue"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/rules"
)

// AttendanceStanding is the attendance half of a clearance check.
type AttendanceStanding struct {
	Rate     int  `json:"rate"`
	Attended int  `json:"attended"`
	Total    int  `json:"total"`
	Met      bool `json:"met"`
	Required int  `json:"required"`
}

// FinancialStanding is the contribution half of a clearance check.
type FinancialStanding struct {
	TotalPaid     float64 `json:"totalPaid"`
	TotalRequired float64 `json:"totalRequired"`
	Outstanding   float64 `json:"outstanding"`
	Met           bool    `json:"met"`
}

// ClearanceStatus is a parent's current clearance position.
type ClearanceStatus struct {
	IsCleared     bool                    `json:"isCleared"`
	IsEligible    bool                    `json:"isEligible"`
	Attendance    AttendanceStanding      `json:"attendance"`
	Financial     FinancialStanding       `json:"financial"`
	Penalty       float64                 `json:"penalty"`
	LatestRequest *model.ClearanceRequest `json:"latestRequest"`
}

// GetAllClearanceRequests lists requests; filters: status, parentId, studentId.
func (b *Backend) GetAllClearanceRequests(ctx context.Context, p query.Params) envelope.Response[envelope.List[model.ClearanceRequest]] {
	return run(ctx, b, "GetAllClearanceRequests", "Clearance requests retrieved successfully", func() (envelope.List[model.ClearanceRequest], error) {
		return list("requests", clearanceQuery, b.st.Clearances.All(), p)
	})
}

// RequestClearance files a request. It is pending review when the parent
// currently qualifies and incomplete otherwise. A parent may have only one
// pending request.
func (b *Backend) RequestClearance(ctx context.Context, parentID string, studentID *string, purpose string) envelope.Response[model.ClearanceRequest] {
	return run(ctx, b, "RequestClearance", "Clearance request submitted successfully", func() (model.ClearanceRequest, error) {
		purpose = strings.TrimSpace(purpose)
		if purpose == "" {
			return model.ClearanceRequest{}, envelope.Invalid("purpose is required", map[string]string{"purpose": "required"})
		}
		if _, err := b.parent(parentID); err != nil {
			return model.ClearanceRequest{}, err
		}
		studentID = optional(deref(studentID))
		if studentID != nil {
			s, err := get(b.st.Students, *studentID)
			if err != nil {
				return model.ClearanceRequest{}, err
			}
			if !s.HasParent(parentID) {
				return model.ClearanceRequest{}, envelope.Invalid("student is not linked to this parent", map[string]string{"studentId": "parent"})
			}
		}

		el := b.eligibility(parentID)
		now := b.st.Now()
		req := model.ClearanceRequest{
			ID:        b.st.NewID(),
			ParentID:  parentID,
			StudentID: studentID,
			Purpose:   purpose,
			Status:    model.ClearancePending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if !el.Eligible {
			req.Status = model.ClearanceIncomplete
			req.Remarks = ptr(shortfall(b.policy, el))
		}
		err := b.st.Clearances.Insert(req, func(existing model.ClearanceRequest) bool {
			return existing.ParentID == parentID && existing.Status == model.ClearancePending
		})
		if err != nil {
			return model.ClearanceRequest{}, envelope.Conflict("a clearance request is already pending review")
		}
		return req, nil
	})
}

// shortfall explains why a parent does not qualify.
func shortfall(p rules.Policy, el rules.Eligibility) string {
	var reasons []string
	if !el.AttendanceMet {
		reasons = append(reasons, fmt.Sprintf("attendance rate %d%% is below the required %d%%", el.Attendance.Rate, p.MinAttendanceRate))
	}
	if !el.FinancialMet {
		reasons = append(reasons, fmt.Sprintf("outstanding balance of %.2f", el.Balance.Outstanding))
	}
	return strings.Join(reasons, "; ")
}

// ApproveClearance approves a pending request if the parent still qualifies.
func (b *Backend) ApproveClearance(ctx context.Context, id, reviewerID, remarks string) envelope.Response[model.ClearanceRequest] {
	return run(ctx, b, "ApproveClearance", "Clearance approved successfully", func() (model.ClearanceRequest, error) {
		req, err := get(b.st.Clearances, id)
		if err != nil {
			return model.ClearanceRequest{}, err
		}
		if el := b.eligibility(req.ParentID); !el.Eligible {
			return model.ClearanceRequest{}, envelope.Conflict("parent no longer meets clearance requirements: %s", shortfall(b.policy, el))
		}
		return b.review(ctx, id, model.ClearanceApproved, reviewerID, remarks)
	})
}

// RejectClearance rejects a pending request.
func (b *Backend) RejectClearance(ctx context.Context, id, reviewerID, remarks string) envelope.Response[model.ClearanceRequest] {
	return run(ctx, b, "RejectClearance", "Clearance rejected", func() (model.ClearanceRequest, error) {
		return b.review(ctx, id, model.ClearanceRejected, reviewerID, remarks)
	})
}

func (b *Backend) review(ctx context.Context, id string, to model.ClearanceStatus, reviewerID, remarks string) (model.ClearanceRequest, error) {
	req, err := update(b.st.Clearances, id, func(r *model.ClearanceRequest) error {
		if err := b.clearances.Check(rules.ClearanceTransition{From: r.Status, To: to}); err != nil {
			return envelope.Conflict("%s", err.Error())
		}
		now := b.st.Now()
		r.Status = to
		r.ReviewedBy = optional(reviewerID)
		r.ReviewedAt = &now
		if rm := optional(remarks); rm != nil {
			r.Remarks = rm
		}
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return model.ClearanceRequest{}, err
	}
	evt := queue.Event{Type: queue.ClearanceApproved, RefID: req.ID, Recipients: []string{req.ParentID}, Title: "Clearance approved"}
	if to == model.ClearanceRejected {
		evt.Type, evt.Title = queue.ClearanceRejected, "Clearance rejected"
	}
	evt.Body = deref(req.Remarks)
	b.notify(ctx, evt)
	return req, nil
}

// GetMyClearanceStatus recomputes the parent's eligibility and reports the
// latest request.
func (b *Backend) GetMyClearanceStatus(ctx context.Context, parentID string) envelope.Response[ClearanceStatus] {
	return run(ctx, b, "GetMyClearanceStatus", "Clearance status retrieved successfully", func() (ClearanceStatus, error) {
		if _, err := get(b.st.Users, parentID); err != nil {
			return ClearanceStatus{}, err
		}
		el := b.eligibility(parentID)
		out := ClearanceStatus{
			IsEligible: el.Eligible,
			Attendance: AttendanceStanding{
				Rate:     el.Attendance.Rate,
				Attended: el.Attendance.Attended,
				Total:    el.Attendance.Total,
				Met:      el.AttendanceMet,
				Required: b.policy.MinAttendanceRate,
			},
			Financial: FinancialStanding{
				TotalPaid:     el.Balance.TotalPaid,
				TotalRequired: el.Balance.TotalRequired,
				Outstanding:   el.Balance.Outstanding,
				Met:           el.FinancialMet,
			},
			Penalty: el.Attendance.Penalty,
		}
		for _, r := range b.st.Clearances.Where(func(r model.ClearanceRequest) bool { return r.ParentID == parentID }) {
			if out.LatestRequest == nil || !r.CreatedAt.Before(out.LatestRequest.CreatedAt) {
				out.LatestRequest = ptr(r)
			}
		}
		out.IsCleared = out.LatestRequest != nil && out.LatestRequest.Status == model.ClearanceApproved
		return out, nil
	})
}

// GenerateClearanceCertificate renders a plain-text certificate for an approved request.
func (b *Backend) GenerateClearanceCertificate(ctx context.Context, id string) envelope.Response[envelope.Binary] {
	return run(ctx, b, "GenerateClearanceCertificate", "Certificate generated successfully", func() (envelope.Binary, error) {
		req, err := get(b.st.Clearances, id)
		if err != nil {
			return envelope.Binary{}, err
		}
		if req.Status != model.ClearanceApproved {
			return envelope.Binary{}, envelope.Conflict("clearance request is %s, not approved", req.Status)
		}
		parent, err := get(b.st.Users, req.ParentID)
		if err != nil {
			return envelope.Binary{}, err
		}

		var buf bytes.Buffer
		fmt.Fprintln(&buf, "PARENT-TEACHER ASSOCIATION")
		fmt.Fprintln(&buf, "CERTIFICATE OF CLEARANCE")
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "This certifies that %s (%s) has met all attendance and\n", parent.FullName(), parent.Email)
		fmt.Fprintln(&buf, "financial obligations to the association.")
		fmt.Fprintln(&buf)
		if req.StudentID != nil {
			if s, err := b.st.Students.Get(*req.StudentID); err == nil {
				fmt.Fprintf(&buf, "Student:   %s %s (%s), Grade %s %s\n", s.FirstName, s.LastName, s.StudentID, s.GradeLevel, s.Section)
			}
		}
		fmt.Fprintf(&buf, "Purpose:   %s\n", req.Purpose)
		if req.ReviewedAt != nil {
			fmt.Fprintf(&buf, "Approved:  %s\n", req.ReviewedAt.Format("January 2, 2006"))
		}
		fmt.Fprintf(&buf, "Reference: %s\n", req.ID)

		return envelope.Binary{
			Name:        fmt.Sprintf("clearance-%s.txt", req.ID),
			ContentType: "text/plain; charset=utf-8",
			Data:        buf.Bytes(),
		}, nil
	})
}
