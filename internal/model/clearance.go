package model

import "time"

// ClearanceStatus is the review state of a clearance request.
type ClearanceStatus string

const (
	ClearancePending    ClearanceStatus = "pending"
	ClearanceApproved   ClearanceStatus = "approved"
	ClearanceRejected   ClearanceStatus = "rejected"
	ClearanceIncomplete ClearanceStatus = "incomplete"
)

// Terminal reports whether no further transition is allowed.
func (s ClearanceStatus) Terminal() bool {
	return s == ClearanceApproved || s == ClearanceRejected
}

// ClearanceRequest asks administrators to sign off a parent's obligations.
type ClearanceRequest struct {
	ID         string          `json:"id" yaml:"id"`
	ParentID   string          `json:"parentId" yaml:"parentId"`
	StudentID  *string         `json:"studentId,omitempty" yaml:"studentId"`
	Purpose    string          `json:"purpose,omitempty" yaml:"purpose"`
	Status     ClearanceStatus `json:"status" yaml:"status"`
	Remarks    *string         `json:"remarks,omitempty" yaml:"remarks"`
	ReviewedBy *string         `json:"reviewedBy,omitempty" yaml:"reviewedBy"`
	ReviewedAt *time.Time      `json:"reviewedAt,omitempty" yaml:"reviewedAt"`
	CreatedAt  time.Time       `json:"createdAt" yaml:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt" yaml:"updatedAt"`
}
