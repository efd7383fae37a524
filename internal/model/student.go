package model

import "time"

// StudentStatus is the enrollment state of a student.
type StudentStatus string

const (
	StudentActive      StudentStatus = "active"
	StudentInactive    StudentStatus = "inactive"
	StudentGraduated   StudentStatus = "graduated"
	StudentTransferred StudentStatus = "transferred"
)

// Valid reports whether s is a known student status.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentActive, StudentInactive, StudentGraduated, StudentTransferred:
		return true
	}
	return false
}

// Student is a learner enrolled in the school, optionally linked to one parent.
type Student struct {
	ID         string        `json:"id" yaml:"id"`
	StudentID  string        `json:"studentId" yaml:"studentId"` // school-issued number
	FirstName  string        `json:"firstName" yaml:"firstName"`
	LastName   string        `json:"lastName" yaml:"lastName"`
	ParentID   *string       `json:"parentId,omitempty" yaml:"parentId"`
	GradeLevel string        `json:"gradeLevel" yaml:"gradeLevel"`
	Section    string        `json:"section" yaml:"section"`
	Status     StudentStatus `json:"status" yaml:"status"`
	CreatedAt  time.Time     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt" yaml:"updatedAt"`
}

// HasParent reports whether the student is linked to parentID.
func (s Student) HasParent(parentID string) bool {
	return s.ParentID != nil && *s.ParentID == parentID
}
