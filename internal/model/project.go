package model

import (
	"slices"
	"time"
)

// ProjectStatus is the lifecycle state of an association project.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectActive     ProjectStatus = "active"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectInProgress, ProjectCompleted:
		return true
	}
	return false
}

// Running reports whether the project is underway.
func (s ProjectStatus) Running() bool {
	return s == ProjectActive || s == ProjectInProgress
}

// Project is a fundraising or volunteer project parents can join.
type Project struct {
	ID           string        `json:"id" yaml:"id"`
	Title        string        `json:"title" yaml:"title"`
	Description  string        `json:"description,omitempty" yaml:"description"`
	Status       ProjectStatus `json:"status" yaml:"status"`
	Budget       float64       `json:"budget" yaml:"budget"`
	StartDate    *time.Time    `json:"startDate,omitempty" yaml:"startDate"`
	EndDate      *time.Time    `json:"endDate,omitempty" yaml:"endDate"`
	Participants []string      `json:"participants" yaml:"participants"`
	CreatedBy    *string       `json:"createdBy,omitempty" yaml:"createdBy"`
	CreatedAt    time.Time     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt" yaml:"updatedAt"`
}

// Clone copies the participant set so the copy can be mutated independently.
func (p Project) Clone() Project {
	cp := p
	cp.Participants = slices.Clone(p.Participants)
	if cp.Participants == nil {
		cp.Participants = []string{}
	}
	return cp
}

// HasParticipant reports whether parentID joined the project.
func (p Project) HasParticipant(parentID string) bool {
	return slices.Contains(p.Participants, parentID)
}
