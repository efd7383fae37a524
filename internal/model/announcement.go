package model

import "time"

// Priority orders announcements; urgent sorts first.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityUrgent || p == PriorityHigh || p == PriorityNormal
}

// Rank is 0 for the most pressing priority.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	default:
		return 2
	}
}

// PublishStatus is the editorial state of an announcement.
type PublishStatus string

const (
	StatusDraft     PublishStatus = "draft"
	StatusPublished PublishStatus = "published"
)

// Announcement is a notice broadcast to association members.
type Announcement struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Content     string        `json:"content" yaml:"content"`
	Priority    Priority      `json:"priority" yaml:"priority"`
	PublishDate *time.Time    `json:"publishDate,omitempty" yaml:"publishDate"`
	ExpiryDate  *time.Time    `json:"expiryDate,omitempty" yaml:"expiryDate"`
	Status      PublishStatus `json:"status" yaml:"status"`
	IsFeatured  bool          `json:"isFeatured" yaml:"isFeatured"`
	IsArchived  bool          `json:"isArchived" yaml:"isArchived"`
	CreatedBy   *string       `json:"createdBy,omitempty" yaml:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" yaml:"updatedAt"`
}

// ActiveAt reports whether the announcement is visible to members at now.
func (a Announcement) ActiveAt(now time.Time) bool {
	if a.Status != StatusPublished || a.IsArchived {
		return false
	}
	if a.PublishDate != nil && a.PublishDate.After(now) {
		return false
	}
	if a.ExpiryDate != nil && a.ExpiryDate.Before(now) {
		return false
	}
	return true
}

// AnnouncementRead marks that a user has read an announcement.
type AnnouncementRead struct {
	AnnouncementID string    `json:"announcementId"`
	UserID         string    `json:"userId"`
	ReadAt         time.Time `json:"readAt"`
}

// Key identifies the (announcement, user) pair.
func (r AnnouncementRead) Key() string {
	return ReadKey(r.AnnouncementID, r.UserID)
}

// ReadKey builds the composite key for a read marker.
func ReadKey(announcementID, userID string) string {
	return announcementID + ":" + userID
}
