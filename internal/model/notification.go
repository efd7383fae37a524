package model

import "time"

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID        string     `json:"id" yaml:"id"`
	UserID    string     `json:"userId" yaml:"userId"`
	Kind      string     `json:"kind" yaml:"kind"`
	Title     string     `json:"title" yaml:"title"`
	Body      string     `json:"body,omitempty" yaml:"body"`
	RefID     string     `json:"refId,omitempty" yaml:"refId"`
	ReadAt    *time.Time `json:"readAt,omitempty" yaml:"readAt"`
	CreatedAt time.Time  `json:"createdAt" yaml:"createdAt"`
}

// IsRead reports whether the recipient has opened the notification.
func (n Notification) IsRead() bool { return n.ReadAt != nil }

// Document is metadata for an uploaded file; the bytes live in blob storage.
type Document struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	BlobKey     string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}
