package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
)

// Store holds every collection the backend operates on. It is built once
// and passed to whatever needs it; there is no package-level instance.
type Store struct {
	Users         *Table[model.User]
	Students      *Table[model.Student]
	Meetings      *Table[model.Meeting]
	Attendance    *Table[model.Attendance]
	Contributions *Table[model.Contribution]
	Announcements *Table[model.Announcement]
	Reads         *Table[model.AnnouncementRead]
	Projects      *Table[model.Project]
	Clearances    *Table[model.ClearanceRequest]
	Notifications *Table[model.Notification]
	Documents     *Table[model.Document]

	now          func() time.Time
	passwordCost int
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPasswordCost sets the bcrypt cost used when seeding fixture passwords.
func WithPasswordCost(cost int) Option {
	return func(s *Store) { s.passwordCost = cost }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		Users:         NewTable("user", func(u model.User) string { return u.ID }, nil),
		Students:      NewTable("student", func(st model.Student) string { return st.ID }, nil),
		Meetings:      NewTable("meeting", func(m model.Meeting) string { return m.ID }, nil),
		Attendance:    NewTable("attendance", func(a model.Attendance) string { return a.ID }, nil),
		Contributions: NewTable("contribution", func(c model.Contribution) string { return c.ID }, nil),
		Announcements: NewTable("announcement", func(a model.Announcement) string { return a.ID }, nil),
		Reads:         NewTable("announcement read", model.AnnouncementRead.Key, nil),
		Projects:      NewTable("project", func(p model.Project) string { return p.ID }, model.Project.Clone),
		Clearances:    NewTable("clearance request", func(c model.ClearanceRequest) string { return c.ID }, nil),
		Notifications: NewTable("notification", func(n model.Notification) string { return n.ID }, nil),
		Documents:     NewTable("document", func(d model.Document) string { return d.ID }, nil),
		now:           time.Now,
		passwordCost:  defaultPasswordCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store clock in UTC.
func (s *Store) Now() time.Time {
	return s.now().UTC()
}

// NewID returns a time-ordered identifier.
func (s *Store) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ChildrenOf lists the students linked to parentID.
func (s *Store) ChildrenOf(parentID string) []model.Student {
	return s.Students.Where(func(st model.Student) bool { return st.HasParent(parentID) })
}

// UserByEmail finds a user by case-insensitive email.
func (s *Store) UserByEmail(email string) (model.User, bool) {
	want := model.NormalizeEmail(email)
	return s.Users.Find(func(u model.User) bool { return model.NormalizeEmail(u.Email) == want })
}
