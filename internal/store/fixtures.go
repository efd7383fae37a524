package store

import (
	_ "embed"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
)

const defaultPasswordCost = bcrypt.DefaultCost

//go:embed fixtures/seed.yaml
var seedYAML []byte

// UserFixture is a user record with a plaintext password that is hashed at load.
type UserFixture struct {
	model.User `yaml:",inline"`
	Password   string `json:"password" yaml:"password"`
}

// Fixtures is the static data set a store is built from. Dates are written
// relative to Anchor and shifted so that Anchor lands on the load time.
type Fixtures struct {
	Anchor        *time.Time               `json:"anchor,omitempty" yaml:"anchor"`
	Users         []UserFixture            `json:"users" yaml:"users"`
	Students      []model.Student          `json:"students" yaml:"students"`
	Meetings      []model.Meeting          `json:"meetings" yaml:"meetings"`
	Attendance    []model.Attendance       `json:"attendance" yaml:"attendance"`
	Contributions []model.Contribution     `json:"contributions" yaml:"contributions"`
	Announcements []model.Announcement     `json:"announcements" yaml:"announcements"`
	Projects      []model.Project          `json:"projects" yaml:"projects"`
	Clearances    []model.ClearanceRequest `json:"clearances" yaml:"clearances"`
	Notifications []model.Notification     `json:"notifications" yaml:"notifications"`
}

// ParseFixtures decodes a YAML fixture document.
func ParseFixtures(data []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}
	return f, nil
}

// EmbeddedFixtures returns the data set compiled into the binary.
func EmbeddedFixtures() (Fixtures, error) {
	return ParseFixtures(seedYAML)
}

// Seed builds a store from the embedded fixtures.
func Seed(opts ...Option) (*Store, error) {
	f, err := EmbeddedFixtures()
	if err != nil {
		return nil, err
	}
	s := New(opts...)
	if err := s.Load(f); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces every collection with the fixture contents. References are
// checked so aggregations start from a consistent data set.
func (s *Store) Load(f Fixtures) error {
	if f.Anchor != nil {
		f.shift(s.Now().Sub(*f.Anchor))
	}

	users := make([]model.User, len(f.Users))
	for i, uf := range f.Users {
		u := uf.User
		u.Email = model.NormalizeEmail(u.Email)
		if uf.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(uf.Password), s.passwordCost)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", u.Email, err)
			}
			u.PasswordHash = string(hash)
		}
		users[i] = u
	}
	if err := checkRefs(f, users); err != nil {
		return err
	}

	// Every collection is validated before any of them is replaced.
	var (
		commits []func()
		errs    []error
	)
	stage := func(commit func(), err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		commits = append(commits, commit)
	}
	stage(s.Users.stage(users))
	stage(s.Students.stage(f.Students))
	stage(s.Meetings.stage(f.Meetings))
	stage(s.Attendance.stage(f.Attendance))
	stage(s.Contributions.stage(f.Contributions))
	stage(s.Announcements.stage(f.Announcements))
	stage(s.Reads.stage(nil))
	stage(s.Projects.stage(f.Projects))
	stage(s.Clearances.stage(f.Clearances))
	stage(s.Notifications.stage(f.Notifications))
	stage(s.Documents.stage(nil))
	if err := errors.Join(errs...); err != nil {
		return err
	}
	for _, commit := range commits {
		commit()
	}
	return nil
}

func checkRefs(f Fixtures, users []model.User) error {
	userIDs := make(map[string]bool, len(users))
	emails := make(map[string]bool, len(users))
	for _, u := range users {
		userIDs[u.ID] = true
		if emails[u.Email] {
			return fmt.Errorf("fixtures: duplicate email %s", u.Email)
		}
		emails[u.Email] = true
	}
	meetingIDs := make(map[string]bool, len(f.Meetings))
	for _, m := range f.Meetings {
		meetingIDs[m.ID] = true
	}

	var errs []error
	for _, st := range f.Students {
		if st.ParentID != nil && !userIDs[*st.ParentID] {
			errs = append(errs, fmt.Errorf("fixtures: student %s references unknown parent %s", st.ID, *st.ParentID))
		}
	}
	seen := make(map[string]bool, len(f.Attendance))
	for _, a := range f.Attendance {
		if !meetingIDs[a.MeetingID] || !userIDs[a.ParentID] {
			errs = append(errs, fmt.Errorf("fixtures: attendance %s has a dangling reference", a.ID))
		}
		pair := a.MeetingID + "/" + a.ParentID
		if seen[pair] {
			errs = append(errs, fmt.Errorf("fixtures: duplicate attendance for %s", pair))
		}
		seen[pair] = true
	}
	for _, c := range f.Contributions {
		if !userIDs[c.ParentID] {
			errs = append(errs, fmt.Errorf("fixtures: contribution %s references unknown parent %s", c.ID, c.ParentID))
		}
	}
	for _, p := range f.Projects {
		for _, pid := range p.Participants {
			if !userIDs[pid] {
				errs = append(errs, fmt.Errorf("fixtures: project %s has unknown participant %s", p.ID, pid))
			}
		}
	}
	for _, c := range f.Clearances {
		if !userIDs[c.ParentID] {
			errs = append(errs, fmt.Errorf("fixtures: clearance %s references unknown parent %s", c.ID, c.ParentID))
		}
	}
	return errors.Join(errs...)
}

func shiftPtr(t *time.Time, d time.Duration) *time.Time {
	if t == nil {
		return nil
	}
	v := t.Add(d)
	return &v
}

// shift moves every instant in the data set by d.
func (f *Fixtures) shift(d time.Duration) {
	for i := range f.Users {
		u := &f.Users[i]
		u.CreatedAt, u.UpdatedAt = u.CreatedAt.Add(d), u.UpdatedAt.Add(d)
	}
	for i := range f.Students {
		st := &f.Students[i]
		st.CreatedAt, st.UpdatedAt = st.CreatedAt.Add(d), st.UpdatedAt.Add(d)
	}
	for i := range f.Meetings {
		m := &f.Meetings[i]
		m.Date = m.Date.Add(d)
		m.CreatedAt, m.UpdatedAt = m.CreatedAt.Add(d), m.UpdatedAt.Add(d)
	}
	for i := range f.Attendance {
		f.Attendance[i].RecordedAt = f.Attendance[i].RecordedAt.Add(d)
	}
	for i := range f.Contributions {
		c := &f.Contributions[i]
		c.VerifiedAt = shiftPtr(c.VerifiedAt, d)
		c.CreatedAt, c.UpdatedAt = c.CreatedAt.Add(d), c.UpdatedAt.Add(d)
	}
	for i := range f.Announcements {
		a := &f.Announcements[i]
		a.PublishDate, a.ExpiryDate = shiftPtr(a.PublishDate, d), shiftPtr(a.ExpiryDate, d)
		a.CreatedAt, a.UpdatedAt = a.CreatedAt.Add(d), a.UpdatedAt.Add(d)
	}
	for i := range f.Projects {
		p := &f.Projects[i]
		p.StartDate, p.EndDate = shiftPtr(p.StartDate, d), shiftPtr(p.EndDate, d)
		p.CreatedAt, p.UpdatedAt = p.CreatedAt.Add(d), p.UpdatedAt.Add(d)
	}
	for i := range f.Clearances {
		c := &f.Clearances[i]
		c.ReviewedAt = shiftPtr(c.ReviewedAt, d)
		c.CreatedAt, c.UpdatedAt = c.CreatedAt.Add(d), c.UpdatedAt.Add(d)
	}
	for i := range f.Notifications {
		n := &f.Notifications[i]
		n.ReadAt = shiftPtr(n.ReadAt, d)
		n.CreatedAt = n.CreatedAt.Add(d)
	}
}
