package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
)

var loadTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seeded(t *testing.T) *Store {
	t.Helper()
	s, err := Seed(WithClock(func() time.Time { return loadTime }), WithPasswordCost(bcrypt.MinCost))
	require.NoError(t, err)
	return s
}

func TestTableInsertAndGet(t *testing.T) {
	tbl := NewTable("user", func(u model.User) string { return u.ID }, nil)
	require.NoError(t, tbl.Insert(model.User{ID: "1", Email: "a@x.test"}, nil))
	require.NoError(t, tbl.Insert(model.User{ID: "2", Email: "b@x.test"}, nil))

	got, err := tbl.Get("2")
	require.NoError(t, err)
	assert.Equal(t, "b@x.test", got.Email)

	_, err = tbl.Get("3")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = tbl.Insert(model.User{ID: "1"}, nil)
	assert.True(t, errors.Is(err, ErrConflict), "duplicate id")

	err = tbl.Insert(model.User{ID: "9", Email: "a@x.test"}, func(u model.User) bool { return u.Email == "a@x.test" })
	assert.True(t, errors.Is(err, ErrConflict), "conflict predicate")
	assert.Equal(t, 2, tbl.Len())
}

func TestTableUpdateCommitsOnlyOnSuccess(t *testing.T) {
	tbl := NewTable("user", func(u model.User) string { return u.ID }, nil)
	require.NoError(t, tbl.Insert(model.User{ID: "1", FirstName: "Ana"}, nil))

	_, err := tbl.Update("1", func(u *model.User) error {
		u.FirstName = "Changed"
		return errors.New("nope")
	})
	require.Error(t, err)
	got, _ := tbl.Get("1")
	assert.Equal(t, "Ana", got.FirstName)

	_, err = tbl.Update("1", func(u *model.User) error {
		u.ID = "other"
		return nil
	})
	require.Error(t, err)

	updated, err := tbl.Update("1", func(u *model.User) error {
		u.FirstName = "Bea"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Bea", updated.FirstName)

	_, err = tbl.Update("missing", func(*model.User) error { return nil })
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTableReadsAreCopies(t *testing.T) {
	tbl := NewTable("project", func(p model.Project) string { return p.ID }, model.Project.Clone)
	require.NoError(t, tbl.Insert(model.Project{ID: "p", Participants: []string{"a"}}, nil))

	got, _ := tbl.Get("p")
	got.Participants[0] = "mutated"
	got.Participants = append(got.Participants, "extra")

	again, _ := tbl.Get("p")
	assert.Equal(t, []string{"a"}, again.Participants)
}

func TestTableConcurrentWrites(t *testing.T) {
	tbl := NewTable("contribution", func(c model.Contribution) string { return c.ID }, nil)
	require.NoError(t, tbl.Insert(model.Contribution{ID: "c"}, nil))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = tbl.Insert(model.Contribution{ID: fmt.Sprintf("c-%d", i)}, nil)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = tbl.Update("c", func(c *model.Contribution) error {
				c.Amount++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 51, tbl.Len())
	got, _ := tbl.Get("c")
	assert.Equal(t, 50.0, got.Amount)
}

func TestSeedLoadsConsistentData(t *testing.T) {
	s := seeded(t)

	assert.Equal(t, 12, s.Users.Len())
	assert.Equal(t, 14, s.Students.Len())
	assert.Equal(t, 8, s.Meetings.Len())
	assert.Equal(t, 40, s.Attendance.Len())
	assert.Zero(t, s.Documents.Len())

	admin, ok := s.UserByEmail("ADMIN@school.edu.ph ")
	require.True(t, ok)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")))

	assert.Len(t, s.ChildrenOf("u-p01"), 2)
}

func TestSeedShiftsDatesToLoadTime(t *testing.T) {
	s := seeded(t)

	upcoming := s.Meetings.Where(func(m model.Meeting) bool { return m.Date.After(loadTime) })
	require.Len(t, upcoming, 2)

	m7, err := s.Meetings.Get("m-07")
	require.NoError(t, err)
	assert.Equal(t, loadTime.Add(13*24*time.Hour+9*time.Hour), m7.Date)
}

func TestLoadRejectsDanglingReferences(t *testing.T) {
	ghost := "ghost"
	f := Fixtures{
		Users:    []UserFixture{{User: model.User{ID: "u1", Email: "a@b.c"}}},
		Students: []model.Student{{ID: "s1", ParentID: &ghost}},
		Meetings: []model.Meeting{{ID: "m1"}},
		Attendance: []model.Attendance{
			{ID: "a1", MeetingID: "m1", ParentID: "u1"},
			{ID: "a2", MeetingID: "m1", ParentID: "u1"},
		},
	}
	err := New().Load(f)
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown parent ghost")
	assert.ErrorContains(t, err, "duplicate attendance")
}

func TestLoadRejectsDuplicateEmails(t *testing.T) {
	f := Fixtures{Users: []UserFixture{
		{User: model.User{ID: "u1", Email: "Same@x.test"}},
		{User: model.User{ID: "u2", Email: "same@x.test"}},
	}}
	assert.ErrorContains(t, New().Load(f), "duplicate email")
}

func TestLoadFailureLeavesStoreUntouched(t *testing.T) {
	s := seeded(t)
	users, clearances := s.Users.All(), s.Clearances.All()

	f := Fixtures{
		Users: []UserFixture{{User: model.User{ID: "u1", Email: "only@x.test", Role: model.RoleParent}}},
		Clearances: []model.ClearanceRequest{
			{ID: "cl-dup", ParentID: "u1"},
			{ID: "cl-dup", ParentID: "u1"},
		},
	}
	err := s.Load(f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	assert.Equal(t, users, s.Users.All(), "users must not be replaced by a failed load")
	assert.Equal(t, clearances, s.Clearances.All())
	_, err = s.Users.Get("u1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNewIDIsTimeOrdered(t *testing.T) {
	s := New()
	a, b := s.NewID(), s.NewID()
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}
