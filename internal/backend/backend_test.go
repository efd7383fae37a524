package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/latency"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// anchor is the fixture anchor; pinning the clock to it keeps seed dates as written.
var anchor = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	st, err := store.Seed(
		store.WithClock(func() time.Time { return anchor }),
		store.WithPasswordCost(bcrypt.MinCost),
	)
	require.NoError(t, err)
	base := []Option{WithLatency(latency.Off()), WithPasswordCost(bcrypt.MinCost)}
	return New(st, append(base, opts...)...)
}

func requireKind[T any](t *testing.T, resp envelope.Response[T], kind envelope.Kind) {
	t.Helper()
	require.False(t, resp.Success, "expected failure, got %+v", resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, kind, resp.Error.Kind, resp.Message)
}

func TestLoginFailureLeavesStoreUnchanged(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	before := b.Store().Users.All()

	resp := b.Login(ctx, "x@y.com", "bad")

	requireKind(t, resp, envelope.KindUnauthenticated)
	assert.Equal(t, "Invalid email or password", resp.Message)
	assert.Empty(t, resp.Data.Token)
	assert.Empty(t, cmp.Diff(before, b.Store().Users.All()))
	assert.Equal(t, 12, b.Store().Users.Len())
}

func TestLogin(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		resp := b.Login(ctx, " Admin@School.edu.ph ", "admin123")
		require.True(t, resp.Success, resp.Message)
		assert.Equal(t, "u-a01", resp.Data.User.ID)
		assert.Equal(t, int64(15*60), resp.Data.ExpiresIn)
		claims, err := b.issuer.Parse(resp.Data.Token)
		require.NoError(t, err)
		assert.Equal(t, "u-a01", claims.Subject)
		assert.Equal(t, "ADMIN", claims.Role)

		refreshed := b.RefreshSession(ctx, resp.Data.RefreshToken)
		require.True(t, refreshed.Success, refreshed.Message)
		assert.Equal(t, "u-a01", refreshed.Data.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := b.Login(ctx, "admin@school.edu.ph", "nope")
		requireKind(t, resp, envelope.KindUnauthenticated)
		assert.Equal(t, "Invalid email or password", resp.Message)
	})

	t.Run("deactivated", func(t *testing.T) {
		resp := b.Login(ctx, "teresa.villanueva@example.com", "password123")
		requireKind(t, resp, envelope.KindUnauthenticated)
		assert.Equal(t, "Account is deactivated", resp.Message)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		resp := b.Login(ctx, "maria.santos@example.com", "password123")
		require.True(t, resp.Success)
		requireKind(t, b.RefreshSession(ctx, resp.Data.Token), envelope.KindUnauthenticated)
	})
}

func TestRegister(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	resp := b.Register(ctx, RegisterInput{Email: "New.Parent@Example.com", Password: "secret1", FirstName: "New", LastName: "Parent"})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, model.RoleParent, resp.Data.Role)
	assert.Equal(t, "new.parent@example.com", resp.Data.Email)
	assert.True(t, resp.Data.IsActive)

	login := b.Login(ctx, "new.parent@example.com", "secret1")
	assert.True(t, login.Success, login.Message)

	dup := b.Register(ctx, RegisterInput{Email: "MARIA.SANTOS@example.com", Password: "secret1", FirstName: "M", LastName: "S"})
	requireKind(t, dup, envelope.KindConflict)

	bad := b.Register(ctx, RegisterInput{Email: "not-an-email", Password: "123", FirstName: "X"})
	requireKind(t, bad, envelope.KindValidation)
	assert.Contains(t, bad.Error.Fields, "email")
	assert.Contains(t, bad.Error.Fields, "password")
	assert.Contains(t, bad.Error.Fields, "lastName")
	assert.Equal(t, 13, b.Store().Users.Len())
}

func TestChangePassword(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	requireKind(t, b.ChangePassword(ctx, "u-p01", "wrong", "newpass1"), envelope.KindUnauthenticated)
	requireKind(t, b.ChangePassword(ctx, "u-p01", "password123", "short"), envelope.KindValidation)
	require.True(t, b.ChangePassword(ctx, "u-p01", "password123", "newpass1").Success)

	assert.False(t, b.Login(ctx, "maria.santos@example.com", "password123").Success)
	assert.True(t, b.Login(ctx, "maria.santos@example.com", "newpass1").Success)
}

func TestGetAllUsers(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	t.Run("default page and sort", func(t *testing.T) {
		resp := b.GetAllUsers(ctx, query.Params{})
		require.True(t, resp.Success)
		page := resp.Data
		assert.Equal(t, "users", page.Key)
		assert.Len(t, page.Items, 10)
		assert.Equal(t, "u-p10", page.Items[0].ID, "newest first")
		assert.Equal(t, query.Pagination{Page: 1, Limit: 10, Total: 12, TotalPages: 2, HasNext: true}, page.Pagination)
	})

	t.Run("filters and search", func(t *testing.T) {
		resp := b.GetAllUsers(ctx, query.Params{Filters: map[string]string{"role": "PARENT", "isActive": "true"}, Limit: 50})
		require.True(t, resp.Success)
		assert.Len(t, resp.Data.Items, 9)

		resp = b.GetAllUsers(ctx, query.Params{Search: "SANTOS"})
		require.True(t, resp.Success)
		require.Len(t, resp.Data.Items, 1)
		assert.Equal(t, "u-p01", resp.Data.Items[0].ID)

		resp = b.GetAllUsers(ctx, query.Params{Search: "0105"})
		require.Len(t, resp.Data.Items, 1, "phone is searchable")
		assert.Equal(t, "u-p05", resp.Data.Items[0].ID)
	})

	t.Run("unknown filter", func(t *testing.T) {
		resp := b.GetAllUsers(ctx, query.Params{Filters: map[string]string{"shoeSize": "9"}})
		requireKind(t, resp, envelope.KindValidation)
		assert.Contains(t, resp.Error.Fields, "shoeSize")
	})

	t.Run("bad flag value", func(t *testing.T) {
		requireKind(t, b.GetAllUsers(ctx, query.Params{Filters: map[string]string{"isActive": "maybe"}}), envelope.KindValidation)
	})
}

func TestUserLifecycle(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	created := b.CreateUser(ctx, UserInput{Email: "officer@school.edu.ph", Password: "secret12", FirstName: "Ofelia", LastName: "Ramos", Role: model.RoleAdmin})
	require.True(t, created.Success, created.Message)
	id := created.Data.ID

	requireKind(t, b.CreateUser(ctx, UserInput{Email: "OFFICER@school.edu.ph", Password: "secret12", FirstName: "A", LastName: "B", Role: model.RoleAdmin}), envelope.KindConflict)
	requireKind(t, b.CreateUser(ctx, UserInput{Email: "x@school.edu.ph", Password: "secret12", FirstName: "A", LastName: "B", Role: "GUEST"}), envelope.KindValidation)

	phone := "+63 917 555 0000"
	updated := b.UpdateUser(ctx, id, UserUpdate{Phone: &phone, FirstName: ptr(" Ofel ")})
	require.True(t, updated.Success, updated.Message)
	assert.Equal(t, "Ofel", updated.Data.FirstName)
	assert.Equal(t, phone, *updated.Data.Phone)

	requireKind(t, b.UpdateUser(ctx, id, UserUpdate{Email: ptr("admin@school.edu.ph")}), envelope.KindConflict)
	requireKind(t, b.UpdateUser(ctx, "ghost", UserUpdate{}), envelope.KindNotFound)

	deleted := b.DeleteUser(ctx, id)
	require.True(t, deleted.Success)
	assert.False(t, deleted.Data.IsActive)
	got := b.GetUserByID(ctx, id)
	require.True(t, got.Success, "soft delete keeps the record")
	assert.False(t, got.Data.IsActive)

	reactivated := b.SetUserActive(ctx, id, true)
	require.True(t, reactivated.Success)
	assert.True(t, reactivated.Data.IsActive)
	assert.Equal(t, "User activated successfully", reactivated.Message)

	missing := b.GetUserByID(ctx, "ghost")
	requireKind(t, missing, envelope.KindNotFound)
	assert.Equal(t, "user not found: ghost", missing.Message)
}

func TestStudents(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	t.Run("list default sort and filters", func(t *testing.T) {
		resp := b.GetAllStudents(ctx, query.Params{Limit: 20})
		require.True(t, resp.Success)
		require.Len(t, resp.Data.Items, 14)
		assert.Equal(t, "Aquino", resp.Data.Items[0].LastName)

		resp = b.GetAllStudents(ctx, query.Params{Filters: map[string]string{"gradeLevel": "Grade 7", "section": "Sampaguita"}})
		require.True(t, resp.Success)
		assert.Len(t, resp.Data.Items, 3)

		resp = b.GetAllStudents(ctx, query.Params{Filters: map[string]string{"parentId": "u-p09"}})
		assert.Len(t, resp.Data.Items, 2)

		resp = b.GetAllStudents(ctx, query.Params{Search: "2025-"})
		assert.Len(t, resp.Data.Items, 2)
	})

	t.Run("create validates parent", func(t *testing.T) {
		requireKind(t, b.CreateStudent(ctx, StudentInput{StudentID: "2025-0100", FirstName: "A", LastName: "B", GradeLevel: "Grade 7", ParentID: ptr("ghost")}), envelope.KindValidation)
		requireKind(t, b.CreateStudent(ctx, StudentInput{StudentID: "2025-0100", FirstName: "A", LastName: "B", GradeLevel: "Grade 7", ParentID: ptr("u-a01")}), envelope.KindValidation)
		requireKind(t, b.CreateStudent(ctx, StudentInput{StudentID: "2024-0001", FirstName: "A", LastName: "B", GradeLevel: "Grade 7"}), envelope.KindConflict)

		resp := b.CreateStudent(ctx, StudentInput{StudentID: "2025-0100", FirstName: "Ana", LastName: "Ramos", GradeLevel: "Grade 7", ParentID: ptr("u-p10")})
		require.True(t, resp.Success, resp.Message)
		assert.Equal(t, model.StudentActive, resp.Data.Status)

		kids := b.GetMyChildren(ctx, "u-p10")
		require.True(t, kids.Success)
		assert.Len(t, kids.Data, 2)
	})

	t.Run("link and soft delete", func(t *testing.T) {
		requireKind(t, b.LinkStudentToParent(ctx, "s-14", "u-a02"), envelope.KindValidation)
		before := b.GetStudentByID(ctx, "s-14")
		assert.Nil(t, before.Data.ParentID, "failed link leaves the record untouched")

		linked := b.LinkStudentToParent(ctx, "s-14", "u-p03")
		require.True(t, linked.Success, linked.Message)
		assert.True(t, linked.Data.HasParent("u-p03"))

		deleted := b.DeleteStudent(ctx, "s-14")
		require.True(t, deleted.Success)
		assert.Equal(t, model.StudentInactive, deleted.Data.Status)
		assert.Equal(t, 15, b.Store().Students.Len())
	})

	t.Run("update", func(t *testing.T) {
		status := model.StudentGraduated
		resp := b.UpdateStudent(ctx, "s-05", StudentUpdate{Status: &status, Section: ptr("Acacia-B")})
		require.True(t, resp.Success, resp.Message)
		assert.Equal(t, model.StudentGraduated, resp.Data.Status)
		assert.Equal(t, "Acacia-B", resp.Data.Section)

		bad := model.StudentStatus("expelled")
		requireKind(t, b.UpdateStudent(ctx, "s-05", StudentUpdate{Status: &bad}), envelope.KindValidation)
	})
}

func TestLatencyApplies(t *testing.T) {
	b := newBackend(t, WithLatency(latency.New(0, map[string]time.Duration{"GetDashboardStats": 30 * time.Millisecond})))
	ctx := context.Background()

	start := time.Now()
	resp := b.GetDashboardStats(ctx)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	require.True(t, resp.Success)
	assert.Equal(t, 12, resp.Data.TotalUsers)

	start = time.Now()
	b.GetUserByID(ctx, "u-a01")
	assert.Less(t, time.Since(start), 30*time.Millisecond)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind envelope.Kind
	}{
		{"store not found", store.ErrNotFound, envelope.KindNotFound},
		{"store conflict", errors.Join(errors.New("insert"), store.ErrConflict), envelope.KindConflict},
		{"query unknown field", &query.UnknownFieldError{Field: "x"}, envelope.KindValidation},
		{"query bad value", &query.InvalidValueError{Field: "x", Value: "y"}, envelope.KindValidation},
		{"typed", envelope.Unsupported("X"), envelope.KindUnsupported},
		{"other", errors.New("boom"), envelope.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, envelope.Classify(translate(tt.err)).Kind)
		})
	}
}

func TestTimestampUsesStoreClock(t *testing.T) {
	b := newBackend(t)
	resp := b.GetProfile(context.Background(), "u-p01")
	require.True(t, resp.Success)
	assert.True(t, resp.Timestamp.Equal(anchor))
}
