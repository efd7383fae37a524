package rules

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
)

func TestAnnouncementWindowRule(t *testing.T) {
	checker := NewChecker(AnnouncementWindowRule())
	publish := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	before := publish.Add(-time.Hour)
	after := publish.Add(time.Hour)

	assert.NoError(t, checker.Check(model.Announcement{PublishDate: &publish, ExpiryDate: &after}))
	assert.NoError(t, checker.Check(model.Announcement{PublishDate: &publish, ExpiryDate: &publish}))
	assert.NoError(t, checker.Check(model.Announcement{ExpiryDate: &before}))

	err := checker.Check(model.Announcement{PublishDate: &publish, ExpiryDate: &before})
	var verr *ViolationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields(), "expiryDate")
}

func TestContributionAmountRule(t *testing.T) {
	checker := NewChecker(ContributionAmountRule())
	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		assert.Error(t, checker.Check(model.Contribution{Amount: bad}), "amount %v", bad)
	}
	assert.NoError(t, checker.Check(model.Contribution{Amount: 0.01}))
}

func TestParentReferenceRule(t *testing.T) {
	users := map[string]model.User{
		"p1": {ID: "p1", Role: model.RoleParent},
		"a1": {ID: "a1", Role: model.RoleAdmin},
	}
	checker := NewChecker(ParentReferenceRule(func(id string) (model.User, bool) {
		u, ok := users[id]
		return u, ok
	}))
	ref := func(id string) *string { return &id }

	assert.NoError(t, checker.Check(model.Student{}))
	assert.NoError(t, checker.Check(model.Student{ParentID: ref("p1")}))
	assert.ErrorContains(t, checker.Check(model.Student{ParentID: ref("ghost")}), "does not exist")
	assert.ErrorContains(t, checker.Check(model.Student{ParentID: ref("a1")}), "not a parent")
}

func TestClearanceTransitionRule(t *testing.T) {
	checker := NewChecker(ClearanceTransitionRule())
	tests := []struct {
		from, to model.ClearanceStatus
		ok       bool
	}{
		{model.ClearancePending, model.ClearanceApproved, true},
		{model.ClearancePending, model.ClearanceRejected, true},
		{model.ClearancePending, model.ClearanceIncomplete, false},
		{model.ClearanceApproved, model.ClearanceRejected, false},
		{model.ClearanceRejected, model.ClearanceApproved, false},
		{model.ClearanceIncomplete, model.ClearanceApproved, false},
	}
	for _, tt := range tests {
		err := checker.Check(ClearanceTransition{From: tt.from, To: tt.to})
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
		} else {
			assert.Error(t, err, "%s -> %s", tt.from, tt.to)
		}
	}
}

func TestWarningsDoNotBlock(t *testing.T) {
	checker := NewChecker[int]()
	checker.Register(NewRule("soft", func(int) Result {
		return Result{Violations: []Violation{{Rule: "soft", Severity: SeverityWarn, Message: "heads up"}}}
	}))
	assert.NoError(t, checker.Check(1))

	checker.Register(NewRule("hard", func(int) Result { return block("hard", "n", "no") }))
	err := checker.Check(1)
	require.Error(t, err)
	assert.Equal(t, "no", err.Error())
}

func TestProjectRules(t *testing.T) {
	users := map[string]model.User{
		"p1": {ID: "p1", Role: model.RoleParent},
		"a1": {ID: "a1", Role: model.RoleAdmin},
	}
	checker := NewChecker(ProjectScheduleRule(), ProjectParticipantsRule(func(id string) (model.User, bool) {
		u, ok := users[id]
		return u, ok
	}))
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	assert.NoError(t, checker.Check(model.Project{StartDate: &start, EndDate: &end, Budget: 100, Participants: []string{"p1"}}))

	err := checker.Check(model.Project{StartDate: &end, EndDate: &start, Budget: -1, Participants: []string{"a1", "ghost"}})
	var verr *ViolationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Result.Violations, 4)
	fields := verr.Fields()
	assert.Contains(t, fields, "endDate")
	assert.Contains(t, fields, "budget")
	assert.Contains(t, fields, "participants")
}
