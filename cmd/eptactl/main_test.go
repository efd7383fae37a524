package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/backend"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/rules"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PASSWORD_HASH_COST", "4")
	t.Setenv("FIXTURE_SOURCE", "embedded")
	t.Setenv("EPTA_CONFIG", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestUsersList(t *testing.T) {
	out, err := execute(t, "users", "list", "--filter", "role=PARENT", "--sort", "lastName", "--limit", "4", "--page", "2")
	require.NoError(t, err)

	var page struct {
		Users      []model.User     `json:"users"`
		Pagination query.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 10, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	require.Len(t, page.Users, 4)
	assert.Equal(t, "Mendoza", page.Users[0].LastName)
	assert.NotContains(t, out, "passwordHash")
}

func TestUsersListRejectsUnknownFilter(t *testing.T) {
	_, err := execute(t, "users", "list", "--filter", "shoeSize=9")
	assert.Error(t, err)
}

func TestClearanceStatus(t *testing.T) {
	out, err := execute(t, "clearance", "status", "u-p01")
	require.NoError(t, err)

	var status backend.ClearanceStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.IsEligible)

	_, err = execute(t, "clearance", "status", "u-nobody")
	assert.ErrorContains(t, err, "not found")
}

func TestDashboard(t *testing.T) {
	out, err := execute(t, "dashboard")
	require.NoError(t, err)

	var stats rules.DashboardStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 12, stats.TotalUsers)
	assert.Equal(t, 14, stats.TotalStudents)
}

func TestExport(t *testing.T) {
	out, err := execute(t, "export", "contributions")
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewBufferString(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "c-01", rows[1][0])

	path := filepath.Join(t.TempDir(), "attendance.csv")
	out, err = execute(t, "export", "attendance", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err = csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 41)

	_, err = execute(t, "export", "payroll")
	assert.Error(t, err)
}
