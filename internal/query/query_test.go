package query

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type member struct {
	ID     string
	Name   string
	Email  string
	Phone  *string
	Role   string
	Active bool
	Dues   float64
	Joined time.Time
	Left   *time.Time
}

var memberDescriptor = Descriptor[member]{
	Fields: []Field[member]{
		Text("id", func(m member) string { return m.ID }),
		Text("name", func(m member) string { return m.Name }),
		Text("email", func(m member) string { return m.Email }),
		OptionalText("phone", func(m member) *string { return m.Phone }),
		Text("role", func(m member) string { return m.Role }),
		Flag("isActive", func(m member) bool { return m.Active }),
		Number("dues", func(m member) float64 { return m.Dues }),
		Time("joined", func(m member) time.Time { return m.Joined }),
		OptionalTime("left", func(m member) *time.Time { return m.Left }),
	},
	Searchable:   []string{"name", "email", "phone"},
	DefaultSort:  "joined",
	DefaultOrder: Desc,
}

func strPtr(s string) *string { return &s }

func members(n int) []member {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]member, n)
	for i := range out {
		role := "PARENT"
		if i%5 == 0 {
			role = "ADMIN"
		}
		out[i] = member{
			ID:     fmt.Sprintf("m%02d", i),
			Name:   fmt.Sprintf("Member %02d", i),
			Email:  fmt.Sprintf("member%02d@school.test", i),
			Role:   role,
			Active: i%2 == 0,
			Dues:   float64(i * 100),
			Joined: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func ids(items []member) []string {
	out := make([]string, len(items))
	for i, m := range items {
		out[i] = m.ID
	}
	return out
}

func TestPaginationLastPartialPage(t *testing.T) {
	page, err := Run(memberDescriptor, members(25), Params{Page: 3, Limit: 10})
	require.NoError(t, err)

	assert.Len(t, page.Items, 5)
	assert.Equal(t, Pagination{Page: 3, Limit: 10, Total: 25, TotalPages: 3, HasNext: false, HasPrev: true}, page.Pagination)
}

func TestPaginationTotality(t *testing.T) {
	all := members(23)
	for _, limit := range []int{1, 4, 7, 10, 23, 50} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			first, err := Run(memberDescriptor, all, Params{Page: 1, Limit: limit})
			require.NoError(t, err)

			var seen []string
			for p := 1; p <= first.Pagination.TotalPages; p++ {
				page, err := Run(memberDescriptor, all, Params{Page: p, Limit: limit})
				require.NoError(t, err)
				seen = append(seen, ids(page.Items)...)
			}

			assert.Len(t, seen, len(all))
			unique := map[string]struct{}{}
			for _, id := range seen {
				unique[id] = struct{}{}
			}
			assert.Len(t, unique, len(all), "every record appears exactly once")
		})
	}
}

func TestPaginationDefaults(t *testing.T) {
	page, err := Run(memberDescriptor, members(12), Params{Page: 0, Limit: -3})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, DefaultLimit, page.Pagination.Limit)
	assert.Len(t, page.Items, DefaultLimit)
	assert.True(t, page.Pagination.HasNext)
	assert.False(t, page.Pagination.HasPrev)
}

func TestPaginationExtremeValues(t *testing.T) {
	nums := make([]int, 25)
	for i := range nums {
		nums[i] = i
	}

	tests := []struct {
		name   string
		page   int
		limit  int
		items  []int
		expect Pagination
	}{
		{
			name:   "huge page",
			page:   math.MaxInt / 5,
			limit:  10,
			items:  []int{},
			expect: Pagination{Page: math.MaxInt / 5, Limit: 10, Total: 25, TotalPages: 3, HasNext: false, HasPrev: true},
		},
		{
			name:   "max page",
			page:   math.MaxInt,
			limit:  math.MaxInt,
			items:  []int{},
			expect: Pagination{Page: math.MaxInt, Limit: MaxLimit, Total: 25, TotalPages: 1, HasNext: false, HasPrev: true},
		},
		{
			name:   "huge limit first page",
			page:   1,
			limit:  math.MaxInt,
			items:  nums,
			expect: Pagination{Page: 1, Limit: MaxLimit, Total: 25, TotalPages: 1, HasNext: false, HasPrev: false},
		},
		{
			name:   "huge limit second page",
			page:   2,
			limit:  math.MaxInt,
			items:  []int{},
			expect: Pagination{Page: 2, Limit: MaxLimit, Total: 25, TotalPages: 1, HasNext: false, HasPrev: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(nums, tt.page, tt.limit)
			assert.Equal(t, tt.items, page.Items)
			assert.Equal(t, tt.expect, page.Pagination)
		})
	}

	assert.Equal(t, Pagination{Page: 1, Limit: 7, TotalPages: 0}, NewPagination(0, 1, 7))
	assert.Equal(t, 200, NewPagination(200*MaxLimit, 1, 1<<40).TotalPages)
}

func TestPaginationOutOfRange(t *testing.T) {
	page, err := Run(memberDescriptor, members(5), Params{Page: 9, Limit: 10})
	require.NoError(t, err)

	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 5, page.Pagination.Total)
	assert.False(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)
}

func TestPaginationEmptyCollection(t *testing.T) {
	page, err := Run(memberDescriptor, nil, Params{})
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)
}

func TestFilter(t *testing.T) {
	all := members(20)

	t.Run("and across fields", func(t *testing.T) {
		out, err := Filter(memberDescriptor, all, map[string]string{"role": "ADMIN", "isActive": "true"})
		require.NoError(t, err)
		for _, m := range out {
			assert.Equal(t, "ADMIN", m.Role)
			assert.True(t, m.Active)
		}
		assert.Equal(t, []string{"m00", "m10"}, ids(out))
	})

	t.Run("empty values are ignored", func(t *testing.T) {
		out, err := Filter(memberDescriptor, all, map[string]string{"role": "", "isActive": "  "})
		require.NoError(t, err)
		assert.Len(t, out, len(all))
	})

	t.Run("idempotent", func(t *testing.T) {
		filters := map[string]string{"role": "PARENT", "isActive": "false"}
		once, err := Filter(memberDescriptor, all, filters)
		require.NoError(t, err)
		twice, err := Filter(memberDescriptor, once, filters)
		require.NoError(t, err)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("second filter changed result (-once +twice):\n%s", diff)
		}
	})

	t.Run("numeric field", func(t *testing.T) {
		out, err := Filter(memberDescriptor, all, map[string]string{"dues": "300"})
		require.NoError(t, err)
		assert.Equal(t, []string{"m03"}, ids(out))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := Filter(memberDescriptor, all, map[string]string{"shoeSize": "42"})
		var unknown *UnknownFieldError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "shoeSize", unknown.Field)
	})

	t.Run("unparsable value", func(t *testing.T) {
		_, err := Filter(memberDescriptor, all, map[string]string{"isActive": "maybe"})
		var invalid *InvalidValueError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "isActive", invalid.Field)
	})

	t.Run("missing optional value never matches", func(t *testing.T) {
		withPhone := members(3)
		withPhone[1].Phone = strPtr("0917")
		out, err := Filter(memberDescriptor, withPhone, map[string]string{"phone": "0917"})
		require.NoError(t, err)
		assert.Equal(t, []string{"m01"}, ids(out))
	})
}

func TestSearch(t *testing.T) {
	all := members(12)
	all[4].Phone = strPtr("+63 917 555 0101")

	assert.Equal(t, []string{"m11"}, ids(Search(memberDescriptor, all, "MEMBER11")))
	assert.Equal(t, []string{"m04"}, ids(Search(memberDescriptor, all, "555")))
	assert.Len(t, Search(memberDescriptor, all, "  "), len(all))
	assert.Empty(t, Search(memberDescriptor, all, "nobody"))
}

func TestSort(t *testing.T) {
	t.Run("default is joined desc", func(t *testing.T) {
		all := members(4)
		Sort(memberDescriptor, all, "", "")
		assert.Equal(t, []string{"m03", "m02", "m01", "m00"}, ids(all))
	})

	t.Run("unknown key falls back to default", func(t *testing.T) {
		all := members(4)
		Sort(memberDescriptor, all, "favouriteColour", "")
		assert.Equal(t, []string{"m03", "m02", "m01", "m00"}, ids(all))
	})

	t.Run("strings ignore case", func(t *testing.T) {
		all := []member{{ID: "a", Name: "bravo"}, {ID: "b", Name: "Alpha"}, {ID: "c", Name: "charlie"}}
		Sort(memberDescriptor, all, "name", "asc")
		assert.Equal(t, []string{"b", "a", "c"}, ids(all))
	})

	t.Run("missing values last in both directions", func(t *testing.T) {
		left := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		earlier := left.Add(-time.Hour)
		build := func() []member {
			return []member{{ID: "none1"}, {ID: "late", Left: &left}, {ID: "none2"}, {ID: "early", Left: &earlier}}
		}

		asc := build()
		Sort(memberDescriptor, asc, "left", "asc")
		assert.Equal(t, []string{"early", "late", "none1", "none2"}, ids(asc))

		desc := build()
		Sort(memberDescriptor, desc, "left", "DESC")
		assert.Equal(t, []string{"late", "early", "none1", "none2"}, ids(desc))
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		all := []member{{ID: "1", Role: "PARENT"}, {ID: "2", Role: "ADMIN"}, {ID: "3", Role: "PARENT"}, {ID: "4", Role: "ADMIN"}}
		Sort(memberDescriptor, all, "role", "desc")
		assert.Equal(t, []string{"1", "3", "2", "4"}, ids(all))
	})
}

func TestRunDoesNotMutateInput(t *testing.T) {
	all := members(6)
	snapshot := append([]member(nil), all...)

	_, err := Run(memberDescriptor, all, Params{SortBy: "name", SortOrder: "asc", Search: "member", Filters: map[string]string{"role": "PARENT"}})
	require.NoError(t, err)

	if diff := cmp.Diff(snapshot, all); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	all := members(30)
	p := Params{Page: 2, Limit: 7, Search: "member", SortBy: "dues", SortOrder: "desc", Filters: map[string]string{"isActive": "true"}}

	first, err := Run(memberDescriptor, all, p)
	require.NoError(t, err)
	second, err := Run(memberDescriptor, all, p)
	require.NoError(t, err)

	assert.Equal(t, ids(first.Items), ids(second.Items))
	assert.Equal(t, first.Pagination, second.Pagination)
}
