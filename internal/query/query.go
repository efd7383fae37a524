// Package query implements the list pipeline shared by every collection:
// filter, then search, then sort, then paginate.
package query

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultLimit is used when a caller does not supply a positive page size.
const DefaultLimit = 10

// MaxLimit caps the page size a caller can request.
const MaxLimit = 100

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder accepts "asc"/"desc" in any case; anything else returns fallback.
func ParseOrder(s string, fallback Order) Order {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Asc
	case "desc":
		return Desc
	}
	return fallback
}

type kind int

const (
	kindText kind = iota
	kindNumber
	kindTime
	kindFlag
)

// Field is a named, typed accessor over records of type T.
type Field[T any] struct {
	Name string
	kind kind
	text func(T) (string, bool)
	num  func(T) (float64, bool)
	tm   func(T) (time.Time, bool)
	flag func(T) bool
}

// Text declares a string field that is always present.
func Text[T any](name string, get func(T) string) Field[T] {
	return Field[T]{Name: name, kind: kindText, text: func(v T) (string, bool) { return get(v), true }}
}

// OptionalText declares a string field that may be absent.
func OptionalText[T any](name string, get func(T) *string) Field[T] {
	return Field[T]{Name: name, kind: kindText, text: func(v T) (string, bool) {
		p := get(v)
		if p == nil {
			return "", false
		}
		return *p, true
	}}
}

// Number declares a numeric field.
func Number[T any](name string, get func(T) float64) Field[T] {
	return Field[T]{Name: name, kind: kindNumber, num: func(v T) (float64, bool) { return get(v), true }}
}

// Time declares an instant that is always present.
func Time[T any](name string, get func(T) time.Time) Field[T] {
	return Field[T]{Name: name, kind: kindTime, tm: func(v T) (time.Time, bool) { return get(v), true }}
}

// OptionalTime declares an instant that may be absent.
func OptionalTime[T any](name string, get func(T) *time.Time) Field[T] {
	return Field[T]{Name: name, kind: kindTime, tm: func(v T) (time.Time, bool) {
		p := get(v)
		if p == nil {
			return time.Time{}, false
		}
		return *p, true
	}}
}

// Flag declares a boolean field.
func Flag[T any](name string, get func(T) bool) Field[T] {
	return Field[T]{Name: name, kind: kindFlag, flag: get}
}

// display renders the field as text for search matching.
func (f Field[T]) display(v T) (string, bool) {
	switch f.kind {
	case kindText:
		return f.text(v)
	case kindNumber:
		n, ok := f.num(v)
		return strconv.FormatFloat(n, 'f', -1, 64), ok
	case kindTime:
		t, ok := f.tm(v)
		return t.Format(time.RFC3339), ok
	default:
		return strconv.FormatBool(f.flag(v)), true
	}
}

// matcher compiles a filter value into a predicate, or reports it unparsable.
func (f Field[T]) matcher(raw string) (func(T) bool, error) {
	switch f.kind {
	case kindText:
		return func(v T) bool {
			s, ok := f.text(v)
			return ok && s == raw
		}, nil
	case kindNumber:
		want, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &InvalidValueError{Field: f.Name, Value: raw}
		}
		return func(v T) bool {
			n, ok := f.num(v)
			return ok && n == want
		}, nil
	case kindTime:
		want, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, &InvalidValueError{Field: f.Name, Value: raw}
		}
		return func(v T) bool {
			t, ok := f.tm(v)
			return ok && t.Equal(want)
		}, nil
	default:
		want, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &InvalidValueError{Field: f.Name, Value: raw}
		}
		return func(v T) bool { return f.flag(v) == want }, nil
	}
}

// compare orders two present values of the field.
func (f Field[T]) compare(a, b T) (int, bool, bool) {
	switch f.kind {
	case kindText:
		x, okx := f.text(a)
		y, oky := f.text(b)
		return cmp.Compare(strings.ToLower(x), strings.ToLower(y)), okx, oky
	case kindNumber:
		x, okx := f.num(a)
		y, oky := f.num(b)
		return cmp.Compare(x, y), okx, oky
	case kindTime:
		x, okx := f.tm(a)
		y, oky := f.tm(b)
		return x.Compare(y), okx, oky
	default:
		return cmp.Compare(boolRank(f.flag(a)), boolRank(f.flag(b))), true, true
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Descriptor declares how a collection is filtered, searched and sorted.
type Descriptor[T any] struct {
	Fields       []Field[T]
	Searchable   []string
	DefaultSort  string
	DefaultOrder Order
}

func (d Descriptor[T]) field(name string) (Field[T], bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

// Params are the caller-supplied list options.
type Params struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
	Filters   map[string]string
}

// Pagination describes the returned page relative to the filtered total.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Page is a slice of results plus its pagination metadata.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// UnknownFieldError is returned for a filter on a field the collection does not declare.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown filter field %q", e.Field)
}

// InvalidValueError is returned when a filter value cannot be parsed for its field type.
type InvalidValueError struct {
	Field string
	Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for field %q", e.Value, e.Field)
}

// Run applies filter, search, sort and pagination to items. The input is never modified.
func Run[T any](d Descriptor[T], items []T, p Params) (Page[T], error) {
	filtered, err := Filter(d, items, p.Filters)
	if err != nil {
		return Page[T]{}, err
	}
	filtered = Search(d, filtered, p.Search)
	Sort(d, filtered, p.SortBy, p.SortOrder)
	return Paginate(filtered, p.Page, p.Limit), nil
}

// Filter keeps items equal on every non-empty filter value.
func Filter[T any](d Descriptor[T], items []T, filters map[string]string) ([]T, error) {
	keys := make([]string, 0, len(filters))
	for k, v := range filters {
		if strings.TrimSpace(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	preds := make([]func(T) bool, 0, len(keys))
	for _, k := range keys {
		f, ok := d.field(k)
		if !ok {
			return nil, &UnknownFieldError{Field: k}
		}
		m, err := f.matcher(strings.TrimSpace(filters[k]))
		if err != nil {
			return nil, err
		}
		preds = append(preds, m)
	}

	out := make([]T, 0, len(items))
next:
	for _, it := range items {
		for _, pred := range preds {
			if !pred(it) {
				continue next
			}
		}
		out = append(out, it)
	}
	return out, nil
}

// Search keeps items where any searchable field contains term, ignoring case.
func Search[T any](d Descriptor[T], items []T, term string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	fields := make([]Field[T], 0, len(d.Searchable))
	for _, name := range d.Searchable {
		if f, ok := d.field(name); ok {
			fields = append(fields, f)
		}
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields {
			s, ok := f.display(it)
			if ok && strings.Contains(strings.ToLower(s), term) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Sort orders items in place. Unknown keys fall back to the descriptor default;
// missing values always sort last and ties keep their input order.
func Sort[T any](d Descriptor[T], items []T, sortBy, order string) {
	f, ok := d.field(sortBy)
	dir := ParseOrder(order, d.DefaultOrder)
	if !ok {
		f, ok = d.field(d.DefaultSort)
		if !ok {
			return
		}
	}
	if dir == "" {
		dir = Asc
	}
	slices.SortStableFunc(items, func(a, b T) int {
		c, okA, okB := f.compare(a, b)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		if dir == Desc {
			return -c
		}
		return c
	})
}

// Paginate slices items into the requested 1-based page. A page past the
// last one is empty.
func Paginate[T any](items []T, page, limit int) Page[T] {
	pg := NewPagination(len(items), page, limit)
	if pg.Page > pg.TotalPages {
		return Page[T]{Items: []T{}, Pagination: pg}
	}
	// page <= TotalPages keeps start below len(items).
	start := (pg.Page - 1) * pg.Limit
	end := start + min(pg.Limit, len(items)-start)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return Page[T]{Items: out, Pagination: pg}
}

// NewPagination computes metadata for total results at page/limit. limit is
// capped at MaxLimit.
func NewPagination(total, page, limit int) Pagination {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	if page < 1 {
		page = 1
	}
	total = max(total, 0)
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}
