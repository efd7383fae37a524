package store

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an insert collides with an existing record.
	ErrConflict = errors.New("conflict")
)

// Table is an insertion-ordered in-memory collection keyed by id.
// Reads return copies; writes replace whole records under the table lock.
type Table[T any] struct {
	name  string
	mu    sync.RWMutex
	rows  []T
	index map[string]int
	id    func(T) string
	clone func(T) T
}

// NewTable creates an empty table. clone may be nil for records without
// shared mutable state.
func NewTable[T any](name string, id func(T) string, clone func(T) T) *Table[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Table[T]{name: name, index: make(map[string]int), id: id, clone: clone}
}

// Name is the collection name used in errors and logs.
func (t *Table[T]) Name() string { return t.name }

// Len returns the number of records.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// All returns a snapshot in insertion order.
func (t *Table[T]) All() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, len(t.rows))
	for i, r := range t.rows {
		out[i] = t.clone(r)
	}
	return out
}

// Get returns the record with id.
func (t *Table[T]) Get(id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", t.name, id, ErrNotFound)
	}
	return t.clone(t.rows[i]), nil
}

// Has reports whether id exists.
func (t *Table[T]) Has(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.index[id]
	return ok
}

// Find returns the first record matching pred.
func (t *Table[T]) Find(pred func(T) bool) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.rows {
		if pred(r) {
			return t.clone(r), true
		}
	}
	var zero T
	return zero, false
}

// Where returns every record matching pred, in insertion order.
func (t *Table[T]) Where(pred func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0)
	for _, r := range t.rows {
		if pred(r) {
			out = append(out, t.clone(r))
		}
	}
	return out
}

// Insert appends row. If conflict is non-nil and matches any existing record,
// or the id is already taken, nothing is written and ErrConflict is returned.
func (t *Table[T]) Insert(row T, conflict func(existing T) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.id(row)
	if _, ok := t.index[id]; ok {
		return fmt.Errorf("%s %s: %w", t.name, id, ErrConflict)
	}
	if conflict != nil {
		for _, r := range t.rows {
			if conflict(r) {
				return fmt.Errorf("%s: %w with %s", t.name, ErrConflict, t.id(r))
			}
		}
	}
	t.index[id] = len(t.rows)
	t.rows = append(t.rows, t.clone(row))
	return nil
}

// Update applies mutate to a copy of the record and commits it only if
// mutate returns nil. The id cannot be changed.
func (t *Table[T]) Update(id string, mutate func(*T) error) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero T
	i, ok := t.index[id]
	if !ok {
		return zero, fmt.Errorf("%s %s: %w", t.name, id, ErrNotFound)
	}
	next := t.clone(t.rows[i])
	if err := mutate(&next); err != nil {
		return zero, err
	}
	if t.id(next) != id {
		return zero, fmt.Errorf("%s %s: id is immutable", t.name, id)
	}
	t.rows[i] = next
	return t.clone(next), nil
}

// stage validates rows and returns a commit that swaps them in. Nothing
// changes until commit runs.
func (t *Table[T]) stage(rows []T) (func(), error) {
	index := make(map[string]int, len(rows))
	copied := make([]T, len(rows))
	for i, r := range rows {
		id := t.id(r)
		if id == "" {
			return nil, fmt.Errorf("%s: record %d has no id", t.name, i)
		}
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("%s %s: %w", t.name, id, ErrConflict)
		}
		index[id] = i
		copied[i] = t.clone(r)
	}
	return func() {
		t.mu.Lock()
		t.rows, t.index = copied, index
		t.mu.Unlock()
	}, nil
}
