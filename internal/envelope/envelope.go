// Package envelope packages operation results in the uniform response shape
// every caller receives: {success, data, message, timestamp}.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindValidation      Kind = "validation"
	KindUnsupported     Kind = "unsupported"
	KindUnauthenticated Kind = "unauthenticated"
	KindInternal        Kind = "internal"
)

// Error is a classified failure. Fields carries per-field validation messages.
type Error struct {
	Kind    Kind              `json:"kind"`
	Message string            `json:"-"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// NotFound reports a missing entity by type and id.
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// Conflict reports a uniqueness or state conflict.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Invalid reports bad input, optionally with per-field details.
func Invalid(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Unsupported reports an operation that has no meaning without a real backend.
func Unsupported(operation string) *Error {
	return &Error{Kind: KindUnsupported, Message: fmt.Sprintf("%s is not available in simulation mode", operation)}
}

// Unauthenticated reports a failed credential check.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Classify finds the *Error in err's chain; anything else becomes internal.
func Classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Message: err.Error()}
}

// Response is the envelope returned by every operation.
type Response[T any] struct {
	Success   bool      `json:"success"`
	Data      T         `json:"data"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Error     *Error    `json:"error,omitempty"`
}

// OK wraps a successful result.
func OK[T any](data T, message string, now time.Time) Response[T] {
	return Response[T]{Success: true, Data: data, Message: message, Timestamp: now.UTC()}
}

// Fail wraps a failure; data is the zero value.
func Fail[T any](err error, now time.Time) Response[T] {
	e := Classify(err)
	return Response[T]{Success: false, Message: e.Message, Timestamp: now.UTC(), Error: e}
}

// Err returns nil on success and the classified error on failure.
func (r Response[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.Error != nil {
		return r.Error
	}
	return &Error{Kind: KindInternal, Message: r.Message}
}

// List is paged data keyed by collection name, e.g. {"users": [...], "pagination": {...}}.
type List[T any] struct {
	Key        string
	Items      []T
	Pagination query.Pagination
}

// NewList builds a List from a query page.
func NewList[T any](key string, page query.Page[T]) List[T] {
	return List[T]{Key: key, Items: page.Items, Pagination: page.Pagination}
}

// MarshalJSON emits the items under Key next to the pagination block.
func (l List[T]) MarshalJSON() ([]byte, error) {
	items := l.Items
	if items == nil {
		items = []T{}
	}
	return json.Marshal(map[string]any{
		l.Key:        items,
		"pagination": l.Pagination,
	})
}

// Binary is an opaque file payload such as a certificate or an export.
type Binary struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}
