// Package backend exposes the named operations callers use in place of a
// remote API. Each operation waits out the simulated network delay, works on
// the in-memory collections and returns a uniform envelope.
package backend

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/attendance"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/auth"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/blob"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/envelope"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/latency"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/metrics"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/notify"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/query"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/queue"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/rules"
	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/store"
)

// Backend runs operations against one Store. It holds no other state, so
// several backends over separate stores never interfere.
type Backend struct {
	st           *store.Store
	latency      *latency.Simulator
	policy       rules.Policy
	attendance   *attendance.Service
	issuer       *auth.Issuer
	blobs        blob.Store
	queue        queue.Queue
	notifier     *notify.Dispatcher
	log          *zap.Logger
	metrics      *metrics.Metrics
	validate     *validator.Validate
	passwordCost int

	students      *rules.Checker[model.Student]
	contributions *rules.Checker[model.Contribution]
	announcements *rules.Checker[model.Announcement]
	projects      *rules.Checker[model.Project]
	clearances    *rules.Checker[rules.ClearanceTransition]
}

// Option configures a Backend.
type Option func(*Backend)

// WithLatency replaces the default 300ms simulator.
func WithLatency(s *latency.Simulator) Option { return func(b *Backend) { b.latency = s } }

// WithPolicy sets the clearance and contribution thresholds.
func WithPolicy(p rules.Policy) Option { return func(b *Backend) { b.policy = p } }

// WithIssuer sets the token issuer used by Login.
func WithIssuer(i *auth.Issuer) Option { return func(b *Backend) { b.issuer = i } }

// WithBlobStore sets where uploaded documents are kept.
func WithBlobStore(s blob.Store) Option { return func(b *Backend) { b.blobs = s } }

// WithQueue sets the queue domain events are published to.
func WithQueue(q queue.Queue) Option { return func(b *Backend) { b.queue = q } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(b *Backend) { b.log = l } }

// WithMetrics sets the Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option { return func(b *Backend) { b.metrics = m } }

// WithPasswordCost sets the bcrypt cost for new passwords.
func WithPasswordCost(cost int) Option { return func(b *Backend) { b.passwordCost = cost } }

// New builds a backend over st.
func New(st *store.Store, opts ...Option) *Backend {
	b := &Backend{
		st:       st,
		latency:  latency.New(latency.DefaultDelay, nil),
		policy:   rules.DefaultPolicy(),
		issuer:   auth.NewIssuer("epta-backend", "dev-signing-secret-change", 15*time.Minute, 24*time.Hour),
		log:      zap.NewNop(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.blobs == nil {
		b.blobs = blob.NewMemory()
	}
	b.attendance = attendance.NewService(st, b.policy)
	b.notifier = notify.NewDispatcher(st, b.queue, b.log, b.metrics)

	lookup := func(id string) (model.User, bool) {
		u, err := st.Users.Get(id)
		return u, err == nil
	}
	b.students = rules.NewChecker(rules.ParentReferenceRule(lookup))
	b.contributions = rules.NewChecker(rules.ContributionAmountRule())
	b.announcements = rules.NewChecker(rules.AnnouncementWindowRule())
	b.projects = rules.NewChecker(rules.ProjectScheduleRule(), rules.ProjectParticipantsRule(lookup))
	b.clearances = rules.NewChecker(rules.ClearanceTransitionRule())
	return b
}

// Store returns the collections the backend operates on.
func (b *Backend) Store() *store.Store { return b.st }

// Policy returns the thresholds in effect.
func (b *Backend) Policy() rules.Policy { return b.policy }

// run waits out op's delay, calls fn and wraps the outcome.
func run[T any](ctx context.Context, b *Backend, op, message string, fn func() (T, error)) envelope.Response[T] {
	start := time.Now()
	b.latency.Wait(op)
	data, err := fn()
	now := b.st.Now()
	if err != nil {
		resp := envelope.Fail[T](translate(err), now)
		fields := []zap.Field{zap.String("operation", op), zap.String("kind", string(resp.Error.Kind)), zap.Error(err)}
		if resp.Error.Kind == envelope.KindInternal {
			b.log.Error("operation failed", fields...)
		} else {
			b.log.Warn("operation failed", fields...)
		}
		b.metrics.Operation(op, string(resp.Error.Kind), time.Since(start))
		return resp
	}
	b.log.Debug("operation completed", zap.String("operation", op), zap.Duration("elapsed", time.Since(start)))
	b.metrics.Operation(op, "ok", time.Since(start))
	return envelope.OK(data, message, now)
}

// translate maps package errors onto envelope kinds.
func translate(err error) error {
	var (
		env      *envelope.Error
		verrs    validator.ValidationErrors
		rule     *rules.ViolationError
		unknown  *query.UnknownFieldError
		badValue *query.InvalidValueError
	)
	switch {
	case errors.As(err, &env):
		return env
	case errors.As(err, &verrs):
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		return envelope.Invalid("Validation failed", fields)
	case errors.As(err, &rule):
		return envelope.Invalid(rule.Error(), rule.Fields())
	case errors.As(err, &unknown):
		return envelope.Invalid(unknown.Error(), map[string]string{unknown.Field: "unknown"})
	case errors.As(err, &badValue):
		return envelope.Invalid(badValue.Error(), map[string]string{badValue.Field: "invalid"})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, blob.ErrNotFound):
		return &envelope.Error{Kind: envelope.KindNotFound, Message: err.Error()}
	case errors.Is(err, store.ErrConflict):
		return &envelope.Error{Kind: envelope.KindConflict, Message: err.Error()}
	}
	return err
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// get loads id from t, reporting a missing record as not_found.
func get[T any](t *store.Table[T], id string) (T, error) {
	v, err := t.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		return v, envelope.NotFound(t.Name(), id)
	}
	return v, err
}

// update applies mutate to id in t, reporting a missing record as not_found.
func update[T any](t *store.Table[T], id string, mutate func(*T) error) (T, error) {
	v, err := t.Update(id, mutate)
	if errors.Is(err, store.ErrNotFound) {
		return v, envelope.NotFound(t.Name(), id)
	}
	return v, err
}

// list runs the query pipeline and keys the page by collection name.
func list[T any](key string, d query.Descriptor[T], items []T, p query.Params) (envelope.List[T], error) {
	page, err := query.Run(d, items, p)
	if err != nil {
		return envelope.List[T]{}, err
	}
	return envelope.NewList(key, page), nil
}

// parent loads id and requires a parent account.
func (b *Backend) parent(id string) (model.User, error) {
	if strings.TrimSpace(id) == "" {
		return model.User{}, envelope.Invalid("parent id is required", map[string]string{"parentId": "required"})
	}
	u, err := get(b.st.Users, id)
	if err != nil {
		return model.User{}, err
	}
	if u.Role != model.RoleParent {
		return model.User{}, envelope.Invalid("user is not a parent", map[string]string{"parentId": "role"})
	}
	return u, nil
}

// eligibility recomputes a parent's clearance standing from current data.
func (b *Backend) eligibility(parentID string) rules.Eligibility {
	att := b.attendance.Summary(parentID)
	contributions := b.st.Contributions.Where(func(c model.Contribution) bool { return c.ParentID == parentID })
	bal := rules.ComputeBalance(b.policy, contributions, b.st.ChildrenOf(parentID))
	return rules.Evaluate(b.policy, att, bal)
}

// activeIDs lists active users, optionally restricted to one role.
func (b *Backend) activeIDs(role model.Role) []string {
	users := b.st.Users.Where(func(u model.User) bool {
		return u.IsActive && (role == "" || u.Role == role)
	})
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func (b *Backend) notify(ctx context.Context, evt queue.Event) {
	evt.OccurredAt = b.st.Now()
	b.notifier.Dispatch(ctx, evt)
}

func ptr[T any](v T) *T { return &v }

// optional returns nil for blank strings.
func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
