package rules

import (
	"fmt"
	"math"
	"strings"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/model"
)

// Severity captures rule outcomes.
type Severity string

const (
	// SeverityBlock stops the mutation.
	SeverityBlock Severity = "block"
	// SeverityWarn is reported but allows the mutation.
	SeverityWarn Severity = "warn"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Field    string
	Message  string
}

// Result aggregates violations.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if any violation blocks.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// ViolationError is returned when blocking violations are present.
type ViolationError struct {
	Result Result
}

func (e *ViolationError) Error() string {
	msgs := make([]string, 0, len(e.Result.Violations))
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			msgs = append(msgs, v.Message)
		}
	}
	return strings.Join(msgs, "; ")
}

// Fields maps each blocking violation to its field, for validation responses.
func (e *ViolationError) Fields() map[string]string {
	out := make(map[string]string)
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock && v.Field != "" {
			out[v.Field] = v.Message
		}
	}
	return out
}

// Rule is a named check over a pending change of type T.
type Rule[T any] interface {
	Name() string
	Evaluate(subject T) Result
}

type ruleFunc[T any] struct {
	name string
	fn   func(T) Result
}

func (r ruleFunc[T]) Name() string { return r.name }
func (r ruleFunc[T]) Evaluate(s T) Result { return r.fn(s) }

// NewRule adapts a function into a Rule.
func NewRule[T any](name string, fn func(T) Result) Rule[T] {
	return ruleFunc[T]{name: name, fn: fn}
}

// Checker evaluates registered rules before a mutation commits.
type Checker[T any] struct {
	rules []Rule[T]
}

// NewChecker constructs a checker with an initial rule set.
func NewChecker[T any](rules ...Rule[T]) *Checker[T] {
	return &Checker[T]{rules: rules}
}

// Register appends a rule.
func (c *Checker[T]) Register(rule Rule[T]) {
	c.rules = append(c.rules, rule)
}

// Check runs every rule and returns a *ViolationError if any blocks.
func (c *Checker[T]) Check(subject T) error {
	var combined Result
	for _, rule := range c.rules {
		combined.Merge(rule.Evaluate(subject))
	}
	if combined.HasBlocking() {
		return &ViolationError{Result: combined}
	}
	return nil
}

func block(rule, field, format string, args ...any) Result {
	return Result{Violations: []Violation{{Rule: rule, Severity: SeverityBlock, Field: field, Message: fmt.Sprintf(format, args...)}}}
}

// AnnouncementWindowRule requires the expiry date to be on or after the publish date.
func AnnouncementWindowRule() Rule[model.Announcement] {
	return NewRule("announcement_window", func(a model.Announcement) Result {
		if a.PublishDate != nil && a.ExpiryDate != nil && a.ExpiryDate.Before(*a.PublishDate) {
			return block("announcement_window", "expiryDate", "expiry date must not be before publish date")
		}
		return Result{}
	})
}

// ContributionAmountRule requires a positive, finite amount.
func ContributionAmountRule() Rule[model.Contribution] {
	return NewRule("contribution_amount", func(c model.Contribution) Result {
		if math.IsNaN(c.Amount) || math.IsInf(c.Amount, 0) || c.Amount <= 0 {
			return block("contribution_amount", "amount", "amount must be greater than zero")
		}
		return Result{}
	})
}

// ParentReferenceRule requires a student's parent, when set, to be an existing parent account.
func ParentReferenceRule(lookup func(id string) (model.User, bool)) Rule[model.Student] {
	return NewRule("parent_reference", func(s model.Student) Result {
		if s.ParentID == nil {
			return Result{}
		}
		u, ok := lookup(*s.ParentID)
		if !ok {
			return block("parent_reference", "parentId", "parent %s does not exist", *s.ParentID)
		}
		if u.Role != model.RoleParent {
			return block("parent_reference", "parentId", "user %s is not a parent", u.ID)
		}
		return Result{}
	})
}

// ClearanceTransition is a proposed status change on a clearance request.
type ClearanceTransition struct {
	From model.ClearanceStatus
	To   model.ClearanceStatus
}

// ClearanceTransitionRule allows only pending to approved or rejected.
func ClearanceTransitionRule() Rule[ClearanceTransition] {
	return NewRule("clearance_transition", func(t ClearanceTransition) Result {
		if t.From.Terminal() {
			return block("clearance_transition", "status", "clearance request is already %s", t.From)
		}
		if t.From != model.ClearancePending {
			return block("clearance_transition", "status", "clearance request is %s, not pending", t.From)
		}
		if t.To != model.ClearanceApproved && t.To != model.ClearanceRejected {
			return block("clearance_transition", "status", "cannot move clearance request to %s", t.To)
		}
		return Result{}
	})
}

// ProjectScheduleRule requires the end date to be on or after the start date
// and a non-negative budget.
func ProjectScheduleRule() Rule[model.Project] {
	return NewRule("project_schedule", func(p model.Project) Result {
		var r Result
		if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
			r.Merge(block("project_schedule", "endDate", "end date must not be before start date"))
		}
		if math.IsNaN(p.Budget) || p.Budget < 0 {
			r.Merge(block("project_schedule", "budget", "budget must not be negative"))
		}
		return r
	})
}

// ProjectParticipantsRule requires every participant to be an existing parent.
func ProjectParticipantsRule(lookup func(id string) (model.User, bool)) Rule[model.Project] {
	return NewRule("project_participants", func(p model.Project) Result {
		var r Result
		for _, id := range p.Participants {
			u, ok := lookup(id)
			if !ok {
				r.Merge(block("project_participants", "participants", "participant %s does not exist", id))
				continue
			}
			if u.Role != model.RoleParent {
				r.Merge(block("project_participants", "participants", "user %s is not a parent", id))
			}
		}
		return r
	})
}
