// Package rule defines the protocol a rule uses to fold condition checks
// into one verdict per classification object.
package rule

import (
	"context"
	"fmt"

	"github.com/loclint/loclint/pkg/errors"
	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/output"
)

// Predicate is one opaque condition over a classification object.
type Predicate func(obj *object.Object) bool

// Rule is a bound set of condition checks against one object type.
// Implementations are expected to be stateless apart from rule-authored
// fields; they read objects, never mutate them.
type Rule interface {
	// Name is the unique rule identifier.
	Name() string

	// Category groups related rules in reports.
	Category() string

	// Description is the human-readable summary.
	Description() string

	// ObjectType names the object variant this rule's predicates accept.
	// The engine only invokes the rule against objects whose variant tag
	// matches; there is no unchecked cast anywhere in the dispatch.
	ObjectType() string

	// Run is invoked once per object evaluation and issues checks
	// through the checker.
	Run(ctx context.Context, obj *object.Object, ck *Checker) error
}

// Checker records check outcomes for one (rule, object) evaluation. Each
// Check call appends one default item; And/Or append operand markers that
// gate how the next check folds into the verdict.
type Checker struct {
	obj   *object.Object
	entry *output.Entry
}

// NewChecker binds a checker to an object and its verdict entry.
func NewChecker(obj *object.Object, entry *output.Entry) *Checker {
	return &Checker{obj: obj, entry: entry}
}

// Object returns the object under evaluation.
func (c *Checker) Object() *object.Object { return c.obj }

// And tags the next check to fold with AND. The tag is one-shot: it
// applies to the single next check and resets afterwards.
func (c *Checker) And() *Checker {
	c.entry.Add(output.Item{Operand: output.OperandAnd})
	return c
}

// Or tags the next check to fold with OR (the default).
func (c *Checker) Or() *Checker {
	c.entry.Add(output.Item{Operand: output.OperandOr})
	return c
}

// Check evaluates the predicate against the bound object and records the
// outcome with the given message. Severity defaults to normal.
func (c *Checker) Check(pred Predicate, message string, severity ...output.Severity) {
	sev := output.SeverityNormal
	if len(severity) > 0 {
		sev = severity[0]
	}
	c.entry.Add(output.Item{
		Operand:  output.OperandDefault,
		Message:  message,
		Result:   pred(c.obj),
		Severity: sev,
	})
}

// CheckCreator is the message-creator variant of Check: the recorded
// message is whatever the creator has rendered at call time. The creator
// is typically consulted inside the predicate too, comparing a source
// value against the rendered result.
func (c *Checker) CheckCreator(pred Predicate, mc *MessageCreator, severity ...output.Severity) {
	c.Check(pred, mc.Message(), severity...)
}

// Evaluate runs one rule against one object and returns the finalized
// verdict. A predicate or Run panic is recovered here: it aborts this
// rule's verdict for this object with a coded error and leaves the rest
// of the run to continue.
func Evaluate(ctx context.Context, r Rule, obj *object.Object) (entry *output.Entry, err error) {
	entry = output.NewEntry(r.Name(), r.Category(), obj)
	defer func() {
		if rec := recover(); rec != nil {
			entry = nil
			err = errors.Newf(errors.CodeRulePanic, "rule panicked: %v", rec).
				WithContext("rule", r.Name()).
				WithContext("object", obj.Key())
		}
	}()

	ck := NewChecker(obj, entry)
	if runErr := r.Run(ctx, obj, ck); runErr != nil {
		return nil, fmt.Errorf("rule %s: %w", r.Name(), runErr)
	}
	if err := entry.Finalize(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Definition is the declarative form of a rule, used by interpreted rule
// bundles and builtin rule sets.
type Definition struct {
	Name        string
	Category    string
	Description string
	ObjectType  string
	Run         func(ctx context.Context, obj *object.Object, ck *Checker) error
}

// New converts a definition into a Rule.
func New(def Definition) Rule {
	return &defRule{def: def}
}

type defRule struct {
	def Definition
}

func (r *defRule) Name() string        { return r.def.Name }
func (r *defRule) Category() string    { return r.def.Category }
func (r *defRule) Description() string { return r.def.Description }
func (r *defRule) ObjectType() string  { return r.def.ObjectType }

func (r *defRule) Run(ctx context.Context, obj *object.Object, ck *Checker) error {
	return r.def.Run(ctx, obj, ck)
}
