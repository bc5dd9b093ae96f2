// Package output aggregates per-check results into per-rule verdicts,
// groups verdicts by classification object, and dispatches them to
// pluggable sinks.
package output

import (
	"github.com/loclint/loclint/pkg/errors"
	"github.com/loclint/loclint/pkg/object"
)

// Severity ranks the importance of a check outcome.
type Severity int

const (
	// SeverityNormal is the neutral default when no check evaluated true.
	SeverityNormal Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "normal"
	}
}

// ParseSeverity parses a severity name, defaulting to normal.
func ParseSeverity(s string) Severity {
	switch s {
	case "low":
		return SeverityLow
	case "medium":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityNormal
	}
}

// Operand tags an output item. Default items are real checks; And/Or
// items are operand selectors that gate how the next check folds into
// the verdict.
type Operand int

const (
	OperandDefault Operand = iota
	OperandAnd
	OperandOr
)

// Item is one check outcome (or operand marker) within a verdict.
type Item struct {
	Operand  Operand
	Message  string
	Result   bool
	Severity Severity
}

// Entry is the verdict for one (rule, object) pair: the ordered item
// list, the combined boolean result, and the computed severity.
type Entry struct {
	RuleName string
	Category string
	Object   *object.Object

	Items    []Item
	Result   bool
	Severity Severity

	finalized bool
}

// NewEntry starts an empty verdict for a rule evaluating one object.
func NewEntry(ruleName, category string, obj *object.Object) *Entry {
	return &Entry{RuleName: ruleName, Category: category, Object: obj}
}

// Add appends an item in call order.
func (e *Entry) Add(item Item) {
	e.Items = append(e.Items, item)
}

// Finalized reports whether Finalize has run.
func (e *Entry) Finalized() bool { return e.finalized }

// Finalize computes the combined Result and Severity and strips the
// And/Or operand markers so only real checks remain visible downstream.
//
// The fold starts from a false accumulator with a pending OR. An operand
// marker changes only how the single next check combines; after every
// check the pending operand resets to OR. A consequence rule authors must
// know: AND asserted before the very first check always yields false,
// because it combines against the initial false accumulator.
//
// Severity is computed independently of the boolean combination: the
// maximum severity among items whose own result is true, or normal when
// none evaluated true. A verdict can therefore be false overall yet carry
// the severity of whichever sub-checks passed.
func (e *Entry) Finalize() error {
	if len(e.Items) == 0 {
		return errors.New(errors.CodeEmptyVerdict, "verdict finalized with no checks").
			WithContext("rule", e.RuleName)
	}

	result := false
	pending := OperandOr
	for _, item := range e.Items {
		switch item.Operand {
		case OperandOr:
			pending = OperandOr
		case OperandAnd:
			pending = OperandAnd
		default:
			if pending == OperandOr {
				result = result || item.Result
			} else {
				result = result && item.Result
			}
			pending = OperandOr
		}
	}
	e.Result = result

	severity := SeverityNormal
	checks := e.Items[:0:0]
	for _, item := range e.Items {
		if item.Operand != OperandDefault {
			continue
		}
		checks = append(checks, item)
		if item.Result && item.Severity > severity {
			severity = item.Severity
		}
	}
	e.Items = checks
	e.Severity = severity
	e.finalized = true
	return nil
}
