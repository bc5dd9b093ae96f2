package output

import (
	"testing"

	"github.com/loclint/loclint/pkg/errors"
)

func check(result bool, sev Severity) Item {
	return Item{Operand: OperandDefault, Message: "check", Result: result, Severity: sev}
}

func marker(op Operand) Item {
	return Item{Operand: op}
}

func finalize(t *testing.T, items ...Item) *Entry {
	t.Helper()
	e := NewEntry("r", "c", nil)
	for _, item := range items {
		e.Add(item)
	}
	if err := e.Finalize(); err != nil {
		t.Fatalf("unexpected finalize error: %v", err)
	}
	return e
}

func TestEntry_FinalizeEmpty(t *testing.T) {
	e := NewEntry("r", "c", nil)
	err := e.Finalize()
	if err == nil {
		t.Fatal("expected error for verdict with no checks")
	}
	if !errors.IsCode(err, errors.CodeEmptyVerdict) {
		t.Errorf("expected CodeEmptyVerdict, got %v", errors.GetCode(err))
	}
}

func TestEntry_CombinatorResults(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  bool
	}{
		{"single true", []Item{check(true, SeverityNormal)}, true},
		{"single false", []Item{check(false, SeverityNormal)}, false},
		{"or false true", []Item{check(false, SeverityNormal), check(true, SeverityNormal)}, true},
		{"and true true", []Item{check(true, SeverityNormal), marker(OperandAnd), check(true, SeverityNormal)}, true},
		{"and true false", []Item{check(true, SeverityNormal), marker(OperandAnd), check(false, SeverityNormal)}, false},
		// AND before the first check combines with the initial false
		// accumulator and can never yield true.
		{"and first", []Item{marker(OperandAnd), check(true, SeverityNormal)}, false},
		// The operand is one-shot: after an AND fold the next check is
		// back to OR.
		{"and resets to or", []Item{
			check(true, SeverityNormal),
			marker(OperandAnd), check(false, SeverityNormal),
			check(true, SeverityNormal),
		}, true},
		// Consecutive markers: the last one before a check wins.
		{"marker overwrite", []Item{
			check(true, SeverityNormal),
			marker(OperandAnd), marker(OperandOr), check(false, SeverityNormal),
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := finalize(t, tt.items...)
			if e.Result != tt.want {
				t.Errorf("expected result %v, got %v", tt.want, e.Result)
			}
		})
	}
}

func TestEntry_FinalizeDeterministic(t *testing.T) {
	items := []Item{
		check(false, SeverityLow),
		marker(OperandOr),
		check(true, SeverityHigh),
		marker(OperandAnd),
		check(true, SeverityMedium),
	}

	first := finalize(t, items...)
	second := finalize(t, items...)

	if first.Result != second.Result || first.Severity != second.Severity {
		t.Error("finalize must be deterministic for identical item sequences")
	}
}

func TestEntry_SeverityFromTrueChecks(t *testing.T) {
	// Severity is the max among checks that evaluated true, independent
	// of the combined boolean result.
	e := finalize(t,
		check(true, SeverityHigh),
		marker(OperandAnd),
		check(false, SeverityCritical),
	)
	if e.Result {
		t.Error("expected combined result false")
	}
	if e.Severity != SeverityHigh {
		t.Errorf("expected severity high from the true check, got %v", e.Severity)
	}
}

func TestEntry_SeverityNormalWhenAllFalse(t *testing.T) {
	e := finalize(t,
		check(false, SeverityCritical),
		check(false, SeverityHigh),
	)
	if e.Severity != SeverityNormal {
		t.Errorf("expected normal severity when no check is true, got %v", e.Severity)
	}
}

func TestEntry_MarkersStripped(t *testing.T) {
	e := finalize(t,
		check(true, SeverityLow),
		marker(OperandAnd),
		check(true, SeverityLow),
		marker(OperandOr),
		check(false, SeverityLow),
	)

	if len(e.Items) != 3 {
		t.Fatalf("expected 3 checks after marker stripping, got %d", len(e.Items))
	}
	for _, item := range e.Items {
		if item.Operand != OperandDefault {
			t.Error("finalized items must contain only default checks")
		}
	}
	if !e.Finalized() {
		t.Error("entry must report finalized")
	}
}

func TestSeverity_Ordering(t *testing.T) {
	if !(SeverityNormal < SeverityLow && SeverityLow < SeverityMedium &&
		SeverityMedium < SeverityHigh && SeverityHigh < SeverityCritical) {
		t.Error("severity ordering broken")
	}
}

func TestParseSeverity(t *testing.T) {
	for _, s := range []Severity{SeverityNormal, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		if got := ParseSeverity(s.String()); got != s {
			t.Errorf("round trip failed for %v: got %v", s, got)
		}
	}
	if ParseSeverity("bogus") != SeverityNormal {
		t.Error("unknown severity must parse to normal")
	}
}
