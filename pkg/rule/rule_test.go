package rule

import (
	"context"
	"errors"
	"testing"

	lerrors "github.com/loclint/loclint/pkg/errors"
	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/output"
	"github.com/loclint/loclint/pkg/property"
)

func testObject(key string) *object.Object {
	return object.New("resource", key, property.NewProvider())
}

func testRule(name string, run func(ctx context.Context, obj *object.Object, ck *Checker) error) Rule {
	return New(Definition{
		Name:       name,
		Category:   "test",
		ObjectType: "resource",
		Run:        run,
	})
}

func TestEvaluate_SingleCheck(t *testing.T) {
	r := testRule("single", func(ctx context.Context, obj *object.Object, ck *Checker) error {
		ck.Check(func(o *object.Object) bool { return true }, "passes", output.SeverityHigh)
		return nil
	})

	entry, err := Evaluate(context.Background(), r, testObject("k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.Result {
		t.Error("expected true result")
	}
	if entry.Severity != output.SeverityHigh {
		t.Errorf("expected high severity, got %v", entry.Severity)
	}
	if entry.RuleName != "single" || entry.Category != "test" {
		t.Error("entry must carry rule identity")
	}
}

func TestEvaluate_OperandChaining(t *testing.T) {
	r := testRule("chain", func(ctx context.Context, obj *object.Object, ck *Checker) error {
		ck.Check(func(o *object.Object) bool { return false }, "first")
		ck.Or().Check(func(o *object.Object) bool { return true }, "second")
		ck.And().Check(func(o *object.Object) bool { return true }, "third")
		return nil
	})

	entry, err := Evaluate(context.Background(), r, testObject("k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.Result {
		t.Error("expected (false OR true) AND true == true")
	}
	if len(entry.Items) != 3 {
		t.Errorf("expected 3 checks after finalize, got %d", len(entry.Items))
	}
}

func TestEvaluate_NoChecks(t *testing.T) {
	r := testRule("empty", func(ctx context.Context, obj *object.Object, ck *Checker) error {
		return nil
	})

	_, err := Evaluate(context.Background(), r, testObject("k"))
	if err == nil {
		t.Fatal("expected error for rule issuing no checks")
	}
	if !lerrors.IsCode(err, lerrors.CodeEmptyVerdict) {
		t.Errorf("expected CodeEmptyVerdict, got %v", lerrors.GetCode(err))
	}
}

func TestEvaluate_RunError(t *testing.T) {
	wantErr := errors.New("rule broke")
	r := testRule("failing", func(ctx context.Context, obj *object.Object, ck *Checker) error {
		return wantErr
	})

	entry, err := Evaluate(context.Background(), r, testObject("k"))
	if entry != nil {
		t.Error("expected nil entry on rule error")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped rule error, got %v", err)
	}
}

func TestEvaluate_PredicatePanicRecovered(t *testing.T) {
	r := testRule("panicking", func(ctx context.Context, obj *object.Object, ck *Checker) error {
		ck.Check(func(o *object.Object) bool {
			panic("predicate exploded")
		}, "check")
		return nil
	})

	entry, err := Evaluate(context.Background(), r, testObject("k"))
	if entry != nil {
		t.Error("expected nil entry after panic")
	}
	if !lerrors.IsCode(err, lerrors.CodeRulePanic) {
		t.Errorf("expected CodeRulePanic, got %v", err)
	}
}

func TestChecker_CheckCreator(t *testing.T) {
	r := testRule("creator", func(ctx context.Context, obj *object.Object, ck *Checker) error {
		mc := NewMessageCreator().SetInit("value must be ")
		rendered := mc.SetContext(42)
		ck.CheckCreator(func(o *object.Object) bool {
			return rendered == "value must be 42"
		}, mc)
		return nil
	})

	entry, err := Evaluate(context.Background(), r, testObject("k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.Result {
		t.Error("expected predicate comparing rendered message to pass")
	}
	if entry.Items[0].Message != "value must be 42" {
		t.Errorf("expected rendered message, got %q", entry.Items[0].Message)
	}
}

func TestMessageCreator_SetInitResets(t *testing.T) {
	mc := NewMessageCreator().SetInit("limit is ")
	mc.SetContext(10)
	if mc.Message() != "limit is 10" {
		t.Errorf("expected appended context, got %q", mc.Message())
	}

	mc.SetInit("limit is ")
	if mc.Message() != "limit is " {
		t.Errorf("SetInit must reset rendered state, got %q", mc.Message())
	}
}

func TestRender(t *testing.T) {
	if got := Render("plain"); got != "plain" {
		t.Errorf("expected plain, got %q", got)
	}
	if got := Render("count: %d", 3); got != "count: 3" {
		t.Errorf("expected formatted output, got %q", got)
	}
	if got := Render("expected ", "abc"); got != "expected abc" {
		t.Errorf("expected appended output, got %q", got)
	}
}

func TestDefinitionRule_Accessors(t *testing.T) {
	r := New(Definition{
		Name:        "n",
		Category:    "c",
		Description: "d",
		ObjectType:  "resource",
	})

	if r.Name() != "n" || r.Category() != "c" || r.Description() != "d" || r.ObjectType() != "resource" {
		t.Error("definition fields must pass through")
	}
}
