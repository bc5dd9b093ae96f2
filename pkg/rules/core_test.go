package rules

import (
	"context"
	"testing"

	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/output"
	"github.com/loclint/loclint/pkg/property"
	"github.com/loclint/loclint/pkg/resfile"
	"github.com/loclint/loclint/pkg/rule"
)

func makeObject(t *testing.T, unit *resfile.Unit, glossary *resfile.Glossary) *object.Object {
	t.Helper()

	table := &resfile.Table{Path: "test.json", Locale: "de-DE", Units: []*resfile.Unit{unit}}

	provider := property.NewProvider()
	provider.Add(resfile.NewUnitAdapter(), unit)
	provider.Add(resfile.NewTableAdapter(), table)
	if glossary != nil {
		provider.Add(resfile.NewGlossaryAdapter(), glossary)
	}
	return object.New(resfile.ObjectType, "test.json#"+unit.ID, provider)
}

func evaluate(t *testing.T, name string, obj *object.Object) *output.Entry {
	t.Helper()
	for _, def := range Builtin() {
		if def.Name != name {
			continue
		}
		entry, err := rule.Evaluate(context.Background(), rule.New(def), obj)
		if err != nil {
			t.Fatalf("rule %s: unexpected error: %v", name, err)
		}
		return entry
	}
	t.Fatalf("no builtin rule named %s", name)
	return nil
}

func TestEmptyTranslation(t *testing.T) {
	passing := makeObject(t, &resfile.Unit{ID: "a", Source: "Hello", Target: "Hallo"}, nil)
	if entry := evaluate(t, "empty-translation", passing); !entry.Result {
		t.Error("translated unit must pass")
	}

	failing := makeObject(t, &resfile.Unit{ID: "b", Source: "Hello", Target: "  "}, nil)
	if entry := evaluate(t, "empty-translation", failing); entry.Result {
		t.Error("whitespace-only translation must fail")
	}

	// An empty source needs no translation.
	emptySource := makeObject(t, &resfile.Unit{ID: "c", Source: "", Target: ""}, nil)
	if entry := evaluate(t, "empty-translation", emptySource); !entry.Result {
		t.Error("unit with empty source must pass")
	}
}

func TestLengthLimit(t *testing.T) {
	noLimit := makeObject(t, &resfile.Unit{ID: "a", Source: "Hi", Target: "Hallo zusammen"}, nil)
	if entry := evaluate(t, "length-limit", noLimit); !entry.Result {
		t.Error("unit without a limit must pass")
	}

	within := makeObject(t, &resfile.Unit{ID: "b", Source: "Hi", Target: "Hallo", MaxLength: 10}, nil)
	if entry := evaluate(t, "length-limit", within); !entry.Result {
		t.Error("translation within the limit must pass")
	}

	over := makeObject(t, &resfile.Unit{ID: "c", Source: "Hi", Target: "Hallo zusammen", MaxLength: 5}, nil)
	entry := evaluate(t, "length-limit", over)
	if entry.Result {
		t.Error("translation over the limit must fail")
	}
}

func TestPlaceholderParity(t *testing.T) {
	matching := makeObject(t, &resfile.Unit{ID: "a", Source: "Hello {0}", Target: "Hallo {0}"}, nil)
	if entry := evaluate(t, "placeholder-parity", matching); !entry.Result {
		t.Error("matching placeholders must pass")
	}

	missing := makeObject(t, &resfile.Unit{ID: "b", Source: "Hello {0}", Target: "Hallo"}, nil)
	entry := evaluate(t, "placeholder-parity", missing)
	if entry.Result {
		t.Error("missing placeholder must fail")
	}
	if entry.Items[0].Message != "translation must contain {0}" {
		t.Errorf("unexpected message: %q", entry.Items[0].Message)
	}

	printf := makeObject(t, &resfile.Unit{ID: "c", Source: "Usage: %s", Target: "Verwendung: %s"}, nil)
	if entry := evaluate(t, "placeholder-parity", printf); !entry.Result {
		t.Error("printf placeholders must be honored")
	}
}

func TestGlossaryCompliance(t *testing.T) {
	glossary := &resfile.Glossary{
		Locale: "de-DE",
		Terms:  map[string]string{"browser": "Browser"},
	}

	compliant := makeObject(t, &resfile.Unit{ID: "a", Source: "Open your browser", Target: "Öffne deinen Browser"}, glossary)
	if entry := evaluate(t, "glossary-compliance", compliant); !entry.Result {
		t.Error("mandated terminology must pass")
	}

	violating := makeObject(t, &resfile.Unit{ID: "b", Source: "Open your browser", Target: "Öffne deinen Webbetrachter"}, glossary)
	entry := evaluate(t, "glossary-compliance", violating)
	if entry.Result {
		t.Error("missing mandated terminology must fail")
	}
	if entry.Severity != output.SeverityNormal {
		// Only the availability check evaluated true and it carries no
		// severity.
		t.Errorf("unexpected severity: %v", entry.Severity)
	}

	// A package without a glossary has nothing to comply with; every
	// unit must pass rather than fail the availability gate.
	noGlossary := makeObject(t, &resfile.Unit{ID: "c", Source: "browser", Target: "Webbetrachter"}, nil)
	entry = evaluate(t, "glossary-compliance", noGlossary)
	if !entry.Result {
		t.Errorf("unit without a glossary must pass, got items %+v", entry.Items)
	}
}

func TestBuiltinRegistered(t *testing.T) {
	defs := Builtin()
	if len(defs) != 4 {
		t.Fatalf("expected 4 core rules, got %d", len(defs))
	}
	for _, def := range defs {
		if def.ObjectType != resfile.ObjectType {
			t.Errorf("rule %s bound to wrong object type %q", def.Name, def.ObjectType)
		}
		if def.Run == nil {
			t.Errorf("rule %s has no body", def.Name)
		}
	}
}
