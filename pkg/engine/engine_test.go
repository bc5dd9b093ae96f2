package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/baseline"
	"github.com/loclint/loclint/pkg/datasource"
	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/output"
	"github.com/loclint/loclint/pkg/registry"
	"github.com/loclint/loclint/pkg/resfile"
	"github.com/loclint/loclint/pkg/rule"
	"github.com/loclint/loclint/pkg/rules"
)

const tableJSON = `{
  "locale": "de-DE",
  "resources": [
    {"id": "greeting", "source": "hello", "target": "hallo"},
    {"id": "missing", "source": "bye", "target": ""}
  ]
}`

const glossaryYAML = `locale: de-DE
terms:
  hello: hallo
`

// captureSink records every group it receives.
type captureSink struct {
	mu       sync.Mutex
	writes   map[string][]*output.Entry
	finished bool
}

func newCaptureSink() *captureSink {
	return &captureSink{writes: make(map[string][]*output.Entry)}
}

func (s *captureSink) Initialize(cfg output.SinkConfig) error { return nil }

func (s *captureSink) WriteEntry(obj *object.Object, entries []*output.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes[obj.Key()] = append(s.writes[obj.Key()], entries...)
	return nil
}

func (s *captureSink) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = true
	return nil
}

func newTestRegistry() *registry.Registry {
	reg := registry.NewRegistry()
	reg.RegisterFactory(resfile.TableFactory(), "json", "yaml", "yml")
	reg.RegisterFactory(resfile.GlossaryFactory())

	reg.RegisterPropertyAdapter(resfile.NewUnitAdapter())
	reg.RegisterPropertyAdapter(resfile.NewTableAdapter())
	reg.RegisterPropertyAdapter(resfile.NewGlossaryAdapter())

	reg.RegisterAdapter(func(f object.Factories) object.Adapter {
		return resfile.NewGlossaryAwareAdapter(f, reg.PropertyAdapters(resfile.ObjectType), zap.NewNop())
	})
	reg.RegisterAdapter(func(f object.Factories) object.Adapter {
		return resfile.NewAdapter(f, reg.PropertyAdapters(resfile.ObjectType), zap.NewNop())
	})
	return reg
}

func coreRules() []rule.Rule {
	defs := rules.Builtin()
	rs := make([]rule.Rule, 0, len(defs))
	for _, def := range defs {
		rs = append(rs, rule.New(def))
	}
	return rs
}

// writeFixture lays out a resource table plus glossary and returns the
// package descriptor and the table path.
func writeFixture(t *testing.T) (*datasource.Package, string) {
	t.Helper()
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "strings.json")
	if err := os.WriteFile(tablePath, []byte(tableJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	glossaryPath := filepath.Join(dir, "glossary.yaml")
	if err := os.WriteFile(glossaryPath, []byte(glossaryYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	pkg := datasource.NewPackage(resfile.ObjectType,
		datasource.NewInfo(resfile.TableTypeName, tablePath, true),
		datasource.NewInfo(resfile.GlossaryTypeName, glossaryPath, false))
	return pkg, tablePath
}

func TestEngine_Run(t *testing.T) {
	pkg, tablePath := writeFixture(t)
	sink := newCaptureSink()
	store := output.NewStore(nil)
	if err := store.AddSink(sink, output.SinkConfig{}); err != nil {
		t.Fatal(err)
	}

	eng := New(newTestRegistry(), coreRules(), store, zap.NewNop()).SetWorkers(2)
	if err := eng.Run(context.Background(), []*datasource.Package{pkg}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := eng.Metrics()
	if got := m.PackagesAnalyzed.Load(); got != 1 {
		t.Errorf("expected 1 package analyzed, got %d", got)
	}
	if got := m.ObjectsAnalyzed.Load(); got != 2 {
		t.Errorf("expected 2 objects analyzed, got %d", got)
	}
	// 4 core rules over 2 objects.
	if got := m.VerdictsTotal.Load(); got != 8 {
		t.Errorf("expected 8 verdicts, got %d", got)
	}
	// Only the empty translation of "missing" fails.
	if got := m.VerdictsFailed.Load(); got != 1 {
		t.Errorf("expected 1 failed verdict, got %d", got)
	}
	if m.Duration() < 0 {
		t.Error("duration must not be negative")
	}

	if !sink.finished {
		t.Error("sink must be finished after the run")
	}
	if len(sink.writes) != 2 {
		t.Fatalf("expected verdicts for 2 objects, got %d", len(sink.writes))
	}
	for _, id := range []string{"greeting", "missing"} {
		key := tablePath + "#" + id
		if len(sink.writes[key]) != 4 {
			t.Errorf("expected 4 verdicts for %s, got %d", key, len(sink.writes[key]))
		}
	}
}

func TestEngine_SkipsUnsupportedPackage(t *testing.T) {
	pkg, _ := writeFixture(t)
	pkg.ObjectType = "screenshot"

	store := output.NewStore(nil)
	if err := store.AddSink(newCaptureSink(), output.SinkConfig{}); err != nil {
		t.Fatal(err)
	}
	eng := New(newTestRegistry(), coreRules(), store, zap.NewNop())

	if err := eng.Run(context.Background(), []*datasource.Package{pkg}); err != nil {
		t.Fatalf("unsupported package must degrade, not fail: %v", err)
	}
	if got := eng.Metrics().PackagesSkipped.Load(); got != 1 {
		t.Errorf("expected 1 skipped package, got %d", got)
	}
	if got := eng.Metrics().PackagesAnalyzed.Load(); got != 0 {
		t.Errorf("expected 0 analyzed packages, got %d", got)
	}
}

func TestEngine_BaselineSuppression(t *testing.T) {
	pkg, tablePath := writeFixture(t)

	base, err := baseline.OpenFile(filepath.Join(t.TempDir(), "baseline.json"))
	if err != nil {
		t.Fatal(err)
	}
	fp := baseline.Fingerprint("empty-translation", tablePath+"#missing")
	if err := base.Record(context.Background(), fp); err != nil {
		t.Fatal(err)
	}

	sink := newCaptureSink()
	store := output.NewStore(nil)
	if err := store.AddSink(sink, output.SinkConfig{}); err != nil {
		t.Fatal(err)
	}
	eng := New(newTestRegistry(), coreRules(), store, zap.NewNop()).
		SetBaseline(base, false)

	if err := eng.Run(context.Background(), []*datasource.Package{pkg}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := eng.Metrics()
	if got := m.VerdictsSuppressed.Load(); got != 1 {
		t.Errorf("expected 1 suppressed verdict, got %d", got)
	}
	// Failure counting happens before suppression.
	if got := m.VerdictsFailed.Load(); got != 1 {
		t.Errorf("expected 1 failed verdict, got %d", got)
	}
	if got := len(sink.writes[tablePath+"#missing"]); got != 3 {
		t.Errorf("expected 3 verdicts for the suppressed object, got %d", got)
	}
}

func TestEngine_BaselineRecord(t *testing.T) {
	pkg, _ := writeFixture(t)

	base, err := baseline.OpenFile(filepath.Join(t.TempDir(), "baseline.json"))
	if err != nil {
		t.Fatal(err)
	}

	sink := newCaptureSink()
	store := output.NewStore(nil)
	if err := store.AddSink(sink, output.SinkConfig{}); err != nil {
		t.Fatal(err)
	}
	eng := New(newTestRegistry(), coreRules(), store, zap.NewNop()).
		SetBaseline(base, true)

	if err := eng.Run(context.Background(), []*datasource.Package{pkg}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if base.Len() != 1 {
		t.Errorf("expected 1 recorded fingerprint, got %d", base.Len())
	}
	if got := eng.Metrics().VerdictsSuppressed.Load(); got != 0 {
		t.Errorf("record mode must not suppress, got %d", got)
	}
	// Recorded failures still reach the sinks in the recording run.
	total := 0
	for _, entries := range sink.writes {
		total += len(entries)
	}
	if total != 8 {
		t.Errorf("expected 8 flushed verdicts, got %d", total)
	}
}

func TestEngine_PostVerdictHookDrops(t *testing.T) {
	pkg, _ := writeFixture(t)

	sink := newCaptureSink()
	store := output.NewStore(nil)
	if err := store.AddSink(sink, output.SinkConfig{}); err != nil {
		t.Fatal(err)
	}
	eng := New(newTestRegistry(), coreRules(), store, zap.NewNop())
	eng.Hooks().RegisterPostVerdict(func(ctx context.Context, entry *output.Entry) (bool, error) {
		return entry.Result, nil
	})

	if err := eng.Run(context.Background(), []*datasource.Package{pkg}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := 0
	for _, entries := range sink.writes {
		total += len(entries)
		for _, e := range entries {
			if !e.Result {
				t.Errorf("dropped verdict reached sink: %s on %s", e.RuleName, e.Object.Key())
			}
		}
	}
	if total != 7 {
		t.Errorf("expected 7 kept verdicts, got %d", total)
	}
}

func TestEngine_PreAnalyzeHookCounts(t *testing.T) {
	pkg, _ := writeFixture(t)

	store := output.NewStore(nil)
	if err := store.AddSink(newCaptureSink(), output.SinkConfig{}); err != nil {
		t.Fatal(err)
	}
	eng := New(newTestRegistry(), coreRules(), store, zap.NewNop())

	seen := 0
	eng.Hooks().RegisterPreAnalyze(func(ctx context.Context, p *datasource.Package) (context.Context, error) {
		seen++
		return ctx, nil
	})

	if err := eng.Run(context.Background(), []*datasource.Package{pkg}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != 1 {
		t.Errorf("expected pre-analyze hook once, got %d", seen)
	}
}

func TestEngine_EmptyRun(t *testing.T) {
	sink := newCaptureSink()
	store := output.NewStore(nil)
	if err := store.AddSink(sink, output.SinkConfig{}); err != nil {
		t.Fatal(err)
	}
	eng := New(newTestRegistry(), coreRules(), store, zap.NewNop())

	if err := eng.Run(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sink.finished {
		t.Error("writers must be finished even with no packages")
	}
}
