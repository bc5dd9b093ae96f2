// Package engine runs rule sets over classification objects realized
// from data-source packages and dispatches the resulting verdicts.
package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/loclint/loclint/pkg/baseline"
	"github.com/loclint/loclint/pkg/datasource"
	"github.com/loclint/loclint/pkg/errors"
	"github.com/loclint/loclint/pkg/hooks"
	"github.com/loclint/loclint/pkg/output"
	"github.com/loclint/loclint/pkg/registry"
	"github.com/loclint/loclint/pkg/rule"
)

// Metrics collects runtime statistics for one analysis run.
type Metrics struct {
	StartTime time.Time
	EndTime   time.Time

	PackagesAnalyzed   atomic.Int64
	PackagesSkipped    atomic.Int64
	ObjectsAnalyzed    atomic.Int64
	VerdictsTotal      atomic.Int64
	VerdictsFailed     atomic.Int64
	VerdictsSuppressed atomic.Int64
	RuleErrors         atomic.Int64
}

// Duration returns the wall time of the run.
func (m *Metrics) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

// Engine coordinates one analysis run: adapter selection, object
// realization, rule evaluation, and verdict dispatch. Packages are
// analyzed with bounded parallelism; within one package each rule
// evaluates its objects sequentially, so rule-instance state (message
// creators) never races.
type Engine struct {
	reg   *registry.Registry
	rules []rule.Rule
	store *output.Store
	hooks *hooks.Manager
	log   *zap.Logger

	workers  int
	tracer   trace.Tracer
	baseline baseline.Store
	record   bool

	flushMu sync.Mutex
	metrics *Metrics
	running atomic.Bool
}

// New creates an engine over a registry, a loaded rule set, and an
// output store.
func New(reg *registry.Registry, rules []rule.Rule, store *output.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		reg:     reg,
		rules:   rules,
		store:   store,
		hooks:   hooks.NewManager(),
		log:     log,
		workers: workers,
		tracer:  noop.NewTracerProvider().Tracer("loclint"),
		metrics: &Metrics{},
	}
}

// SetWorkers bounds package-level parallelism.
func (e *Engine) SetWorkers(n int) *Engine {
	if n > 0 {
		e.workers = n
	}
	return e
}

// SetTracer installs a tracer for per-package spans.
func (e *Engine) SetTracer(t trace.Tracer) *Engine {
	if t != nil {
		e.tracer = t
	}
	return e
}

// SetBaseline installs a baseline store. Failing verdicts whose
// fingerprint is already recorded are suppressed from output; with
// record set, this run's failures are written back instead.
func (e *Engine) SetBaseline(b baseline.Store, record bool) *Engine {
	e.baseline = b
	e.record = record
	return e
}

// Hooks returns the hook manager for registration.
func (e *Engine) Hooks() *hooks.Manager { return e.hooks }

// Metrics returns the run metrics.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Run analyzes every package and finishes the output writers. Packages
// run concurrently up to the worker bound; verdict flushing is
// serialized. The returned error is the first fatal failure; per-package
// degradation (unsupported packages, rule panics) is counted and logged
// but does not abort the run.
func (e *Engine) Run(ctx context.Context, packages []*datasource.Package) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New(errors.CodeUnknown, "engine already running")
	}
	defer e.running.Store(false)

	e.metrics.StartTime = time.Now()
	defer func() { e.metrics.EndTime = time.Now() }()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, pkg := range packages {
		pkg := pkg
		g.Go(func() error {
			return e.analyzePackage(gctx, pkg)
		})
	}
	runErr := g.Wait()

	if err := e.store.FinishOutputWriters(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (e *Engine) analyzePackage(ctx context.Context, pkg *datasource.Package) error {
	ctx, span := e.tracer.Start(ctx, "loclint.package",
		trace.WithAttributes(attribute.String("object_type", pkg.ObjectType)))
	defer span.End()
	defer func() { _ = pkg.Dispose() }()

	ctx, err := e.hooks.RunPreAnalyze(ctx, pkg)
	if err != nil {
		return e.hooks.RunError(ctx, err, "pre-analyze")
	}

	adapter, ok := e.reg.AdapterFor(pkg)
	if !ok {
		// Graceful degradation: no adapter claims the package.
		e.metrics.PackagesSkipped.Add(1)
		e.log.Warn("no adapter supports package",
			zap.String("object_type", pkg.ObjectType))
		return nil
	}

	objects, err := adapter.InitializeObjects(ctx, pkg)
	if err != nil {
		e.metrics.PackagesSkipped.Add(1)
		return e.hooks.RunError(ctx, err, "initialize-objects")
	}
	e.metrics.PackagesAnalyzed.Add(1)
	e.metrics.ObjectsAnalyzed.Add(int64(len(objects)))

	// Rules own mutable state (message creators); evaluate one rule's
	// objects sequentially rather than fanning out per object.
	entries := make([]*output.Entry, 0, len(objects))
	for _, r := range e.rules {
		for _, obj := range objects {
			if obj.Type() != r.ObjectType() {
				continue
			}
			entry, err := rule.Evaluate(ctx, r, obj)
			if err != nil {
				e.metrics.RuleErrors.Add(1)
				e.log.Error("rule evaluation failed",
					zap.String("rule", r.Name()),
					zap.String("object", obj.Key()),
					zap.Error(err))
				if hookErr := e.hooks.RunError(ctx, err, "evaluate"); hookErr != err {
					return hookErr
				}
				continue
			}

			e.metrics.VerdictsTotal.Add(1)
			if !entry.Result {
				e.metrics.VerdictsFailed.Add(1)
			}

			keep, err := e.applyBaseline(ctx, entry)
			if err != nil {
				return e.hooks.RunError(ctx, err, "baseline")
			}
			if !keep {
				continue
			}

			keep, err = e.hooks.RunPostVerdict(ctx, entry)
			if err != nil {
				return e.hooks.RunError(ctx, err, "post-verdict")
			}
			if keep {
				entries = append(entries, entry)
			}
		}
	}

	if err := e.hooks.RunPreFlush(ctx, entries); err != nil {
		return e.hooks.RunError(ctx, err, "pre-flush")
	}

	e.flushMu.Lock()
	defer e.flushMu.Unlock()
	if err := e.store.FlushOutput(entries); err != nil {
		return e.hooks.RunError(ctx, err, "flush")
	}
	span.SetAttributes(attribute.Int("verdicts", len(entries)))
	return nil
}

// applyBaseline suppresses known failures, or records new ones when the
// engine is in record mode. Passing verdicts are never suppressed.
func (e *Engine) applyBaseline(ctx context.Context, entry *output.Entry) (bool, error) {
	if e.baseline == nil || entry.Result {
		return true, nil
	}

	fp := baseline.Fingerprint(entry.RuleName, entry.Object.Key())
	if e.record {
		return true, e.baseline.Record(ctx, fp)
	}

	known, err := e.baseline.Has(ctx, fp)
	if err != nil {
		return false, err
	}
	if known {
		e.metrics.VerdictsSuppressed.Add(1)
		return false, nil
	}
	return true, nil
}
