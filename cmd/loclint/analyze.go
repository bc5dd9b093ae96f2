package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/baseline"
	"github.com/loclint/loclint/pkg/config"
	"github.com/loclint/loclint/pkg/datasource"
	"github.com/loclint/loclint/pkg/engine"
	"github.com/loclint/loclint/pkg/loader"
	"github.com/loclint/loclint/pkg/output"
	"github.com/loclint/loclint/pkg/registry"
	"github.com/loclint/loclint/pkg/resfile"
	"github.com/loclint/loclint/pkg/telemetry"
	"github.com/loclint/loclint/pkg/tui"

	// Registered rule sets and sinks.
	_ "github.com/loclint/loclint/pkg/rules"
	_ "github.com/loclint/loclint/pkg/sinks"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [paths...]",
	Short: "Analyze resource files and write verdict reports",
	Long: `Analyze resource files against the loaded rule modules.

Paths may be resource files or directories; directories are walked for
files of registered resource types. A glossary file next to a resource
table is attached to its package as a secondary source.

Examples:
  loclint analyze ./locales
  loclint analyze de.json fr.json
  loclint analyze --rules core --rule-source checks/brand.go ./locales
  loclint analyze --sink xml --sink log -o report.xml ./locales`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := applyFlags(cfgManager.Get())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTelemetry, tracerOpt, err := setupTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	summary, err := runOnce(ctx, cfg, args, tracerOpt)
	if err != nil {
		return err
	}

	tui.PrintRunSummary(summary)
	if strict && summary.Failed > 0 {
		return fmt.Errorf("%d failing verdicts", summary.Failed)
	}
	return nil
}

// runOnce performs one complete analysis pass: load rules, open sinks,
// assemble packages, run the engine. Watch mode calls it repeatedly.
func runOnce(ctx context.Context, cfg *config.Config, args []string, tracer *telemetry.OTLPExporter) (*tui.RunSummary, error) {
	log := zap.L()

	ldr, err := loader.New(loader.Options{
		References:  cfg.Rules.References,
		Sources:     cfg.Rules.Sources,
		BuildDir:    cfg.Rules.BuildDir,
		SearchPaths: cfg.Rules.SearchPaths,
		Macros:      cfg.Rules.Macros,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	if len(ldr.Rules()) == 0 {
		return nil, fmt.Errorf("no rules loaded")
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	packages, err := collectPackages(registry.Default(), args)
	if err != nil {
		return nil, err
	}
	if len(packages) == 0 {
		return nil, fmt.Errorf("no resource files found")
	}

	eng := engine.New(registry.Default(), ldr.Rules(), store, log).
		SetWorkers(cfg.Engine.Workers)

	if tracer != nil && tracer.IsInitialized() {
		eng.SetTracer(tracer.Tracer())
	}

	closeBaseline, err := setupBaseline(cfg, eng)
	if err != nil {
		return nil, err
	}
	defer closeBaseline()

	bar := tui.ShowProgress(int64(len(packages)), "Analyzing")
	eng.Hooks().RegisterPreAnalyze(func(ctx context.Context, pkg *datasource.Package) (context.Context, error) {
		bar.Add(1)
		return ctx, nil
	})

	runErr := eng.Run(ctx, packages)
	bar.Finish()
	tui.ClearLine()
	if runErr != nil {
		return nil, fmt.Errorf("analysis failed: %w", runErr)
	}

	m := eng.Metrics()
	return &tui.RunSummary{
		Packages:   m.PackagesAnalyzed.Load(),
		Skipped:    m.PackagesSkipped.Load(),
		Objects:    m.ObjectsAnalyzed.Load(),
		Verdicts:   m.VerdictsTotal.Load(),
		Failed:     m.VerdictsFailed.Load(),
		Suppressed: m.VerdictsSuppressed.Load(),
		RuleErrors: m.RuleErrors.Load(),
		Duration:   m.Duration(),
	}, nil
}

// applyFlags overlays command-line flags on the merged configuration.
func applyFlags(cfg *config.Config) *config.Config {
	out := *cfg
	if outputPath != "" {
		out.Output.Path = outputPath
	}
	if len(sinkNames) > 0 {
		out.Output.Sinks = sinkNames
	}
	if len(properties) > 0 {
		out.Output.Properties = properties
	}
	if len(ruleRefs) > 0 {
		out.Rules.References = ruleRefs
	}
	if len(ruleSources) > 0 {
		out.Rules.Sources = ruleSources
	}
	if workers > 0 {
		out.Engine.Workers = workers
	}
	if record {
		out.Engine.Record = true
	}
	if noBaseline {
		out.Baseline.Enabled = false
	}
	return &out
}

// openStore creates the output store with every configured sink.
func openStore(cfg *config.Config, log *zap.Logger) (*output.Store, error) {
	sinkCfg := output.SinkConfig{
		Path:       cfg.Output.Path,
		SchemaPath: cfg.Output.SchemaPath,
		Properties: cfg.Output.Properties,
	}

	store := output.NewStore(log)
	for _, name := range cfg.Output.Sinks {
		sink, err := registry.Default().GetSink(name, sinkCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create sink %q: %w", name, err)
		}
		if err := store.AddSink(sink, sinkCfg); err != nil {
			return nil, fmt.Errorf("failed to initialize sink %q: %w", name, err)
		}
	}
	return store, nil
}

// setupBaseline wires the configured baseline store into the engine.
// Returns a no-op closer when the baseline is disabled.
func setupBaseline(cfg *config.Config, eng *engine.Engine) (func(), error) {
	if !cfg.Baseline.Enabled {
		return func() {}, nil
	}

	var (
		store baseline.Store
		err   error
	)
	if cfg.Baseline.Redis.Address != "" {
		rc := baseline.DefaultRedisConfig(cfg.Baseline.Redis.Address)
		rc.Password = cfg.Baseline.Redis.Password
		rc.Database = cfg.Baseline.Redis.Database
		if cfg.Baseline.Redis.Prefix != "" {
			rc.Prefix = cfg.Baseline.Redis.Prefix
		}
		if cfg.Baseline.Redis.TTL > 0 {
			rc.TTL = cfg.Baseline.Redis.TTL
		}
		store, err = baseline.OpenRedis(rc)
	} else {
		store, err = baseline.OpenFile(cfg.Baseline.File)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open baseline: %w", err)
	}

	eng.SetBaseline(store, cfg.Engine.Record)
	return func() {
		if err := store.Close(); err != nil {
			zap.L().Warn("failed to close baseline store", zap.Error(err))
		}
	}, nil
}

// setupTelemetry initializes the OTLP exporter when enabled. The
// returned shutdown func always exists.
func setupTelemetry(ctx context.Context, cfg *config.Config) (func(), *telemetry.OTLPExporter, error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil, nil
	}

	otlp := telemetry.DefaultOTLPConfig(cfg.Telemetry.ServiceName)
	otlp.ServiceVersion = version
	if cfg.Telemetry.Endpoint != "" {
		otlp.Endpoint = cfg.Telemetry.Endpoint
	}
	otlp.InsecureTLS = cfg.Telemetry.Insecure
	if cfg.Telemetry.SampleRate > 0 {
		otlp.SamplingRatio = cfg.Telemetry.SampleRate
	}

	exporter := telemetry.NewOTLPExporter(otlp)
	if err := exporter.Init(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	return func() {
		if err := exporter.Shutdown(context.Background()); err != nil {
			zap.L().Warn("failed to shut down telemetry", zap.Error(err))
		}
	}, exporter, nil
}

// collectPackages assembles one analysis package per resource table
// found under the given paths. A file named glossary.* in the same
// directory becomes a secondary source for every table next to it.
func collectPackages(reg *registry.Registry, paths []string) ([]*datasource.Package, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var files []string
	for _, p := range paths {
		stat, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		if !stat.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != p {
					return filepath.SkipDir
				}
				return nil
			}
			if _, ok := reg.TypeForFile(path); ok {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	var packages []*datasource.Package
	for _, f := range files {
		if isGlossaryFile(f) {
			continue
		}
		typeName, ok := reg.TypeForFile(f)
		if !ok {
			return nil, fmt.Errorf("unsupported resource file: %s", f)
		}

		primary := datasource.NewInfo(typeName, f, true)
		var secondaries []*datasource.Info
		if g, ok := glossaryFor(f); ok {
			secondaries = append(secondaries, datasource.NewInfo(resfile.GlossaryTypeName, g, false))
		}
		packages = append(packages, datasource.NewPackage(resfile.ObjectType, primary, secondaries...))
	}
	return packages, nil
}

// isGlossaryFile reports whether a path names a glossary rather than a
// resource table.
func isGlossaryFile(path string) bool {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) == "glossary"
}

// glossaryFor finds the glossary file sharing a directory with the
// given table, if any.
func glossaryFor(table string) (string, bool) {
	dir := filepath.Dir(table)
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		candidate := filepath.Join(dir, "glossary"+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}
