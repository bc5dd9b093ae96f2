package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/tui"
	"github.com/loclint/loclint/pkg/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Re-analyze resource files whenever they change",
	Long: `Watch resource files and re-run the analysis after changes settle.

Rapid bursts of writes collapse into one run. Each run reloads rules
and rewrites the configured reports from scratch.

Examples:
  loclint watch ./locales
  loclint watch --sink log ./locales`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := applyFlags(cfgManager.Get())
	log := zap.L()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTelemetry, tracer, err := setupTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	watchPaths := args
	if len(watchPaths) == 0 {
		watchPaths = cfg.Watch.Paths
	}
	if len(watchPaths) == 0 {
		watchPaths = []string{"."}
	}

	watcher, err := watch.NewWatcher(cfg.Watch.Debounce)
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, p := range watchPaths {
		if err := watcher.Watch(p); err != nil {
			return fmt.Errorf("cannot watch %s: %w", p, err)
		}
	}

	runAll := func() {
		summary, err := runOnce(ctx, cfg, watchPaths, tracer)
		if err != nil {
			log.Error("analysis run failed", zap.Error(err))
			fmt.Println("  analysis failed:", err)
			return
		}
		tui.PrintRunSummary(summary)
	}

	watcher.OnChange = func(paths []string) {
		log.Info("resource files changed", zap.Strings("paths", paths))
		runAll()
	}
	watcher.OnError = func(err error) {
		log.Warn("watch error", zap.Error(err))
	}

	// Initial pass before waiting for changes.
	runAll()

	fmt.Println("  watching for changes, Ctrl-C to stop")
	if err := watcher.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
