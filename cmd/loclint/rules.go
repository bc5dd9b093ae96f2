package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/loader"
	"github.com/loclint/loclint/pkg/registry"
	"github.com/loclint/loclint/pkg/tui"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List loaded rules and registered sinks",
	Long: `Load the configured rule references and list every rule with its
category and description, plus the registered report sinks.

Examples:
  loclint rules
  loclint rules --rules core --rule-source checks/brand.go`,
	RunE: runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg := applyFlags(cfgManager.Get())

	ldr, err := loader.New(loader.Options{
		References:  cfg.Rules.References,
		Sources:     cfg.Rules.Sources,
		BuildDir:    cfg.Rules.BuildDir,
		SearchPaths: cfg.Rules.SearchPaths,
		Macros:      cfg.Rules.Macros,
	}, zap.L())
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	tui.PrintHeader(version)
	fmt.Println()

	for _, mod := range ldr.Modules() {
		fmt.Printf("  module %s (%d rules)\n", mod.Name, len(mod.Rules))
	}
	fmt.Println()

	for _, r := range ldr.Rules() {
		tui.PrintRule(r.Name(), r.Category(), r.Description())
	}

	sinks := registry.Default().SinkNames()
	sort.Strings(sinks)
	fmt.Println()
	fmt.Println("  sinks:", sinks)
	return nil
}
