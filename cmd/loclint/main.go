// LocLint - static analysis for localizable content.
// Evaluates rule modules against resource files and reports verdicts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/config"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	configFile string
	verbose    bool

	// Analyze flags
	outputPath  string
	sinkNames   []string
	ruleRefs    []string
	ruleSources []string
	workers     int
	strict      bool
	noBaseline  bool
	record      bool
	properties  []string
)

var cfgManager = config.NewManager()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "loclint",
	Short: "LocLint - Lint localizable resource files",
	Long: `LocLint evaluates rule modules against localizable resource files
(translation tables, glossaries) and writes verdict reports.

Rules are either built in or compiled from Go sources at startup.

Examples:
  loclint analyze ./locales
  loclint analyze --rules core --rule-source checks/custom.go ./locales
  loclint watch ./locales
  loclint rules`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cfgManager.Load(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if configFile != "" {
			if err := cfgManager.LoadFile(configFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", configFile, err)
			}
		}
		return initLogger()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("loclint %s (%s)\n", version, commit)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (merged over defaults)")

	// Analyze command flags
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Report output path")
	analyzeCmd.Flags().StringSliceVar(&sinkNames, "sink", nil, "Report sinks (xml, xlsx, s3, log)")
	analyzeCmd.Flags().StringSliceVar(&ruleRefs, "rules", nil, "Rule references (builtin names, bundle files, or bare names)")
	analyzeCmd.Flags().StringSliceVar(&ruleSources, "rule-source", nil, "Rule source files compiled into one bundle")
	analyzeCmd.Flags().IntVar(&workers, "workers", 0, "Concurrent package analyses (0 = number of CPUs)")
	analyzeCmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any verdict fails")
	analyzeCmd.Flags().BoolVar(&noBaseline, "no-baseline", false, "Disable baseline suppression")
	analyzeCmd.Flags().BoolVar(&record, "record", false, "Record new failing verdicts into the baseline")
	analyzeCmd.Flags().StringSliceVar(&properties, "property", nil, "Property names to include in reports (default: all enabled)")

	// Watch shares the analyze flag set
	watchCmd.Flags().AddFlagSet(analyzeCmd.Flags())

	// Rules command flags
	rulesCmd.Flags().StringSliceVar(&ruleRefs, "rules", nil, "Rule references to load")
	rulesCmd.Flags().StringSliceVar(&ruleSources, "rule-source", nil, "Rule source files to compile")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
}

// initLogger installs the process-wide zap logger. Verbose runs get
// development output, everything else gets errors only.
func initLogger() error {
	var (
		log *zap.Logger
		err error
	)
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
		log, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	zap.ReplaceGlobals(log)
	return nil
}
