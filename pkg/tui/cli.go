// Package tui renders CLI output: clean prompts, progress, and the
// post-run summary. No full-screen TUI, just styled streaming text.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	warning = lipgloss.Color("#FFAA00")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(warning).Bold(true)
)

// PrintHeader prints the tool banner.
func PrintHeader(version string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  LOCLINT") + mutedStyle.Render(" v"+version))
	fmt.Println(mutedStyle.Render("  Static analysis for localizable content"))
}

// RunSummary holds the figures shown after an analysis run.
type RunSummary struct {
	Packages   int64
	Skipped    int64
	Objects    int64
	Verdicts   int64
	Failed     int64
	Suppressed int64
	RuleErrors int64
	Duration   time.Duration
}

// PrintRunSummary renders the post-run report.
func PrintRunSummary(s *RunSummary) {
	fmt.Println()
	fmt.Println(mutedStyle.Render("  ─────────────────────────────────────"))
	fmt.Printf("  %s %s\n", mutedStyle.Render("Packages:"), titleStyle.Render(formatNumber(s.Packages)))
	if s.Skipped > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Skipped:"), warnStyle.Render(formatNumber(s.Skipped)))
	}
	fmt.Printf("  %s %s\n", mutedStyle.Render("Objects:"), titleStyle.Render(formatNumber(s.Objects)))
	fmt.Printf("  %s %s\n", mutedStyle.Render("Verdicts:"), titleStyle.Render(formatNumber(s.Verdicts)))

	if s.Failed > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Failed:"), accentStyle.Render(formatNumber(s.Failed)))
	} else {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Failed:"), successStyle.Render("0"))
	}
	if s.Suppressed > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Suppressed:"), mutedStyle.Render(formatNumber(s.Suppressed)))
	}
	if s.RuleErrors > 0 {
		fmt.Printf("  %s %s\n", mutedStyle.Render("Rule errors:"), warnStyle.Render(formatNumber(s.RuleErrors)))
	}
	fmt.Printf("  %s %s\n", mutedStyle.Render("Duration:"), titleStyle.Render(s.Duration.Round(time.Millisecond).String()))
	fmt.Println(mutedStyle.Render("  ─────────────────────────────────────"))
}

// PrintRule renders one rule line for the rules listing.
func PrintRule(name, category, description string) {
	fmt.Printf("  %s %s\n", accentStyle.Render(name), mutedStyle.Render("["+category+"]"))
	if description != "" {
		fmt.Printf("    %s\n", mutedStyle.Render(description))
	}
}

// ClearLine clears the current terminal line.
func ClearLine() {
	fmt.Print("\r\033[K")
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// ShowProgress creates a progress bar for package analysis.
func ShowProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
