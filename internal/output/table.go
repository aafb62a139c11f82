// Package output renders devup's terminal output.
//
// This package includes:
//   - Table rendering for tool status, outdated packages, and run history
//   - Progress bars and spinners for long-running subprocess work
//   - Human-readable formatting for dates and durations
//
// Tables are plain ASCII with ANSI color codes. Color is dropped when
// stdout is not a terminal or NO_COLOR is set, so piped output stays clean.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/devup/internal/store"
)

// ANSI color codes for change magnitude and outcome display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

var colorDisabled bool

// DisableColor forces plain output regardless of terminal detection.
// Used for the --no-color flag and the no_color config key.
func DisableColor() { colorDisabled = true }

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if colorDisabled || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// ToolRow is one line of the check summary: a tool, its versions, and what
// the confirmation policy made of the difference.
type ToolRow struct {
	Tool    string
	Current string
	Latest  string
	Class   string // change magnitude: patch, minor, major, unknown, no-change
	Action  string // auto_approve, confirm_required, manual_review_required, no_action
	Note    string // veto reason, interpreter provenance, registry trouble
}

// RenderToolTable renders the per-tool check summary.
func RenderToolTable(rows []ToolRow) string {
	if len(rows) == 0 {
		return "Nothing checked.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-10s %-14s %-14s %-18s %-16s %s\n",
		"Tool", "Current", "Latest", "Change", "Action", "Note"))
	sb.WriteString(strings.Repeat("─", 100))
	sb.WriteString("\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%-10s %-14s %-14s %s %s %s\n",
			truncate(r.Tool, 10),
			truncate(orDash(r.Current), 14),
			truncate(orDash(r.Latest), 14),
			classCell(r.Class, 18),
			actionCell(r.Action, 16),
			truncate(r.Note, 40)))
	}

	return sb.String()
}

// PackageRow is one outdated package with its own policy verdict.
type PackageRow struct {
	Name    string
	Current string
	Latest  string
	Class   string
	Action  string
}

// RenderPackageTable renders the outdated packages of one tool.
func RenderPackageTable(rows []PackageRow) string {
	if len(rows) == 0 {
		return "No outdated packages.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-24s %-14s %-14s %-18s %s\n",
		"Package", "Current", "Latest", "Change", "Action"))
	sb.WriteString(strings.Repeat("─", 88))
	sb.WriteString("\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%-24s %-14s %-14s %s %s\n",
			truncate(r.Name, 24),
			truncate(orDash(r.Current), 14),
			truncate(orDash(r.Latest), 14),
			classCell(r.Class, 18),
			actionCell(r.Action, 16)))
	}

	return sb.String()
}

// RenderRunTable renders past runs, newest first (the store's ListRuns
// order is preserved).
func RenderRunTable(runs []*store.Run) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-17s %-15s %-9s %-6s %-9s %s\n",
		"Run", "Started", "Duration", "Tools", "Commands", "Snapshot"))
	sb.WriteString(strings.Repeat("─", 92))
	sb.WriteString("\n")

	for _, run := range runs {
		duration := "open"
		if run.FinishedAt != nil {
			duration = formatDuration(run.FinishedAt.Sub(run.StartedAt))
		}

		snapshot := "-"
		if run.SnapshotPath != "" {
			snapshot = run.SnapshotPath
		}

		sb.WriteString(fmt.Sprintf("%-17s %-15s %-9s %-6d %-9d %s\n",
			run.Stamp,
			formatRelativeTime(run.StartedAt),
			duration,
			run.ToolsChecked,
			run.CommandsRun,
			snapshot))
	}

	return sb.String()
}

// RenderEventTable renders the recorded decisions of one run in the order
// they were made.
func RenderEventTable(events []*store.Event) string {
	if len(events) == 0 {
		return "No decisions recorded for this run.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-10s %-20s %-12s %-12s %-10s %-16s %s\n",
		"Tool", "Subject", "From", "To", "Change", "Action", "Outcome"))
	sb.WriteString(strings.Repeat("─", 96))
	sb.WriteString("\n")

	for _, e := range events {
		outcome := e.Outcome
		if IsColorEnabled() {
			outcome = outcomeColor(e.Outcome) + outcome + colorReset
		}

		sb.WriteString(fmt.Sprintf("%-10s %-20s %-12s %-12s %s %-16s %s\n",
			truncate(e.Tool, 10),
			truncate(e.Subject, 20),
			truncate(orDash(e.CurrentVersion), 12),
			truncate(orDash(e.LatestVersion), 12),
			classCell(e.Classification, 10),
			truncate(orDash(e.Action), 16),
			outcome))
	}

	return sb.String()
}

// classCell pads the magnitude to width, then colors it. Padding first
// keeps column alignment: ANSI codes have width on the wire but not on
// the screen.
func classCell(class string, width int) string {
	cell := fmt.Sprintf("%-*s", width, orDash(class))
	if IsColorEnabled() {
		return classColor(class) + cell + colorReset
	}
	return cell
}

// actionCell pads the action label to width, then colors it.
func actionCell(action string, width int) string {
	cell := fmt.Sprintf("%-*s", width, formatActionLabel(action))
	if IsColorEnabled() {
		return actionColor(action) + cell + colorReset
	}
	return cell
}

// actionColor returns the ANSI color for a policy action.
func actionColor(action string) string {
	switch action {
	case "auto_approve":
		return colorGreen
	case "confirm_required":
		return colorYellow
	case "manual_review_required":
		return colorRed
	default:
		return colorGray
	}
}

// classColor returns the ANSI color for a change magnitude.
func classColor(class string) string {
	// "major (downgrade)" colors by its magnitude.
	fields := strings.Fields(strings.ToLower(class))
	if len(fields) == 0 {
		return colorGray
	}
	switch fields[0] {
	case "patch":
		return colorGreen
	case "minor":
		return colorYellow
	case "major":
		return colorRed
	default:
		return colorGray
	}
}

// outcomeColor returns the ANSI color for a recorded outcome.
func outcomeColor(outcome string) string {
	switch strings.ToLower(outcome) {
	case "upgraded", "checked":
		return colorGreen
	case "declined", "skipped":
		return colorYellow
	case "failed":
		return colorRed
	default:
		return colorGray
	}
}

// formatActionLabel returns the display label for a policy action. Labels
// stay ASCII: multi-byte symbols would throw off the padded columns that
// follow them.
func formatActionLabel(action string) string {
	switch action {
	case "auto_approve":
		return "auto"
	case "confirm_required":
		return "confirm"
	case "manual_review_required":
		return "manual review"
	case "no_action":
		return "up to date"
	default:
		return "-"
	}
}

// orDash substitutes a dash for empty values so columns never look broken.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatDuration renders a run duration at second resolution.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	age := time.Since(t)
	if age < time.Minute {
		return "just now"
	}

	units := []struct {
		span time.Duration
		name string
	}{
		{time.Minute, "minute"},
		{time.Hour, "hour"},
		{24 * time.Hour, "day"},
		{7 * 24 * time.Hour, "week"},
		{30 * 24 * time.Hour, "month"},
		{365 * 24 * time.Hour, "year"},
	}

	// Largest unit that fits at least once.
	u := units[0]
	for _, next := range units[1:] {
		if age < next.span {
			break
		}
		u = next
	}

	n := int(age / u.span)
	if n == 1 {
		return "1 " + u.name + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, u.name)
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
