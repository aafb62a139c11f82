package output

import (
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/devup/internal/store"
)

func TestRenderToolTable(t *testing.T) {
	tests := []struct {
		name     string
		rows     []ToolRow
		contains []string
	}{
		{
			name:     "empty rows",
			rows:     []ToolRow{},
			contains: []string{"Nothing checked"},
		},
		{
			name: "patch upgrade auto approved",
			rows: []ToolRow{
				{Tool: "homebrew", Current: "4.1.0", Latest: "4.1.2", Class: "patch", Action: "auto_approve"},
			},
			contains: []string{"homebrew", "4.1.0", "4.1.2", "patch", "auto"},
		},
		{
			name: "major upgrade needs manual review",
			rows: []ToolRow{
				{Tool: "npm", Current: "9.8.1", Latest: "10.2.4", Class: "major", Action: "manual_review_required"},
			},
			contains: []string{"npm", "9.8.1", "10.2.4", "major", "manual review"},
		},
		{
			name: "vetoed tool keeps its note",
			rows: []ToolRow{
				{Tool: "python", Current: "3.9.6", Class: "unknown", Note: "system interpreter, not managed here"},
			},
			contains: []string{"python", "3.9.6", "unknown", "system interpreter"},
		},
		{
			name: "missing latest shows a dash",
			rows: []ToolRow{
				{Tool: "conda", Current: "24.1.0", Class: "unknown", Action: "confirm_required"},
			},
			contains: []string{"conda", "24.1.0", "-", "confirm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderToolTable(tt.rows)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("RenderToolTable() missing expected string %q\nGot:\n%s", expected, result)
				}
			}
		})
	}
}

func TestRenderPackageTable(t *testing.T) {
	tests := []struct {
		name     string
		rows     []PackageRow
		contains []string
	}{
		{
			name:     "empty rows",
			rows:     []PackageRow{},
			contains: []string{"No outdated packages"},
		},
		{
			name: "mixed magnitudes",
			rows: []PackageRow{
				{Name: "wget", Current: "1.21.3", Latest: "1.21.4", Class: "patch", Action: "auto_approve"},
				{Name: "typescript", Current: "5.2.2", Latest: "6.0.0", Class: "major", Action: "manual_review_required"},
			},
			contains: []string{"wget", "1.21.4", "patch", "typescript", "6.0.0", "major"},
		},
		{
			name: "long names truncate",
			rows: []PackageRow{
				{Name: "a-package-with-a-very-long-name", Current: "1.0.0", Latest: "1.0.1", Class: "patch", Action: "auto_approve"},
			},
			contains: []string{"..."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderPackageTable(tt.rows)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("RenderPackageTable() missing expected string %q\nGot:\n%s", expected, result)
				}
			}
		})
	}
}

func TestRenderRunTable(t *testing.T) {
	now := time.Now()
	finished := now.Add(-time.Hour).Add(90 * time.Second)

	tests := []struct {
		name     string
		runs     []*store.Run
		contains []string
	}{
		{
			name:     "empty runs",
			runs:     []*store.Run{},
			contains: []string{"No runs recorded"},
		},
		{
			name: "finished run",
			runs: []*store.Run{
				{
					Stamp:        "20250114_103045",
					StartedAt:    now.Add(-time.Hour),
					FinishedAt:   &finished,
					ToolsChecked: 4,
					CommandsRun:  7,
					SnapshotPath: "/home/dev/.devup/logs/snapshot_20250114_103045.json",
				},
			},
			contains: []string{"20250114_103045", "1 hour ago", "1m30s", "snapshot_20250114_103045.json"},
		},
		{
			name: "open run shows no duration",
			runs: []*store.Run{
				{Stamp: "20250115_090000", StartedAt: now.Add(-time.Minute)},
			},
			contains: []string{"20250115_090000", "open"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderRunTable(tt.runs)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("RenderRunTable() missing expected string %q\nGot:\n%s", expected, result)
				}
			}
		})
	}
}

func TestRenderEventTable(t *testing.T) {
	tests := []struct {
		name     string
		events   []*store.Event
		contains []string
	}{
		{
			name:     "empty events",
			events:   []*store.Event{},
			contains: []string{"No decisions recorded"},
		},
		{
			name: "upgrade and decline",
			events: []*store.Event{
				{
					Tool: "homebrew", Subject: "wget",
					CurrentVersion: "1.21.3", LatestVersion: "1.21.4",
					Classification: "patch", Action: "auto_approve", Outcome: "upgraded",
				},
				{
					Tool: "npm", Subject: "typescript",
					CurrentVersion: "5.2.2", LatestVersion: "6.0.0",
					Classification: "major", Action: "manual_review_required", Outcome: "declined",
				},
			},
			contains: []string{"wget", "1.21.4", "upgraded", "typescript", "major", "declined"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderEventTable(tt.events)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("RenderEventTable() missing expected string %q\nGot:\n%s", expected, result)
				}
			}
		})
	}
}

func TestFormatActionLabel(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{"auto_approve", "auto"},
		{"confirm_required", "confirm"},
		{"manual_review_required", "manual review"},
		{"no_action", "up to date"},
		{"", "-"},
		{"something-else", "-"},
	}

	for _, tt := range tests {
		if got := formatActionLabel(tt.action); got != tt.want {
			t.Errorf("formatActionLabel(%q) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{90 * time.Second, "1m30s"},
		{1499 * time.Millisecond, "1s"},
		{-5 * time.Second, "0s"},
		{2*time.Hour + 3*time.Minute, "2h3m0s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero time", time.Time{}, "never"},
		{"just now", now.Add(-30 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5 minutes ago"},
		{"one hour", now.Add(-1 * time.Hour), "1 hour ago"},
		{"days", now.Add(-3 * 24 * time.Hour), "3 days ago"},
		{"weeks", now.Add(-14 * 24 * time.Hour), "2 weeks ago"},
		{"months", now.Add(-60 * 24 * time.Hour), "2 months ago"},
		{"years", now.Add(-800 * 24 * time.Hour), "2 years ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRelativeTime(tt.t); got != tt.want {
				t.Errorf("formatRelativeTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s      string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"this-is-a-long-string", 10, "this-is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
	}

	for _, tt := range tests {
		if got := truncate(tt.s, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
		}
	}
}
