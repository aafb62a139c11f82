package store

import "time"

// Run is one recorded devup invocation. The stamp ties the row to the run's
// artifacts on disk: upgrade_<stamp>.log and snapshot_<stamp>.json.
type Run struct {
	ID           int64
	Stamp        string
	StartedAt    time.Time
	FinishedAt   *time.Time // nil while the run is still open
	LogPath      string
	SnapshotPath string
	ToolsChecked int
	CommandsRun  int
}

// Event is one recorded policy outcome within a run: an upgrade applied,
// declined, vetoed, or failed, for a tool or one of its packages.
type Event struct {
	ID             int64
	RunID          int64
	Tool           string
	Subject        string // the tool itself or a package name
	CurrentVersion string
	LatestVersion  string
	Classification string
	Action         string
	Outcome        string
	Command        string // empty when no command ran (declines, vetoes)
	ExitCode       *int   // nil when no command ran
	CreatedAt      time.Time
}
