// Package snapshot records the pre-upgrade state of every checked tool so a
// human can roll back by hand after a bad upgrade. A run's snapshot is
// persisted before its first mutating command and never modified afterwards.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/devup/internal/managers"
)

// PackageState is one outdated package captured in a snapshot.
type PackageState struct {
	Name    string `json:"name"`
	Current string `json:"current"`
	Latest  string `json:"latest"`
}

// ToolState is the captured state of one tool. Key names and nesting are
// stable: rollback tooling and humans both read these files.
type ToolState struct {
	Current          string         `json:"current"`
	Latest           string         `json:"latest"`
	OutdatedCount    int            `json:"outdated_count"`
	OutdatedPackages []PackageState `json:"outdated_packages"`
	Manageable       bool           `json:"manageable"`
	Source           string         `json:"source,omitempty"`
	Path             string         `json:"path,omitempty"`
}

// Snapshot is the full pre-upgrade state of one run.
type Snapshot struct {
	CreatedAt time.Time            `json:"created_at"`
	Tools     map[string]ToolState `json:"tools"`
}

// CaptureTool converts a live manager status into its snapshot form.
// Pure: persistence is the Builder's problem.
func CaptureTool(st managers.Status) ToolState {
	ts := ToolState{
		Current:          st.Current,
		Latest:           st.Latest,
		OutdatedCount:    len(st.Outdated),
		OutdatedPackages: make([]PackageState, 0, len(st.Outdated)),
		Manageable:       st.Manageable,
		Source:           st.Source,
		Path:             st.Path,
	}
	for _, pkg := range st.Outdated {
		ts.OutdatedPackages = append(ts.OutdatedPackages, PackageState{
			Name:    pkg.Name,
			Current: pkg.Current,
			Latest:  pkg.Latest,
		})
	}
	return ts
}

// PersistError reports a snapshot that could not be written. It is never
// fatal: callers warn loudly and carry on, because refusing to upgrade over
// a failed snapshot would be worse than upgrading without one.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist snapshot %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Builder accumulates tool states during the check phase of a run and lands
// them in one snapshot file. Freeze runs before the first mutating command;
// from then on the snapshot is immutable and later records are dropped.
type Builder struct {
	path   string
	snap   Snapshot
	frozen bool
	saved  bool
}

// NewBuilder prepares a snapshot that will persist to path.
func NewBuilder(path string, now time.Time) *Builder {
	return &Builder{
		path: path,
		snap: Snapshot{CreatedAt: now, Tools: map[string]ToolState{}},
	}
}

// Path returns the snapshot file location.
func (b *Builder) Path() string { return b.path }

// Frozen reports whether the snapshot has been locked.
func (b *Builder) Frozen() bool { return b.frozen }

// Persisted reports whether the snapshot has reached disk.
func (b *Builder) Persisted() bool { return b.saved }

// Record adds or refreshes one tool's pre-upgrade state. Records arriving
// after Freeze are dropped: the file on disk is already the state of record.
func (b *Builder) Record(name string, ts ToolState) {
	if b.frozen {
		return
	}
	b.snap.Tools[name] = ts
}

// Freeze persists the snapshot and locks it against further change.
// Idempotent: only the first call writes.
func (b *Builder) Freeze() error {
	if b.frozen {
		return nil
	}
	b.frozen = true
	return b.write()
}

// Flush persists a never-frozen snapshot at run close, so check-only runs
// still leave a record. Frozen snapshots are already on disk and are left
// untouched, as is a run that checked nothing.
func (b *Builder) Flush() error {
	if b.frozen || len(b.snap.Tools) == 0 {
		return nil
	}
	return b.write()
}

// write lands the snapshot atomically: temp file in the target directory,
// then rename, so a crash never leaves a half-written snapshot behind.
func (b *Builder) write() error {
	data, err := json.MarshalIndent(&b.snap, "", "  ")
	if err != nil {
		return &PersistError{Path: b.path, Err: err}
	}
	data = append(data, '\n')

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &PersistError{Path: b.path, Err: err}
	}
	tmp := filepath.Join(dir, "."+filepath.Base(b.path)+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &PersistError{Path: b.path, Err: err}
	}
	if err := os.Rename(tmp, b.path); err != nil {
		os.Remove(tmp)
		return &PersistError{Path: b.path, Err: err}
	}
	b.saved = true
	return nil
}

// Load reads a snapshot back. Used by the history command and by tests to
// prove the round trip is lossless.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return s, nil
}
