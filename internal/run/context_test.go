package run

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/devup/internal/managers"
	"github.com/blackwell-systems/devup/internal/runlog"
	"github.com/blackwell-systems/devup/internal/snapshot"
	"github.com/blackwell-systems/devup/internal/store"
)

type scriptRunner struct {
	results map[string]managers.Result
	errs    map[string]error
}

func (s *scriptRunner) Run(_ context.Context, argv ...string) (managers.Result, error) {
	key := strings.Join(argv, " ")
	if res, ok := s.results[key]; ok {
		return res, s.errs[key]
	}
	return managers.Result{ExitCode: -1}, fmt.Errorf("unscripted command: %s", key)
}

func (s *scriptRunner) LookPath(bin string) (string, error) {
	return "/opt/homebrew/bin/" + bin, nil
}

func newHistory(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.CreateSchema())
	t.Cleanup(func() { st.Close() })
	return st
}

func readLog(t *testing.T, c *Context) string {
	t.Helper()
	data, err := os.ReadFile(c.LogPath)
	require.NoError(t, err)
	return string(data)
}

func TestOpenCreatesArtifacts(t *testing.T) {
	dir := t.TempDir()
	st := newHistory(t)

	c := Open(dir, st, nil)
	defer c.Close()

	assert.Regexp(t, regexp.MustCompile(`^\d{8}_\d{6}$`), c.Stamp)
	assert.Equal(t, filepath.Join(dir, "upgrade_"+c.Stamp+".log"), c.LogPath)
	assert.Equal(t, filepath.Join(dir, "snapshot_"+c.Stamp+".json"), c.SnapshotPath)
	require.NotNil(t, c.Log)
	require.NotNil(t, c.Snap)

	// The log file exists from the start and already holds the run banner.
	assert.Contains(t, readLog(t, c), "devup run "+c.Stamp+" started")

	// History has an open row for the run.
	row, err := st.GetRunByStamp(c.Stamp)
	require.NoError(t, err)
	assert.Equal(t, c.LogPath, row.LogPath)
	assert.Nil(t, row.FinishedAt)
}

func TestRunnerLogsEveryCommand(t *testing.T) {
	dir := t.TempDir()
	c := Open(dir, nil, nil)
	defer c.Close()

	base := &scriptRunner{
		results: map[string]managers.Result{
			"brew update":       {ExitCode: 0, Stdout: "Already up-to-date."},
			"brew upgrade wget": {ExitCode: 1, Stderr: "Error: wget not installed"},
		},
		errs: map[string]error{
			"brew upgrade wget": &managers.CommandError{Command: "brew upgrade wget", ExitCode: 1},
		},
	}
	r := c.Runner(base)

	_, err := r.Run(context.Background(), "brew", "update")
	require.NoError(t, err)
	_, err = r.Run(context.Background(), "brew", "upgrade", "wget")
	require.Error(t, err)

	assert.Equal(t, 2, c.CommandsRun())

	content := readLog(t, c)
	assert.Contains(t, content, "brew update")
	assert.Contains(t, content, "exit=0")
	assert.Contains(t, content, "brew upgrade wget")
	assert.Contains(t, content, "exit=1")
	assert.Contains(t, content, "wget not installed")
}

func TestRunnerLookPathPassesThrough(t *testing.T) {
	c := Open(t.TempDir(), nil, nil)
	defer c.Close()

	r := c.Runner(&scriptRunner{})
	path, err := r.LookPath("brew")
	require.NoError(t, err)
	assert.Equal(t, "/opt/homebrew/bin/brew", path)
	assert.Zero(t, c.CommandsRun(), "LookPath is not a subprocess")
}

func TestCheckedToolFlushesAtClose(t *testing.T) {
	dir := t.TempDir()
	st := newHistory(t)
	c := Open(dir, st, nil)

	c.CheckedTool("homebrew", managers.Status{
		Name: "homebrew", Current: "4.1.0", Latest: "4.2.0", Manageable: true,
	})
	c.Close()

	// Check-only run: the snapshot still lands at close.
	snap, err := snapshot.Load(c.SnapshotPath)
	require.NoError(t, err)
	require.Contains(t, snap.Tools, "homebrew")
	assert.Equal(t, "4.1.0", snap.Tools["homebrew"].Current)

	row, err := st.GetRunByStamp(c.Stamp)
	require.NoError(t, err)
	require.NotNil(t, row.FinishedAt)
	assert.Equal(t, 1, row.ToolsChecked)
}

func TestFreezeSnapshotWritesOnceBeforeMutation(t *testing.T) {
	c := Open(t.TempDir(), nil, nil)
	defer c.Close()

	c.CheckedTool("npm", managers.Status{Name: "npm", Current: "10.2.0", Latest: "10.2.1", Manageable: true})
	require.NoError(t, c.FreezeSnapshot())

	snap, err := snapshot.Load(c.SnapshotPath)
	require.NoError(t, err)
	assert.Contains(t, snap.Tools, "npm")

	// Post-freeze records are dropped and a second freeze is a no-op.
	c.CheckedTool("conda", managers.Status{Name: "conda", Current: "24.1.0", Manageable: true})
	require.NoError(t, c.FreezeSnapshot())

	snap, err = snapshot.Load(c.SnapshotPath)
	require.NoError(t, err)
	assert.NotContains(t, snap.Tools, "conda")

	content := readLog(t, c)
	assert.Contains(t, content, "snapshot saved to "+c.SnapshotPath)
}

func TestFreezeSnapshotFailureWarnsAndContinues(t *testing.T) {
	c := Open(t.TempDir(), nil, nil)
	defer c.Close()

	c.CheckedTool("homebrew", managers.Status{Name: "homebrew", Current: "4.1.0", Manageable: true})

	// A directory squatting on the snapshot path makes the rename fail.
	require.NoError(t, os.Mkdir(c.SnapshotPath, 0755))

	err := c.FreezeSnapshot()
	require.Error(t, err)
	var perr *snapshot.PersistError
	assert.ErrorAs(t, err, &perr)

	assert.Contains(t, readLog(t, c), "snapshot not saved")
}

func TestDecideRecordsLogAndHistory(t *testing.T) {
	st := newHistory(t)
	c := Open(t.TempDir(), st, nil)

	exit := 0
	c.Decide(runlog.Decision{
		Tool:    "homebrew",
		Subject: "wget",
		Current: "1.21.3",
		Latest:  "1.21.4",
		Class:   "patch",
		Action:  "auto_approve",
		Outcome: "upgraded",
	}, "brew upgrade wget", &exit)

	content := readLog(t, c)
	assert.Contains(t, content, "decision")
	assert.Contains(t, content, "subject=wget")
	assert.Contains(t, content, "action=auto_approve")
	assert.Contains(t, content, "outcome=upgraded")

	row, err := st.GetRunByStamp(c.Stamp)
	require.NoError(t, err)
	events, err := st.ListEvents(row.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "wget", events[0].Subject)
	assert.Equal(t, "patch", events[0].Classification)
	assert.Equal(t, "brew upgrade wget", events[0].Command)
	require.NotNil(t, events[0].ExitCode)
	assert.Equal(t, 0, *events[0].ExitCode)

	c.Close()
}

func TestWarningsMirrorToConsole(t *testing.T) {
	var console bytes.Buffer
	c := Open(t.TempDir(), nil, &console)
	defer c.Close()

	require.NoError(t, os.Mkdir(c.SnapshotPath, 0755))
	c.CheckedTool("npm", managers.Status{Name: "npm", Current: "10.2.0", Manageable: true})
	require.Error(t, c.FreezeSnapshot())

	assert.Contains(t, console.String(), "snapshot not saved")
	assert.NotContains(t, console.String(), "devup run", "info records stay out of the console")
}

func TestOpenUnusableDirStaysUsable(t *testing.T) {
	// A file where the log directory should be disables every artifact.
	parent := t.TempDir()
	blocked := filepath.Join(parent, "logs")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0644))

	c := Open(blocked, nil, nil)
	assert.Nil(t, c.Log)
	assert.Nil(t, c.Snap)

	require.NotPanics(t, func() {
		c.CheckedTool("homebrew", managers.Status{Name: "homebrew"})
		c.Decide(runlog.Decision{Tool: "homebrew", Subject: "homebrew", Outcome: "skipped"}, "", nil)
		_ = c.FreezeSnapshot()
		r := c.Runner(&scriptRunner{results: map[string]managers.Result{"true": {}}})
		_, _ = r.Run(context.Background(), "true")
		c.Close()
	})
	assert.Equal(t, 1, c.CommandsRun())
}
