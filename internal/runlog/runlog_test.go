package runlog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestCommandRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upgrade_20260115_103000.log")
	l, err := Open(path, nil)
	require.NoError(t, err)
	defer l.Close()

	l.Command("brew update", 0, "Already up-to-date.")
	l.Command("brew upgrade node", 1, "Error: checksum mismatch")

	lines := readLines(t, path)
	require.Len(t, lines, 2, "one line per subprocess invocation")

	assert.Contains(t, lines[0], "brew update")
	assert.Contains(t, lines[0], "exit=0")
	assert.Contains(t, lines[0], "Already up-to-date.")

	assert.Contains(t, lines[1], "brew upgrade node")
	assert.Contains(t, lines[1], "exit=1")
	assert.Contains(t, lines[1], "WRN", "failed commands log at warn level")
}

func TestDecisionRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	l, err := Open(path, nil)
	require.NoError(t, err)
	defer l.Close()

	l.Decide(Decision{
		Tool:    "npm",
		Subject: "typescript",
		Current: "5.3.3",
		Latest:  "5.5.2",
		Class:   "minor",
		Action:  "confirm_required",
		Outcome: "declined",
	})

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	for _, want := range []string{"decision", "npm", "typescript", "5.3.3", "5.5.2", "minor", "confirm_required", "declined"} {
		assert.Contains(t, lines[0], want)
	}
}

func TestAppendOnlyAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	l1, err := Open(path, nil)
	require.NoError(t, err)
	l1.Event("run started")
	require.NoError(t, l1.Close())

	l2, err := Open(path, nil)
	require.NoError(t, err)
	l2.Event("run resumed")
	require.NoError(t, l2.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2, "reopening must append, never truncate")
	assert.Contains(t, lines[0], "run started")
	assert.Contains(t, lines[1], "run resumed")
}

func TestWarnMirrorsToConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	var console bytes.Buffer

	l, err := Open(path, &console)
	require.NoError(t, err)
	defer l.Close()

	l.Event("routine detail")
	l.Warn("failed to save snapshot: %s", "disk full")

	// Routine entries stay out of the terminal; warnings do not.
	out := console.String()
	assert.NotContains(t, out, "routine detail")
	assert.Contains(t, out, "failed to save snapshot")

	lines := readLines(t, path)
	require.Len(t, lines, 2, "the file gets everything")
}

func TestOpenFailure(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "run.log"), nil)
	require.Error(t, err)
}
