package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/blackwell-systems/devup/internal/config"
	"github.com/blackwell-systems/devup/internal/managers"
	"github.com/blackwell-systems/devup/internal/run"
	"github.com/blackwell-systems/devup/internal/store"
	"github.com/blackwell-systems/devup/internal/upgrade"
)

// openStore opens the history database, creating its directory and schema
// as needed.
func openStore() (*store.Store, error) {
	path := config.DBPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.CreateSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}
	return db, nil
}

// openRun stamps a new run with history attached when the database is
// usable. A database problem downgrades to a warning: upgrades still work,
// they just go unrecorded.
func openRun() (*run.Context, *store.Store) {
	st, err := openStore()
	if err != nil {
		log.Warn().Err(err).Msg("history database unavailable; this run will not be recorded")
		st = nil
	}
	return run.Open(config.LogRoot(), st, os.Stderr), st
}

// closeRun flushes the run's artifacts before releasing the database the
// run writes into.
func closeRun(rc *run.Context, st *store.Store) {
	rc.Close()
	if st != nil {
		st.Close()
	}
}

// newEngine builds an upgrade engine wired to the run's logging runner and
// the operator's terminal.
func newEngine(rc *run.Context, yes, dryRun bool) *upgrade.Engine {
	return &upgrade.Engine{
		Runner:   rc.Runner(managers.ExecRunner{}),
		Prompter: upgrade.NewPrompter(os.Stdin, os.Stdout),
		Out:      os.Stdout,
		Yes:      yes,
		DryRun:   dryRun,
	}
}

// resolveManagers maps command-line tool names to managers, defaulting to
// every supported tool. The runner must be the run's logging runner so the
// managers' subprocesses land in the execution log.
func resolveManagers(args []string, r managers.Runner) ([]managers.Manager, error) {
	if len(args) == 0 {
		return managers.All(r, config.PythonBinary()), nil
	}

	mgrs := make([]managers.Manager, 0, len(args))
	for _, name := range args {
		m, err := managers.ByName(name, r, config.PythonBinary())
		if err != nil {
			return nil, err
		}
		mgrs = append(mgrs, m)
	}
	return mgrs, nil
}

// findRun resolves "latest", a run ID, or a timestamp stamp to a history
// row.
func findRun(st *store.Store, ref string) (*store.Run, error) {
	if ref == "latest" {
		r, err := st.LatestRun()
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, fmt.Errorf("no runs recorded yet")
		}
		return r, nil
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return st.GetRun(id)
	}
	return st.GetRunByStamp(ref)
}
