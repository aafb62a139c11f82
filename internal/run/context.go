// Package run owns the per-invocation artifacts of a devup run: the stamped
// execution log, the pre-upgrade snapshot, and the row in the history store.
// One Context spans one invocation from menu selection to exit.
package run

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/blackwell-systems/devup/internal/managers"
	"github.com/blackwell-systems/devup/internal/runlog"
	"github.com/blackwell-systems/devup/internal/snapshot"
	"github.com/blackwell-systems/devup/internal/store"
)

// StampLayout is the timestamp format that names run artifacts:
// upgrade_<stamp>.log and snapshot_<stamp>.json.
const StampLayout = "20060102_150405"

// Context accumulates everything one devup invocation produces. Every
// artifact is best-effort: a run proceeds without its log, snapshot, or
// history row rather than refusing to work.
type Context struct {
	Stamp        string
	Dir          string
	LogPath      string
	SnapshotPath string

	Log  *runlog.Log       // nil when the log could not be opened
	Snap *snapshot.Builder // nil when the log directory is unusable

	st    *store.Store
	runID int64

	toolsChecked int
	commandsRun  int
}

// Open stamps a new run and prepares its artifacts under dir. Artifact
// failures are warnings, never errors. st may be nil when history is
// unavailable; console (usually stderr) receives mirrored log warnings.
func Open(dir string, st *store.Store, console io.Writer) *Context {
	now := time.Now()
	stamp := now.Format(StampLayout)
	c := &Context{
		Stamp:        stamp,
		Dir:          dir,
		LogPath:      filepath.Join(dir, "upgrade_"+stamp+".log"),
		SnapshotPath: filepath.Join(dir, "snapshot_"+stamp+".json"),
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("cannot create log directory; this run will not be recorded")
		return c
	}

	l, err := runlog.Open(c.LogPath, console)
	if err != nil {
		log.Warn().Err(err).Msg("cannot open execution log; commands will not be recorded")
	} else {
		c.Log = l
		c.Log.Event("devup run %s started", stamp)
	}

	c.Snap = snapshot.NewBuilder(c.SnapshotPath, now)

	if st != nil {
		id, err := st.InsertRun(&store.Run{
			Stamp:        stamp,
			StartedAt:    now,
			LogPath:      c.LogPath,
			SnapshotPath: c.SnapshotPath,
		})
		if err != nil {
			log.Warn().Err(err).Msg("cannot record run in history")
		} else {
			c.st = st
			c.runID = id
		}
	}

	return c
}

// Runner wraps base so every subprocess lands in the execution log and the
// run's command counter, whether it succeeds or not.
func (c *Context) Runner(base managers.Runner) managers.Runner {
	return &loggingRunner{base: base, run: c}
}

type loggingRunner struct {
	base managers.Runner
	run  *Context
}

func (r *loggingRunner) Run(ctx context.Context, argv ...string) (managers.Result, error) {
	res, err := r.base.Run(ctx, argv...)
	r.run.commandsRun++
	if r.run.Log != nil {
		r.run.Log.Command(strings.Join(argv, " "), res.ExitCode, res.Excerpt())
	}
	return res, err
}

func (r *loggingRunner) LookPath(bin string) (string, error) {
	return r.base.LookPath(bin)
}

// CheckedTool records one tool's pre-upgrade state for the snapshot and
// bumps the run's check counter.
func (c *Context) CheckedTool(name string, st managers.Status) {
	c.toolsChecked++
	if c.Snap != nil {
		c.Snap.Record(name, snapshot.CaptureTool(st))
	}
}

// Decide records one policy outcome in the execution log and the history
// store. cmd and exitCode describe the command that ran for this outcome;
// pass "" and nil when no command ran.
func (c *Context) Decide(d runlog.Decision, cmd string, exitCode *int) {
	if c.Log != nil {
		c.Log.Decide(d)
	}
	if c.st != nil {
		_, err := c.st.InsertEvent(&store.Event{
			RunID:          c.runID,
			Tool:           d.Tool,
			Subject:        d.Subject,
			CurrentVersion: d.Current,
			LatestVersion:  d.Latest,
			Classification: d.Class,
			Action:         d.Action,
			Outcome:        d.Outcome,
			Command:        cmd,
			ExitCode:       exitCode,
			CreatedAt:      time.Now(),
		})
		if err != nil {
			log.Warn().Err(err).Msg("cannot record decision in history")
		}
	}
}

// FreezeSnapshot persists the snapshot ahead of the first mutating command
// and locks it. Idempotent. A persist failure is loudly warned and returned,
// but never stops the run: upgrading without a snapshot beats not upgrading.
func (c *Context) FreezeSnapshot() error {
	if c.Snap == nil || c.Snap.Frozen() {
		return nil
	}
	if err := c.Snap.Freeze(); err != nil {
		c.warnf("snapshot not saved, continuing without one: %v", err)
		return err
	}
	if c.Log != nil {
		c.Log.Event("snapshot saved to %s", c.SnapshotPath)
	}
	return nil
}

// Eventf writes one informational line to the execution log, when one is
// open. Safe to call on a context whose log failed to open.
func (c *Context) Eventf(format string, args ...any) {
	if c.Log != nil {
		c.Log.Event(format, args...)
	}
}

// ToolsChecked returns how many tools this run has checked so far.
func (c *Context) ToolsChecked() int { return c.toolsChecked }

// CommandsRun returns how many subprocesses this run has launched so far.
func (c *Context) CommandsRun() int { return c.commandsRun }

// Close flushes a check-only snapshot, finishes the history row, and
// releases the execution log.
func (c *Context) Close() {
	if c.Snap != nil {
		if err := c.Snap.Flush(); err != nil {
			c.warnf("snapshot not saved: %v", err)
		}
	}
	if c.st != nil {
		if err := c.st.FinishRun(c.runID, time.Now(), c.toolsChecked, c.commandsRun); err != nil {
			log.Warn().Err(err).Msg("cannot finish run in history")
		}
		c.st = nil
	}
	if c.Log != nil {
		c.Log.Event("run finished: %d tools checked, %d commands run", c.toolsChecked, c.commandsRun)
		if err := c.Log.Close(); err != nil {
			log.Warn().Err(err).Msg("cannot close execution log")
		}
		c.Log = nil
	}
}

// warnf lands a warning in the execution log, which mirrors it to the
// console, or directly on the console when the log never opened.
func (c *Context) warnf(format string, args ...any) {
	if c.Log != nil {
		c.Log.Warn(format, args...)
		return
	}
	log.Warn().Msgf(format, args...)
}
