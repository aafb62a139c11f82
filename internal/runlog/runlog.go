// Package runlog is the append-only execution log of a run: one entry per
// subprocess invocation and one per policy decision, written as they happen
// so a crash mid-run loses nothing already recorded.
package runlog

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// fileTimeFormat is the timestamp format inside log files.
const fileTimeFormat = "2006-01-02 15:04:05"

// Log writes run events to the per-run log file. The file is opened
// append-only and every record is a single unbuffered write. Warnings also
// mirror to the console so a failing snapshot or store never goes unseen.
type Log struct {
	file   *os.File
	logger zerolog.Logger
	path   string
}

// Open creates (or appends to) the run log at path. Warn-level records
// mirror to console when it is non-nil.
func Open(path string, console io.Writer) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	var w io.Writer = zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: fileTimeFormat}
	if console != nil {
		mirror := &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"}},
			Level:  zerolog.WarnLevel,
		}
		w = zerolog.MultiLevelWriter(w, mirror)
	}

	return &Log{
		file:   f,
		logger: zerolog.New(w).With().Timestamp().Logger(),
		path:   path,
	}, nil
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Close releases the log file handle.
func (l *Log) Close() error {
	return l.file.Close()
}

// Command records one subprocess invocation, successful or not.
func (l *Log) Command(cmd string, exitCode int, excerpt string) {
	ev := l.logger.Info()
	if exitCode != 0 {
		ev = l.logger.Warn()
	}
	ev.Int("exit", exitCode).Str("output", excerpt).Msg(cmd)
}

// Decision is one policy-engine outcome worth auditing.
type Decision struct {
	Tool    string
	Subject string // the tool itself or one of its packages
	Current string
	Latest  string
	Class   string
	Action  string
	Outcome string // upgraded, failed, declined, skipped, checked
	Note    string
}

// Decide records one policy decision.
func (l *Log) Decide(d Decision) {
	ev := l.logger.Info().
		Str("tool", d.Tool).
		Str("subject", d.Subject).
		Str("from", d.Current).
		Str("to", d.Latest).
		Str("class", d.Class).
		Str("action", d.Action).
		Str("outcome", d.Outcome)
	if d.Note != "" {
		ev = ev.Str("note", d.Note)
	}
	ev.Msg("decision")
}

// Event records a free-form informational entry (run started, tool skipped).
func (l *Log) Event(format string, args ...any) {
	l.logger.Info().Msgf(format, args...)
}

// Warn records a loud, non-fatal problem. It reaches the file and the
// console mirror.
func (l *Log) Warn(format string, args ...any) {
	l.logger.Warn().Msgf(format, args...)
}
