package managers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// maxExcerptLen caps captured subprocess output carried into errors, log
// entries, and terminal reports.
const maxExcerptLen = 300

// Result holds the outcome of one subprocess invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Excerpt returns a single-line, length-capped view of the command output.
// Stderr wins when present; it usually carries the reason for a failure.
func (r Result) Excerpt() string {
	s := strings.TrimSpace(r.Stderr)
	if s == "" {
		s = strings.TrimSpace(r.Stdout)
	}
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxExcerptLen {
		s = s[:maxExcerptLen] + "..."
	}
	return s
}

// CommandError reports a subprocess that started but exited non-zero.
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s exited %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s exited %d (output: %s)", e.Command, e.ExitCode, e.Output)
}

// IsExitError reports whether err means the command ran and exited non-zero,
// as opposed to failing to start at all. Some tools (npm outdated) use a
// non-zero exit as a data signal, so callers sometimes tolerate it.
func IsExitError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

// Runner executes external commands. Managers never shell out directly: all
// subprocess work goes through a Runner so tests can script outputs and the
// execution log can observe every invocation.
type Runner interface {
	// Run executes argv and waits for it. The Result is populated even when
	// err is non-nil (a failed command still has an exit code and output).
	Run(ctx context.Context, argv ...string) (Result, error)
	// LookPath resolves a binary name against PATH.
	LookPath(bin string) (string, error)
}

// ExecRunner runs commands with os/exec. No shell is involved; argv reaches
// the kernel verbatim, so there is nothing to quote or escape.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, argv ...string) (Result, error) {
	if len(argv) == 0 {
		return Result{ExitCode: -1}, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &CommandError{
			Command:  strings.Join(argv, " "),
			ExitCode: res.ExitCode,
			Output:   res.Excerpt(),
		}
	}

	// Did not start: binary missing, permission denied, context canceled.
	res.ExitCode = -1
	return res, fmt.Errorf("%s: %w", argv[0], err)
}

func (ExecRunner) LookPath(bin string) (string, error) {
	return exec.LookPath(bin)
}
