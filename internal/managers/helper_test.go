package managers

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// fakeRunner scripts subprocess results by exact command line and records
// every invocation in order.
type fakeRunner struct {
	results map[string]fakeResult
	bins    map[string]string
	calls   []string
}

type fakeResult struct {
	res Result
	err error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		results: map[string]fakeResult{},
		bins:    map[string]string{},
	}
}

// stub registers the result for one exact command line.
func (f *fakeRunner) stub(cmd string, res Result, err error) {
	f.results[cmd] = fakeResult{res: res, err: err}
}

// stubExit registers a command that exits non-zero with the given output.
func (f *fakeRunner) stubExit(cmd string, code int, stdout, stderr string) {
	res := Result{ExitCode: code, Stdout: stdout, Stderr: stderr}
	f.stub(cmd, res, &CommandError{Command: cmd, ExitCode: code, Output: res.Excerpt()})
}

// install makes LookPath resolve bin to path.
func (f *fakeRunner) install(bin, path string) {
	f.bins[bin] = path
}

func (f *fakeRunner) Run(_ context.Context, argv ...string) (Result, error) {
	cmd := strings.Join(argv, " ")
	f.calls = append(f.calls, cmd)
	if r, ok := f.results[cmd]; ok {
		return r.res, r.err
	}
	return Result{ExitCode: -1}, fmt.Errorf("unscripted command: %s", cmd)
}

func (f *fakeRunner) LookPath(bin string) (string, error) {
	if path, ok := f.bins[bin]; ok {
		return path, nil
	}
	return "", fmt.Errorf("%s: %w", bin, exec.ErrNotFound)
}

// called reports whether any recorded invocation starts with prefix.
func (f *fakeRunner) called(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
