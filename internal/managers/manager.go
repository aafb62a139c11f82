// Package managers wraps the external package managers devup deals with:
// Homebrew, conda, the active Python interpreter, and npm. Each manager
// turns subprocess output into a Status; none of them prompt or decide
// anything. Confirmation policy belongs to the upgrade engine.
package managers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable marks a package manager binary that is not installed on
// this machine. The tool is reported as skipped; it is not a failure.
var ErrUnavailable = errors.New("not installed")

// IsUnavailable reports whether err means the underlying tool is absent.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// OutdatedPackage is one upgradable package reported by a manager.
type OutdatedPackage struct {
	Name    string
	Current string
	Latest  string
}

// Status is a point-in-time view of one tool, recomputed fresh on every
// check. Nothing here is cached between runs.
type Status struct {
	Name       string
	Current    string
	Latest     string
	Outdated   []OutdatedPackage
	Manageable bool

	// Python only: interpreter provenance.
	Source string
	Path   string

	// Operator-facing caveat: stale index, unreachable registry, why the
	// tool is off-limits. Display only, never persisted.
	Note string
}

// Manager wraps one external package manager. Implementations issue
// subprocess commands through the injected Runner.
type Manager interface {
	// Name is the stable tool identifier: "homebrew", "conda", "python", "npm".
	Name() string

	// Status queries the current version, the latest available version, and
	// any outdated packages. Returns an error wrapping ErrUnavailable when
	// the underlying binary is missing. On other errors the returned Status
	// may still be partially populated; callers record what was learned.
	Status(ctx context.Context) (Status, error)

	// SelfUpgrade returns candidate argv lists that upgrade the tool itself,
	// tried in order until one succeeds. Empty when self-upgrade does not
	// apply (Homebrew updates itself during Status).
	SelfUpgrade(st Status) [][]string

	// PackageUpgrade returns the argv that upgrades one named package, or
	// nil when the manager has no per-package upgrades.
	PackageUpgrade(name string) []string

	// Cleanup returns the post-upgrade housekeeping command and the question
	// to ask before running it, or nil when the manager has none.
	Cleanup() ([]string, string)
}

// All returns the managed tools in their fixed processing order. The order
// is deliberate: npm goes last so its self-upgrade never runs under an npm
// that is about to be replaced.
func All(r Runner, pythonBinary string) []Manager {
	return []Manager{
		NewBrew(r),
		NewConda(r),
		NewPython(r, pythonBinary),
		NewNpm(r),
	}
}

// ByName resolves a tool name or alias from the command line.
func ByName(name string, r Runner, pythonBinary string) (Manager, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "homebrew", "brew":
		return NewBrew(r), nil
	case "conda":
		return NewConda(r), nil
	case "python", "python3":
		return NewPython(r, pythonBinary), nil
	case "npm":
		return NewNpm(r), nil
	default:
		return nil, fmt.Errorf("unknown tool %q (expected homebrew, conda, python, or npm)", name)
	}
}

// firstLine returns the first line of subprocess output, trimmed.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// secondField extracts the version token from "tool X.Y.Z" banner output.
func secondField(s string) string {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
