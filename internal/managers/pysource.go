package managers

import "strings"

// PythonSource identifies which installer owns a Python interpreter.
type PythonSource string

const (
	SourceConda    PythonSource = "conda"
	SourceHomebrew PythonSource = "homebrew"
	SourceSystem   PythonSource = "system"
	SourceUnknown  PythonSource = "unknown"
)

// ClassifyPythonSource inspects an interpreter path and reports who manages
// it. Pure string inspection: no subprocesses, no filesystem access.
//
// macOS system interpreters (/usr/bin, /System) must never be replaced
// since OS tooling depends on them, and an interpreter of unknown origin
// likely belongs to pyenv or a hand-built toolchain devup has no business
// touching.
func ClassifyPythonSource(path string) PythonSource {
	p := strings.ToLower(strings.TrimSpace(path))
	switch {
	case p == "":
		return SourceUnknown
	case strings.Contains(p, "conda") || strings.Contains(p, "anaconda") || strings.Contains(p, "miniconda"):
		return SourceConda
	case strings.Contains(p, "/opt/homebrew") || strings.Contains(p, "/usr/local/cellar"):
		return SourceHomebrew
	case strings.HasPrefix(p, "/usr/bin") || strings.HasPrefix(p, "/system"):
		return SourceSystem
	default:
		return SourceUnknown
	}
}

// Manageable reports whether devup may upgrade an interpreter from this
// source. Only conda and Homebrew interpreters are fair game.
func (s PythonSource) Manageable() bool {
	return s == SourceConda || s == SourceHomebrew
}
