package managers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
)

// Python manages the active CPython interpreter, but only when a package
// manager devup understands (conda or Homebrew) owns it. System and
// unknown interpreters are reported but never touched.
type Python struct {
	runner Runner
	binary string // configured interpreter override; empty means auto-detect
}

// NewPython creates a Python manager. binary overrides interpreter
// discovery when non-empty.
func NewPython(r Runner, binary string) *Python {
	return &Python{runner: r, binary: binary}
}

// Name returns "python".
func (p *Python) Name() string { return "python" }

// resolveInterpreter finds the interpreter path: the configured override if
// set, else `python` then `python3` from PATH (modern macOS often ships
// only the latter).
func (p *Python) resolveInterpreter() (string, error) {
	candidates := []string{"python", "python3"}
	if p.binary != "" {
		candidates = []string{p.binary}
	}
	for _, c := range candidates {
		if path, err := p.runner.LookPath(c); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("python: %w", ErrUnavailable)
}

// Status reports the interpreter version, its provenance, and the newest
// version its owning package manager offers.
func (p *Python) Status(ctx context.Context) (Status, error) {
	path, err := p.resolveInterpreter()
	if err != nil {
		return Status{}, err
	}

	source := ClassifyPythonSource(path)
	st := Status{
		Name:       p.Name(),
		Path:       path,
		Source:     string(source),
		Manageable: source.Manageable(),
	}

	res, err := p.runner.Run(ctx, path, "--version")
	if err != nil {
		return st, fmt.Errorf("python --version: %w", err)
	}
	// Python 3 prints the banner on stdout; Python 2 used stderr.
	line := firstLine(res.Stdout)
	if line == "" {
		line = firstLine(res.Stderr)
	}
	st.Current = secondField(line) // "Python 3.12.5"
	st.Latest = st.Current

	switch source {
	case SourceConda:
		latest, err := p.latestFromConda(ctx)
		if err != nil {
			st.Note = "could not determine the latest conda python"
			return st, err
		}
		st.Latest = latest
	case SourceHomebrew:
		latest, err := p.latestFromBrew(ctx)
		if err != nil {
			st.Note = "could not determine the latest Homebrew python"
			return st, err
		}
		st.Latest = latest
	case SourceSystem:
		st.Note = "system Python is managed by macOS and will not be touched"
	default:
		st.Note = "cannot determine how this Python was installed"
	}
	return st, nil
}

// condaSearch mirrors `conda search python --json`: package name to the
// list of available builds.
type condaSearch map[string][]struct {
	Version string `json:"version"`
}

func (p *Python) latestFromConda(ctx context.Context) (string, error) {
	res, err := p.runner.Run(ctx, "conda", "search", "python", "--json")
	if err != nil && strings.TrimSpace(res.Stdout) == "" {
		return "", fmt.Errorf("conda search python: %w", err)
	}

	var out condaSearch
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return "", fmt.Errorf("parse conda search output: %w", err)
	}

	// Builds arrive oldest-first in practice, but nothing guarantees it:
	// order by PEP 440 and keep the newest. Builds with unparseable
	// version strings do not compete.
	var best pep440.Version
	var bestRaw string
	for _, build := range out["python"] {
		v, err := pep440.Parse(build.Version)
		if err != nil {
			continue
		}
		if bestRaw == "" || v.GreaterThan(best) {
			best, bestRaw = v, build.Version
		}
	}
	if bestRaw == "" {
		return "", fmt.Errorf("conda search returned no usable python versions")
	}
	return bestRaw, nil
}

// brewPythonInfo mirrors `brew info python --json` (a one-element array).
type brewPythonInfo []struct {
	Name     string `json:"name"`
	Versions struct {
		Stable string `json:"stable"`
	} `json:"versions"`
}

func (p *Python) latestFromBrew(ctx context.Context) (string, error) {
	res, err := p.runner.Run(ctx, "brew", "info", "python", "--json")
	if err != nil && strings.TrimSpace(res.Stdout) == "" {
		return "", fmt.Errorf("brew info python: %w", err)
	}

	var info brewPythonInfo
	if err := json.Unmarshal([]byte(res.Stdout), &info); err != nil {
		return "", fmt.Errorf("parse brew info output: %w", err)
	}
	if len(info) == 0 || info[0].Versions.Stable == "" {
		return "", fmt.Errorf("brew info reported no stable python version")
	}
	return info[0].Versions.Stable, nil
}

// SelfUpgrade returns the upgrade commands for the interpreter's owner.
// Homebrew has shipped Python under several formula names over the years,
// so the candidates are tried in order until one succeeds.
func (p *Python) SelfUpgrade(st Status) [][]string {
	switch PythonSource(st.Source) {
	case SourceConda:
		return [][]string{{"conda", "update", "python", "-y"}}
	case SourceHomebrew:
		return [][]string{
			{"brew", "upgrade", "python@3"},
			{"brew", "upgrade", "python3"},
			{"brew", "upgrade", "python"},
		}
	default:
		return nil
	}
}

// PackageUpgrade returns nil: pip packages are out of scope (see the
// compat command for assessing them instead).
func (p *Python) PackageUpgrade(string) []string { return nil }

// Cleanup returns nothing; the interpreter's owner handles its own caches.
func (p *Python) Cleanup() ([]string, string) { return nil, "" }
