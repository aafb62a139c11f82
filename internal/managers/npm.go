package managers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Npm manages the npm CLI and globally installed packages.
type Npm struct {
	runner Runner
}

// NewNpm creates an npm manager backed by the given runner.
func NewNpm(r Runner) *Npm {
	return &Npm{runner: r}
}

// Name returns "npm".
func (n *Npm) Name() string { return "npm" }

// npmOutdatedItem mirrors one entry of `npm outdated -g --json`.
type npmOutdatedItem struct {
	Current string `json:"current"`
	Wanted  string `json:"wanted"`
	Latest  string `json:"latest"`
}

// Status reports the npm version, the newest npm on the registry, and all
// outdated global packages.
func (n *Npm) Status(ctx context.Context) (Status, error) {
	if _, err := n.runner.LookPath("npm"); err != nil {
		return Status{}, fmt.Errorf("npm: %w", ErrUnavailable)
	}

	res, err := n.runner.Run(ctx, "npm", "--version")
	if err != nil {
		return Status{Name: n.Name()}, fmt.Errorf("npm --version: %w", err)
	}

	st := Status{Name: n.Name(), Manageable: true}
	st.Current = firstLine(res.Stdout) // bare "10.2.3"
	st.Latest = st.Current

	res, err = n.runner.Run(ctx, "npm", "view", "npm", "version")
	if err == nil && firstLine(res.Stdout) != "" {
		st.Latest = firstLine(res.Stdout)
	} else {
		st.Note = "could not reach the registry for the latest npm version"
	}

	// npm outdated exits 1 whenever anything is outdated; the JSON body on
	// stdout is the real signal, so the exit code is ignored when a body
	// is present.
	res, err = n.runner.Run(ctx, "npm", "outdated", "-g", "--json")
	body := strings.TrimSpace(res.Stdout)
	if body == "" || body == "{}" {
		if err != nil && !IsExitError(err) {
			return st, fmt.Errorf("npm outdated: %w", err)
		}
		return st, nil
	}

	var out map[string]npmOutdatedItem
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return st, fmt.Errorf("parse npm outdated output: %w", err)
	}

	names := make([]string, 0, len(out))
	for name := range out {
		// npm lists itself here; its own upgrade is handled separately and
		// always runs after the other globals.
		if name == "npm" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		item := out[name]
		latest := item.Latest
		if latest == "" {
			latest = item.Wanted
		}
		st.Outdated = append(st.Outdated, OutdatedPackage{
			Name:    name,
			Current: item.Current,
			Latest:  latest,
		})
	}
	return st, nil
}

// SelfUpgrade reinstalls npm at its latest tag. The upgrade engine orders
// this after every other npm command in the run.
func (n *Npm) SelfUpgrade(Status) [][]string {
	return [][]string{{"npm", "install", "-g", "npm@latest"}}
}

// PackageUpgrade reinstalls one global package at its latest tag.
func (n *Npm) PackageUpgrade(name string) []string {
	return []string{"npm", "install", "-g", name + "@latest"}
}

// Cleanup verifies the npm cache.
func (n *Npm) Cleanup() ([]string, string) {
	return []string{"npm", "cache", "verify"}, "Verify the npm cache?"
}
