package managers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Brew manages Homebrew and its installed formulae and casks.
type Brew struct {
	runner Runner
}

// NewBrew creates a Homebrew manager backed by the given runner.
func NewBrew(r Runner) *Brew {
	return &Brew{runner: r}
}

// Name returns "homebrew".
func (b *Brew) Name() string { return "homebrew" }

// brewOutdated mirrors `brew outdated --json` (v2 schema).
type brewOutdated struct {
	Formulae []brewOutdatedItem `json:"formulae"`
	Casks    []brewOutdatedItem `json:"casks"`
}

type brewOutdatedItem struct {
	Name              string   `json:"name"`
	InstalledVersions []string `json:"installed_versions"`
	CurrentVersion    string   `json:"current_version"`
}

// Status reports the Homebrew version and every outdated formula and cask.
// `brew update` runs first so the outdated list reflects the live index; a
// failed update degrades to a staleness note rather than an error.
func (b *Brew) Status(ctx context.Context) (Status, error) {
	if _, err := b.runner.LookPath("brew"); err != nil {
		return Status{}, fmt.Errorf("homebrew: %w", ErrUnavailable)
	}

	res, err := b.runner.Run(ctx, "brew", "--version")
	if err != nil {
		return Status{Name: b.Name()}, fmt.Errorf("brew --version: %w", err)
	}

	st := Status{Name: b.Name(), Manageable: true}
	st.Current = secondField(firstLine(res.Stdout)) // "Homebrew 4.2.21"
	st.Latest = st.Current                          // brew keeps itself current via brew update

	if _, err := b.runner.Run(ctx, "brew", "update"); err != nil {
		st.Note = "brew update failed; outdated list may be stale"
	}

	res, err = b.runner.Run(ctx, "brew", "outdated", "--json")
	if err != nil && strings.TrimSpace(res.Stdout) == "" {
		return st, fmt.Errorf("brew outdated: %w", err)
	}

	var out brewOutdated
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return st, fmt.Errorf("parse brew outdated output: %w", err)
	}
	for _, item := range out.Formulae {
		st.Outdated = append(st.Outdated, item.toPackage())
	}
	for _, item := range out.Casks {
		st.Outdated = append(st.Outdated, item.toPackage())
	}
	return st, nil
}

func (i brewOutdatedItem) toPackage() OutdatedPackage {
	pkg := OutdatedPackage{Name: i.Name, Latest: i.CurrentVersion}
	if len(i.InstalledVersions) > 0 {
		pkg.Current = i.InstalledVersions[0]
	}
	return pkg
}

// SelfUpgrade returns nothing: Homebrew updates itself as part of Status.
func (b *Brew) SelfUpgrade(Status) [][]string { return nil }

// PackageUpgrade upgrades one formula or cask.
func (b *Brew) PackageUpgrade(name string) []string {
	return []string{"brew", "upgrade", name}
}

// Cleanup removes stale downloads and old kegs.
func (b *Brew) Cleanup() ([]string, string) {
	return []string{"brew", "cleanup", "--prune=all", "-s"},
		"Run brew cleanup to remove old versions and caches?"
}
