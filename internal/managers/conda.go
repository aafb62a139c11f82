package managers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Conda manages the conda tool itself in the base environment. Individual
// conda environments are out of scope; only the installer is kept current.
type Conda struct {
	runner Runner
}

// NewConda creates a conda manager backed by the given runner.
func NewConda(r Runner) *Conda {
	return &Conda{runner: r}
}

// Name returns "conda".
func (c *Conda) Name() string { return "conda" }

// condaDryRun mirrors `conda update --dry-run --json`. The LINK action set
// lists the packages the update would install; when conda is already
// current there is no LINK entry, only a message.
type condaDryRun struct {
	Actions struct {
		Link []struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"LINK"`
	} `json:"actions"`
	Message string `json:"message"`
}

// Status reports the installed conda version and the version a base-
// environment update would install.
func (c *Conda) Status(ctx context.Context) (Status, error) {
	if _, err := c.runner.LookPath("conda"); err != nil {
		return Status{}, fmt.Errorf("conda: %w", ErrUnavailable)
	}

	res, err := c.runner.Run(ctx, "conda", "--version")
	if err != nil {
		return Status{Name: c.Name()}, fmt.Errorf("conda --version: %w", err)
	}

	st := Status{Name: c.Name(), Manageable: true}
	st.Current = secondField(firstLine(res.Stdout)) // "conda 25.9.1"
	st.Latest = st.Current

	// A dry run against defaults answers "what would update conda to?"
	// without touching anything. Conda may exit non-zero yet still print
	// the JSON plan, so the body matters more than the code.
	res, err = c.runner.Run(ctx, "conda", "update", "-n", "base", "-c", "defaults", "conda", "--dry-run", "--json")
	if strings.TrimSpace(res.Stdout) == "" {
		if err != nil {
			return st, fmt.Errorf("conda update --dry-run: %w", err)
		}
		return st, nil
	}

	var dry condaDryRun
	if err := json.Unmarshal([]byte(res.Stdout), &dry); err != nil {
		return st, fmt.Errorf("parse conda dry-run output: %w", err)
	}
	for _, link := range dry.Actions.Link {
		if link.Name == "conda" {
			st.Latest = link.Version
			break
		}
	}
	return st, nil
}

// SelfUpgrade updates conda in the base environment from defaults.
func (c *Conda) SelfUpgrade(Status) [][]string {
	return [][]string{{"conda", "update", "-n", "base", "-c", "defaults", "conda", "-y"}}
}

// PackageUpgrade returns nil: devup does not manage conda packages.
func (c *Conda) PackageUpgrade(string) []string { return nil }

// Cleanup clears caches and unused package tarballs.
func (c *Conda) Cleanup() ([]string, string) {
	return []string{"conda", "clean", "--all", "--yes"},
		"Clean conda caches and unused packages?"
}
