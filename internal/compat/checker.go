// Package compat estimates how ready the installed Python packages are for
// a target interpreter version. Each package's published trove classifiers
// on PyPI are the evidence; the verdicts are advisory, not proof.
package compat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/devup/internal/managers"
)

const (
	defaultBaseURL = "https://pypi.org"
	defaultTimeout = 5 * time.Second
	userAgent      = "devup-compat-checker/1.0"

	// SampleSize is how many packages a non-full scan inspects. Enough for
	// a risk signal without hammering PyPI over a large environment.
	SampleSize = 50
)

// Verdict is one package's compatibility bucket.
type Verdict string

const (
	// VerdictCompatible: the target version appears in the classifiers.
	VerdictCompatible Verdict = "compatible"
	// VerdictLikely: the previous minor is supported, or the package
	// publishes no Python classifiers at all. It may well work.
	VerdictLikely Verdict = "likely"
	// VerdictIncompatible: classifiers exist but stop short of the target.
	VerdictIncompatible Verdict = "incompatible"
	// VerdictUnknown: PyPI could not be consulted for this package.
	VerdictUnknown Verdict = "unknown"
)

// Package is one installed pip package.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Checker queries pip for the installed packages and PyPI for what each of
// them claims to support. Requests run sequentially with a short timeout.
type Checker struct {
	runner     managers.Runner
	python     string
	target     string // major.minor, e.g. "3.14"
	baseURL    string
	httpClient *http.Client
}

// Option configures a Checker.
type Option func(*Checker)

// WithBaseURL points the checker at a different PyPI-shaped endpoint.
func WithBaseURL(u string) Option {
	return func(c *Checker) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		c.httpClient = client
	}
}

// NewChecker creates a compatibility checker for the given interpreter and
// target version. Extra version components beyond major.minor are ignored.
func NewChecker(r managers.Runner, pythonBinary, target string, opts ...Option) *Checker {
	if pythonBinary == "" {
		pythonBinary = "python3"
	}
	c := &Checker{
		runner:     r,
		python:     pythonBinary,
		target:     majorMinor(target),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Target returns the normalized target version.
func (c *Checker) Target() string { return c.target }

// InstalledPackages lists what pip knows about, names and versions.
func (c *Checker) InstalledPackages(ctx context.Context) ([]Package, error) {
	res, err := c.runner.Run(ctx, c.python, "-m", "pip", "list", "--format=json")
	if err != nil && strings.TrimSpace(res.Stdout) == "" {
		return nil, fmt.Errorf("pip list: %w", err)
	}

	var pkgs []Package
	if err := json.Unmarshal([]byte(res.Stdout), &pkgs); err != nil {
		return nil, fmt.Errorf("parse pip list output: %w", err)
	}
	return pkgs, nil
}

// PythonVersion reports the interpreter's own version, or "" when the
// probe fails. Python 3 prints the banner on stdout; Python 2 used stderr.
func (c *Checker) PythonVersion(ctx context.Context) string {
	res, err := c.runner.Run(ctx, c.python, "--version")
	if err != nil {
		return ""
	}
	line := strings.TrimSpace(res.Stdout)
	if line == "" {
		line = strings.TrimSpace(res.Stderr)
	}
	fields := strings.Fields(line) // "Python 3.12.5"
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// pypiMetadata is the slice of the PyPI JSON API this checker reads.
type pypiMetadata struct {
	Info struct {
		Classifiers []string `json:"classifiers"`
	} `json:"info"`
}

// CheckPackage fetches one package's PyPI metadata and buckets it against
// the target version. Network trouble degrades to unknown with a note,
// never an error: one unreachable package must not sink the report.
func (c *Checker) CheckPackage(ctx context.Context, name string) (Verdict, []string, string) {
	endpoint := fmt.Sprintf("%s/pypi/%s/json", c.baseURL, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return VerdictUnknown, nil, err.Error()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return VerdictUnknown, nil, "PyPI unreachable"
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return VerdictUnknown, nil, "not found on PyPI"
	case resp.StatusCode != http.StatusOK:
		return VerdictUnknown, nil, fmt.Sprintf("PyPI returned status %d", resp.StatusCode)
	}

	var meta pypiMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return VerdictUnknown, nil, "unreadable PyPI metadata"
	}

	supported := pythonClassifiers(meta.Info.Classifiers)
	return classify(supported, c.target), supported, ""
}

// Analyze checks packages in order, up to SampleSize unless all is set, and
// aggregates the verdicts. progress, when non-nil, is called after each
// package with (done, total).
func (c *Checker) Analyze(ctx context.Context, pkgs []Package, all bool, progress func(done, total int)) *Report {
	checkCount := len(pkgs)
	if !all && checkCount > SampleSize {
		checkCount = SampleSize
	}

	rep := &Report{
		CreatedAt:      time.Now().UTC(),
		TargetVersion:  c.target,
		TotalInstalled: len(pkgs),
		TotalChecked:   checkCount,
	}

	for i, pkg := range pkgs[:checkCount] {
		verdict, versions, note := c.CheckPackage(ctx, pkg.Name)
		rep.Packages = append(rep.Packages, PackageReport{
			Name:           pkg.Name,
			Version:        pkg.Version,
			Verdict:        verdict,
			PythonVersions: versions,
			Note:           note,
		})
		rep.Summary.add(verdict)

		if progress != nil {
			progress(i+1, checkCount)
		}
	}
	return rep
}

// pythonClassifiers extracts the version values from trove classifiers like
// "Programming Language :: Python :: 3.12", skipping implementation entries
// (CPython, PyPy).
func pythonClassifiers(classifiers []string) []string {
	var versions []string
	for _, c := range classifiers {
		if !strings.Contains(c, "Programming Language :: Python ::") ||
			strings.Contains(c, "Implementation") {
			continue
		}
		parts := strings.Split(c, "::")
		versions = append(versions, strings.TrimSpace(parts[len(parts)-1]))
	}
	return versions
}

// classify buckets a package by its published classifiers. An exact match
// on the target wins; support for the previous minor, or no Python
// classifiers at all, counts as likely; anything else is a red flag.
func classify(supported []string, target string) Verdict {
	if len(supported) == 0 {
		return VerdictLikely
	}
	for _, v := range supported {
		if v == target {
			return VerdictCompatible
		}
	}
	if prev, ok := previousMinor(target); ok {
		for _, v := range supported {
			if v == prev {
				return VerdictLikely
			}
		}
	}
	return VerdictIncompatible
}

// previousMinor returns "3.13" for "3.14".
func previousMinor(target string) (string, bool) {
	parts := strings.SplitN(target, ".", 2)
	if len(parts) != 2 {
		return "", false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil || minor == 0 {
		return "", false
	}
	return fmt.Sprintf("%s.%d", parts[0], minor-1), true
}

// majorMinor trims a version to its first two components.
func majorMinor(v string) string {
	parts := strings.Split(v, ".")
	if len(parts) <= 2 {
		return v
	}
	return parts[0] + "." + parts[1]
}
