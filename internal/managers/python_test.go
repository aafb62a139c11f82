package managers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPythonStatusCondaOwned(t *testing.T) {
	r := newFakeRunner()
	r.install("python", "/Users/dev/miniconda3/bin/python")
	r.stub("/Users/dev/miniconda3/bin/python --version", Result{Stdout: "Python 3.11.8\n"}, nil)
	// Deliberately unordered: the max must come from PEP 440 ordering, not
	// list position.
	r.stub("conda search python --json", Result{Stdout: `{
	  "python": [
	    {"version": "3.13.1"},
	    {"version": "3.9.19"},
	    {"version": "3.12.4"}
	  ]
	}`}, nil)

	st, err := NewPython(r, "").Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "python", st.Name)
	assert.Equal(t, "conda", st.Source)
	assert.Equal(t, "/Users/dev/miniconda3/bin/python", st.Path)
	assert.True(t, st.Manageable)
	assert.Equal(t, "3.11.8", st.Current)
	assert.Equal(t, "3.13.1", st.Latest)
}

func TestPythonStatusHomebrewOwned(t *testing.T) {
	r := newFakeRunner()
	// No bare `python`; only python3, as stock macOS + Homebrew installs.
	r.install("python3", "/opt/homebrew/bin/python3")
	r.stub("/opt/homebrew/bin/python3 --version", Result{Stdout: "Python 3.12.5\n"}, nil)
	r.stub("brew info python --json", Result{Stdout: `[
	  {"name": "python@3.13", "versions": {"stable": "3.13.1"}}
	]`}, nil)

	st, err := NewPython(r, "").Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "homebrew", st.Source)
	assert.True(t, st.Manageable)
	assert.Equal(t, "3.12.5", st.Current)
	assert.Equal(t, "3.13.1", st.Latest)
}

func TestPythonStatusSystemIsVetoed(t *testing.T) {
	r := newFakeRunner()
	r.install("python3", "/usr/bin/python3")
	r.stub("/usr/bin/python3 --version", Result{Stdout: "Python 3.9.6\n"}, nil)

	st, err := NewPython(r, "").Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "system", st.Source)
	assert.False(t, st.Manageable)
	assert.Equal(t, st.Current, st.Latest)
	assert.NotEmpty(t, st.Note)
	// No package-manager queries for an interpreter devup will not touch.
	assert.False(t, r.called("conda search"))
	assert.False(t, r.called("brew info"))
}

func TestPythonStatusUnknownSource(t *testing.T) {
	r := newFakeRunner()
	r.install("python", "/Users/dev/.pyenv/shims/python")
	r.stub("/Users/dev/.pyenv/shims/python --version", Result{Stdout: "Python 3.10.14\n"}, nil)

	st, err := NewPython(r, "").Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "unknown", st.Source)
	assert.False(t, st.Manageable)
}

func TestPythonVersionBannerOnStderr(t *testing.T) {
	// Python 2 printed its version banner to stderr.
	r := newFakeRunner()
	r.install("python", "/usr/bin/python")
	r.stub("/usr/bin/python --version", Result{Stderr: "Python 2.7.18\n"}, nil)

	st, err := NewPython(r, "").Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.7.18", st.Current)
}

func TestPythonConfiguredBinaryOverride(t *testing.T) {
	r := newFakeRunner()
	r.install("python", "/usr/bin/python")
	r.install("python3.12", "/opt/homebrew/bin/python3.12")
	r.stub("/opt/homebrew/bin/python3.12 --version", Result{Stdout: "Python 3.12.5\n"}, nil)
	r.stub("brew info python --json", Result{Stdout: `[{"name": "python@3.12", "versions": {"stable": "3.12.6"}}]`}, nil)

	st, err := NewPython(r, "python3.12").Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/opt/homebrew/bin/python3.12", st.Path)
	assert.Equal(t, "3.12.6", st.Latest)
}

func TestPythonStatusUnavailable(t *testing.T) {
	_, err := NewPython(newFakeRunner(), "").Status(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestPythonSelfUpgradeCandidates(t *testing.T) {
	p := NewPython(newFakeRunner(), "")

	conda := p.SelfUpgrade(Status{Source: "conda"})
	require.Len(t, conda, 1)
	assert.Equal(t, []string{"conda", "update", "python", "-y"}, conda[0])

	brew := p.SelfUpgrade(Status{Source: "homebrew"})
	require.Len(t, brew, 3)
	assert.Equal(t, []string{"brew", "upgrade", "python@3"}, brew[0])

	assert.Nil(t, p.SelfUpgrade(Status{Source: "system"}))
	assert.Nil(t, p.SelfUpgrade(Status{Source: "unknown"}))
}
