package managers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const npmOutdatedJSON = `{
  "typescript": {"current": "5.3.3", "wanted": "5.3.3", "latest": "5.5.2"},
  "npm": {"current": "10.2.3", "wanted": "10.2.3", "latest": "10.8.1"},
  "eslint": {"current": "8.56.0", "wanted": "8.57.0", "latest": "9.5.0"}
}`

func TestNpmStatus(t *testing.T) {
	r := newFakeRunner()
	r.install("npm", "/opt/homebrew/bin/npm")
	r.stub("npm --version", Result{Stdout: "10.2.3\n"}, nil)
	r.stub("npm view npm version", Result{Stdout: "10.8.1\n"}, nil)
	// npm outdated exits 1 when anything is outdated; the JSON body is
	// still the answer.
	r.stubExit("npm outdated -g --json", 1, npmOutdatedJSON, "")

	st, err := NewNpm(r).Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "npm", st.Name)
	assert.Equal(t, "10.2.3", st.Current)
	assert.Equal(t, "10.8.1", st.Latest)
	assert.True(t, st.Manageable)

	// npm itself is excluded from the package list (handled as the tool's
	// own upgrade, which runs last) and the rest arrive sorted.
	require.Len(t, st.Outdated, 2)
	assert.Equal(t, "eslint", st.Outdated[0].Name)
	assert.Equal(t, "typescript", st.Outdated[1].Name)
	assert.Equal(t, "5.5.2", st.Outdated[1].Latest)
}

func TestNpmStatusNoOutdated(t *testing.T) {
	r := newFakeRunner()
	r.install("npm", "/opt/homebrew/bin/npm")
	r.stub("npm --version", Result{Stdout: "10.8.1\n"}, nil)
	r.stub("npm view npm version", Result{Stdout: "10.8.1\n"}, nil)
	r.stub("npm outdated -g --json", Result{Stdout: "{}\n"}, nil)

	st, err := NewNpm(r).Status(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Outdated)
	assert.Equal(t, st.Current, st.Latest)
}

func TestNpmStatusRegistryUnreachable(t *testing.T) {
	r := newFakeRunner()
	r.install("npm", "/opt/homebrew/bin/npm")
	r.stub("npm --version", Result{Stdout: "10.2.3\n"}, nil)
	r.stubExit("npm view npm version", 1, "", "npm ERR! network request failed")
	r.stub("npm outdated -g --json", Result{Stdout: "{}"}, nil)

	st, err := NewNpm(r).Status(context.Background())
	require.NoError(t, err)
	// Latest falls back to current: the classifier will report no-change
	// rather than inventing an upgrade from missing data.
	assert.Equal(t, st.Current, st.Latest)
	assert.NotEmpty(t, st.Note)
}

func TestNpmStatusUnavailable(t *testing.T) {
	_, err := NewNpm(newFakeRunner()).Status(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestNpmCommands(t *testing.T) {
	n := NewNpm(newFakeRunner())

	self := n.SelfUpgrade(Status{})
	require.Len(t, self, 1)
	assert.Equal(t, []string{"npm", "install", "-g", "npm@latest"}, self[0])

	assert.Equal(t, []string{"npm", "install", "-g", "typescript@latest"}, n.PackageUpgrade("typescript"))

	argv, prompt := n.Cleanup()
	assert.Equal(t, []string{"npm", "cache", "verify"}, argv)
	assert.NotEmpty(t, prompt)
}

func TestManagerByName(t *testing.T) {
	r := newFakeRunner()

	for name, want := range map[string]string{
		"brew":     "homebrew",
		"homebrew": "homebrew",
		"conda":    "conda",
		"python":   "python",
		"npm":      "npm",
		"NPM":      "npm",
	} {
		m, err := ByName(name, r, "")
		require.NoError(t, err, name)
		assert.Equal(t, want, m.Name())
	}

	_, err := ByName("apt", r, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestAllOrdersNpmLast(t *testing.T) {
	all := All(newFakeRunner(), "")
	require.Len(t, all, 4)
	assert.Equal(t, "homebrew", all[0].Name())
	assert.Equal(t, "conda", all[1].Name())
	assert.Equal(t, "python", all[2].Name())
	assert.Equal(t, "npm", all[3].Name())
}
