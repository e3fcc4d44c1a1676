package main_test

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the semantic binary and returns the path.
// The binary is placed in t.TempDir() so it's cleaned up automatically.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "semantic"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "semantic")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot walks up from the test file's directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "could not find project root")
		dir = parent
	}
}

// createFixture creates a temporary repo with one clean and one faulty file.
func createFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.js"),
		[]byte("export function add(a, b) {\n  return a + b;\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.js"),
		[]byte("function f() {\n  return 1;\n  missing();\n}\nf();\n"), 0o644))
	return dir
}

// run executes the binary in dir and returns stdout and the exit code.
func run(t *testing.T, bin, dir string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
	out, err := cmd.Output()
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return string(out), exit.ExitCode()
	}
	require.NoError(t, err)
	return string(out), 0
}

func TestCLI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	t.Run("index", func(t *testing.T) {
		out, code := run(t, bin, dir, "index", dir)
		require.Equal(t, 0, code, out)
		var result struct {
			Command string `json:"command"`
			Results struct {
				Files map[string]int `json:"files"`
				Rows  map[string]int `json:"rows"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &result), out)
		assert.Equal(t, "index", result.Command)
		assert.Equal(t, 2, result.Results.Files["indexed"])
		assert.Positive(t, result.Results.Rows["symbols"])
		assert.FileExists(t, filepath.Join(dir, ".semantic", "index.db"))

		// Unchanged files are skipped on the second run.
		out, code = run(t, bin, dir, "index", dir)
		require.Equal(t, 0, code, out)
		require.NoError(t, json.Unmarshal([]byte(out), &result), out)
		assert.Equal(t, 2, result.Results.Files["skipped"])
	})

	t.Run("lint", func(t *testing.T) {
		out, code := run(t, bin, dir, "lint", dir)
		assert.Equal(t, 1, code, out)
		var result struct {
			Results []struct {
				Rule string `json:"rule"`
				File string `json:"file"`
				Line int    `json:"line"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &result), out)
		rules := map[string]bool{}
		for _, f := range result.Results {
			assert.Equal(t, "bad.js", f.File)
			assert.Equal(t, 3, f.Line)
			rules[f.Rule] = true
		}
		assert.Equal(t, map[string]bool{"no-undef": true, "no-unreachable": true}, rules)

		out, code = run(t, bin, dir, "lint", "--format", "text", "--no-color", dir)
		assert.Equal(t, 1, code, out)
		assert.Contains(t, out, "bad.js:3:3: no-undef 'missing' is not defined")
		assert.Contains(t, out, "2 findings")
	})

	t.Run("analyze", func(t *testing.T) {
		out, code := run(t, bin, dir, "analyze", "ok.js")
		require.Equal(t, 0, code, out)
		var result struct {
			Results struct {
				SourceType string `json:"source_type"`
				Symbols    []struct {
					Name string `json:"name"`
				} `json:"symbols"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &result), out)
		assert.Equal(t, "javascript/module", result.Results.SourceType)
		var names []string
		for _, s := range result.Results.Symbols {
			names = append(names, s.Name)
		}
		assert.ElementsMatch(t, []string{"add", "a", "b"}, names)
	})

	t.Run("cfg", func(t *testing.T) {
		out, code := run(t, bin, dir, "cfg", "--format", "text", "bad.js")
		require.Equal(t, 0, code, out)
		assert.Equal(t, 2, strings.Count(out, "digraph cfg_"))
		assert.Contains(t, out, "fillcolor=lightgray")

		stored, code := run(t, bin, dir, "cfg", "--format", "text", "--stored", "bad.js")
		require.Equal(t, 0, code, stored)
		assert.Equal(t, out, stored)

		out, code = run(t, bin, dir, "cfg", "--node", "999", "bad.js")
		assert.Equal(t, 1, code)
		assert.Contains(t, out, "no graph for node 999")
	})

	t.Run("bad format", func(t *testing.T) {
		_, code := run(t, bin, dir, "index", "--format", "xml", dir)
		assert.Equal(t, 1, code)
	})
}
