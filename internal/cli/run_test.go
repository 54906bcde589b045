package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPassingScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "basic.yaml", passingScenario)

	out, err := execute(t, "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ basic")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestRunFailingScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.yaml", failingScenario)

	out, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, "want code NO_MORE_ROWS, got SUCCESS")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestRunDirectoryWithFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "basic.yaml", passingScenario)
	writeFile(t, dir, "nested/broken.yml", failingScenario)
	writeFile(t, dir, "notes.txt", "not a scenario")

	out, err := execute(t, "run", dir)
	require.Error(t, err)
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")

	out, err = execute(t, "run", dir, "--filter", "bas*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	out, err = execute(t, "run", dir, "--filter", "zzz*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestRunTraceFlag(t *testing.T) {
	path := writeFile(t, t.TempDir(), "basic.yaml", passingScenario)

	out, err := execute(t, "run", path, "--trace")
	require.NoError(t, err)
	assert.Contains(t, out, "    [1] create_table T")
	assert.Contains(t, out, "    [2] put T {k=1, v=a}")
}

func TestRunJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "basic.yaml", passingScenario)

	buf := &bytes.Buffer{}
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "json"},
		RunIDs:      fixedRunIDs("run-json"),
	}
	cmd := NewRunCommand(opts.RootOptions)
	cmd.SetOut(buf)
	require.NoError(t, runScenarios(opts, []string{path}, cmd))

	var resp struct {
		Status string    `json:"status"`
		Data   RunReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "basic", resp.Data.Scenarios[0].Name)
	assert.Equal(t, "run-json", resp.Data.Scenarios[0].RunID)
	assert.Empty(t, resp.Data.Scenarios[0].Trace)
}

func TestRunStepLimitFailsScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "basic.yaml", passingScenario)

	out, err := execute(t, "--step-limit", "1", "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "execution failed")
	assert.Contains(t, out, "step limit exceeded")
}

func TestRunMissingPath(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunLoadErrorReported(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "name: bad\ndescription: d\nsteps: [{op: upsert, table: T}]\n")

	out, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Contains(t, out, "✗ bad.yaml")
	assert.Contains(t, out, `unknown op "upsert"`)
}

func TestRunMissingArgs(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}
