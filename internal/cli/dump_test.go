package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringkv/internal/export"
)

func TestDumpExportsTables(t *testing.T) {
	dir := t.TempDir()
	scenario := writeFile(t, dir, "basic.yaml", passingScenario)
	dbPath := filepath.Join(dir, "out.db")

	out, err := execute(t, "dump", scenario, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "T: 2 rows")
	assert.Contains(t, out, "Exported 1 tables to "+dbPath)

	ex, err := export.Open(dbPath)
	require.NoError(t, err)
	defer ex.Close()

	rows, err := ex.DB().QueryContext(context.Background(), `SELECT k, v FROM "T" ORDER BY k`)
	require.NoError(t, err)
	defer rows.Close()

	type kvRow struct {
		K int64
		V string
	}
	var got []kvRow
	for rows.Next() {
		var r kvRow
		require.NoError(t, rows.Scan(&r.K, &r.V))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []kvRow{{1, "a"}, {2, "b"}}, got)
}

func TestDumpJSON(t *testing.T) {
	dir := t.TempDir()
	scenario := writeFile(t, dir, "basic.yaml", passingScenario)

	buf := &bytes.Buffer{}
	opts := &DumpOptions{
		RootOptions: &RootOptions{Format: "json"},
		Database:    filepath.Join(dir, "out.db"),
		RunIDs:      fixedRunIDs("dump-run"),
	}
	cmd := NewDumpCommand(opts.RootOptions)
	cmd.SetOut(buf)
	require.NoError(t, runDump(opts, scenario, cmd))

	var resp struct {
		Status string     `json:"status"`
		RunID  string     `json:"run_id"`
		Data   DumpReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "dump-run", resp.RunID)
	assert.True(t, resp.Data.Pass)
	assert.Equal(t, map[string]int{"T": 2}, resp.Data.Tables)
}

func TestDumpFailingScenarioStillExports(t *testing.T) {
	dir := t.TempDir()
	scenario := writeFile(t, dir, "broken.yaml", failingScenario)

	out, err := execute(t, "dump", scenario, "--db", filepath.Join(dir, "out.db"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "T: 1 rows")
}

func TestDumpMissingDatabaseFlag(t *testing.T) {
	scenario := writeFile(t, t.TempDir(), "basic.yaml", passingScenario)

	_, err := execute(t, "dump", scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "db")
}

func TestDumpMissingScenario(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "dump", filepath.Join(dir, "none.yaml"), "--db", filepath.Join(dir, "out.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_SCENARIO]")
}
