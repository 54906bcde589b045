package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesSchemaPaths(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "index_walk.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "index_walk", scenario.Name)
	require.Len(t, scenario.Schema, 1)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "people.cue"), scenario.Schema[0])
	assert.Len(t, scenario.Steps, 15)
}

func TestLoadScenario_MissingSchemaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: s
description: d
schema: [missing.cue]
steps:
  - op: stats
    table: T
`), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema path")
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: s\ndescription: d\nstep: []\n",
			want: "field step not found",
		},
		{
			name: "missing name",
			yaml: "description: d\nsteps: [{op: stats, table: T}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: s\nsteps: [{op: stats, table: T}]\n",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: s\ndescription: d\n",
			want: "steps list is required",
		},
		{
			name: "unknown op",
			yaml: "name: s\ndescription: d\nsteps: [{op: upsert, table: T}]\n",
			want: `steps[0]: unknown op "upsert"`,
		},
		{
			name: "put without row",
			yaml: "name: s\ndescription: d\nsteps: [{op: put, table: T}]\n",
			want: "row is required for put",
		},
		{
			name: "get without cursor",
			yaml: "name: s\ndescription: d\nsteps: [{op: get, table: T}]\n",
			want: "cursor is required for get",
		},
		{
			name: "watch with table and cursor",
			yaml: "name: s\ndescription: d\nsteps: [{op: watch, trigger: w, table: T, cursor: c}]\n",
			want: "exactly one of table or cursor",
		},
		{
			name: "expect without code",
			yaml: "name: s\ndescription: d\nsteps: [{op: stats, table: T, expect: {count: 1}}]\n",
			want: "expect: code is required",
		},
		{
			name: "trace_count without count",
			yaml: "name: s\ndescription: d\nsteps: [{op: stats, table: T}]\nassertions: [{type: trace_count, text: x}]\n",
			want: "count must be set",
		},
		{
			name: "final_state without checks",
			yaml: "name: s\ndescription: d\nsteps: [{op: stats, table: T}]\nassertions: [{type: final_state, table: T}]\n",
			want: "count or expect is required",
		},
		{
			name: "unknown assertion",
			yaml: "name: s\ndescription: d\nsteps: [{op: stats, table: T}]\nassertions: [{type: trace_regex}]\n",
			want: `unknown assertion type "trace_regex"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenario_Valid(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: s
description: d
steps:
  - op: create_table
    table: T
    columns: {k: int}
  - op: watch
    table: T
    sticky: true
    trigger: w
  - op: put
    table: T
    row: {k: 1}
    save: one
    expect: {code: SUCCESS}
assertions:
  - type: final_state
    table: T
    where: {GUID: $one}
    count: 1
`))
	require.NoError(t, err)

	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, map[string]string{"k": "int"}, scenario.Steps[0].Columns)
	assert.True(t, scenario.Steps[1].Sticky)
	assert.Equal(t, "one", scenario.Steps[2].Save)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, 1, *scenario.Assertions[0].Count)
}
