package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ringkv/internal/testutil"
)

const passingScenario = `
name: basic
description: put one row and read it back
steps:
  - op: create_table
    table: T
    columns: {k: int, v: string}
    indices: {k: [k]}
    expect: {code: SUCCESS}
  - op: put
    table: T
    row: {k: 1, v: a}
    expect: {code: SUCCESS}
  - op: put
    table: T
    row: {k: 2, v: b}
  - op: get
    table: T
    query: {k: 1}
    cursor: c
    expect:
      code: SUCCESS
      row: {v: a}
assertions:
  - type: final_state
    table: T
    count: 2
`

const failingScenario = `
name: broken
description: expects the wrong outcome of a put
steps:
  - op: create_table
    table: T
    columns: {k: int}
  - op: put
    table: T
    row: {k: 1}
    expect: {code: NO_MORE_ROWS}
`

const peopleSchema = `package schema

tables: People: {
	columns: {name: "string", city: "string"}
	indices: {city: ["city"]}
}
`

// writeFile writes content under dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// fixedRunIDs returns a generator for deterministic run IDs.
func fixedRunIDs(id string) *testutil.FixedRunID {
	return testutil.NewFixedRunID(id)
}
