package export

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringkv/internal/kv"
)

func openTest(t *testing.T) *Exporter {
	t.Helper()
	e, err := Open(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestOpenPragmas(t *testing.T) {
	e := openTest(t)

	var mode string
	require.NoError(t, e.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var version int
	require.NoError(t, e.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, schemaVersion, version)
}

func TestWriteTable(t *testing.T) {
	e := openTest(t)
	ctx := context.Background()

	columns := kv.Columns{"k": kv.Int(0), "v": kv.Text(""), "w": kv.Double(0)}
	rows := []kv.Row{
		{kv.GUIDColumn: kv.GUIDFromInt(1), "k": kv.Int(1), "v": kv.Text("a"), "w": kv.Double(0.5)},
		{kv.GUIDColumn: kv.GUIDFromInt(2), "k": kv.Int(2), "v": kv.Text("b"), "w": kv.Double(1.5)},
	}
	require.NoError(t, e.WriteTable(ctx, "T", columns, rows))

	res, err := e.DB().Query(`SELECT "GUID", "k", "v", "w" FROM "T" ORDER BY "k"`)
	require.NoError(t, err)
	defer res.Close()

	var got []string
	for res.Next() {
		var (
			guid, v string
			k       int64
			w       float64
		)
		require.NoError(t, res.Scan(&guid, &k, &v, &w))
		got = append(got, guid+" "+v)
		assert.Equal(t, kv.GUIDFromInt(k).String(), guid)
	}
	require.NoError(t, res.Err())
	assert.Equal(t, []string{
		kv.GUIDFromInt(1).String() + " a",
		kv.GUIDFromInt(2).String() + " b",
	}, got)

	var kind string
	require.NoError(t, e.DB().QueryRow(
		"SELECT kind FROM ringkv_columns WHERE table_name = ? AND column_name = ?", "T", "w",
	).Scan(&kind))
	assert.Equal(t, "double", kind)
}

func TestWriteTableReplacesSnapshot(t *testing.T) {
	e := openTest(t)
	ctx := context.Background()
	columns := kv.Columns{"k": kv.Int(0)}

	require.NoError(t, e.WriteTable(ctx, "T", columns, []kv.Row{
		{kv.GUIDColumn: kv.GUIDFromInt(1), "k": kv.Int(1)},
		{kv.GUIDColumn: kv.GUIDFromInt(2), "k": kv.Int(2)},
	}))
	require.NoError(t, e.WriteTable(ctx, "T", columns, []kv.Row{
		{kv.GUIDColumn: kv.GUIDFromInt(3), "k": kv.Int(3)},
	}))

	var n int
	require.NoError(t, e.DB().QueryRow(`SELECT COUNT(*) FROM "T"`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestWriteTableRejectsNonconformingRow(t *testing.T) {
	e := openTest(t)
	err := e.WriteTable(context.Background(), "T", kv.Columns{"k": kv.Int(0)}, []kv.Row{
		{kv.GUIDColumn: kv.GUIDFromInt(1), "k": kv.Text("one")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "k"`)

	// The transaction rolled back, so the table was never created.
	var n int
	require.NoError(t, e.DB().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'T'",
	).Scan(&n))
	assert.Zero(t, n)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"a""b"`, quote(`a"b`))
	assert.Equal(t, `INSERT INTO "T" ("GUID", "k") VALUES (?, ?)`, insertStatement("T", []string{"GUID", "k"}))
}
