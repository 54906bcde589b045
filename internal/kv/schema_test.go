package kv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		Name:    "T",
		Columns: Columns{"k": Int(0), "v": Text(""), GUIDColumn: GUID{}},
		Indices: Indices{{Name: "T_k", Columns: []string{"k"}}},
	}
}

func TestSchemaEqualByKind(t *testing.T) {
	a := testSchema()
	b := testSchema()
	b.Columns["k"] = Int(77)

	assert.True(t, a.Equal(b), "example values only fix the kind")
}

func TestSchemaNotEqual(t *testing.T) {
	base := testSchema()

	kind := testSchema()
	kind.Columns["k"] = Double(0)
	assert.False(t, base.Equal(kind))

	extra := testSchema()
	extra.Columns["w"] = Int(0)
	assert.False(t, base.Equal(extra))

	index := testSchema()
	index.Indices = Indices{{Name: "T_k", Columns: []string{"v"}}}
	assert.False(t, base.Equal(index))
}

func TestColumnsConformsTo(t *testing.T) {
	cols := testSchema().Columns

	require.NoError(t, cols.ConformsTo(Row{"k": Int(1)}, false))
	require.NoError(t, cols.ConformsTo(Row{"k": Int(1), "v": Text("a")}, true))

	assert.ErrorContains(t, cols.ConformsTo(Row{"nope": Int(1)}, false), "unknown column")
	assert.ErrorContains(t, cols.ConformsTo(Row{"k": Text("1")}, false), "want int")
	assert.ErrorContains(t, cols.ConformsTo(Row{"k": Int(1)}, true), `missing column "v"`)
}

func TestIndexCovers(t *testing.T) {
	ix := Index{Name: "T_kv", Columns: []string{"k", "v"}}

	assert.True(t, ix.Covers(Query{"k": Int(1), "v": Text("a")}))
	assert.False(t, ix.Covers(Query{"k": Int(1)}))
	assert.False(t, ix.Covers(Query{"k": Int(1), "w": Text("a")}))
}

func TestRowEqual(t *testing.T) {
	nan := Double(math.NaN())

	assert.True(t, Row{"d": nan}.Equal(Row{"d": nan}))
	assert.False(t, Row{"k": Int(1)}.Equal(Row{"k": Double(1)}))
	assert.False(t, Row{"k": Int(1)}.Equal(Row{"k": Int(1), "v": Text("")}))
}

func TestParseKind(t *testing.T) {
	for spelling, want := range map[string]Kind{"int": KindInt, "string": KindText, "text": KindText, "double": KindDouble, "guid": KindGUID} {
		got, err := ParseKind(spelling)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, want, got.Zero().Kind())
	}
	_, err := ParseKind("blob")
	assert.Error(t, err)
}

func TestKindSQLType(t *testing.T) {
	assert.Equal(t, "INTEGER", KindInt.SQLType())
	assert.Equal(t, "TEXT", KindText.SQLType())
	assert.Equal(t, "DOUBLE", KindDouble.SQLType())
	assert.Equal(t, "TEXT", KindGUID.SQLType())
}
