package kv

import (
	"fmt"
	"slices"
)

// Columns declares a table's columns. Each value is an example whose kind
// fixes the column type.
type Columns map[string]Value

// Clone returns a copy of the column set.
func (c Columns) Clone() Columns {
	return Columns(Row(c).Clone())
}

// Index declares one secondary index: a name and the ordered columns whose
// values produce its secondary key.
type Index struct {
	Name    string
	Columns []string
}

// Covers reports whether the query's column set equals the index's column set.
func (ix Index) Covers(q Query) bool {
	if len(q) != len(ix.Columns) {
		return false
	}
	for _, col := range ix.Columns {
		if _, ok := q[col]; !ok {
			return false
		}
	}
	return true
}

// Indices is an ordered list of index definitions.
type Indices []Index

// Find returns the index with the given name.
func (is Indices) Find(name string) (Index, bool) {
	for _, ix := range is {
		if ix.Name == name {
			return ix, true
		}
	}
	return Index{}, false
}

// Schema is the full declaration of one table.
type Schema struct {
	Name    string
	Columns Columns
	Indices Indices
}

// Equal compares two schemas by column names and kinds, then by index
// names and ordered column lists. Index declaration order does not matter.
func (s Schema) Equal(other Schema) bool {
	if s.Name != other.Name || len(s.Columns) != len(other.Columns) || len(s.Indices) != len(other.Indices) {
		return false
	}
	for name, v := range s.Columns {
		ov, ok := other.Columns[name]
		if !ok || !SameKind(v, ov) {
			return false
		}
	}
	for _, ix := range s.Indices {
		ox, ok := other.Indices.Find(ix.Name)
		if !ok || !slices.Equal(ix.Columns, ox.Columns) {
			return false
		}
	}
	return true
}

// ConformsTo checks that every column of row is declared with a matching
// kind. When complete is set every declared column other than GUID must
// also be present.
func (c Columns) ConformsTo(row Row, complete bool) error {
	for name, v := range row {
		decl, ok := c[name]
		if !ok {
			return fmt.Errorf("unknown column %q", name)
		}
		if !SameKind(decl, v) {
			return fmt.Errorf("column %q: want %s, got %s", name, decl.Kind(), kindOf(v))
		}
	}
	if !complete {
		return nil
	}
	for _, name := range Row(c).SortedKeys() {
		if name == GUIDColumn {
			continue
		}
		if _, ok := row[name]; !ok {
			return fmt.Errorf("missing column %q", name)
		}
	}
	return nil
}

func kindOf(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}
