package kv

import (
	"maps"
	"slices"
)

// Row maps column names to values. Column order is irrelevant.
type Row map[string]Value

// Query selects rows by column values. An empty query matches every row,
// a query holding GUID selects by primary key and any other column set
// must equal the column set of exactly one index.
type Query = Row

// Clone returns a shallow copy; values are immutable so this is a full copy.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// SortedKeys returns the column names in ascending order.
func (r Row) SortedKeys() []string {
	return slices.Sorted(maps.Keys(r))
}

// GUID returns the row's primary key if it carries a GUID-typed GUID column.
func (r Row) GUID() (GUID, bool) {
	v, ok := r[GUIDColumn]
	if !ok {
		return GUID{}, false
	}
	g, ok := v.(GUID)
	return g, ok
}

// Equal reports whether two rows hold the same columns with equal values.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for k, v := range r {
		ov, ok := other[k]
		if !ok || !ValueEqual(v, ov) {
			return false
		}
	}
	return true
}
