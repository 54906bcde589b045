package storage

import (
	"maps"
	"slices"

	"github.com/roach88/ringkv/internal/kv"
)

// Stats summarises one table's rings.
type Stats struct {
	Table string
	Rows  int
	// IndexEntries counts distinct secondary keys per index.
	IndexEntries map[string]int
	// IndexLinks counts, over all rows, the index cleanup hooks recorded
	// by the content ring. It equals Rows * len(indices) once every
	// posted index update has run.
	IndexLinks    int
	RowTriggers   int
	TableTriggers int
}

// StatsCallback receives table statistics.
type StatsCallback func(res kv.Result, stats Stats)

// Stats reports the sizes of a table's rings.
func (s *Storage) Stats(table string, cb StatsCallback) {
	s.post(func() {
		t, ok := s.tables[table]
		if !ok {
			res := kv.Fail(kv.NonexistingTable, "%s does not exist", table)
			s.post(func() { cb(res, Stats{Table: table}) })
			return
		}
		st := t.stats()
		s.logger.Debug("table statistics", "table", table, "rows", st.Rows, "index_entries", st.IndexEntries)
		s.post(func() { cb(kv.OK(), st) })
	})
}

func (t *table) stats() Stats {
	st := Stats{
		Table:         t.schema.Name,
		Rows:          t.content.len(),
		IndexEntries:  make(map[string]int, len(t.indices)),
		TableTriggers: len(t.content.sticky) + len(t.content.nonsticky),
	}
	for name, ring := range t.indices {
		st.IndexEntries[name] = ring.len()
	}
	t.content.rows.Ascend(func(e *contentEntry) bool {
		st.IndexLinks += len(e.indexLinks)
		st.RowTriggers += len(e.triggers)
		return true
	})
	return st
}

// SchemaCallback receives a table's schema.
type SchemaCallback func(res kv.Result, schema kv.Schema)

// Describe reports a table's schema, index names as stored (prefixed).
func (s *Storage) Describe(table string, cb SchemaCallback) {
	s.post(func() {
		t, ok := s.tables[table]
		if !ok {
			res := kv.Fail(kv.NonexistingTable, "%s does not exist", table)
			s.post(func() { cb(res, kv.Schema{Name: table}) })
			return
		}
		schema := kv.Schema{
			Name:    t.schema.Name,
			Columns: t.schema.Columns.Clone(),
			Indices: cloneIndices(t.schema.Indices),
		}
		s.post(func() { cb(kv.OK(), schema) })
	})
}

// Tables reports the names of all tables in ascending order.
func (s *Storage) Tables(cb func(names []string)) {
	s.post(func() {
		names := slices.Sorted(maps.Keys(s.tables))
		s.post(func() { cb(names) })
	})
}
