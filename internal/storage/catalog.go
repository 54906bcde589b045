package storage

import (
	"strings"

	"github.com/roach88/ringkv/internal/kv"
)

// The methods in this file run on the dispatcher.

func (s *Storage) createTable(name string, columns kv.Columns, indices kv.Indices, cb ResultCallback) {
	reply := func(res kv.Result) { s.post(func() { cb(res) }) }

	if name == "" {
		reply(kv.Fail(kv.InvalidRowOrQuery, "table name is empty"))
		return
	}

	if columns == nil {
		columns = make(kv.Columns)
	}
	columns[kv.GUIDColumn] = kv.GUID{}
	for i := range indices {
		indices[i].Name = name + "_" + indices[i].Name
	}
	schema := kv.Schema{Name: name, Columns: columns, Indices: indices}

	if existing, ok := s.tables[name]; ok {
		if existing.schema.Equal(schema) {
			s.logger.Debug("table exists with the same schema", "table", name)
			reply(kv.OK())
			return
		}
		reply(kv.Fail(kv.ExistingTable, "table %q already exists with a different schema", name))
		return
	}

	if res := validateIndices(columns, indices); !res.IsSuccess() {
		reply(res)
		return
	}

	s.logger.Debug("creating table", "table", name, "columns", len(columns), "indices", len(indices))
	s.tables[name] = newTable(s.d, schema)
	reply(kv.OK())
}

func validateIndices(columns kv.Columns, indices kv.Indices) kv.Result {
	seen := make(map[string]bool, len(indices))
	for _, ix := range indices {
		if seen[ix.Name] {
			return kv.Fail(kv.InvalidRowOrQuery, "duplicate index %q", ix.Name)
		}
		seen[ix.Name] = true
		if len(ix.Columns) == 0 {
			return kv.Fail(kv.InvalidRowOrQuery, "index %q has no columns", ix.Name)
		}
		for _, col := range ix.Columns {
			if _, ok := columns[col]; !ok {
				return kv.Fail(kv.InvalidRowOrQuery, "index %q: unknown column %q", ix.Name, col)
			}
		}
	}
	return kv.OK()
}

func (s *Storage) dropTable(name string, cb ResultCallback) {
	if _, ok := s.tables[name]; !ok {
		s.post(func() { cb(kv.Fail(kv.NonexistingTable, "%s does not exist", name)) })
		return
	}
	s.logger.Debug("dropping table", "table", name)
	delete(s.tables, name)
	s.post(func() { cb(kv.OK()) })
}

// identifyIndex returns the one index whose column set equals the query's.
func (t *table) identifyIndex(q kv.Query) (kv.Index, kv.Result) {
	var (
		found kv.Index
		n     int
	)
	for _, ix := range t.schema.Indices {
		if ix.Covers(q) {
			found = ix
			n++
		}
	}
	switch n {
	case 0:
		return kv.Index{}, kv.Fail(kv.InvalidRowOrQuery, "no matching index for columns %s", strings.Join(q.SortedKeys(), ","))
	case 1:
		return found, kv.OK()
	default:
		return kv.Index{}, kv.Fail(kv.InvalidRowOrQuery, "ambiguous query: %d indices match", n)
	}
}

func (s *Storage) get(name string, query kv.Query, cb GetCallback) {
	ctx := kv.NewContext(name)
	fail := func(res kv.Result) { s.post(func() { cb(res, ctx, nil) }) }

	t, ok := s.tables[name]
	if !ok {
		fail(kv.Fail(kv.InvalidRowOrQuery, "table %q doesn't exist", name))
		return
	}
	if err := t.schema.Columns.ConformsTo(query, false); err != nil {
		fail(kv.Fail(kv.InvalidRowOrQuery, "%v", err))
		return
	}

	if len(query) == 0 {
		t.get(ctx, kv.Wild(), false, cb)
		return
	}
	if g, ok := query.GUID(); ok {
		t.get(ctx, kv.NewReference(kv.AnyVersion, g), false, cb)
		return
	}

	ix, res := t.identifyIndex(query)
	if !res.IsSuccess() {
		fail(res)
		return
	}
	ctx.Index = ix.Name
	t.indexGet(t.indices[ix.Name], ctx, kv.ComputeSGUID(ix.Columns, query), cb)
}

func (s *Storage) getNext(ctx kv.Context, cb GetCallback) {
	fail := func(msg string) {
		s.post(func() { cb(kv.Fail(kv.ConcurrentModification, "%s", msg), ctx, nil) })
	}

	t, ok := s.tables[ctx.Table]
	if !ok {
		fail("table removed while iterating")
		return
	}
	if ctx.Index == "" {
		t.getNext(ctx, cb)
		return
	}
	ring, ok := t.indices[ctx.Index]
	if !ok {
		fail("index removed while iterating")
		return
	}
	t.indexGetNext(ring, ctx, cb)
}

func (s *Storage) put(name string, row kv.Row, cb PutCallback) {
	fail := func(res kv.Result) { s.post(func() { cb(res, kv.GUID{}) }) }

	t, ok := s.tables[name]
	if !ok {
		fail(kv.Fail(kv.InvalidRowOrQuery, "table %q doesn't exist", name))
		return
	}
	if err := t.schema.Columns.ConformsTo(row, true); err != nil {
		fail(kv.Fail(kv.InvalidRowOrQuery, "%v", err))
		return
	}
	if _, ok := row.GUID(); !ok {
		row[kv.GUIDColumn] = s.newGUID()
	}
	t.put(row, kv.SGUIDs(t.schema.Indices, row), cb)
}

func (s *Storage) modify(ctx kv.Context, row kv.Row, cb ModifyCallback) {
	fail := func(res kv.Result) { s.post(func() { cb(res, ctx) }) }

	t, ok := s.tables[ctx.Table]
	if !ok {
		fail(kv.Fail(kv.ConcurrentModification, "table %q removed", ctx.Table))
		return
	}
	if err := t.schema.Columns.ConformsTo(row, true); err != nil {
		fail(kv.Fail(kv.InvalidRowOrQuery, "%v", err))
		return
	}
	if g, ok := row.GUID(); ok && g != ctx.CurrentRow.GUID {
		fail(kv.Fail(kv.InvalidRowOrQuery, "row and context don't match"))
		return
	}
	row[kv.GUIDColumn] = ctx.CurrentRow.GUID
	t.modify(ctx, row, kv.SGUIDs(t.schema.Indices, row), cb)
}

func (s *Storage) remove(ctx kv.Context, cb ResultCallback) {
	t, ok := s.tables[ctx.Table]
	if !ok {
		s.post(func() { cb(kv.Fail(kv.ConcurrentModification, "table %q removed", ctx.Table)) })
		return
	}
	t.remove(ctx.CurrentRow, cb)
}

func (s *Storage) putTrigger(ctx kv.Context, fn kv.TriggerFunc, cb TriggerCallback) {
	fail := func(msg string) {
		s.post(func() { cb(kv.Fail(kv.ConcurrentModification, "%s", msg), failedTrigger) })
	}

	t, ok := s.tables[ctx.Table]
	if !ok {
		fail("table dropped")
		return
	}
	if ctx.Index == "" {
		t.putRowTrigger(ctx, fn, cb)
		return
	}
	ring, ok := t.indices[ctx.Index]
	if !ok {
		fail("index dropped")
		return
	}
	t.putIndexTrigger(ring, ctx, fn, cb)
}

func (s *Storage) putTableTrigger(name string, sticky bool, fn kv.TriggerFunc, cb TriggerCallback) {
	t, ok := s.tables[name]
	if !ok {
		s.post(func() { cb(kv.Fail(kv.ConcurrentModification, "table dropped"), failedTrigger) })
		return
	}
	t.putTableTrigger(sticky, fn, cb)
}

// removeTrigger routes by ring name: index rings first, then tables.
func (s *Storage) removeTrigger(id kv.TriggerID, cb ResultCallback) {
	for _, t := range s.tables {
		if ring, ok := t.indices[id.Ring]; ok {
			t.removeIndexTrigger(ring, id, cb)
			return
		}
	}
	if t, ok := s.tables[id.Ring]; ok {
		t.removeContentTrigger(id, cb)
		return
	}
	s.post(func() { cb(kv.Fail(kv.ConcurrentModification, "table removed")) })
}
