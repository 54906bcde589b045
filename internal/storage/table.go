package storage

import (
	"github.com/roach88/ringkv/internal/engine"
	"github.com/roach88/ringkv/internal/kv"
)

// table exclusively owns one table's content ring and index rings. Every
// interaction between the content store and the index stores is a method
// on table; nothing else holds a pointer into either store.
type table struct {
	d       *engine.Dispatcher
	schema  kv.Schema
	content *contentRing
	indices map[string]*indexRing

	// floors holds, for every removed GUID, the version a re-put of that
	// GUID starts at. Versions of a GUID never repeat, so a Context or a
	// delayed index cleanup aimed at the removed row cannot match its
	// successor.
	floors map[kv.GUID]int64
}

func newTable(d *engine.Dispatcher, schema kv.Schema) *table {
	t := &table{
		d:       d,
		schema:  schema,
		content: newContentRing(schema.Name),
		indices: make(map[string]*indexRing, len(schema.Indices)),
		floors:  make(map[kv.GUID]int64),
	}
	for _, ix := range schema.Indices {
		t.indices[ix.Name] = newIndexRing(ix)
	}
	return t
}

func (t *table) post(task engine.Task) {
	t.d.Post(task)
}

// fireTable posts every table trigger, sticky first, and drops the
// non-sticky ones.
func (t *table) fireTable(row kv.Row, reason kv.TriggerReason) {
	t.content.sticky.fire(t.d, row, reason)
	t.content.nonsticky.take().fire(t.d, row, reason)
}

// --- content store ---

// get looks up ref in the content ring. A wildcard ref returns the first
// row of the ring. With exact set the stored version must match ref.
func (t *table) get(ctx kv.Context, ref kv.Reference, exact bool, cb GetCallback) {
	var (
		e  *contentEntry
		ok bool
	)
	if ref.Wildcard {
		e, ok = t.content.first()
	} else {
		e, ok = t.content.find(ref.GUID)
	}
	if !ok {
		res := kv.Fail(kv.NoMoreRows, "no more rows")
		if exact {
			res = kv.Fail(kv.ConcurrentModification, "can't find specified row")
		}
		t.post(func() { cb(res, ctx, nil) })
		return
	}
	if exact && !e.id.Matches(ref) {
		t.post(func() {
			cb(kv.Fail(kv.ConcurrentModification, "row modified since its retrieval or index creation"), ctx, nil)
		})
		return
	}

	ctx.InitialRow = e.id
	ctx.CurrentRow = e.id
	row := e.row.Clone()
	t.post(func() { cb(kv.OK(), ctx, row) })
}

// getNext advances a full-table walk, wrapping around the ring once.
func (t *table) getNext(ctx kv.Context, cb GetCallback) {
	end := func() {
		t.post(func() { cb(kv.Fail(kv.NoMoreRows, "end of rows"), ctx, nil) })
	}

	next, ok := t.content.after(ctx.CurrentRow.GUID)
	if !ok {
		if next, ok = t.content.first(); !ok {
			end()
			return
		}
	}

	initial := ctx.InitialRow.GUID
	if next.id.GUID == initial {
		end()
		return
	}
	// Crossing the initial GUID without meeting it: the row we started
	// from is gone, and everything past it was already visited.
	if ctx.CurrentRow.GUID.Less(initial) && !next.id.GUID.Less(initial) {
		end()
		return
	}

	ctx.CurrentRow = next.id
	row := next.row.Clone()
	t.post(func() { cb(kv.OK(), ctx, row) })
}

// put inserts a row carrying its GUID, at version 0 unless the GUID was
// used by a removed row.
func (t *table) put(row kv.Row, sguids map[string]kv.GUID, cb PutCallback) {
	g, _ := row.GUID()
	if _, exists := t.content.find(g); exists {
		t.post(func() { cb(kv.Fail(kv.ConcurrentModification, "row does exist"), kv.GUID{}) })
		return
	}

	version := t.floors[g]
	delete(t.floors, g)
	e := &contentEntry{
		id:         kv.NewReference(version, g),
		row:        row,
		sguids:     sguids,
		triggers:   make(triggerMap),
		indexLinks: make(map[string]kv.TriggerID),
	}
	t.content.insert(e)

	t.fireTable(row, kv.Insert)
	for _, ix := range t.schema.Indices {
		ring, sguid, ref := t.indices[ix.Name], sguids[ix.Name], e.id
		t.post(func() { t.indexPut(ring, sguid, ref, row, kv.Insert) })
	}
	t.post(func() { cb(kv.OK(), g) })
}

// modify replaces the content of the row ctx.CurrentRow references.
func (t *table) modify(ctx kv.Context, row kv.Row, sguids map[string]kv.GUID, cb ModifyCallback) {
	e, ok := t.content.find(ctx.CurrentRow.GUID)
	if !ok {
		t.post(func() { cb(kv.Fail(kv.ConcurrentModification, "row removed since retrieval"), ctx) })
		return
	}
	if !e.id.Matches(ctx.CurrentRow) {
		t.post(func() { cb(kv.Fail(kv.ConcurrentModification, "row modified since its retrieval"), ctx) })
		return
	}

	rowTriggers := e.triggers.take()
	prevID, prevRow, prevSGUIDs := e.id, e.row, e.sguids

	e.id.Version++
	e.row = row
	e.sguids = sguids
	e.indexLinks = make(map[string]kv.TriggerID)
	ctx.CurrentRow = e.id

	t.fireTable(prevRow, kv.Modify)
	rowTriggers.fire(t.d, prevRow, kv.Modify)

	newID := e.id
	for _, ix := range t.schema.Indices {
		ring := t.indices[ix.Name]
		oldKey, had := prevSGUIDs[ix.Name]
		newKey := sguids[ix.Name]
		if had && oldKey == newKey {
			t.post(func() { t.indexModify(ring, newKey, prevID, newID, prevRow, row, kv.Modify) })
			continue
		}
		if had {
			t.post(func() { t.indexRemove(ring, oldKey, prevID, prevRow, kv.Modify) })
		}
		t.post(func() { t.indexPut(ring, newKey, newID, row, kv.Modify) })
	}
	t.post(func() { cb(kv.OK(), ctx) })
}

// remove deletes the row ref references, cascading to every index.
func (t *table) remove(ref kv.Reference, cb ResultCallback) {
	e, ok := t.content.find(ref.GUID)
	if !ok {
		t.post(func() { cb(kv.Fail(kv.ConcurrentModification, "row removed since retrieval")) })
		return
	}
	if !e.id.Matches(ref) {
		t.post(func() { cb(kv.Fail(kv.ConcurrentModification, "row modified since its retrieval")) })
		return
	}

	prevID, row := e.id, e.row
	e.id.Version++
	rowTriggers := e.triggers.take()

	t.fireTable(row, kv.Remove)
	rowTriggers.fire(t.d, row, kv.Remove)

	for _, ix := range t.schema.Indices {
		ring, sguid := t.indices[ix.Name], e.sguids[ix.Name]
		t.post(func() { t.indexRemove(ring, sguid, prevID, row, kv.Remove) })
	}

	e.row = nil
	e.indexLinks = nil
	t.content.delete(ref.GUID)
	t.floors[ref.GUID] = e.id.Version
	t.post(func() { cb(kv.OK()) })
}

// indexEntryDeleted runs when an index ring dropped its reference to a
// row version. The row is removed if that version is still current; a
// stale version means the row already moved on and nothing happens.
func (t *table) indexEntryDeleted(ref kv.Reference) {
	t.remove(ref, func(kv.Result) {})
}

// indexLinked records the cleanup trigger an index installed for ref.
func (t *table) indexLinked(ref kv.Reference, index string, id kv.TriggerID) {
	e, ok := t.content.find(ref.GUID)
	if !ok || e.id != ref {
		return
	}
	e.indexLinks[index] = id
}

func (t *table) putRowTrigger(ctx kv.Context, fn kv.TriggerFunc, cb TriggerCallback) {
	e, ok := t.content.find(ctx.CurrentRow.GUID)
	if !ok {
		t.post(func() { cb(kv.Fail(kv.ConcurrentModification, "row removed since retrieval"), failedTrigger) })
		return
	}
	if !e.id.Matches(ctx.CurrentRow) {
		t.post(func() { cb(kv.Fail(kv.ConcurrentModification, "row modified since retrieval"), failedTrigger) })
		return
	}
	id := t.content.rowTriggerID(e)
	e.triggers[id] = fn
	t.post(func() { cb(kv.OK(), id) })
}

func (t *table) putTableTrigger(sticky bool, fn kv.TriggerFunc, cb TriggerCallback) {
	id := t.content.tableTriggerID()
	if sticky {
		t.content.sticky[id] = fn
	} else {
		t.content.nonsticky[id] = fn
	}
	t.post(func() { cb(kv.OK(), id) })
}

func (t *table) removeContentTrigger(id kv.TriggerID, cb ResultCallback) {
	if id.ForTable {
		delete(t.content.sticky, id)
		delete(t.content.nonsticky, id)
		t.post(func() { cb(kv.OK()) })
		return
	}
	e, ok := t.content.find(id.Ref.GUID)
	if !ok {
		t.post(func() { cb(kv.Fail(kv.ConcurrentModification, "row removed since trigger creation")) })
		return
	}
	if !e.id.Matches(id.Ref) {
		t.post(func() { cb(kv.Fail(kv.ConcurrentModification, "row modified since trigger insertion")) })
		return
	}
	delete(e.triggers, id)
	t.post(func() { cb(kv.OK()) })
}

// --- index stores ---

// indexGet starts an index lookup of sguid.
func (t *table) indexGet(ring *indexRing, ctx kv.Context, sguid kv.GUID, cb GetCallback) {
	ctx.IndexRow = kv.NewReference(kv.AnyVersion, sguid)
	e, ok := ring.find(sguid)
	if !ok || len(e.refs) == 0 {
		t.post(func() { cb(kv.Fail(kv.NoMoreRows, "no more rows"), ctx, nil) })
		return
	}
	ctx.IndexRow = e.id
	t.get(ctx, e.refs[0], true, cb)
}

// indexGetNext moves to the reference after ctx.CurrentRow in the entry.
func (t *table) indexGetNext(ring *indexRing, ctx kv.Context, cb GetCallback) {
	e, ok := ring.find(ctx.IndexRow.GUID)
	if !ok || !e.id.Matches(ctx.IndexRow) {
		t.post(func() { cb(kv.Fail(kv.ConcurrentModification, "index modified while iterating"), ctx, nil) })
		return
	}
	i := e.position(ctx.CurrentRow)
	if i < 0 || i+1 >= len(e.refs) {
		t.post(func() { cb(kv.Fail(kv.NoMoreRows, "no more rows"), ctx, nil) })
		return
	}
	t.get(ctx, e.refs[i+1], true, cb)
}

// installPrimary hooks ref into e: when ref later leaves the entry, the
// content store is told so. The hook's ID is reported back to the row.
func (t *table) installPrimary(ring *indexRing, e *indexEntry, ref kv.Reference) {
	id := e.nextTriggerID(ring.name())
	e.primary[ref] = primaryTrigger{
		id: id,
		fn: func(kv.TriggerID, kv.Row, kv.TriggerReason) { t.indexEntryDeleted(ref) },
	}
	name := ring.name()
	t.post(func() { t.indexLinked(ref, name, id) })
}

func (t *table) indexPut(ring *indexRing, sguid kv.GUID, ref kv.Reference, row kv.Row, reason kv.TriggerReason) {
	e := ring.findOrCreate(sguid)
	e.refs = append(e.refs, ref)
	e.id.Version++
	e.triggers.take().fire(t.d, row, reason)
	t.installPrimary(ring, e, ref)
}

func (t *table) indexModify(ring *indexRing, sguid kv.GUID, prevRef, ref kv.Reference, prevRow, row kv.Row, reason kv.TriggerReason) {
	e, ok := ring.find(sguid)
	if !ok {
		t.indexPut(ring, sguid, ref, row, reason)
		return
	}
	if i := e.position(prevRef); i >= 0 {
		e.refs = append(e.refs[:i], e.refs[i+1:]...)
	}
	e.refs = append(e.refs, ref)
	e.id.Version++
	e.triggers.take().fire(t.d, prevRow, reason)

	delete(e.primary, prevRef)
	t.installPrimary(ring, e, ref)
}

func (t *table) indexRemove(ring *indexRing, sguid kv.GUID, ref kv.Reference, row kv.Row, reason kv.TriggerReason) {
	e, ok := ring.find(sguid)
	if !ok {
		return
	}
	i := e.position(ref)
	if i < 0 {
		// Reference already gone; a delayed cleanup raced a newer update.
		return
	}
	e.refs = append(e.refs[:i], e.refs[i+1:]...)
	e.id.Version++
	e.triggers.take().fire(t.d, row, reason)

	if p, ok := e.primary[ref]; ok {
		delete(e.primary, ref)
		r := row.Clone()
		t.post(func() { p.fn(p.id, r, reason) })
	}
	if e.empty() {
		ring.delete(sguid)
	}
}

func (t *table) putIndexTrigger(ring *indexRing, ctx kv.Context, fn kv.TriggerFunc, cb TriggerCallback) {
	e, ok := ring.find(ctx.IndexRow.GUID)
	if ok && !e.id.Matches(ctx.IndexRow) {
		t.post(func() { cb(kv.Fail(kv.ConcurrentModification, "index entry modified since retrieval"), failedTrigger) })
		return
	}
	if !ok {
		// An absent entry is created at the version the context saw, so
		// the trigger has somewhere to live until the key is put.
		version := ctx.IndexRow.Version
		if version == kv.AnyVersion {
			version = ring.floors[ctx.IndexRow.GUID]
		}
		e = ring.create(kv.NewReference(version, ctx.IndexRow.GUID))
	}
	id := e.nextTriggerID(ring.name())
	e.triggers[id] = fn
	t.post(func() { cb(kv.OK(), id) })
}

// removeIndexTrigger always succeeds: a trigger that already fired, or
// whose entry is gone, has nothing left to cancel.
func (t *table) removeIndexTrigger(ring *indexRing, id kv.TriggerID, cb ResultCallback) {
	if e, ok := ring.find(id.Ref.GUID); ok {
		delete(e.triggers, id)
		if e.empty() {
			ring.delete(id.Ref.GUID)
		}
	}
	t.post(func() { cb(kv.OK()) })
}
