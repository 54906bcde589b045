package storage

import (
	"slices"

	"github.com/google/btree"

	"github.com/roach88/ringkv/internal/kv"
)

// primaryTrigger is the cleanup hook an index entry holds for one
// primary row reference. It fires when that reference leaves the entry.
type primaryTrigger struct {
	id kv.TriggerID
	fn kv.TriggerFunc
}

// indexEntry maps one secondary key to the primary rows producing it.
type indexEntry struct {
	id       kv.Reference // GUID is the secondary key
	refs     []kv.Reference
	triggers triggerMap
	primary  map[kv.Reference]primaryTrigger
	nextTID  int64
}

func newIndexEntry(id kv.Reference) *indexEntry {
	return &indexEntry{
		id:       id,
		triggers: make(triggerMap),
		primary:  make(map[kv.Reference]primaryTrigger),
	}
}

func (e *indexEntry) empty() bool {
	return len(e.refs) == 0 && len(e.triggers) == 0
}

// position returns the index of ref in the reference list, or -1.
func (e *indexEntry) position(ref kv.Reference) int {
	return slices.IndexFunc(e.refs, func(r kv.Reference) bool { return r.Matches(ref) })
}

func (e *indexEntry) nextTriggerID(ring string) kv.TriggerID {
	id := kv.TriggerID{Ring: ring, Ref: e.id, TID: e.nextTID}
	e.nextTID++
	return id
}

// indexRing stores one index's entries ordered by secondary key.
type indexRing struct {
	index   kv.Index
	entries *btree.BTreeG[*indexEntry]
	floors  map[kv.GUID]int64 // secondary key -> version of its deleted entry
}

func newIndexRing(ix kv.Index) *indexRing {
	return &indexRing{
		index: ix,
		entries: btree.NewG(ringDegree, func(a, b *indexEntry) bool {
			return a.id.GUID.Less(b.id.GUID)
		}),
		floors: make(map[kv.GUID]int64),
	}
}

func (r *indexRing) name() string {
	return r.index.Name
}

func (r *indexRing) find(sguid kv.GUID) (*indexEntry, bool) {
	return r.entries.Get(&indexEntry{id: kv.Reference{GUID: sguid}})
}

// findOrCreate returns the entry for sguid. A new entry continues from
// the version its deleted predecessor reached.
func (r *indexRing) findOrCreate(sguid kv.GUID) *indexEntry {
	if e, ok := r.find(sguid); ok {
		return e
	}
	return r.create(kv.NewReference(r.floors[sguid], sguid))
}

func (r *indexRing) create(id kv.Reference) *indexEntry {
	delete(r.floors, id.GUID)
	e := newIndexEntry(id)
	r.entries.ReplaceOrInsert(e)
	return e
}

func (r *indexRing) delete(sguid kv.GUID) {
	if e, ok := r.entries.Delete(&indexEntry{id: kv.Reference{GUID: sguid}}); ok {
		r.floors[sguid] = e.id.Version
	}
}

func (r *indexRing) len() int {
	return r.entries.Len()
}
