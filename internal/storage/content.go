package storage

import (
	"github.com/google/btree"

	"github.com/roach88/ringkv/internal/kv"
)

const ringDegree = 32

// contentEntry is one row of a content ring.
type contentEntry struct {
	id       kv.Reference
	row      kv.Row
	sguids   map[string]kv.GUID // index name -> secondary key
	triggers triggerMap         // one-shot row triggers
	nextTID  int64

	// indexLinks records, per index, the cleanup trigger the index ring
	// installed for this version of the row.
	indexLinks map[string]kv.TriggerID
}

// contentRing stores a table's rows ordered by primary GUID.
type contentRing struct {
	name      string
	rows      *btree.BTreeG[*contentEntry]
	sticky    triggerMap
	nonsticky triggerMap
	nextTID   int64
}

func newContentRing(name string) *contentRing {
	return &contentRing{
		name: name,
		rows: btree.NewG(ringDegree, func(a, b *contentEntry) bool {
			return a.id.GUID.Less(b.id.GUID)
		}),
		sticky:    make(triggerMap),
		nonsticky: make(triggerMap),
	}
}

func (c *contentRing) find(g kv.GUID) (*contentEntry, bool) {
	return c.rows.Get(&contentEntry{id: kv.Reference{GUID: g}})
}

func (c *contentRing) first() (*contentEntry, bool) {
	return c.rows.Min()
}

// after returns the entry with the smallest GUID strictly greater than g.
func (c *contentRing) after(g kv.GUID) (*contentEntry, bool) {
	var next *contentEntry
	c.rows.AscendGreaterOrEqual(&contentEntry{id: kv.Reference{GUID: g}}, func(e *contentEntry) bool {
		if e.id.GUID == g {
			return true
		}
		next = e
		return false
	})
	return next, next != nil
}

func (c *contentRing) insert(e *contentEntry) {
	c.rows.ReplaceOrInsert(e)
}

func (c *contentRing) delete(g kv.GUID) {
	c.rows.Delete(&contentEntry{id: kv.Reference{GUID: g}})
}

func (c *contentRing) len() int {
	return c.rows.Len()
}

// rowTriggerID allocates the ID of a new trigger on e.
func (c *contentRing) rowTriggerID(e *contentEntry) kv.TriggerID {
	id := kv.TriggerID{Ring: c.name, Ref: e.id, TID: e.nextTID}
	e.nextTID++
	return id
}

// tableTriggerID allocates the ID of a new table trigger.
func (c *contentRing) tableTriggerID() kv.TriggerID {
	id := kv.TriggerID{ForTable: true, Ring: c.name, Ref: kv.Wild(), TID: c.nextTID}
	c.nextTID++
	return id
}
