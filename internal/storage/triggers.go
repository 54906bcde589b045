package storage

import (
	"maps"
	"slices"

	"github.com/roach88/ringkv/internal/engine"
	"github.com/roach88/ringkv/internal/kv"
)

// failedTrigger is the ID reported alongside a failed registration.
var failedTrigger = kv.TriggerID{Ref: kv.Wild(), TID: -1}

// triggerMap holds the triggers attached to one row, index entry or table.
type triggerMap map[kv.TriggerID]kv.TriggerFunc

// ids returns the registered IDs in firing order.
func (m triggerMap) ids() []kv.TriggerID {
	return slices.SortedFunc(maps.Keys(m), func(a, b kv.TriggerID) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
}

// fire posts one task per trigger. Each trigger gets its own copy of row.
func (m triggerMap) fire(d *engine.Dispatcher, row kv.Row, reason kv.TriggerReason) {
	for _, id := range m.ids() {
		fn := m[id]
		r := row.Clone()
		d.Post(func() { fn(id, r, reason) })
	}
}

// take empties the map and returns the previous contents, so a one-shot
// trigger is gone before its firing is posted.
func (m *triggerMap) take() triggerMap {
	taken := *m
	*m = make(triggerMap)
	return taken
}
