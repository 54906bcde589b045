package kv

import "fmt"

// TriggerReason tells a trigger why it fired.
type TriggerReason int

const (
	Insert TriggerReason = iota + 1
	Modify
	Remove
)

func (r TriggerReason) String() string {
	switch r {
	case Insert:
		return "INSERT"
	case Modify:
		return "MODIFY"
	case Remove:
		return "REMOVE"
	default:
		return fmt.Sprintf("REASON(%d)", int(r))
	}
}

// TriggerID identifies a registered trigger.
//
// Ring names the store holding it (a table name or a prefixed index
// name), Ref the row or index entry it is attached to (wildcard for
// table triggers) and TID distinguishes triggers sharing a location.
type TriggerID struct {
	ForTable bool
	Ring     string
	Ref      Reference
	TID      int64
}

// Less orders trigger IDs by ring, then reference, then TID.
func (t TriggerID) Less(other TriggerID) bool {
	if t.Ring != other.Ring {
		return t.Ring < other.Ring
	}
	if t.Ref != other.Ref {
		return t.Ref.Less(other.Ref)
	}
	return t.TID < other.TID
}

func (t TriggerID) String() string {
	scope := "row"
	if t.ForTable {
		scope = "table"
	}
	return fmt.Sprintf("%s:%s/%s#%d", scope, t.Ring, t.Ref, t.TID)
}

// TriggerFunc receives the trigger's ID, the row content relevant to the
// change (the previous content for modify and remove) and the reason.
type TriggerFunc func(id TriggerID, row Row, reason TriggerReason)
