package kv

// Context is the iteration cursor returned by get and threaded through
// get_next, modify and remove.
//
// Index is empty for a primary-key or full-table walk. IndexRow pins the
// index entry being walked, so get_next can detect that it was modified.
// InitialRow and CurrentRow detect the end of a ring traversal.
type Context struct {
	Table      string
	Index      string
	IndexRow   Reference
	InitialRow Reference
	CurrentRow Reference
}

// NewContext returns a context with every reference set to wildcard.
func NewContext(table string) Context {
	return Context{
		Table:      table,
		IndexRow:   Wild(),
		InitialRow: Wild(),
		CurrentRow: Wild(),
	}
}
