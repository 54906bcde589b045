// Package storage implements the versioned multi-key-value store: a
// Catalog of tables, each owning one content ring (rows by primary GUID)
// and one index ring per declared secondary index.
//
// ARCHITECTURE:
//
// Every public method of Storage posts its work to an engine.Dispatcher
// and returns immediately. Results arrive through callbacks, which are
// themselves posted. All state is touched only by tasks running on the
// dispatcher, so no locks are needed and a callback may call back into
// Storage freely.
//
// A mutating operation is not atomic across its own steps: put, modify
// and remove update the content ring in one task and post one task per
// index update. Other operations may interleave between those tasks;
// optimistic versioning (kv.Reference) turns every conflicting
// interleaving into a ConcurrentModification result instead of
// corrupted state.
//
// Trigger firing order for a single mutation: table triggers, then the
// row's own triggers, then one update per affected index entry (whose
// triggers fire when that update runs).
package storage
