// Package kv provides the value types shared by every layer of the
// multi-key-value store.
//
// This package contains type definitions and pure functions only. All
// other internal packages import kv; kv imports nothing internal.
//
// Key types:
//   - GUID: 160-bit opaque identifier, ordered by raw bytes
//   - Value: sealed sum type over Int, Text, Double and GUID
//   - Row / Query: column name to Value maps
//   - Reference: a (GUID, version) pointer to one state of a row
//   - Context: the cursor threaded through get / get_next
//   - TriggerID / TriggerFunc: change notification handles
//   - Result: the stable result-code contract of every operation
package kv
