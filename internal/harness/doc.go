// Package harness runs scripted workloads against a real Storage and
// records what happens.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: row_lifecycle
//	description: "What this scenario exercises"
//	schema:
//	  - tables.cue
//	steps:
//	  - op: create_table
//	    table: T
//	    columns: { k: int, v: string }
//	    indices: { k: [k] }
//	  - op: put
//	    table: T
//	    row: { k: 1, v: a }
//	    save: first
//	  - op: get
//	    table: T
//	    query: { k: 1 }
//	    cursor: c
//	    expect:
//	      code: SUCCESS
//	      row: { GUID: $first }
//	  - op: watch
//	    cursor: c
//	    trigger: w
//	assertions:
//	  - type: trace_contains
//	    text: "fire w MODIFY"
//	  - type: final_state
//	    table: T
//	    where: { k: 1 }
//	    expect: { v: a }
//
// Operations are create_table, drop_table, put, get, get_next, modify,
// remove, scan, remove_all, watch, unwatch and stats. Cursors name the
// contexts returned by get and get_next; triggers name registered
// watches; save names the GUID a put assigned, referenced as "$name".
//
// # Assertion Types
//
//   - trace_contains: some trace line contains text
//   - trace_order: lines appear in the given order
//   - trace_count: exactly count lines contain text
//   - final_state: rows of a table selected by where, checked by count
//     and/or expect
//
// # Deterministic Testing
//
// Each run uses a fresh dispatcher and storage, with sequential primary
// GUIDs (testutil.SequentialGUIDs). Steps are issued one at a time and
// the dispatcher drained in between, so the trace is identical across
// runs and can be compared against golden files (RunWithGolden).
package harness
