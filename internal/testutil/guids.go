package testutil

import (
	"sync"

	"github.com/roach88/ringkv/internal/kv"
)

// SequentialGUIDs hands out GUIDs 1, 2, 3, ... (kv.GUIDFromInt) so row
// identifiers, ring order and traces are identical across runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialGUIDs struct {
	mu   sync.Mutex
	next int64
}

// NewSequentialGUIDs creates a source whose first GUID is GUIDFromInt(1).
func NewSequentialGUIDs() *SequentialGUIDs {
	return &SequentialGUIDs{}
}

// Next returns the next GUID. Its method value satisfies storage.GUIDSource.
func (s *SequentialGUIDs) Next() kv.GUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return kv.GUIDFromInt(s.next)
}

// Issued returns how many GUIDs have been handed out.
func (s *SequentialGUIDs) Issued() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Reset restarts the sequence at 1.
func (s *SequentialGUIDs) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = 0
}
