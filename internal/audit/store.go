package audit

import (
	"sync"
)

// Store persists audit entries. Implementations must be safe for
// concurrent use. Query results are ordered newest-first.
type Store interface {
	Append(e *Entry) error
	Query(f Filter) ([]Entry, error)
	Count(f Filter) (int, error)
}

// MemoryStore is the authoritative in-process store: an append-only slice
// guarded by a RWMutex. Unbounded by default; a positive maxLen opts in
// to eviction of the oldest tenth at capacity, for long-lived processes
// that accept trading history for a memory ceiling.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	maxLen  int
}

// NewMemoryStore creates a MemoryStore. A positive maxLen bounds the
// store to that many entries; non-positive leaves it unbounded.
func NewMemoryStore(maxLen int) *MemoryStore {
	return &MemoryStore{maxLen: maxLen}
}

// Append adds an entry at the tail.
func (s *MemoryStore) Append(e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxLen > 0 && len(s.entries) >= s.maxLen {
		drop := s.maxLen / 10
		if drop < 1 {
			drop = 1
		}
		s.entries = append([]Entry(nil), s.entries[drop:]...)
	}
	s.entries = append(s.entries, *e)
	return nil
}

// Query returns matching entries, newest-first.
func (s *MemoryStore) Query(f Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if !f.Matches(&e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Count returns how many entries match the filter.
func (s *MemoryStore) Count(f Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for i := range s.entries {
		if f.Matches(&s.entries[i]) {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
