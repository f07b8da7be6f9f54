// Package dedupe decides whether a candidate calendar entry duplicates one
// already scheduled, and removes duplicates that slipped through.
package dedupe

import (
	"sync"
	"sync/atomic"
)

// KeySet records identity keys for at-most-once entry creation.
type KeySet interface {
	// SeenAndRecord reports whether key was already present and records it if not.
	SeenAndRecord(key string) bool
	// Has reports whether key is present without recording it.
	Has(key string) bool
	Size() int64
}

// memoryKeySet is a map-backed KeySet scoped to a single run.
type memoryKeySet struct {
	mu   sync.RWMutex
	keys map[string]struct{}
	size atomic.Int64
}

// NewKeySet creates an empty in-memory KeySet.
func NewKeySet() KeySet {
	return &memoryKeySet{keys: make(map[string]struct{})}
}

func (s *memoryKeySet) SeenAndRecord(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		return true
	}
	s.keys[key] = struct{}{}
	s.size.Add(1)
	return false
}

func (s *memoryKeySet) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

func (s *memoryKeySet) Size() int64 {
	return s.size.Load()
}
