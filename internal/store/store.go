package store

import (
	"sort"
	"sync"

	"github.com/conneroisu/bindcfg/internal/errors"
)

// Store is the mutable key-value state shared by the broker, the
// persistence bridge, and diagnostic readers. All methods are safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entries: make(map[string]Entry),
	}
}

// Put inserts or overwrites the entry under its key. Last write wins.
func (s *Store) Put(entry Entry) error {
	if entry.Key == "" {
		return errors.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Key] = entry
	return nil
}

// Get retrieves the entry for key.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[key]
	return entry, exists
}

// All returns a snapshot of all entries, sorted by key for stable output.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		result = append(result, entry)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Export returns a copy of the underlying mapping, the form the codec
// serializes.
func (s *Store) Export() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]Entry, len(s.entries))
	for key, entry := range s.entries {
		result[key] = entry
	}
	return result
}

// Remove deletes the entry for key. Removing an absent key is not an error.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]Entry)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
