// Package resources provides the optional key-addressed store used when
// reduction discards data, so a client can retrieve the unreduced payload
// out-of-band.
package resources

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultMaxEntries bounds the in-memory store. Entries are evicted
// oldest-first once the cap is reached; payloads only matter for the
// lifetime of the conversation that truncated them.
const DefaultMaxEntries = 64

// URIScheme prefixes every stored payload identifier.
const URIScheme = "codenav://results/"

// MemoryStore is an in-memory, concurrency-safe payload store keyed by
// content hash. Storing the same payload twice yields the same identifier.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string][]byte
	order      []string
	maxEntries int
}

// NewMemoryStore creates a store bounded at maxEntries; values below 1
// fall back to DefaultMaxEntries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries < 1 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		entries:    make(map[string][]byte),
		maxEntries: maxEntries,
	}
}

// Store serializes the payload and records it under a content-addressed
// URI, returning the URI.
func (s *MemoryStore) Store(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("serialize payload: %w", err)
	}
	uri := fmt.Sprintf("%s%016x", URIScheme, xxhash.Sum64(data))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[uri]; !exists {
		for len(s.order) >= s.maxEntries {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.entries, oldest)
		}
		s.entries[uri] = data
		s.order = append(s.order, uri)
	}
	return uri, nil
}

// Get returns the serialized payload for a URI. Used by the MCP resource
// handler; the reduction core itself never reads back.
func (s *MemoryStore) Get(uri string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.entries[uri]
	return data, ok
}

// Len reports the number of stored payloads.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
