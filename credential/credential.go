// Package credential persists container passwords keyed by a digest of
// the container path, so storage keys have bounded length and the path
// itself never reaches the backing store.
package credential

import (
	"sync"

	"github.com/opencontainers/go-digest"
)

// keyLen is the number of digest hex characters used as the storage key.
const keyLen = 32

// Store saves and retrieves passwords for container files.
//
// Implementations must treat the path as opaque; Key derives the actual
// storage key.
type Store interface {
	// Get returns the saved password for the path, if any.
	Get(path string) (string, bool)

	// Save associates a password with the path, replacing any previous one.
	Save(path, password string) error

	// Delete removes the password saved for the path, if any.
	Delete(path string) error
}

// Key derives the bounded-length storage key for a container path.
func Key(path string) string {
	return digest.SHA256.FromString(path).Encoded()[:keyLen]
}

// MemoryStore is an in-process Store. Safe for concurrent use.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

// Get returns the saved password for the path, if any.
func (s *MemoryStore) Get(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	password, ok := s.m[Key(path)]
	return password, ok
}

// Save associates a password with the path.
func (s *MemoryStore) Save(path, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[Key(path)] = password
	return nil
}

// Delete removes the password saved for the path.
func (s *MemoryStore) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, Key(path))
	return nil
}
