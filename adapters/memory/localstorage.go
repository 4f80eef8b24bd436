// Package memory provides in-memory implementations for testing.
package memory

import (
	"context"
	"sync"

	"github.com/artpar/bandgate/ports"
)

// LocalStorage is an in-memory implementation of ports.LocalStorage.
type LocalStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewLocalStorage creates a new in-memory local storage.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		items: make(map[string]string),
	}
}

// GetItem returns the value stored under key.
func (s *LocalStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	return v, ok, nil
}

// SetItem stores value under key.
func (s *LocalStorage) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
	return nil
}

// RemoveItem deletes key.
func (s *LocalStorage) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

// Clear removes every item (for testing).
func (s *LocalStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]string)
}

// Len returns the number of stored items (for testing).
func (s *LocalStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Ensure interface compliance.
var _ ports.LocalStorage = (*LocalStorage)(nil)
