// Package memory is an in-process keystore.Store for tests and ephemeral runs.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/sakif/postgen/internal/keystore"
)

var _ keystore.Store = (*Store)(nil)

// Store keeps values in a map. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	values map[string]string

	// FailWrites makes Set and Delete fail, to exercise persistence errors.
	FailWrites error
}

// New returns an empty Store.
func New() *Store {
	return &Store{values: make(map[string]string)}
}

// Get returns the value for key and whether it was set.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key. An empty key is rejected.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	if key == "" {
		return errors.New("memory: empty key")
	}
	s.values[key] = value
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	delete(s.values, key)
	return nil
}

// Close is a no-op; the map goes away with the Store.
func (s *Store) Close() error { return nil }
