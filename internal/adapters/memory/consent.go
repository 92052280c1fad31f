// Package memory holds in-process adapters used when no external store is
// configured.
package memory

import (
	"context"
	"sync"
)

// ConsentStore is a ports.ConsentStore kept in memory. Preferences are lost
// on restart.
type ConsentStore struct {
	mu     sync.RWMutex
	values map[string]bool
}

func NewConsentStore() *ConsentStore {
	return &ConsentStore{values: make(map[string]bool)}
}

func (s *ConsentStore) Allowed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *ConsentStore) SetAllowed(_ context.Context, key string, allowed bool) error {
	s.mu.Lock()
	s.values[key] = allowed
	s.mu.Unlock()
	return nil
}
