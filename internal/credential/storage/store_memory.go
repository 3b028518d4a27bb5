package storage

import (
	"context"
	"sync"

	"github.com/nxt3d/smart-credentials/pkg/domain"
)

// InMemory is the default Store backend: mutex-guarded maps, one inner map
// per namespace. It never fails; absent keys read back as zero-length values.
type InMemory struct {
	mu      sync.RWMutex
	regions map[Namespace]map[string][]byte
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		regions: make(map[Namespace]map[string][]byte),
	}
}

// NewInMemoryProvider returns a Provider that gives every instance a fresh
// private store.
func NewInMemoryProvider() Provider {
	return ProviderFunc(func(_ domain.Address) Store {
		return NewInMemory()
	})
}

// Get returns the stored value, or a zero-length slice when the key was
// never written. The returned slice is a copy; callers may mutate it.
func (s *InMemory) Get(_ context.Context, ns Namespace, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	region, ok := s.regions[ns]
	if !ok {
		return []byte{}, nil
	}
	value, ok := region[string(key)]
	if !ok {
		return []byte{}, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set overwrites the key unconditionally.
func (s *InMemory) Set(_ context.Context, ns Namespace, key []byte, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	region, ok := s.regions[ns]
	if !ok {
		region = make(map[string][]byte)
		s.regions[ns] = region
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	region[string(key)] = stored
	return nil
}
