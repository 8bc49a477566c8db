// Package memstore provides an in-memory MetadataStore used by tests
// and standalone runs without a storage backend.
package memstore

import (
	"context"
	"sync"

	"github.com/idrive-online-backup/swift-s3-gw/api/layer"
)

type key struct {
	res  layer.Resource
	item string
}

// Store is a thread safe in-memory metadata store.
type Store struct {
	mu    sync.RWMutex
	items map[key][]byte
}

// New creates an empty Store.
func New() *Store {
	return &Store{items: make(map[key][]byte)}
}

// Get implements layer.MetadataStore.
func (s *Store) Get(_ context.Context, res layer.Resource, item string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key{res, item}]
	if !ok {
		return nil, layer.ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put implements layer.MetadataStore.
func (s *Store) Put(_ context.Context, res layer.Resource, item string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.items[key{res, item}] = stored
	return nil
}

// Delete implements layer.MetadataStore.
func (s *Store) Delete(_ context.Context, res layer.Resource, item string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key{res, item}]; !ok {
		return layer.ErrNotFound
	}
	delete(s.items, key{res, item})
	return nil
}
