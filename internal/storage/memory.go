package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process ContextStore for development and tests
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]document
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]document),
	}
}

// Insert appends records to a collection under one lock
func (m *MemoryStore) Insert(ctx context.Context, collection string, records ...any) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	docs, err := encodeRecords(records)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = append(m.collections[collection], docs...)
	return nil
}

// Find loads matching records into dest
func (m *MemoryStore) Find(ctx context.Context, collection string, q Query, dest any) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	docs := make([]document, len(m.collections[collection]))
	copy(docs, m.collections[collection])
	m.mu.RUnlock()

	return materialize(applyQuery(docs, q), dest)
}

// Close releases nothing
func (m *MemoryStore) Close() error {
	return nil
}
