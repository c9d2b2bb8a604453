package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// MemoryStore is an in-process BlobStore used in tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Upload stores the blob, replacing any existing object.
func (m *MemoryStore) Upload(_ context.Context, objectName string, data io.Reader) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = content
	return nil
}

// Download opens the blob for reading.
func (m *MemoryStore) Download(_ context.Context, objectName string) (io.ReadCloser, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.objects[objectName]
	if !ok {
		return nil, 0, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(content)), int64(len(content)), nil
}

// Delete removes the blob.
func (m *MemoryStore) Delete(_ context.Context, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[objectName]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, objectName)
	return nil
}

// Exists reports whether a blob is present; used by tests to inspect
// compensation behavior.
func (m *MemoryStore) Exists(objectName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[objectName]
	return ok
}

// Len reports how many blobs are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
