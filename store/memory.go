package store

import (
	"context"
	"sync"

	sidegate "github.com/sidegate/sidegate"
)

// Memory is a process-local sidegate.Store. Values are copied on both
// write and read so callers cannot alias the internal map.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get reads a value. Absent keys return sidegate.ErrStoreKeyNotFound.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[key]
	if !ok {
		return nil, sidegate.ErrStoreKeyNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Set writes a value, overwriting any previous one.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in := make([]byte, len(value))
	copy(in, value)

	m.mu.Lock()
	m.data[key] = in
	m.mu.Unlock()
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
