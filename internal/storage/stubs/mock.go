package stubs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MockStore is an in-memory implementation of the Store interface for
// testing. Values round-trip through JSON so tests observe the same
// serialization behavior as the real backends.
type MockStore struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewMockStore creates a new mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]json.RawMessage),
	}
}

// Initialize does nothing for the mock store.
func (m *MockStore) Initialize(ctx context.Context) error {
	return nil
}

// Get unmarshals the value under key into dest, reporting presence.
func (m *MockStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode value for %q: %w", key, err)
	}
	return true, nil
}

// Set stores the JSON encoding of value under key.
func (m *MockStore) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %q: %w", key, err)
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

// Has reports whether key is present.
func (m *MockStore) Has(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

// Delete removes key.
func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns all keys with the given prefix.
func (m *MockStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Close does nothing for the mock store.
func (m *MockStore) Close() error {
	return nil
}

// Len returns the number of stored keys, for test assertions.
func (m *MockStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
