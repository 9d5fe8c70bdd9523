package testsupport

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a map backed cache store that counts calls. It satisfies
// cache.Store without importing it.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte

	Gets    int
	Sets    int
	Deletes int

	// Err, when set, is returned by every operation.
	Err error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.Err != nil {
		return nil, false, m.Err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.Err != nil {
		return m.Err
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++
	if m.Err != nil {
		return m.Err
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Has reports whether key is stored, expired or not.
func (m *MemoryStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// Counts returns the Get and Set call counts.
func (m *MemoryStore) Counts() (gets, sets int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Gets, m.Sets
}
