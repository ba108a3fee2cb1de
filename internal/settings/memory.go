package settings

import (
	"context"
	"sync"
)

// MemoryStore keeps settings in a map.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Settings
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Settings)}
}

func (m *MemoryStore) Load(ctx context.Context, key string) (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.data[key]
	if !ok {
		return Settings{}, notFound(key)
	}
	return s, nil
}

func (m *MemoryStore) Save(ctx context.Context, key string, s Settings) error {
	if err := validKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = s
	return nil
}
