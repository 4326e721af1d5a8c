package storage

import "sync"

type memoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
	subs *subscribers
}

// Memory returns a KV held entirely in process memory. Tests use it, and the
// server falls back to it when no database path is configured.
func Memory() KV {
	return &memoryKV{
		data: make(map[string][]byte),
		subs: newSubscribers(),
	}
}

func (m *memoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (m *memoryKV) Set(key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.data[key] = stored
	m.mu.Unlock()

	m.subs.notify(key)
	return nil
}

func (m *memoryKV) Remove(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	m.subs.notify(key)
	return nil
}

func (m *memoryKV) Subscribe(fn func(key string)) func() {
	return m.subs.add(fn)
}

func (m *memoryKV) Close() error {
	return nil
}
