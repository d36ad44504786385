package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the serialized session in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	s, ok := decodeSession(m.data)
	if !ok {
		m.data = nil
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	data, err := encodeSession(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

// setRaw stores bytes verbatim, bypassing validation.
func (m *MemoryStore) setRaw(data []byte) {
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
}
