package daystore

import (
	"context"
	"sync"
)

// Persister stores the serialized document in one named slot.
// Load returns nil bytes and no error when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, body []byte) error
	Clear(ctx context.Context) error
}

// MemPersister keeps the document in memory.
type MemPersister struct {
	mu    sync.Mutex
	body  []byte
	saves int
}

// NewMemPersister returns a persister preloaded with body (may be nil).
func NewMemPersister(body []byte) *MemPersister {
	return &MemPersister{body: body}
}

func (m *MemPersister) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.body == nil {
		return nil, nil
	}
	return append([]byte(nil), m.body...), nil
}

func (m *MemPersister) Save(ctx context.Context, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.body = append([]byte(nil), body...)
	m.saves++
	return nil
}

func (m *MemPersister) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.body = nil
	return nil
}

// Saves reports how many times Save was called.
func (m *MemPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Bytes returns the last saved body.
func (m *MemPersister) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.body...)
}
