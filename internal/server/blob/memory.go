package blob

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/common"
)

// ErrPresignUnsupported is returned by stores that cannot hand out URLs.
var ErrPresignUnsupported = errors.New("presigned urls are not supported by this store")

// MemoryStore keeps objects in process memory. Used for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return common.ErrorNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", ErrPresignUnsupported
}

// Len reports the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
