package credentials

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-bank-backoffice/internal/errors"
)

// MemoryKV is an in-memory KeyValue. Contents do not survive a restart.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ KeyValue = (*MemoryKV)(nil)

// NewMemoryKV creates a new in-memory key-value store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values: make(map[string]string),
	}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", apperrors.ErrKeyNotFound
	}
	return v, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}
