package sessions

import (
	"sync"

	"github.com/jrsteele09/go-webadmin/internal/errors"
)

var _ Backend = (*InMemoryBackend)(nil)

// InMemoryBackend is the process scoped equivalent of browser session storage
type InMemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		values: make(map[string][]byte),
	}
}

func (b *InMemoryBackend) Get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	value, ok := b.values[key]
	if !ok {
		return nil, errors.ErrNotFound
	}
	// Return a copy to prevent external modifications
	return append([]byte(nil), value...), nil
}

func (b *InMemoryBackend) Set(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.values[key] = append([]byte(nil), value...)
	return nil
}

func (b *InMemoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.values, key)
	return nil
}
