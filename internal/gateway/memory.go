package gateway

import (
	"context"
	"sync"
)

// MemoryGateway keeps values in process memory. Used for tests and for
// ephemeral runs where durability across restarts is not wanted.
type MemoryGateway struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{data: make(map[string][]byte)}
}

func (g *MemoryGateway) Get(_ context.Context, key string) ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	value, ok := g.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (g *MemoryGateway) Set(_ context.Context, key string, value []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	g.data[key] = stored
	return nil
}

func (g *MemoryGateway) Close() error {
	return nil
}
