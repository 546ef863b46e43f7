package participants

import (
	"context"
	"sync"
)

// MemoryTracker keeps markers in a plain set. Markers are zero-payload and
// never expire: the membership itself is the record.
type MemoryTracker struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	count int64
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		seen: make(map[string]struct{}, 1024),
	}
}

func (m *MemoryTracker) MarkIfNew(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[key]; ok {
		return false, nil
	}

	m.seen[key] = struct{}{}
	m.count++
	return true, nil
}

// Len reports how many distinct markers exist.
func (m *MemoryTracker) Len() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}
