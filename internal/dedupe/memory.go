package dedupe

import (
	"context"
	"sync"
	"time"

	"gitlab.com/nevasik7/alerting/logger"
)

type memEntry struct {
	expireAt int64 // unix nano
}

// MemoryDeduper is the single-instance dev variant. ttl bounds how long an
// id stays marked; janitorEvery controls expired-key collection (0 disables
// the collector).
type MemoryDeduper struct {
	log     logger.Logger
	ttl     time.Duration
	mu      sync.Mutex
	items   map[string]memEntry
	stopCh  chan struct{}
	stopped bool
}

func NewMemoryDeduper(log logger.Logger, ttl, janitorEvery time.Duration) *MemoryDeduper {
	m := &MemoryDeduper{
		log:    log,
		ttl:    ttl,
		items:  make(map[string]memEntry, 1024),
		stopCh: make(chan struct{}),
	}

	if janitorEvery > 0 {
		go m.janitor(janitorEvery)
	}

	return m
}

func (m *MemoryDeduper) Seen(_ context.Context, id string) (bool, error) {
	now := time.Now().UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.items[id]; ok && e.expireAt > now {
		return true, nil
	}

	m.items[id] = memEntry{expireAt: now + m.ttl.Nanoseconds()}

	return false, nil
}

func (m *MemoryDeduper) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			now := time.Now().UnixNano()
			m.mu.Lock()
			for k, e := range m.items {
				if e.expireAt <= now {
					delete(m.items, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *MemoryDeduper) Close() {
	m.mu.Lock()
	if !m.stopped {
		close(m.stopCh)
		m.stopped = true
	}
	m.mu.Unlock()
}
