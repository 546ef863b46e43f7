package store

import (
	"context"
	"sync"

	"chainmetrics/internal/domain"
)

// Memory is the reference Store: plain maps behind a RWMutex. Loads and
// saves exchange clones, so an entity mutated by the engine only becomes
// visible once saved back.
type Memory struct {
	mu sync.RWMutex

	protocols  map[string]*domain.Protocol
	markets    map[string]*domain.Market
	tokens     map[string]*domain.Token
	strategies map[string]*domain.ExecutionStrategy
	records    map[string]*domain.EventRecord

	protocolDaily map[string]*domain.ProtocolDailySnapshot
	marketDaily   map[string]*domain.MarketDailySnapshot
	marketHourly  map[string]*domain.MarketHourlySnapshot
}

func NewMemory() *Memory {
	return &Memory{
		protocols:     make(map[string]*domain.Protocol),
		markets:       make(map[string]*domain.Market, 64),
		tokens:        make(map[string]*domain.Token, 64),
		strategies:    make(map[string]*domain.ExecutionStrategy, 8),
		records:       make(map[string]*domain.EventRecord, 4096),
		protocolDaily: make(map[string]*domain.ProtocolDailySnapshot, 512),
		marketDaily:   make(map[string]*domain.MarketDailySnapshot, 1024),
		marketHourly:  make(map[string]*domain.MarketHourlySnapshot, 1024),
	}
}

func (m *Memory) Protocol(_ context.Context, id string) (*domain.Protocol, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.protocols[id]; ok {
		return p.Clone(), nil
	}
	return nil, nil
}

func (m *Memory) SaveProtocol(_ context.Context, p *domain.Protocol) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.protocols[p.ID] = p.Clone()
	return nil
}

func (m *Memory) Market(_ context.Context, id string) (*domain.Market, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mk, ok := m.markets[id]; ok {
		return mk.Clone(), nil
	}
	return nil, nil
}

func (m *Memory) SaveMarket(_ context.Context, mk *domain.Market) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markets[mk.ID] = mk.Clone()
	return nil
}

func (m *Memory) Token(_ context.Context, id string) (*domain.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tokens[id]; ok {
		return t.Clone(), nil
	}
	return nil, nil
}

func (m *Memory) SaveToken(_ context.Context, t *domain.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.ID] = t.Clone()
	return nil
}

func (m *Memory) Strategy(_ context.Context, id string) (*domain.ExecutionStrategy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.strategies[id]; ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (m *Memory) SaveStrategy(_ context.Context, s *domain.ExecutionStrategy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategies[s.ID] = s.Clone()
	return nil
}

func (m *Memory) EventRecord(_ context.Context, id string) (*domain.EventRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.records[id]; ok {
		return r.Clone(), nil
	}
	return nil, nil
}

func (m *Memory) SaveEventRecord(_ context.Context, r *domain.EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = r.Clone()
	return nil
}

func (m *Memory) ProtocolDailySnapshot(_ context.Context, id domain.SnapshotID) (*domain.ProtocolDailySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.protocolDaily[id.String()]; ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (m *Memory) SaveProtocolDailySnapshot(_ context.Context, s *domain.ProtocolDailySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.protocolDaily[s.ID.String()] = s.Clone()
	return nil
}

func (m *Memory) MarketDailySnapshot(_ context.Context, id domain.SnapshotID) (*domain.MarketDailySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.marketDaily[id.String()]; ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (m *Memory) SaveMarketDailySnapshot(_ context.Context, s *domain.MarketDailySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marketDaily[s.ID.String()] = s.Clone()
	return nil
}

func (m *Memory) MarketHourlySnapshot(_ context.Context, id domain.SnapshotID) (*domain.MarketHourlySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.marketHourly[id.String()]; ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (m *Memory) SaveMarketHourlySnapshot(_ context.Context, s *domain.MarketHourlySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marketHourly[s.ID.String()] = s.Clone()
	return nil
}

// Markets lists all markets/collections, for the read API.
func (m *Memory) Markets(_ context.Context) []*domain.Market {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Market, 0, len(m.markets))
	for _, mk := range m.markets {
		out = append(out, mk.Clone())
	}
	return out
}
