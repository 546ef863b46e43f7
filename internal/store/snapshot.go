package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"chainmetrics/internal/domain"
)

// Warm-start support: the whole memory store is serialized with gob and
// parked in Redis, so a restart resumes from the last persisted state in
// milliseconds instead of replaying the event history.

const snapshotVersion = 1

type memorySnapshot struct {
	Version int
	TakenAt time.Time

	Protocols  map[string]*domain.Protocol
	Markets    map[string]*domain.Market
	Tokens     map[string]*domain.Token
	Strategies map[string]*domain.ExecutionStrategy
	Records    map[string]*domain.EventRecord

	ProtocolDaily map[string]*domain.ProtocolDailySnapshot
	MarketDaily   map[string]*domain.MarketDailySnapshot
	MarketHourly  map[string]*domain.MarketHourlySnapshot
}

// Snapshot serializes the full entity state.
func (m *Memory) Snapshot() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := memorySnapshot{
		Version:       snapshotVersion,
		TakenAt:       time.Now().UTC(),
		Protocols:     m.protocols,
		Markets:       m.markets,
		Tokens:        m.tokens,
		Strategies:    m.strategies,
		Records:       m.records,
		ProtocolDaily: m.protocolDaily,
		MarketDaily:   m.marketDaily,
		MarketHourly:  m.marketHourly,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, fmt.Errorf("failed to encode store snapshot: %w", err)
	}

	return buf.Bytes(), nil
}

// Restore replaces the current state from a serialized snapshot.
func (m *Memory) Restore(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty snapshot data")
	}

	var snap memorySnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode store snapshot: %w", err)
	}

	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported store snapshot version: %d", snap.Version)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.protocols = orEmpty(snap.Protocols)
	m.markets = orEmpty(snap.Markets)
	m.tokens = orEmpty(snap.Tokens)
	m.strategies = orEmpty(snap.Strategies)
	m.records = orEmpty(snap.Records)
	m.protocolDaily = orEmpty(snap.ProtocolDaily)
	m.marketDaily = orEmpty(snap.MarketDaily)
	m.marketHourly = orEmpty(snap.MarketHourly)

	return nil
}

func orEmpty[V any](m map[string]V) map[string]V {
	if m == nil {
		return make(map[string]V)
	}
	return m
}
