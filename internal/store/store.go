package store

import (
	"context"

	"chainmetrics/internal/domain"
)

// Store is the durable entity interface the engine runs against. Loads
// return (nil, nil) when the entity does not exist; saves are idempotent
// upserts with last-write-wins semantics per entity.
//
// The engine owns the store exclusively for the duration of one event's
// handling; implementations only need to make reads from other goroutines
// (the HTTP API) safe.
type Store interface {
	Protocol(ctx context.Context, id string) (*domain.Protocol, error)
	SaveProtocol(ctx context.Context, p *domain.Protocol) error

	Market(ctx context.Context, id string) (*domain.Market, error)
	SaveMarket(ctx context.Context, m *domain.Market) error

	Token(ctx context.Context, id string) (*domain.Token, error)
	SaveToken(ctx context.Context, t *domain.Token) error

	Strategy(ctx context.Context, id string) (*domain.ExecutionStrategy, error)
	SaveStrategy(ctx context.Context, s *domain.ExecutionStrategy) error

	EventRecord(ctx context.Context, id string) (*domain.EventRecord, error)
	SaveEventRecord(ctx context.Context, r *domain.EventRecord) error

	ProtocolDailySnapshot(ctx context.Context, id domain.SnapshotID) (*domain.ProtocolDailySnapshot, error)
	SaveProtocolDailySnapshot(ctx context.Context, s *domain.ProtocolDailySnapshot) error

	MarketDailySnapshot(ctx context.Context, id domain.SnapshotID) (*domain.MarketDailySnapshot, error)
	SaveMarketDailySnapshot(ctx context.Context, s *domain.MarketDailySnapshot) error

	MarketHourlySnapshot(ctx context.Context, id domain.SnapshotID) (*domain.MarketHourlySnapshot, error)
	SaveMarketHourlySnapshot(ctx context.Context, s *domain.MarketHourlySnapshot) error
}
