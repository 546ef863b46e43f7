package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chainmetrics/internal/dedupe"
	"chainmetrics/internal/dispatch"
	"chainmetrics/internal/domain"
	"chainmetrics/internal/metrics"
	"chainmetrics/internal/pubsub"
	"chainmetrics/internal/store"
	"chainmetrics/internal/stores/clickhouse"
	rdb "chainmetrics/internal/stores/redis"

	"gitlab.com/nevasik7/alerting/logger"
)

var (
	ErrProtocolNotFound = errors.New("protocol not found")
	ErrMarketNotFound   = errors.New("market not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

const stateKey = "chainmetrics:state"

// RecordArchiver is the append-only sink for processed event records.
type RecordArchiver interface {
	Enqueue(row clickhouse.EventRow) error
	Health(ctx context.Context) error
}

// AggregatorService is the orchestration point of the pipeline:
// dedupe → dispatch → archive. Events are processed strictly one at a
// time; the service also owns warm-start state persistence and the read
// accessors behind the HTTP API.
type AggregatorService struct {
	log        logger.Logger
	store      *store.Memory
	deduper    dedupe.Deduper
	dispatcher *dispatch.Dispatcher
	archiver   RecordArchiver
	bcast      pubsub.Broadcaster
	rdbClient  *rdb.Client
	network    string
}

func NewAggregatorService(
	log logger.Logger,
	st *store.Memory,
	deduper dedupe.Deduper,
	dispatcher *dispatch.Dispatcher,
	archiver RecordArchiver,
	bcast pubsub.Broadcaster,
	rdbClient *rdb.Client,
	network string,
) *AggregatorService {
	return &AggregatorService{
		log:        log,
		store:      st,
		deduper:    deduper,
		dispatcher: dispatcher,
		archiver:   archiver,
		bcast:      bcast,
		rdbClient:  rdbClient,
		network:    network,
	}
}

// ProcessEvent folds one decoded event into the aggregates. A dedupe hit
// skips the dispatch entirely; the engine itself is idempotent either way,
// so a deduper failure only costs a redundant pass.
func (a *AggregatorService) ProcessEvent(ctx context.Context, ev *domain.DecodedEvent) error {
	if ev == nil {
		return nil
	}

	id := domain.EventRecordID(ev.Meta.TxHash, ev.Meta.LogIndex)

	if a.deduper != nil {
		seen, err := a.deduper.Seen(ctx, id)
		if err != nil {
			a.log.Errorf("Dedup check failed for %s: %v, dispatching anyway", id, err)
		} else if seen {
			a.log.Debugf("Duplicate event ignored: %s", id)
			metrics.EventsDeduplicated.Inc()
			return nil
		}
	}

	// a record that predates this delivery means the dedupe marker expired
	// and the engine will skip the fold; the archive row was shipped on the
	// first pass and must not ship again
	alreadyRecorded := false
	if a.archiver != nil {
		if rec, rerr := a.store.EventRecord(ctx, id); rerr == nil && rec != nil {
			alreadyRecorded = true
		}
	}

	a.dispatcher.Dispatch(ctx, ev)
	metrics.EventsProcessed.WithLabelValues(string(ev.Kind)).Inc()

	if !alreadyRecorded {
		a.archiveRecord(ctx, id)
	}

	return nil
}

// archiveRecord ships the event's immutable record to ClickHouse. Handlers
// that dropped the event (unknown market, wrong currency) leave no record
// and nothing is shipped.
func (a *AggregatorService) archiveRecord(ctx context.Context, id string) {
	if a.archiver == nil {
		return
	}

	rec, err := a.store.EventRecord(ctx, id)
	if err != nil || rec == nil {
		return
	}

	if err = a.archiver.Enqueue(clickhouse.RowFromRecord(a.network, rec)); err != nil {
		metrics.ArchiveEnqueueFailures.Inc()
		a.log.Errorf("Failed to enqueue event %s for archive: %v", id, err)
	}
}

func (a *AggregatorService) GetProtocol(ctx context.Context, id string) (*domain.Protocol, error) {
	p, err := a.store.Protocol(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProtocolNotFound
	}
	return p, nil
}

func (a *AggregatorService) GetMarket(ctx context.Context, id string) (*domain.Market, error) {
	m, err := a.store.Market(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMarketNotFound
	}
	return m, nil
}

func (a *AggregatorService) ListMarkets(ctx context.Context) ([]*domain.Market, error) {
	return a.store.Markets(ctx), nil
}

func (a *AggregatorService) GetProtocolDailySnapshot(ctx context.Context, protocolID string, day int64) (*domain.ProtocolDailySnapshot, error) {
	s, err := a.store.ProtocolDailySnapshot(ctx, domain.SnapshotID{Parent: protocolID, Bucket: day})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSnapshotNotFound
	}
	return s, nil
}

func (a *AggregatorService) GetMarketDailySnapshot(ctx context.Context, marketID string, day int64) (*domain.MarketDailySnapshot, error) {
	s, err := a.store.MarketDailySnapshot(ctx, domain.SnapshotID{Parent: marketID, Bucket: day})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSnapshotNotFound
	}
	return s, nil
}

// RestoreState warm-starts the in-memory store from the last persisted
// image. A missing image is a cold start, not an error.
func (a *AggregatorService) RestoreState(ctx context.Context) error {
	if a.rdbClient == nil {
		return nil
	}

	data, err := a.rdbClient.Get(ctx, stateKey).Bytes()
	if err != nil {
		a.log.Infof("No persisted state found, cold start")
		return nil
	}

	if err = a.store.Restore(data); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	a.log.Infof("Restored %d bytes of aggregate state", len(data))
	return nil
}

// PersistState writes the current store image for the next warm start.
func (a *AggregatorService) PersistState(ctx context.Context) error {
	if a.rdbClient == nil {
		return nil
	}

	data, err := a.store.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot state: %w", err)
	}

	if err = a.rdbClient.Set(ctx, stateKey, data, 0).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}

	a.log.Debugf("Persisted %d bytes of aggregate state", len(data))
	return nil
}

// RunStatePersistence persists the store image on the given interval until
// ctx is done. The shutdown path takes its own final image.
func (a *AggregatorService) RunStatePersistence(ctx context.Context, interval time.Duration) {
	if a.rdbClient == nil || interval <= 0 {
		return
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := a.PersistState(ctx); err != nil {
				a.log.Errorf("State persist failed: %v", err)
			}
		}
	}
}

func (a *AggregatorService) CheckDependency(ctx context.Context) error {
	errDependency := make([]string, 0, 3)

	if a.rdbClient != nil {
		if err := a.rdbClient.Ping(ctx).Err(); err != nil {
			errDependency = append(errDependency, fmt.Sprintf("Redis connection error: %v", err))
		}
	}

	if a.archiver != nil {
		if err := a.archiver.Health(ctx); err != nil {
			errDependency = append(errDependency, fmt.Sprintf("ClickHouse connection error: %v", err))
		}
	}

	if a.bcast != nil {
		if err := a.bcast.Health(ctx); err != nil {
			errDependency = append(errDependency, "NATS: connection not ready")
		}
	}

	if len(errDependency) > 0 {
		return fmt.Errorf("dependency check failed: %v", strings.Join(errDependency, "; "))
	}

	a.log.Debugf("All dependency check passed")
	return nil
}
