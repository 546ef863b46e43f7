package participants

import (
	"context"
	"fmt"

	rdb "chainmetrics/internal/stores/redis"

	"gitlab.com/nevasik7/alerting/logger"
)

// RedisTracker marks participants with SETNX. Markers have no TTL: a
// participant counted once stays counted for the lifetime of the aggregate.
// An optional bloom prefilter cuts BF.ADD round-trips under replay-heavy
// load; only the SETNX answer decides new-vs-seen, so a bloom false positive
// can never drop a counter increment.
type RedisTracker struct {
	log    logger.Logger
	rdb    *rdb.Client
	prefix string
	bloom  seenFilter // optional
}

type seenFilter interface {
	Exists(ctx context.Context, item string) (bool, error)
	Add(ctx context.Context, item string) (bool, error)
}

func NewRedisTracker(log logger.Logger, rdb *rdb.Client, prefix string, bloom *Bloom) (*RedisTracker, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is required to the redis tracker")
	}

	if prefix == "" {
		prefix = "markers:"
	}

	t := &RedisTracker{
		log:    log,
		rdb:    rdb,
		prefix: prefix,
	}
	if bloom != nil {
		t.bloom = bloom
	}
	return t, nil
}

func (t *RedisTracker) MarkIfNew(ctx context.Context, key string) (bool, error) {
	// bloom answers "probably seen"; the answer is advisory only and saves
	// the BF.ADD below for keys the filter already holds
	probablySeen := false
	if t.bloom != nil {
		if exists, err := t.bloom.Exists(ctx, key); err == nil && exists {
			probablySeen = true
		}
	}

	full := t.prefix + key
	created, err := t.rdb.SetNX(ctx, full, 1, 0).Result()
	if err != nil {
		t.log.Errorf("Redis SetNX error=%v", err)
		return false, fmt.Errorf("redis SetNX error=%v", err)
	}

	if created && t.bloom != nil && !probablySeen {
		if _, err = t.bloom.Add(ctx, key); err != nil {
			t.log.Errorf("Failed to add bloom key %s, err=%v", key, err)
		}
	}

	return created, nil
}

func (t *RedisTracker) Health(ctx context.Context) error {
	return t.rdb.Ping(ctx).Err()
}
