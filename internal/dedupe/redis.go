package dedupe

import (
	"context"
	"fmt"
	"time"

	rdb "chainmetrics/internal/stores/redis"

	"gitlab.com/nevasik7/alerting/logger"
)

// RedisDeduper is the clustered variant: Redis SETNX with a TTL so the
// marked set stays bounded.
type RedisDeduper struct {
	log    logger.Logger
	rdb    *rdb.Client
	ttl    time.Duration
	prefix string
}

func NewRedisDeduper(log logger.Logger, rdb *rdb.Client, prefix string, ttl time.Duration) (*RedisDeduper, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is required to the redis deduper")
	}
	if prefix == "" {
		prefix = "dedupe:"
	}

	return &RedisDeduper{
		log:    log,
		rdb:    rdb,
		ttl:    ttl,
		prefix: prefix,
	}, nil
}

func (d *RedisDeduper) Seen(ctx context.Context, id string) (bool, error) {
	created, err := d.rdb.SetNX(ctx, d.prefix+id, 1, d.ttl).Result()
	if err != nil {
		d.log.Errorf("Redis SetNX error=%v", err)
		return false, fmt.Errorf("redis SetNX error=%v", err)
	}

	return !created, nil
}

func (d *RedisDeduper) Health(ctx context.Context) error {
	return d.rdb.Ping(ctx).Err()
}
