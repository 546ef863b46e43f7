package participants

import (
	"context"
	"errors"
	"fmt"

	rdb "chainmetrics/internal/stores/redis"
)

/*
The Bloom prefilter is a cheap probabilistic "seen/not seen" check next to
the SETNX marker write. It is advisory: the SETNX result alone decides
whether a participant is new (counters must be exact, and the filter has a
false-positive rate bounded by err_rate). A "probably seen" answer only
skips re-adding a key the filter already holds.
*/

type Bloom struct {
	rdb      *rdb.Client
	Key      string
	Capacity int64
	ErrRate  float64
}

type BloomConfig struct {
	Key      string  `yaml:"key"`
	Capacity int64   `yaml:"capacity"`
	ErrRate  float64 `yaml:"err_rate"`
}

func NewBloom(cfg *BloomConfig, rdb *rdb.Client) (*Bloom, error) {
	if cfg == nil {
		return nil, errors.New("bloom config is required to the bloom")
	}
	if rdb == nil {
		return nil, errors.New("redis client is required to the bloom")
	}

	key := cfg.Key
	if key == "" {
		key = "markers:bf:participants"
	}

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1_000_000
	}

	errRate := cfg.ErrRate
	if errRate <= 0 {
		errRate = 0.001
	}

	return &Bloom{
		rdb:      rdb,
		Key:      key,
		Capacity: capacity,
		ErrRate:  errRate,
	}, nil
}

// Ensure creates the filter if it does not exist. Repeated calls are safe.
func (b *Bloom) Ensure(ctx context.Context) error {
	exists, err := b.rdb.Exists(ctx, b.Key).Result()
	if err != nil {
		return fmt.Errorf("failed to check if bloom filter exists, error: %w", err)
	}
	if exists > 0 {
		return nil
	}

	res := b.rdb.Do(ctx, "BF.RESERVE", b.Key, b.ErrRate, b.Capacity)
	if res.Err() != nil {
		// unknown command 'BF.RESERVE' when the module is not loaded
		return fmt.Errorf("BF.RESERVE failed: %w", res.Err())
	}

	return nil
}

// Add inserts an item. Returns true when the item was definitely absent.
func (b *Bloom) Add(ctx context.Context, item string) (bool, error) {
	res := b.rdb.Do(ctx, "BF.ADD", b.Key, item)
	if err := res.Err(); err != nil {
		return false, fmt.Errorf("failed to add item to bloom: %w", err)
	}

	v, err := res.Int()
	return v == 1, err
}

// Exists reports whether an item "probably" exists.
func (b *Bloom) Exists(ctx context.Context, item string) (bool, error) {
	res := b.rdb.Do(ctx, "BF.EXISTS", b.Key, item)
	if err := res.Err(); err != nil {
		return false, fmt.Errorf("failed to check if item exists in bloom: %w", err)
	}

	v, err := res.Int()
	return v == 1, err
}
