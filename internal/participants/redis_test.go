package participants

import (
	"context"
	"testing"
	"time"

	rdb "chainmetrics/internal/stores/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	loggerCfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"
)

// ========== Test Helpers ==========

func newTestLogger() logger.Logger {
	return logger.New(loggerCfg.LoggerCfg{
		Level:  "error",
		Format: "json",
	})
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *rdb.Client) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := &rdb.Client{
		Client: goredis.NewClient(&goredis.Options{
			Addr: mr.Addr(),
		}),
	}

	return mr, client
}

// ========== Constructor Tests ==========

func TestNewRedisTracker_Success(t *testing.T) {
	_, client := setupTestRedis(t)
	defer client.Close()

	tr, err := NewRedisTracker(newTestLogger(), client, "test:markers:", nil)

	require.NoError(t, err)
	assert.NotNil(t, tr)
	assert.Equal(t, "test:markers:", tr.prefix)
}

func TestNewRedisTracker_NilClient(t *testing.T) {
	tr, err := NewRedisTracker(newTestLogger(), nil, "", nil)

	assert.Error(t, err)
	assert.Nil(t, tr)
}

func TestNewRedisTracker_DefaultPrefix(t *testing.T) {
	_, client := setupTestRedis(t)
	defer client.Close()

	tr, err := NewRedisTracker(newTestLogger(), client, "", nil)

	require.NoError(t, err)
	assert.Equal(t, "markers:", tr.prefix)
}

// ========== MarkIfNew Tests ==========
// miniredis has no BF.* commands, so the bare-SETNX tests run without a
// prefilter and the bloom paths use a stub filter.

func TestRedisTracker_MarkIfNew(t *testing.T) {
	_, client := setupTestRedis(t)
	defer client.Close()

	tr, err := NewRedisTracker(newTestLogger(), client, "test:markers:", nil)
	require.NoError(t, err)

	ctx := context.Background()
	key := ProtocolAccountKey("0xaaa")

	isNew, err := tr.MarkIfNew(ctx, key)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = tr.MarkIfNew(ctx, key)
	require.NoError(t, err)
	assert.False(t, isNew)
}

func TestRedisTracker_MarkersNeverExpire(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer client.Close()

	tr, err := NewRedisTracker(newTestLogger(), client, "test:markers:", nil)
	require.NoError(t, err)

	ctx := context.Background()
	key := MarketplaceAccountKey("0xbbb")

	isNew, err := tr.MarkIfNew(ctx, key)
	require.NoError(t, err)
	require.True(t, isNew)

	mr.FastForward(365 * 24 * time.Hour)

	isNew, err = tr.MarkIfNew(ctx, key)
	require.NoError(t, err)
	assert.False(t, isNew, "lifetime markers must survive any time skip")
}

func TestRedisTracker_PrefixIsolation(t *testing.T) {
	_, client := setupTestRedis(t)
	defer client.Close()

	a, err := NewRedisTracker(newTestLogger(), client, "a:", nil)
	require.NoError(t, err)
	b, err := NewRedisTracker(newTestLogger(), client, "b:", nil)
	require.NoError(t, err)

	ctx := context.Background()
	key := ProtocolAccountKey("0xccc")

	isNew, err := a.MarkIfNew(ctx, key)
	require.NoError(t, err)
	require.True(t, isNew)

	isNew, err = b.MarkIfNew(ctx, key)
	require.NoError(t, err)
	assert.True(t, isNew, "trackers with distinct prefixes must not share markers")
}

func TestRedisTracker_MarkAfterRedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer client.Close()

	tr, err := NewRedisTracker(newTestLogger(), client, "test:markers:", nil)
	require.NoError(t, err)

	mr.Close()

	isNew, err := tr.MarkIfNew(context.Background(), ProtocolAccountKey("0xddd"))
	assert.Error(t, err)
	assert.False(t, isNew)
}

// ========== Bloom Prefilter Tests ==========

type stubFilter struct {
	exists bool
	added  []string
}

func (f *stubFilter) Exists(_ context.Context, _ string) (bool, error) {
	return f.exists, nil
}

func (f *stubFilter) Add(_ context.Context, item string) (bool, error) {
	f.added = append(f.added, item)
	return true, nil
}

func TestRedisTracker_BloomFalsePositiveStillCounts(t *testing.T) {
	_, client := setupTestRedis(t)
	defer client.Close()

	tr, err := NewRedisTracker(newTestLogger(), client, "test:markers:", nil)
	require.NoError(t, err)
	filter := &stubFilter{exists: true}
	tr.bloom = filter

	ctx := context.Background()
	key := ProtocolAccountKey("0xeee")

	isNew, err := tr.MarkIfNew(ctx, key)
	require.NoError(t, err)
	assert.True(t, isNew, "the marker write decides new-vs-seen, not the filter")

	isNew, err = tr.MarkIfNew(ctx, key)
	require.NoError(t, err)
	assert.False(t, isNew)

	assert.Empty(t, filter.added, "a key the filter already reports is not re-added")
}

func TestRedisTracker_BloomMissAddsKey(t *testing.T) {
	_, client := setupTestRedis(t)
	defer client.Close()

	tr, err := NewRedisTracker(newTestLogger(), client, "test:markers:", nil)
	require.NoError(t, err)
	filter := &stubFilter{exists: false}
	tr.bloom = filter

	isNew, err := tr.MarkIfNew(context.Background(), ProtocolAccountKey("0xfff"))
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Len(t, filter.added, 1)
}

// ========== Health Tests ==========

func TestRedisTracker_Health(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer client.Close()

	tr, err := NewRedisTracker(newTestLogger(), client, "", nil)
	require.NoError(t, err)

	assert.NoError(t, tr.Health(context.Background()))

	mr.Close()
	assert.Error(t, tr.Health(context.Background()))
}
