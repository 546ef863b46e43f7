package dedupe

import (
	"context"
	"testing"
	"time"

	rdb "chainmetrics/internal/stores/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== Test Helpers ==========

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

func TestNewRedisDeduper_Success(t *testing.T) {
	_, client := setupTestRedis(t)
	defer client.Close()

	deduper, err := NewRedisDeduper(newTestLogger(), client, "test:dedupe:", 24*time.Hour)

	require.NoError(t, err)
	assert.NotNil(t, deduper)
	assert.Equal(t, "test:dedupe:", deduper.prefix)
	assert.Equal(t, 24*time.Hour, deduper.ttl)
}

func TestNewRedisDeduper_NilClient(t *testing.T) {
	deduper, err := NewRedisDeduper(newTestLogger(), nil, "", time.Hour)

	assert.Error(t, err)
	assert.Nil(t, deduper)
}

func TestNewRedisDeduper_DefaultPrefix(t *testing.T) {
	_, client := setupTestRedis(t)
	defer client.Close()

	deduper, err := NewRedisDeduper(newTestLogger(), client, "", time.Hour)

	require.NoError(t, err)
	assert.Equal(t, "dedupe:", deduper.prefix)
}

// ========== Seen Tests ==========

func TestRedisDeduper_FirstSeenThenDuplicate(t *testing.T) {
	_, client := setupTestRedis(t)
	defer client.Close()

	deduper, err := NewRedisDeduper(newTestLogger(), client, "test:dedupe:", time.Hour)
	require.NoError(t, err)

	ctx := context.Background()
	const id = "0xabc-3"

	seen, err := deduper.Seen(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen, "first Seen must report a new id")

	seen, err = deduper.Seen(ctx, id)
	require.NoError(t, err)
	assert.True(t, seen, "second Seen must report a duplicate")
}

func TestRedisDeduper_DistinctIDsAreIndependent(t *testing.T) {
	_, client := setupTestRedis(t)
	defer client.Close()

	deduper, err := NewRedisDeduper(newTestLogger(), client, "test:dedupe:", time.Hour)
	require.NoError(t, err)

	ctx := context.Background()

	seen, err := deduper.Seen(ctx, "0xabc-1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = deduper.Seen(ctx, "0xabc-2")
	require.NoError(t, err)
	assert.False(t, seen, "a different log index is a different id")
}

func TestRedisDeduper_TTLExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer client.Close()

	deduper, err := NewRedisDeduper(newTestLogger(), client, "test:dedupe:", time.Minute)
	require.NoError(t, err)

	ctx := context.Background()
	const id = "0xdef-9"

	seen, err := deduper.Seen(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen)

	mr.FastForward(2 * time.Minute)

	seen, err = deduper.Seen(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen, "expired id must read as new again")
}

func TestRedisDeduper_SeenAfterRedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer client.Close()

	deduper, err := NewRedisDeduper(newTestLogger(), client, "test:dedupe:", time.Hour)
	require.NoError(t, err)

	mr.Close()

	seen, err := deduper.Seen(context.Background(), "0xabc-1")
	assert.Error(t, err)
	assert.False(t, seen)
}

// ========== Health Tests ==========

func TestRedisDeduper_Health(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer client.Close()

	deduper, err := NewRedisDeduper(newTestLogger(), client, "", time.Hour)
	require.NoError(t, err)

	assert.NoError(t, deduper.Health(context.Background()))

	mr.Close()
	assert.Error(t, deduper.Health(context.Background()))
}
