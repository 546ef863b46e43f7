package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
app:
  instance_id: "agg-1"
  network_id: "mainnet"
  snapshot_interval: 30s
  shutdown_timeout: 10s

logging:
  level: "debug"
  format: "json"

dedupe:
  prefix: "dedupe:"
  ttl: 24h

markers:
  prefix: "markers:"
  bloom:
    key: "markers:bloom"
    capacity: 1000000
    err_rate: 0.001

stores:
  redis:
    addr: "localhost:6379"
    db: 1
  clickhouse:
    dsn: "clickhouse://localhost:9000/chainmetrics"
    writer:
      batch_max_rows: 5000
      batch_max_interval: 2s
      max_retries: 3
      retry_backoff: 500ms

pubsub:
  nats:
    url: "nats://localhost:4222"
    broadcast_prefix: "chainmetrics"

api:
  http:
    addr: ":8080"
    read_timeout: 5s
    write_timeout: 10s
    idle_timeout: 60s
    cors:
      enabled: true
      origins: ["https://example.com"]

metrics:
  pyroscope:
    enabled: false
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Full(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeTempConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, "agg-1", cfg.App.InstanceID)
	assert.Equal(t, "mainnet", cfg.App.NetworkID)
	assert.Equal(t, 30*time.Second, cfg.App.SnapshotInterval)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 24*time.Hour, cfg.Dedupe.TTL)

	assert.Equal(t, "localhost:6379", cfg.Stores.Redis.Addr)
	assert.Equal(t, "clickhouse://localhost:9000/chainmetrics", cfg.Stores.ClickHouse.DSN)
	assert.Equal(t, 5000, cfg.Stores.ClickHouse.Writer.BatchMaxRows)
	assert.Equal(t, 500*time.Millisecond, cfg.Stores.ClickHouse.Writer.RetryBackoff)

	assert.Equal(t, "nats://localhost:4222", cfg.PubSub.NATS.URL)
	assert.Equal(t, "chainmetrics", cfg.PubSub.NATS.BroadcastPrefix)

	assert.Equal(t, ":8080", cfg.API.HTTP.Addr)
	assert.True(t, cfg.API.HTTP.CORS.Enabled)
	assert.Equal(t, []string{"https://example.com"}, cfg.API.HTTP.CORS.Origins)

	assert.False(t, cfg.Metrics.Pyroscope.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeTempConfig(t, "app: [not: closed"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EmptySectionsDefaultToZero(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeTempConfig(t, "app:\n  network_id: avalanche\n"))
	require.NoError(t, err)

	assert.Equal(t, "avalanche", cfg.App.NetworkID)
	assert.Empty(t, cfg.Stores.Redis.Addr, "absent redis means the in-memory substitutes")
	assert.Empty(t, cfg.PubSub.NATS.URL)
}
