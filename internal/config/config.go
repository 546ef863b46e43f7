package config

import (
	"os"
	"time"

	"chainmetrics/internal/participants"
	"chainmetrics/internal/stores/redis"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Logging  LoggingConfig  `yaml:"logging"`
	Alerting AlertingConfig `yaml:"alerting"`
	Dedupe   DedupeConfig   `yaml:"dedupe"`
	Markers  MarkersConfig  `yaml:"markers"`
	Stores   StoresConfig   `yaml:"stores"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
	API      APIConfig      `yaml:"api"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type AppConfig struct {
	InstanceID       string        `yaml:"instance_id"`
	NetworkID        string        `yaml:"network_id"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

type AlertingConfig struct {
	AppName string `yaml:"app_name"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

// DedupeConfig tunes the host-side event-id filter in front of the engine.
type DedupeConfig struct {
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

// MarkersConfig tunes the unique-participant tracker. Markers carry no TTL.
type MarkersConfig struct {
	Prefix string                   `yaml:"prefix"`
	Bloom  participants.BloomConfig `yaml:"bloom"`
}

type ClickHouseWriterConfig struct {
	BatchMaxRows     int           `yaml:"batch_max_rows"`
	BatchMaxInterval time.Duration `yaml:"batch_max_interval"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
}

type ClickHouseConfig struct {
	DSN    string                 `yaml:"dsn"`
	Writer ClickHouseWriterConfig `yaml:"writer"`
}

type StoresConfig struct {
	Redis      redis.Config     `yaml:"redis"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

type NATSConfig struct {
	URL             string `yaml:"url"`
	BroadcastPrefix string `yaml:"broadcast_prefix"`
}

type PubSubConfig struct {
	NATS NATSConfig `yaml:"nats"`
}

type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
	Methods []string `yaml:"methods"`
	Headers []string `yaml:"headers"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	CORS         CORSConfig    `yaml:"cors"`
}

type APIConfig struct {
	HTTP HTTPConfig `yaml:"http"`
}

type PyroscopeConfig struct {
	Enabled    bool              `yaml:"enabled"`
	AppName    string            `yaml:"app_name"`
	ServerAddr string            `yaml:"server_addr"`
	AuthToken  string            `yaml:"auth_token"`
	Tags       map[string]string `yaml:"tags"`
}

type MetricsConfig struct {
	Pyroscope PyroscopeConfig `yaml:"pyroscope"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err = yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
