package app

import (
	"context"
	"fmt"
	"time"

	httpapi "chainmetrics/internal/api/http"
	"chainmetrics/internal/chain"
	"chainmetrics/internal/config"
	"chainmetrics/internal/dedupe"
	"chainmetrics/internal/dispatch"
	"chainmetrics/internal/engine"
	"chainmetrics/internal/metrics"
	"chainmetrics/internal/oracle"
	"chainmetrics/internal/participants"
	"chainmetrics/internal/pubsub"
	natsps "chainmetrics/internal/pubsub/nats"
	"chainmetrics/internal/rewards"
	"chainmetrics/internal/service"
	"chainmetrics/internal/store"
	"chainmetrics/internal/stores/clickhouse"
	"chainmetrics/internal/stores/redis"

	"github.com/grafana/pyroscope-go"
	"gitlab.com/nevasik7/alerting"
	alerters "gitlab.com/nevasik7/alerting/alerters"
	lgcfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"
)

type Container struct {
	app *App

	// infra
	redis *redis.Client
	ch    *clickhouse.Conn
	nc    *natsps.Client

	// pipeline
	service *service.AggregatorService

	// servers
	httpSrv *httpapi.Server

	// metrics
	profiler *pyroscope.Profiler

	persistCancel context.CancelFunc
}

func (c *Container) Start() error {
	return c.app.Start()
}

func (c *Container) Stop(ctx context.Context) error {
	if c.persistCancel != nil {
		c.persistCancel()
	}

	if err := c.app.Shutdown(ctx); err != nil {
		return fmt.Errorf("app shutdown is failed, error=%w", err)
	}
	return nil
}

// Build constructs the full container. Redis, ClickHouse and NATS are each
// optional: an empty addr/dsn/url wires the in-memory substitute so the
// aggregator runs standalone.
func Build(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	lg := logger.New(lgcfg.LoggerCfg{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	lg.Info("Successfully initialize logger")

	alert := alerting.NewAlerting(lg, alerters.NewTelegramAlerter(&lgcfg.TelegramCfg{
		BotToken: cfg.Alerting.Token,
		ChatID:   cfg.Alerting.ChatID,
		AppName:  cfg.Alerting.AppName,
	}, lg))

	profiler, err := metrics.InitPProf(&metrics.PProfConfig{
		Enabled:       cfg.Metrics.Pyroscope.Enabled,
		AppInstanceID: cfg.App.InstanceID,
		AppName:       cfg.Metrics.Pyroscope.AppName,
		ServerAddr:    cfg.Metrics.Pyroscope.ServerAddr,
		AuthToken:     cfg.Metrics.Pyroscope.AuthToken,
		Tags:          cfg.Metrics.Pyroscope.Tags,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("pyroscope initialize failed: %w", err)
	}

	// Redis client (markers, dedupe, warm-start state)
	var rdbClient *redis.Client
	if cfg.Stores.Redis.Addr != "" {
		if rdbClient, err = redis.New(ctx, &cfg.Stores.Redis); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis client: %w", err)
		}
		lg.Infof("Successfully initialize redis client, addr=%s", cfg.Stores.Redis.Addr)
	}

	// Participant tracker
	var tracker participants.Tracker
	if rdbClient != nil {
		bloom, berr := participants.NewBloom(&cfg.Markers.Bloom, rdbClient)
		if berr != nil {
			return nil, nil, fmt.Errorf("failed to initialize bloom: %w", berr)
		}
		if err = bloom.Ensure(ctx); err != nil {
			lg.Warnf("Bloom reserve failed, continuing without prefilter: %v", err)
			bloom = nil
		}

		if tracker, err = participants.NewRedisTracker(lg, rdbClient, cfg.Markers.Prefix, bloom); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis tracker: %w", err)
		}
		lg.Infof("Successfully initialize redis participant tracker, prefix=%s", cfg.Markers.Prefix)
	} else {
		tracker = participants.NewMemoryTracker()
		lg.Info("Using in-memory participant tracker")
	}

	// Deduper
	var deduper dedupe.Deduper
	if rdbClient != nil {
		if deduper, err = dedupe.NewRedisDeduper(lg, rdbClient, cfg.Dedupe.Prefix, cfg.Dedupe.TTL); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis deduper: %w", err)
		}
	} else {
		deduper = dedupe.NewMemoryDeduper(lg, cfg.Dedupe.TTL, time.Minute)
	}

	// NATS broadcaster
	var bcast pubsub.Broadcaster
	var natsClient *natsps.Client
	if cfg.PubSub.NATS.URL != "" {
		if natsClient, err = natsps.New(lg, &cfg.PubSub.NATS); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize nats client: %w", err)
		}
		bcast = natsClient
		lg.Infof("Successfully initialize nats client, url=%s", cfg.PubSub.NATS.URL)
	}

	// ClickHouse archive
	var chConn *clickhouse.Conn
	var chWriter *clickhouse.Writer
	var archiver service.RecordArchiver
	if cfg.Stores.ClickHouse.DSN != "" {
		if chConn, err = clickhouse.New(ctx, cfg.Stores.ClickHouse.DSN); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize clickhouse client: %w", err)
		}
		chWriter = clickhouse.NewWriter(alert, chConn.Native, cfg.Stores.ClickHouse)
		archiver = chWriter
		lg.Info("Successfully initialize clickhouse writer")
	}

	// Entity store + handler core
	st := store.NewMemory()
	reader := chain.NewStaticReader()

	eng := engine.New(engine.Deps{
		Log:         lg,
		Store:       st,
		Reader:      reader,
		Oracle:      oracle.NewResolver(lg, reader),
		Rewards:     rewards.NewCalculator(lg, reader),
		Tracker:     tracker,
		Broadcaster: bcast,
	})

	dispatcher := dispatch.New(lg, eng)

	aggService := service.NewAggregatorService(lg, st, deduper, dispatcher, archiver, bcast, rdbClient, cfg.App.NetworkID)

	if err = aggService.RestoreState(ctx); err != nil {
		lg.Errorf("Warm start failed, starting cold: %v", err)
	}

	persistCtx, persistCancel := context.WithCancel(context.Background())
	go aggService.RunStatePersistence(persistCtx, cfg.App.SnapshotInterval)

	// HTTP server
	httpSrv := httpapi.NewServer(&httpapi.ServerDeps{
		Logger:     lg,
		Cfg:        cfg,
		AggService: aggService,
	})
	lg.Info("Successfully initialize HTTP server")

	c := &Container{
		app:           NewApp(alert, httpSrv, aggService),
		redis:         rdbClient,
		ch:            chConn,
		nc:            natsClient,
		service:       aggService,
		httpSrv:       httpSrv,
		profiler:      profiler,
		persistCancel: persistCancel,
	}

	cleanupF := func() {
		ctxClean, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if c.profiler != nil {
			if perr := c.profiler.Stop(); perr != nil {
				lg.Errorf("Failed to stop profiler: %v", perr)
			}
		}

		if chWriter != nil {
			if cerr := chWriter.Close(ctxClean); cerr != nil {
				lg.Errorf("Failed to close by cleanupF clickhouse writer: %v", cerr)
			}
		}
		if chConn != nil {
			if cerr := chConn.Close(); cerr != nil {
				lg.Errorf("Failed to close by cleanupF clickhouse client: %v", cerr)
			}
		}

		if natsClient != nil {
			if nerr := natsClient.Close(); nerr != nil {
				lg.Errorf("Failed to close by cleanupF nats client: %v", nerr)
			}
		}

		if rdbClient != nil {
			if rerr := rdbClient.Close(); rerr != nil {
				lg.Errorf("Failed to close by cleanupF redis client: %v", rerr)
			}
		}

		lg.Info("Successfully cleaned up dependency")
	}

	lg.Info("Successfully initialize Wiring")
	return c, cleanupF, nil
}
