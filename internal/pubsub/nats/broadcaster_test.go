package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"chainmetrics/internal/config"

	"github.com/nats-io/nats-server/v2/server"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	loggerCfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"
)

func newTestLogger() logger.Logger {
	return logger.New(loggerCfg.LoggerCfg{
		Level:  "error",
		Format: "json",
	})
}

// ------------------------ tests without a real connection ------------------------

func TestNew_NilConfig(t *testing.T) {
	client, err := New(newTestLogger(), nil)

	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestNew_EmptyURL(t *testing.T) {
	client, err := New(newTestLogger(), &config.NATSConfig{})

	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Equal(t, "nats url is required", err.Error())
}

func TestPublish_NilConnection(t *testing.T) {
	client := &Client{log: newTestLogger()}

	err := client.Publish(context.Background(), "snapshots.market.0xdai", map[string]string{"k": "v"})
	assert.Error(t, err)
}

func TestReady_NilConnection(t *testing.T) {
	client := &Client{log: newTestLogger()}

	assert.False(t, client.Ready())
	assert.Error(t, client.Health(context.Background()))
}

func TestClose_NilConnection(t *testing.T) {
	client := &Client{log: newTestLogger()}

	assert.NoError(t, client.Close())
}

// ------------------------ tests against an in-memory server ------------------------

func runTestWithInMemoryNATS(t *testing.T, testFunc func(*testing.T, *server.Server, string)) {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1 // random port
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	testFunc(t, s, s.ClientURL())
}

func TestNew_Success(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(newTestLogger(), &config.NATSConfig{URL: url})

		require.NoError(t, err)
		require.NotNil(t, client)
		assert.True(t, client.Ready())
		assert.NoError(t, client.Health(context.Background()))

		client.nc.Close()
	})
}

func TestPublish_RoundTrip(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(newTestLogger(), &config.NATSConfig{URL: url})
		require.NoError(t, err)
		defer client.nc.Close()

		sub, err := nats.Connect(url)
		require.NoError(t, err)
		defer sub.Close()

		received := make(chan *nats.Msg, 1)
		_, err = sub.Subscribe("snapshots.market.0xdai", func(m *nats.Msg) {
			received <- m
		})
		require.NoError(t, err)
		require.NoError(t, sub.Flush())

		payload := map[string]any{"market": "0xdai", "daily_deposit_usd": "10"}
		require.NoError(t, client.Publish(context.Background(), "snapshots.market.0xdai", payload))

		select {
		case msg := <-received:
			var got map[string]any
			require.NoError(t, json.Unmarshal(msg.Data, &got))
			assert.Equal(t, "0xdai", got["market"])
		case <-time.After(2 * time.Second):
			t.Fatalf("no message received")
		}
	})
}

func TestPublish_PrefixApplied(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(newTestLogger(), &config.NATSConfig{URL: url, BroadcastPrefix: "chainmetrics"})
		require.NoError(t, err)
		defer client.nc.Close()

		sub, err := nats.Connect(url)
		require.NoError(t, err)
		defer sub.Close()

		received := make(chan *nats.Msg, 1)
		_, err = sub.Subscribe("chainmetrics.snapshots.protocol.0xproto", func(m *nats.Msg) {
			received <- m
		})
		require.NoError(t, err)
		require.NoError(t, sub.Flush())

		require.NoError(t, client.Publish(context.Background(), "snapshots.protocol.0xproto", "patch"))

		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatalf("prefixed subject not delivered")
		}
	})
}

func TestPublish_UnmarshalablePayload(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(newTestLogger(), &config.NATSConfig{URL: url})
		require.NoError(t, err)
		defer client.nc.Close()

		err = client.Publish(context.Background(), "snapshots.market.0xdai", make(chan int))
		assert.Error(t, err)
	})
}

func TestClose_Graceful(t *testing.T) {
	runTestWithInMemoryNATS(t, func(t *testing.T, s *server.Server, url string) {
		client, err := New(newTestLogger(), &config.NATSConfig{URL: url})
		require.NoError(t, err)

		assert.NoError(t, client.Close())
		assert.False(t, client.Ready())

		// closing twice is fine
		assert.NoError(t, client.Close())
	})
}
