package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chainmetrics/internal/config"

	"github.com/nats-io/nats.go"
	"gitlab.com/nevasik7/alerting/logger"
)

// Client broadcasts snapshot patches over core NATS. Fire-and-forget: a
// subscriber that missed a patch catches up on the next fold.
type Client struct {
	nc     *nats.Conn
	log    logger.Logger
	prefix string
}

func New(log logger.Logger, cfg *config.NATSConfig) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("nats config is required")
	}
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}

	opts := []nats.Option{
		nats.Name("chainmetrics"),
		nats.Timeout(5 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1), // endless reconnected
		nats.ReconnectWait(2 * time.Second),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{
		nc:     nc,
		log:    log,
		prefix: cfg.BroadcastPrefix,
	}, nil
}

func (c *Client) Publish(_ context.Context, subject string, data interface{}) error {
	if c.nc == nil {
		return errors.New("nats connection is not initialized")
	}

	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", subject, err)
	}

	if c.prefix != "" {
		subject = c.prefix + "." + subject
	}

	if err = c.nc.Publish(subject, b); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

func (c *Client) Health(_ context.Context) error {
	if c.nc == nil || c.nc.Status() != nats.CONNECTED {
		return errors.New("nats connection not ready")
	}
	return nil
}

func (c *Client) Ready() bool {
	if c.nc == nil {
		return false
	}
	return c.nc.Status() == nats.CONNECTED
}

func (c *Client) Close() error {
	if c.nc == nil {
		return nil
	}

	if c.nc.Status() == nats.CLOSED {
		return nil
	}

	if err := c.nc.Drain(); err != nil {
		c.log.Errorf("Failed to drain connection to NATS, error=%v", err)
		c.nc.Close()
		return fmt.Errorf("failed to drain connection to NATS: %w", err)
	}

	c.nc.Close()
	c.log.Infof("NATS connection closed gracefully")
	return nil
}
