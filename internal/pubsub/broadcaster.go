package pubsub

import "context"

// Broadcaster fans updated snapshots out to subscribers (NATS, WebSocket
// bridges, ...). Publish failures are never fatal to event processing:
// subscribers catch up on the next fold.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, payload any) error
	Health(ctx context.Context) error
}
