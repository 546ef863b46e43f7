package dedupe

import "context"

// Deduper is the host-side event-id filter in front of the engine. The
// engine stays idempotent on its own (by event record identity); the
// deduper only saves it the work.
type Deduper interface {
	// Seen marks id and reports whether it was already marked.
	Seen(ctx context.Context, id string) (alreadySeen bool, err error)
}
