package participants

import "context"

// Tracker is the idempotent existence check behind every distinct-participant
// counter: the first MarkIfNew for a key returns true (caller increments
// exactly one counter), every later call for the same key returns false.
// Safe to call redundantly across replays of the same event.
type Tracker interface {
	MarkIfNew(ctx context.Context, key string) (isNew bool, err error)
}
