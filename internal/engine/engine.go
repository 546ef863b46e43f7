package engine

import (
	"context"
	"math/big"

	"chainmetrics/internal/chain"
	"chainmetrics/internal/oracle"
	"chainmetrics/internal/participants"
	"chainmetrics/internal/pubsub"
	"chainmetrics/internal/rewards"
	"chainmetrics/internal/store"

	"github.com/shopspring/decimal"
	"gitlab.com/nevasik7/alerting/logger"
)

var bigdHundred = decimal.NewFromInt(100)

// Engine is the protocol-agnostic handler core: one decoded event plus a
// resolved protocol identity in, deterministic idempotent entity mutations
// out. No error ever escapes a handler — every failure class degrades
// locally (see the package tests for the exact behaviors).
//
// Processing is strictly sequential: the host delivers events one at a time
// in (block number, log index) order and the engine owns the store for the
// duration of each event.
type Engine struct {
	log         logger.Logger
	store       store.Store
	reader      chain.Reader
	oracle      *oracle.Resolver
	rewards     *rewards.Calculator
	tracker     participants.Tracker
	broadcaster pubsub.Broadcaster // optional
}

type Deps struct {
	Log         logger.Logger
	Store       store.Store
	Reader      chain.Reader
	Oracle      *oracle.Resolver
	Rewards     *rewards.Calculator
	Tracker     participants.Tracker
	Broadcaster pubsub.Broadcaster
}

func New(d Deps) *Engine {
	return &Engine{
		log:         d.Log,
		store:       d.Store,
		reader:      d.Reader,
		oracle:      d.Oracle,
		rewards:     d.Rewards,
		tracker:     d.Tracker,
		broadcaster: d.Broadcaster,
	}
}

// markIfNew wraps the tracker so a tracker failure can never abort an event:
// on error the participant simply is not counted this time.
func (e *Engine) markIfNew(ctx context.Context, key string) bool {
	isNew, err := e.tracker.MarkIfNew(ctx, key)
	if err != nil {
		e.log.Errorf("Participant marker failed for %s: %v", key, err)
		return false
	}
	return isNew
}

func (e *Engine) publish(ctx context.Context, topic string, payload any) {
	if e.broadcaster == nil {
		return
	}
	if err := e.broadcaster.Publish(ctx, topic, payload); err != nil {
		e.log.Errorf("Failed to broadcast %s: %v", topic, err)
	}
}

// toUnits converts a native-precision amount into whole token units.
func toUnits(amount *big.Int, decimals int32) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, 0).Div(decimal.New(1, decimals))
}

// fromPercentRaw scales an integer percent reading (e.g. 7500 = 75%) down by
// one hundred.
func fromPercentRaw(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, 0).Div(bigdHundred)
}

// fromRay converts a 27-decimal ray rate into a fraction.
func fromRay(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, 0).Div(decimal.New(1, 27))
}
