package engine

import (
	"context"
	"math/big"
	"testing"

	"chainmetrics/internal/chain"
	"chainmetrics/internal/domain"
	"chainmetrics/internal/oracle"
	"chainmetrics/internal/participants"
	"chainmetrics/internal/rewards"
	"chainmetrics/internal/store"

	"github.com/shopspring/decimal"
	loggerCfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"
)

func newTestLogger() logger.Logger {
	return logger.New(loggerCfg.LoggerCfg{
		Level:  "error",
		Format: "json",
	})
}

// newTestEngine wires the engine onto in-memory infrastructure and a static
// contract reader. Unconfigured reads revert, which every handler must
// tolerate.
func newTestEngine(t *testing.T, reader *chain.StaticReader) (*Engine, *store.Memory) {
	t.Helper()

	if reader == nil {
		reader = chain.NewStaticReader()
	}

	lg := newTestLogger()
	mem := store.NewMemory()

	e := New(Deps{
		Log:     lg,
		Store:   mem,
		Reader:  reader,
		Oracle:  oracle.NewResolver(lg, reader),
		Rewards: rewards.NewCalculator(lg, reader),
		Tracker: participants.NewMemoryTracker(),
	})

	return e, mem
}

func lendingIdent() domain.ProtocolIdentity {
	return domain.ProtocolIdentity{
		Address:     "0xproto",
		Name:        "Aave v2",
		Slug:        "aave-v2",
		Network:     "avalanche",
		RewardToken: "0xrew",
	}
}

func marketplaceIdent() domain.ProtocolIdentity {
	return domain.ProtocolIdentity{
		Address:       "0xmarket",
		Name:          "LooksRare",
		Slug:          "looksrare",
		Network:       "mainnet",
		QuoteCurrency: "0xweth",

		StandardSaleStrategies:   []string{"0xstrat"},
		CollectionSaleStrategies: []string{"0xcollstrat"},
		PrivateSaleStrategies:    []string{"0xprivstrat"},
	}
}

func metaAt(txHash string, logIndex uint32, timestamp int64) domain.EventMeta {
	return domain.EventMeta{
		TxHash:      txHash,
		LogIndex:    logIndex,
		BlockNumber: 15000000,
		Timestamp:   timestamp,
	}
}

// eth converts whole tokens into an 18-decimal raw amount.
func eth(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// ray builds a 27-decimal fixed-point rate from a percentage, e.g. ray(3)
// is a 3% rate.
func ray(percent int64) *big.Int {
	v := new(big.Int).Exp(big.NewInt(10), big.NewInt(25), nil)
	return v.Mul(v, big.NewInt(percent))
}

func seedLendingMarket(t *testing.T, mem *store.Memory, id string, priceUSD int64) {
	t.Helper()

	err := mem.SaveMarket(context.Background(), &domain.Market{
		ID:                 id,
		InputToken:         id,
		OutputToken:        "0xa" + id[2:],
		InputTokenPriceUSD: decimal.NewFromInt(priceUSD),
		IsActive:           true,
		CanBorrowFrom:      true,
	})
	if err != nil {
		t.Fatalf("seed market %s: %v", id, err)
	}
}

// newRewardReader wires a healthy incentives controller behind the 0xadai
// output token: 1 token/second raw, pool owns half the allocation points.
func newRewardReader(t *testing.T) *chain.StaticReader {
	t.Helper()

	return chain.NewStaticReader().
		Set("0xadai", "getIncentivesController", "0xcontroller").
		Set("0xcontroller", "rewardsPerSecond", eth(1)).
		Set("0xcontroller", "poolInfo", big.NewInt(50), "0xadai").
		Set("0xcontroller", "totalAllocPoint", big.NewInt(100))
}
