package clickhouse

import (
	"math/big"
	"testing"
	"time"

	"chainmetrics/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRowFromRecord_Trade(t *testing.T) {
	t.Parallel()

	rec := &domain.EventRecord{
		ID:          "0xabc-7",
		Kind:        domain.KindTrade,
		TxHash:      "0xabc",
		LogIndex:    7,
		Timestamp:   1700000000,
		BlockNumber: 15000000,
		Market:      "0xcollection",
		From:        "0xseller",
		To:          "0xbuyer",
		TokenID:     big.NewInt(42),
		Amount:      big.NewInt(1),
		PriceETH:    decimal.RequireFromString("1.5"),
		Strategy:    domain.SaleStrategyStandard,
	}

	row := RowFromRecord("mainnet", rec)

	assert.Equal(t, time.Unix(1700000000, 0).UTC(), row.EventTime)
	assert.Equal(t, "mainnet", row.Network)
	assert.Equal(t, "trade", row.Kind)
	assert.Equal(t, "0xabc-7", row.EventID)
	assert.Equal(t, uint32(7), row.LogIndex)
	assert.Equal(t, "0xseller", row.FromAddr)
	assert.Equal(t, "0xbuyer", row.ToAddr)
	assert.Equal(t, "42", row.TokenID)
	assert.Equal(t, "1", row.Amount)
	assert.Equal(t, "1.5", row.PriceETH)
	assert.Equal(t, string(domain.SaleStrategyStandard), row.Strategy)
	assert.Equal(t, uint16(1), row.SchemaVersion)
}

func TestRowFromRecord_LendingNilOptionals(t *testing.T) {
	t.Parallel()

	rec := &domain.EventRecord{
		ID:        "0xdef-0",
		Kind:      domain.KindDeposit,
		TxHash:    "0xdef",
		Timestamp: 1700000000,
		Market:    "0xdai",
		From:      "0xuser",
		AmountUSD: decimal.NewFromInt(10),
	}

	row := RowFromRecord("avalanche", rec)

	assert.Empty(t, row.TokenID, "nil token id maps to an empty string")
	assert.Empty(t, row.Amount, "nil amount maps to an empty string")
	assert.Equal(t, "10", row.AmountUSD)
	assert.Empty(t, row.Strategy)
}
