package engine

import (
	"context"
	"fmt"

	"chainmetrics/internal/domain"
	"chainmetrics/internal/participants"

	"github.com/shopspring/decimal"
)

// Snapshot aggregation: load-or-create by (parent, bucket), copy the
// parent's current cumulative fields verbatim, add this event's contribution
// to the daily/hourly delta fields, fold extrema. Persisted after every
// event in the bucket; a bucket is never closed or finalized.

func (e *Engine) getOrCreateProtocolDailySnapshot(ctx context.Context, protocolID string, timestamp int64) (*domain.ProtocolDailySnapshot, error) {
	id := domain.SnapshotID{Parent: protocolID, Bucket: domain.DayIndex(timestamp)}

	s, err := e.store.ProtocolDailySnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load protocol daily snapshot %s: %w", id, err)
	}
	if s != nil {
		return s, nil
	}

	return &domain.ProtocolDailySnapshot{ID: id, Protocol: protocolID}, nil
}

func (e *Engine) getOrCreateMarketDailySnapshot(ctx context.Context, marketID string, timestamp int64) (*domain.MarketDailySnapshot, error) {
	id := domain.SnapshotID{Parent: marketID, Bucket: domain.DayIndex(timestamp)}

	s, err := e.store.MarketDailySnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load market daily snapshot %s: %w", id, err)
	}
	if s != nil {
		return s, nil
	}

	return &domain.MarketDailySnapshot{
		ID:     id,
		Market: marketID,

		// extrema sentinels, folded by min/max only from here on
		DailyMinSalePrice: domain.MaxSalePriceSentinel,
		DailyMaxSalePrice: decimal.Zero,
	}, nil
}

func (e *Engine) getOrCreateMarketHourlySnapshot(ctx context.Context, marketID string, timestamp int64) (*domain.MarketHourlySnapshot, error) {
	id := domain.SnapshotID{Parent: marketID, Bucket: domain.HourIndex(timestamp)}

	s, err := e.store.MarketHourlySnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load market hourly snapshot %s: %w", id, err)
	}
	if s != nil {
		return s, nil
	}

	return &domain.MarketHourlySnapshot{ID: id, Market: marketID}, nil
}

// copyMarketCumulatives overwrites the snapshot's cumulative mirror with the
// market's latest state as of this fold.
func copyMarketDailyCumulatives(s *domain.MarketDailySnapshot, m *domain.Market, meta domain.EventMeta) {
	s.BlockNumber = meta.BlockNumber
	s.Timestamp = meta.Timestamp

	s.LiquidityRate = m.LiquidityRate
	s.VariableBorrowRate = m.VariableBorrowRate
	s.StableBorrowRate = m.StableBorrowRate
	s.InputTokenPriceUSD = m.InputTokenPriceUSD
	s.CumulativeDepositUSD = m.CumulativeDepositUSD
	s.CumulativeBorrowUSD = m.CumulativeBorrowUSD
	s.CumulativeLiquidateUSD = m.CumulativeLiquidateUSD
	s.EventCount = m.EventCount

	s.RoyaltyFee = m.RoyaltyFee
	s.CumulativeTradeVolumeETH = m.CumulativeTradeVolumeETH
	s.MarketplaceRevenueETH = m.MarketplaceRevenueETH
	s.CreatorRevenueETH = m.CreatorRevenueETH
	s.TotalRevenueETH = m.TotalRevenueETH
	s.TradeCount = m.TradeCount
}

func copyMarketHourlyCumulatives(s *domain.MarketHourlySnapshot, m *domain.Market, meta domain.EventMeta) {
	s.BlockNumber = meta.BlockNumber
	s.Timestamp = meta.Timestamp

	s.LiquidityRate = m.LiquidityRate
	s.VariableBorrowRate = m.VariableBorrowRate
	s.StableBorrowRate = m.StableBorrowRate
	s.InputTokenPriceUSD = m.InputTokenPriceUSD
	s.CumulativeDepositUSD = m.CumulativeDepositUSD
	s.CumulativeBorrowUSD = m.CumulativeBorrowUSD
	s.CumulativeLiquidateUSD = m.CumulativeLiquidateUSD
	s.EventCount = m.EventCount
}

func copyProtocolDailyCumulatives(s *domain.ProtocolDailySnapshot, p *domain.Protocol, meta domain.EventMeta) {
	s.BlockNumber = meta.BlockNumber
	s.Timestamp = meta.Timestamp

	s.CumulativeDepositUSD = p.CumulativeDepositUSD
	s.CumulativeBorrowUSD = p.CumulativeBorrowUSD
	s.CumulativeLiquidateUSD = p.CumulativeLiquidateUSD
	s.CumulativeUniqueUsers = p.CumulativeUniqueUsers
	s.EventCount = p.EventCount

	s.CollectionCount = p.CollectionCount
	s.TradeCount = p.TradeCount
	s.CumulativeTradeVolumeETH = p.CumulativeTradeVolumeETH
	s.MarketplaceRevenueETH = p.MarketplaceRevenueETH
	s.CreatorRevenueETH = p.CreatorRevenueETH
	s.TotalRevenueETH = p.TotalRevenueETH
	s.CumulativeUniqueTraders = p.CumulativeUniqueTraders
}

// addLendingDailyDelta folds one lending movement's USD value into the
// bucket's per-kind daily field.
func addLendingDailyDelta(s *domain.MarketDailySnapshot, kind domain.EventKind, amountUSD decimal.Decimal) {
	switch kind {
	case domain.KindDeposit:
		s.DailyDepositUSD = s.DailyDepositUSD.Add(amountUSD)
	case domain.KindWithdraw:
		s.DailyWithdrawUSD = s.DailyWithdrawUSD.Add(amountUSD)
	case domain.KindBorrow:
		s.DailyBorrowUSD = s.DailyBorrowUSD.Add(amountUSD)
	case domain.KindRepay:
		s.DailyRepayUSD = s.DailyRepayUSD.Add(amountUSD)
	case domain.KindLiquidation:
		s.DailyLiquidateUSD = s.DailyLiquidateUSD.Add(amountUSD)
	}
	s.DailyEventCount++
}

func addLendingHourlyDelta(s *domain.MarketHourlySnapshot, kind domain.EventKind, amountUSD decimal.Decimal) {
	switch kind {
	case domain.KindDeposit:
		s.HourlyDepositUSD = s.HourlyDepositUSD.Add(amountUSD)
	case domain.KindWithdraw:
		s.HourlyWithdrawUSD = s.HourlyWithdrawUSD.Add(amountUSD)
	case domain.KindBorrow:
		s.HourlyBorrowUSD = s.HourlyBorrowUSD.Add(amountUSD)
	case domain.KindRepay:
		s.HourlyRepayUSD = s.HourlyRepayUSD.Add(amountUSD)
	case domain.KindLiquidation:
		s.HourlyLiquidateUSD = s.HourlyLiquidateUSD.Add(amountUSD)
	}
	s.HourlyEventCount++
}

func addProtocolLendingDailyDelta(s *domain.ProtocolDailySnapshot, kind domain.EventKind, amountUSD decimal.Decimal) {
	switch kind {
	case domain.KindDeposit:
		s.DailyDepositUSD = s.DailyDepositUSD.Add(amountUSD)
	case domain.KindWithdraw:
		s.DailyWithdrawUSD = s.DailyWithdrawUSD.Add(amountUSD)
	case domain.KindBorrow:
		s.DailyBorrowUSD = s.DailyBorrowUSD.Add(amountUSD)
	case domain.KindRepay:
		s.DailyRepayUSD = s.DailyRepayUSD.Add(amountUSD)
	case domain.KindLiquidation:
		s.DailyLiquidateUSD = s.DailyLiquidateUSD.Add(amountUSD)
	}
	s.DailyEventCount++
}

// foldLendingSnapshots runs the full snapshot pass for one lending event:
// market daily + market hourly + protocol daily, each persisted and
// broadcast. amountUSD may be zero (pure data refreshes fold gauges only).
func (e *Engine) foldLendingSnapshots(ctx context.Context, m *domain.Market, p *domain.Protocol, meta domain.EventMeta, kind domain.EventKind, amountUSD decimal.Decimal, account string) error {
	daily, err := e.getOrCreateMarketDailySnapshot(ctx, m.ID, meta.Timestamp)
	if err != nil {
		return err
	}
	copyMarketDailyCumulatives(daily, m, meta)
	if kind != domain.KindReserveDataUpdated {
		addLendingDailyDelta(daily, kind, amountUSD)
	}
	if err = e.store.SaveMarketDailySnapshot(ctx, daily); err != nil {
		return fmt.Errorf("save market daily snapshot %s: %w", daily.ID, err)
	}

	hourly, err := e.getOrCreateMarketHourlySnapshot(ctx, m.ID, meta.Timestamp)
	if err != nil {
		return err
	}
	copyMarketHourlyCumulatives(hourly, m, meta)
	if kind != domain.KindReserveDataUpdated {
		addLendingHourlyDelta(hourly, kind, amountUSD)
	}
	if err = e.store.SaveMarketHourlySnapshot(ctx, hourly); err != nil {
		return fmt.Errorf("save market hourly snapshot %s: %w", hourly.ID, err)
	}

	protoDaily, err := e.getOrCreateProtocolDailySnapshot(ctx, p.ID, meta.Timestamp)
	if err != nil {
		return err
	}
	copyProtocolDailyCumulatives(protoDaily, p, meta)
	if kind != domain.KindReserveDataUpdated {
		addProtocolLendingDailyDelta(protoDaily, kind, amountUSD)
		if account != "" && e.markIfNew(ctx, participants.DailyActiveAccountKey(account, domain.DayIndex(meta.Timestamp))) {
			protoDaily.DailyActiveUsers++
		}
	}
	if err = e.store.SaveProtocolDailySnapshot(ctx, protoDaily); err != nil {
		return fmt.Errorf("save protocol daily snapshot %s: %w", protoDaily.ID, err)
	}

	e.publish(ctx, "snapshots.market."+m.ID, daily)
	e.publish(ctx, "snapshots.protocol."+p.ID, protoDaily)

	return nil
}
