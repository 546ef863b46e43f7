package engine

import (
	"context"
	"fmt"

	"chainmetrics/internal/domain"
	"chainmetrics/internal/participants"

	"github.com/shopspring/decimal"
)

// HandleTrade folds one matched order: collection and marketplace volume,
// protocol-fee revenue split, trader and item uniqueness counters, and the
// daily/price-extrema snapshots. Price arrives in 18-decimal quote currency
// units; amount is the number of items filled (>1 only for ERC1155).
func (e *Engine) HandleTrade(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta, p domain.TradeParams) error {
	recID := domain.EventRecordID(meta.TxHash, meta.LogIndex)

	existing, err := e.store.EventRecord(ctx, recID)
	if err != nil {
		return fmt.Errorf("load event record %s: %w", recID, err)
	}
	if existing != nil {
		e.log.Debugf("Event %s already processed, skipping", recID)
		return nil
	}

	strategy, err := e.getOrCreateStrategy(ctx, ident, p.Strategy)
	if err != nil {
		return err
	}
	collection, err := e.getOrCreateCollection(ctx, ident, p.Collection)
	if err != nil {
		return err
	}
	proto, err := e.getOrCreateProtocol(ctx, ident)
	if err != nil {
		return err
	}

	priceETH := toUnits(p.Price, 18)
	amount := decimal.NewFromInt(1)
	if p.Amount != nil && p.Amount.Sign() > 0 {
		amount = decimal.NewFromBigInt(p.Amount, 0)
	}
	volumeETH := amount.Mul(priceETH)

	rec := &domain.EventRecord{
		ID:          recID,
		Kind:        domain.KindTrade,
		TxHash:      meta.TxHash,
		LogIndex:    meta.LogIndex,
		Timestamp:   meta.Timestamp,
		BlockNumber: meta.BlockNumber,
		Market:      collection.ID,
		From:        p.Seller,
		To:          p.Buyer,
		TokenID:     p.TokenID,
		Amount:      p.Amount,
		PriceETH:    priceETH,
		Strategy:    strategy.SaleStrategy,
	}
	if err = e.store.SaveEventRecord(ctx, rec); err != nil {
		return fmt.Errorf("save event record %s: %w", recID, err)
	}

	// fee revenue goes to the marketplace side; the creator side only moves
	// on royalty payments
	feeRevenueETH := volumeETH.Mul(strategy.ProtocolFee).Div(bigdHundred)

	collection.TradeCount++
	collection.CumulativeTradeVolumeETH = collection.CumulativeTradeVolumeETH.Add(volumeETH)
	collection.MarketplaceRevenueETH = collection.MarketplaceRevenueETH.Add(feeRevenueETH)
	collection.TotalRevenueETH = collection.TotalRevenueETH.Add(feeRevenueETH)
	if e.markIfNew(ctx, participants.CollectionBuyerKey(collection.ID, p.Buyer)) {
		collection.BuyerCount++
	}
	if e.markIfNew(ctx, participants.CollectionSellerKey(collection.ID, p.Seller)) {
		collection.SellerCount++
	}

	proto.TradeCount++
	proto.CumulativeTradeVolumeETH = proto.CumulativeTradeVolumeETH.Add(volumeETH)
	proto.MarketplaceRevenueETH = proto.MarketplaceRevenueETH.Add(feeRevenueETH)
	proto.TotalRevenueETH = proto.TotalRevenueETH.Add(feeRevenueETH)
	if e.markIfNew(ctx, participants.MarketplaceAccountKey(p.Buyer)) {
		proto.CumulativeUniqueTraders++
	}
	if e.markIfNew(ctx, participants.MarketplaceAccountKey(p.Seller)) {
		proto.CumulativeUniqueTraders++
	}

	if err = e.store.SaveMarket(ctx, collection); err != nil {
		return fmt.Errorf("save collection %s: %w", collection.ID, err)
	}
	if err = e.store.SaveProtocol(ctx, proto); err != nil {
		return fmt.Errorf("save protocol %s: %w", proto.ID, err)
	}

	return e.foldTradeSnapshots(ctx, collection, proto, meta, p, priceETH, volumeETH)
}

func (e *Engine) foldTradeSnapshots(ctx context.Context, c *domain.Market, proto *domain.Protocol, meta domain.EventMeta, p domain.TradeParams, priceETH, volumeETH decimal.Decimal) error {
	day := domain.DayIndex(meta.Timestamp)

	// the same token changing hands twice in one day counts once
	newItemToday := e.markIfNew(ctx, participants.DailyTradedItemKey(c.ID, p.TokenID, day))

	daily, err := e.getOrCreateMarketDailySnapshot(ctx, c.ID, meta.Timestamp)
	if err != nil {
		return err
	}
	copyMarketDailyCumulatives(daily, c, meta)
	daily.DailyTradeVolumeETH = daily.DailyTradeVolumeETH.Add(volumeETH)
	if priceETH.LessThan(daily.DailyMinSalePrice) {
		daily.DailyMinSalePrice = priceETH
	}
	if priceETH.GreaterThan(daily.DailyMaxSalePrice) {
		daily.DailyMaxSalePrice = priceETH
	}
	if newItemToday {
		daily.DailyTradedItemCount++
	}
	if err = e.store.SaveMarketDailySnapshot(ctx, daily); err != nil {
		return fmt.Errorf("save collection daily snapshot %s: %w", daily.ID, err)
	}

	protoDaily, err := e.getOrCreateProtocolDailySnapshot(ctx, proto.ID, meta.Timestamp)
	if err != nil {
		return err
	}
	copyProtocolDailyCumulatives(protoDaily, proto, meta)
	protoDaily.DailyTradeVolumeETH = protoDaily.DailyTradeVolumeETH.Add(volumeETH)
	if e.markIfNew(ctx, participants.DailyMarketplaceBuyerKey(p.Buyer, day)) {
		protoDaily.DailyActiveTraders++
	}
	if e.markIfNew(ctx, participants.DailyMarketplaceSellerKey(p.Seller, day)) {
		protoDaily.DailyActiveTraders++
	}
	if e.markIfNew(ctx, participants.DailyTradedCollectionKey(c.ID, day)) {
		protoDaily.DailyTradedCollectionCount++
	}
	if newItemToday {
		protoDaily.DailyTradedItemCount++
	}
	if err = e.store.SaveProtocolDailySnapshot(ctx, protoDaily); err != nil {
		return fmt.Errorf("save protocol daily snapshot %s: %w", protoDaily.ID, err)
	}

	e.publish(ctx, "snapshots.market."+c.ID, daily)
	e.publish(ctx, "snapshots.protocol."+proto.ID, protoDaily)

	return nil
}

// HandleRoyaltyPayment adds a creator payout to the collection and
// marketplace revenue totals. No trade happened, so counters and snapshots
// stay untouched.
func (e *Engine) HandleRoyaltyPayment(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta, p domain.RoyaltyPaymentParams) error {
	recID := domain.EventRecordID(meta.TxHash, meta.LogIndex)

	existing, err := e.store.EventRecord(ctx, recID)
	if err != nil {
		return fmt.Errorf("load event record %s: %w", recID, err)
	}
	if existing != nil {
		e.log.Debugf("Event %s already processed, skipping", recID)
		return nil
	}

	collection, err := e.getOrCreateCollection(ctx, ident, p.Collection)
	if err != nil {
		return err
	}
	proto, err := e.getOrCreateProtocol(ctx, ident)
	if err != nil {
		return err
	}

	amountETH := toUnits(p.Amount, 18)

	rec := &domain.EventRecord{
		ID:          recID,
		Kind:        domain.KindRoyaltyPayment,
		TxHash:      meta.TxHash,
		LogIndex:    meta.LogIndex,
		Timestamp:   meta.Timestamp,
		BlockNumber: meta.BlockNumber,
		Market:      collection.ID,
		Amount:      p.Amount,
		PriceETH:    amountETH,
	}
	if err = e.store.SaveEventRecord(ctx, rec); err != nil {
		return fmt.Errorf("save event record %s: %w", recID, err)
	}

	collection.CreatorRevenueETH = collection.CreatorRevenueETH.Add(amountETH)
	collection.TotalRevenueETH = collection.TotalRevenueETH.Add(amountETH)
	proto.CreatorRevenueETH = proto.CreatorRevenueETH.Add(amountETH)
	proto.TotalRevenueETH = proto.TotalRevenueETH.Add(amountETH)

	if err = e.store.SaveMarket(ctx, collection); err != nil {
		return fmt.Errorf("save collection %s: %w", collection.ID, err)
	}
	if err = e.store.SaveProtocol(ctx, proto); err != nil {
		return fmt.Errorf("save protocol %s: %w", proto.ID, err)
	}

	return nil
}

// HandleRoyaltyFeeUpdate replaces the collection's royalty rate gauge.
func (e *Engine) HandleRoyaltyFeeUpdate(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta, p domain.RoyaltyFeeParams) error {
	collection, err := e.getOrCreateCollection(ctx, ident, p.Collection)
	if err != nil {
		return err
	}

	collection.RoyaltyFee = fromPercentRaw(p.Fee)

	if err = e.store.SaveMarket(ctx, collection); err != nil {
		return fmt.Errorf("save collection %s: %w", collection.ID, err)
	}

	return nil
}
