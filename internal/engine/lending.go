package engine

import (
	"context"
	"fmt"

	"chainmetrics/internal/domain"
	"chainmetrics/internal/participants"

	"github.com/shopspring/decimal"
)

// HandleDeposit folds one pool deposit: event record, market and protocol
// cumulatives, unique-participant counters, snapshots.
func (e *Engine) HandleDeposit(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta, p domain.LendingMoveParams) error {
	return e.lendingMove(ctx, ident, meta, domain.KindDeposit, p)
}

func (e *Engine) HandleWithdraw(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta, p domain.LendingMoveParams) error {
	return e.lendingMove(ctx, ident, meta, domain.KindWithdraw, p)
}

func (e *Engine) HandleBorrow(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta, p domain.LendingMoveParams) error {
	return e.lendingMove(ctx, ident, meta, domain.KindBorrow, p)
}

func (e *Engine) HandleRepay(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta, p domain.LendingMoveParams) error {
	return e.lendingMove(ctx, ident, meta, domain.KindRepay, p)
}

// lendingMove is the shared body of the four pool movement handlers. Deposit
// and borrow add to the cumulative totals; withdraw and repay only show up
// in the daily/hourly deltas.
func (e *Engine) lendingMove(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta, kind domain.EventKind, p domain.LendingMoveParams) error {
	recID := domain.EventRecordID(meta.TxHash, meta.LogIndex)

	existing, err := e.store.EventRecord(ctx, recID)
	if err != nil {
		return fmt.Errorf("load event record %s: %w", recID, err)
	}
	if existing != nil {
		e.log.Debugf("Event %s already processed, skipping", recID)
		return nil
	}

	m, err := e.store.Market(ctx, p.Asset)
	if err != nil {
		return fmt.Errorf("load market %s: %w", p.Asset, err)
	}
	if m == nil {
		e.log.Warnf("%s for unknown market %s in tx %s, skipping", kind, p.Asset, meta.TxHash)
		return nil
	}

	proto, err := e.getOrCreateProtocol(ctx, ident)
	if err != nil {
		return err
	}

	token, err := e.getOrCreateToken(ctx, p.Asset)
	if err != nil {
		return err
	}

	amountUSD := toUnits(p.Amount, token.Decimals).Mul(m.InputTokenPriceUSD)

	rec := &domain.EventRecord{
		ID:          recID,
		Kind:        kind,
		TxHash:      meta.TxHash,
		LogIndex:    meta.LogIndex,
		Timestamp:   meta.Timestamp,
		BlockNumber: meta.BlockNumber,
		Market:      m.ID,
		From:        p.Account,
		Amount:      p.Amount,
		AmountUSD:   amountUSD,
	}
	if err = e.store.SaveEventRecord(ctx, rec); err != nil {
		return fmt.Errorf("save event record %s: %w", recID, err)
	}

	switch kind {
	case domain.KindDeposit:
		m.CumulativeDepositUSD = m.CumulativeDepositUSD.Add(amountUSD)
		proto.CumulativeDepositUSD = proto.CumulativeDepositUSD.Add(amountUSD)
	case domain.KindBorrow:
		m.CumulativeBorrowUSD = m.CumulativeBorrowUSD.Add(amountUSD)
		proto.CumulativeBorrowUSD = proto.CumulativeBorrowUSD.Add(amountUSD)
	}
	m.EventCount++
	proto.EventCount++

	if e.markIfNew(ctx, participants.ProtocolAccountKey(p.Account)) {
		proto.CumulativeUniqueUsers++
	}
	if e.markIfNew(ctx, participants.MarketAccountKey(m.ID, p.Account)) {
		m.CumulativeUniqueUsers++
	}

	if err = e.store.SaveMarket(ctx, m); err != nil {
		return fmt.Errorf("save market %s: %w", m.ID, err)
	}
	if err = e.store.SaveProtocol(ctx, proto); err != nil {
		return fmt.Errorf("save protocol %s: %w", proto.ID, err)
	}

	return e.foldLendingSnapshots(ctx, m, proto, meta, kind, amountUSD, p.Account)
}

// HandleLiquidate values the seized collateral at the collateral market's
// current input token price. Both markets must already exist; the collateral
// market carries the cumulative.
func (e *Engine) HandleLiquidate(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta, p domain.LiquidationParams) error {
	recID := domain.EventRecordID(meta.TxHash, meta.LogIndex)

	existing, err := e.store.EventRecord(ctx, recID)
	if err != nil {
		return fmt.Errorf("load event record %s: %w", recID, err)
	}
	if existing != nil {
		e.log.Debugf("Event %s already processed, skipping", recID)
		return nil
	}

	collateral, err := e.store.Market(ctx, p.CollateralAsset)
	if err != nil {
		return fmt.Errorf("load market %s: %w", p.CollateralAsset, err)
	}
	debt, err := e.store.Market(ctx, p.DebtAsset)
	if err != nil {
		return fmt.Errorf("load market %s: %w", p.DebtAsset, err)
	}
	if collateral == nil || debt == nil {
		e.log.Warnf("Liquidation across unknown markets (%s, %s) in tx %s, skipping",
			p.CollateralAsset, p.DebtAsset, meta.TxHash)
		return nil
	}

	proto, err := e.getOrCreateProtocol(ctx, ident)
	if err != nil {
		return err
	}

	token, err := e.getOrCreateToken(ctx, p.CollateralAsset)
	if err != nil {
		return err
	}

	amountUSD := toUnits(p.CollateralAmount, token.Decimals).Mul(collateral.InputTokenPriceUSD)

	rec := &domain.EventRecord{
		ID:          recID,
		Kind:        domain.KindLiquidation,
		TxHash:      meta.TxHash,
		LogIndex:    meta.LogIndex,
		Timestamp:   meta.Timestamp,
		BlockNumber: meta.BlockNumber,
		Market:      collateral.ID,
		From:        p.Liquidatee,
		To:          p.Liquidator,
		Amount:      p.CollateralAmount,
		AmountUSD:   amountUSD,
	}
	if err = e.store.SaveEventRecord(ctx, rec); err != nil {
		return fmt.Errorf("save event record %s: %w", recID, err)
	}

	collateral.CumulativeLiquidateUSD = collateral.CumulativeLiquidateUSD.Add(amountUSD)
	collateral.EventCount++
	proto.CumulativeLiquidateUSD = proto.CumulativeLiquidateUSD.Add(amountUSD)
	proto.EventCount++

	if e.markIfNew(ctx, participants.ProtocolAccountKey(p.Liquidator)) {
		proto.CumulativeUniqueUsers++
	}
	if e.markIfNew(ctx, participants.MarketAccountKey(collateral.ID, p.Liquidator)) {
		collateral.CumulativeUniqueUsers++
	}

	if err = e.store.SaveMarket(ctx, collateral); err != nil {
		return fmt.Errorf("save market %s: %w", collateral.ID, err)
	}
	if err = e.store.SaveProtocol(ctx, proto); err != nil {
		return fmt.Errorf("save protocol %s: %w", proto.ID, err)
	}

	return e.foldLendingSnapshots(ctx, collateral, proto, meta, domain.KindLiquidation, amountUSD, p.Liquidator)
}

// HandleReserveDataUpdated refreshes the market's rate and price gauges and
// recomputes reward emissions, then folds gauge-only snapshots.
func (e *Engine) HandleReserveDataUpdated(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta, p domain.ReserveDataParams) error {
	m, err := e.store.Market(ctx, p.Asset)
	if err != nil {
		return fmt.Errorf("load market %s: %w", p.Asset, err)
	}
	if m == nil {
		e.log.Warnf("Reserve data update for unknown market %s in tx %s, skipping", p.Asset, meta.TxHash)
		return nil
	}

	proto, err := e.getOrCreateProtocol(ctx, ident)
	if err != nil {
		return err
	}

	m.LiquidityRate = fromRay(p.LiquidityRate)
	m.LiquidityIndex = p.LiquidityIndex
	m.VariableBorrowRate = fromRay(p.VariableBorrowRate)
	m.StableBorrowRate = fromRay(p.StableBorrowRate)

	if proto.PriceOracle != "" {
		m.InputTokenPriceUSD = e.oracle.AssetPriceUSD(m.ID, proto.PriceOracle)
	}

	e.refreshRewards(ctx, ident, m)

	if err = e.store.SaveMarket(ctx, m); err != nil {
		return fmt.Errorf("save market %s: %w", m.ID, err)
	}

	return e.foldLendingSnapshots(ctx, m, proto, meta, domain.KindReserveDataUpdated, decimal.Zero, "")
}

// refreshRewards recomputes both reward slots from the market's incentives
// controller. Slots are (re)created only when the slot count is wrong; a
// failed controller read leaves every reward field exactly as it was.
func (e *Engine) refreshRewards(ctx context.Context, ident domain.ProtocolIdentity, m *domain.Market) {
	controller := e.reader.TryCall(m.OutputToken, methodGetIncentivesController)
	if controller.Reverted || controller.String() == "" {
		e.log.Debugf("No incentives controller behind %s, keeping previous emissions", m.OutputToken)
		return
	}

	rewardToken, err := e.getOrCreateToken(ctx, ident.RewardToken)
	if err != nil {
		e.log.Errorf("Failed to resolve reward token %s: %v", ident.RewardToken, err)
		return
	}

	rewardPriceUSD := decimal.Zero
	if proto, perr := e.store.Protocol(ctx, ident.Address); perr == nil && proto != nil && proto.PriceOracle != "" {
		rewardPriceUSD = e.oracle.AssetPriceUSD(rewardToken.ID, proto.PriceOracle)
	}

	emission, ok := e.rewards.Compute(controller.String(), m.OutputToken, rewardToken.Decimals, rewardPriceUSD)
	if !ok {
		return
	}

	sides := domain.RewardSides()
	if len(m.RewardSlots) != len(sides) {
		m.RewardSlots = make([]domain.RewardSlot, len(sides))
		for i, side := range sides {
			m.RewardSlots[i] = domain.RewardSlot{Side: side, Token: rewardToken.ID}
		}
	}

	// borrow and deposit sides share one emission stream
	for i := range m.RewardSlots {
		m.RewardSlots[i].Token = rewardToken.ID
		m.RewardSlots[i].EmissionAmount = emission.DailyAmount
		m.RewardSlots[i].EmissionUSD = emission.DailyUSD
	}
}

// HandleReserveInitialized creates the market with its token wiring. All
// configuration fields arrive later through their own events.
func (e *Engine) HandleReserveInitialized(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta, p domain.ReserveInitParams) error {
	m, err := e.store.Market(ctx, p.Asset)
	if err != nil {
		return fmt.Errorf("load market %s: %w", p.Asset, err)
	}
	if m != nil {
		e.log.Debugf("Market %s already initialized, skipping", p.Asset)
		return nil
	}

	if _, err = e.getOrCreateProtocol(ctx, ident); err != nil {
		return err
	}
	if _, err = e.getOrCreateToken(ctx, p.Asset); err != nil {
		return err
	}
	if _, err = e.getOrCreateToken(ctx, p.OutputToken); err != nil {
		return err
	}

	m = &domain.Market{
		ID:                p.Asset,
		InputToken:        p.Asset,
		OutputToken:       p.OutputToken,
		VariableDebtToken: p.VariableDebtToken,
		StableDebtToken:   p.StableDebtToken,
	}
	if err = e.store.SaveMarket(ctx, m); err != nil {
		return fmt.Errorf("save market %s: %w", m.ID, err)
	}

	e.log.Infof("Initialized market %s (output token %s)", m.ID, p.OutputToken)

	return nil
}

func (e *Engine) HandleCollateralConfigChanged(ctx context.Context, meta domain.EventMeta, p domain.CollateralConfigParams) error {
	m, err := e.store.Market(ctx, p.Asset)
	if err != nil {
		return fmt.Errorf("load market %s: %w", p.Asset, err)
	}
	if m == nil {
		e.log.Warnf("Collateral config for unknown market %s in tx %s, skipping", p.Asset, meta.TxHash)
		return nil
	}

	m.LTV = fromPercentRaw(p.LTV)
	m.LiquidationThreshold = fromPercentRaw(p.LiquidationThreshold)
	m.LiquidationBonus = fromPercentRaw(p.LiquidationBonus)

	if err = e.store.SaveMarket(ctx, m); err != nil {
		return fmt.Errorf("save market %s: %w", m.ID, err)
	}

	return nil
}

func (e *Engine) HandleReserveFactorChanged(ctx context.Context, meta domain.EventMeta, p domain.ReserveFactorParams) error {
	m, err := e.store.Market(ctx, p.Asset)
	if err != nil {
		return fmt.Errorf("load market %s: %w", p.Asset, err)
	}
	if m == nil {
		e.log.Warnf("Reserve factor for unknown market %s in tx %s, skipping", p.Asset, meta.TxHash)
		return nil
	}

	m.ReserveFactor = fromPercentRaw(p.Factor)

	if err = e.store.SaveMarket(ctx, m); err != nil {
		return fmt.Errorf("save market %s: %w", m.ID, err)
	}

	return nil
}

func (e *Engine) HandleBorrowingEnabled(ctx context.Context, meta domain.EventMeta, p domain.ReserveFlagParams) error {
	return e.setMarketFlag(ctx, meta, p.Asset, func(m *domain.Market) { m.CanBorrowFrom = true })
}

func (e *Engine) HandleBorrowingDisabled(ctx context.Context, meta domain.EventMeta, p domain.ReserveFlagParams) error {
	return e.setMarketFlag(ctx, meta, p.Asset, func(m *domain.Market) { m.CanBorrowFrom = false })
}

func (e *Engine) HandleReserveActivated(ctx context.Context, meta domain.EventMeta, p domain.ReserveFlagParams) error {
	return e.setMarketFlag(ctx, meta, p.Asset, func(m *domain.Market) { m.IsActive = true })
}

func (e *Engine) HandleReserveDeactivated(ctx context.Context, meta domain.EventMeta, p domain.ReserveFlagParams) error {
	return e.setMarketFlag(ctx, meta, p.Asset, func(m *domain.Market) { m.IsActive = false })
}

func (e *Engine) setMarketFlag(ctx context.Context, meta domain.EventMeta, asset string, apply func(*domain.Market)) error {
	m, err := e.store.Market(ctx, asset)
	if err != nil {
		return fmt.Errorf("load market %s: %w", asset, err)
	}
	if m == nil {
		e.log.Warnf("Flag change for unknown market %s in tx %s, skipping", asset, meta.TxHash)
		return nil
	}

	apply(m)

	if err = e.store.SaveMarket(ctx, m); err != nil {
		return fmt.Errorf("save market %s: %w", m.ID, err)
	}

	return nil
}

func (e *Engine) HandlePaused(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta) error {
	return e.setProtocolPaused(ctx, ident, true)
}

func (e *Engine) HandleUnpaused(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta) error {
	return e.setProtocolPaused(ctx, ident, false)
}

func (e *Engine) setProtocolPaused(ctx context.Context, ident domain.ProtocolIdentity, paused bool) error {
	p, err := e.getOrCreateProtocol(ctx, ident)
	if err != nil {
		return err
	}

	p.Paused = paused

	if err = e.store.SaveProtocol(ctx, p); err != nil {
		return fmt.Errorf("save protocol %s: %w", p.ID, err)
	}

	return nil
}

// HandlePriceOracleUpdated replaces the protocol's oracle gauge. Existing
// market prices keep their last resolved value until the next data refresh.
func (e *Engine) HandlePriceOracleUpdated(ctx context.Context, ident domain.ProtocolIdentity, meta domain.EventMeta, p domain.OracleUpdatedParams) error {
	proto, err := e.getOrCreateProtocol(ctx, ident)
	if err != nil {
		return err
	}

	proto.PriceOracle = p.NewOracle

	if err = e.store.SaveProtocol(ctx, proto); err != nil {
		return fmt.Errorf("save protocol %s: %w", proto.ID, err)
	}

	e.log.Infof("Price oracle for %s updated to %s", proto.ID, p.NewOracle)

	return nil
}
