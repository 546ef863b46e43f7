package dispatch

import (
	"context"
	"strings"

	"chainmetrics/internal/deployments"
	"chainmetrics/internal/domain"
	"chainmetrics/internal/engine"

	"gitlab.com/nevasik7/alerting/logger"
)

// Dispatcher routes decoded events into the handler core. It is the error
// boundary of the pipeline: a handler failure (or a malformed event) is
// logged and the stream moves on. Dispatch never returns an error.
type Dispatcher struct {
	log    logger.Logger
	engine *engine.Engine
}

func New(log logger.Logger, eng *engine.Engine) *Dispatcher {
	return &Dispatcher{log: log, engine: eng}
}

// Dispatch resolves the event's deployment, applies the quote-currency
// filter and routes by kind. Events of unknown kinds are dropped with a
// warning.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *domain.DecodedEvent) {
	if ev == nil {
		return
	}

	ident := d.resolveIdentity(ev.NetworkID)

	if skip, currency := d.filteredByCurrency(ident, ev); skip {
		d.log.Debugf("Skipping %s in non-quote currency %s (tx %s)", ev.Kind, currency, ev.Meta.TxHash)
		return
	}

	if err := d.route(ctx, ident, ev); err != nil {
		d.log.Errorf("Handler %s failed for tx %s log %d: %v", ev.Kind, ev.Meta.TxHash, ev.Meta.LogIndex, err)
	}
}

func (d *Dispatcher) resolveIdentity(networkID string) domain.ProtocolIdentity {
	dep, err := deployments.Resolve(networkID)
	if err != nil {
		d.log.Errorf("Cannot resolve network %q: %v, degrading to zero-address identity", networkID, err)
		return domain.ProtocolIdentity{Address: deployments.ZeroAddress, Network: networkID}
	}

	return domain.ProtocolIdentity{
		Address:            dep.ProtocolAddress,
		Name:               dep.Name,
		Slug:               dep.Slug,
		SchemaVersion:      dep.SchemaVersion,
		SubgraphVersion:    dep.SubgraphVersion,
		MethodologyVersion: dep.MethodologyVersion,
		Network:            dep.Network,
		QuoteCurrency:      dep.QuoteCurrency,
		RewardToken:        dep.RewardToken,

		StandardSaleStrategies:   dep.StandardSaleStrategies,
		CollectionSaleStrategies: dep.CollectionSaleStrategies,
		PrivateSaleStrategies:    dep.PrivateSaleStrategies,
	}
}

// filteredByCurrency drops marketplace events settled outside the
// deployment's quote currency: their ETH-denominated aggregates would be
// meaningless.
func (d *Dispatcher) filteredByCurrency(ident domain.ProtocolIdentity, ev *domain.DecodedEvent) (bool, string) {
	if ident.QuoteCurrency == "" {
		return false, ""
	}

	var currency string
	switch p := ev.Params.(type) {
	case domain.TradeParams:
		currency = p.Currency
	case domain.RoyaltyPaymentParams:
		currency = p.Currency
	default:
		return false, ""
	}

	if strings.EqualFold(currency, ident.QuoteCurrency) {
		return false, ""
	}
	return true, currency
}

func (d *Dispatcher) route(ctx context.Context, ident domain.ProtocolIdentity, ev *domain.DecodedEvent) error {
	meta := ev.Meta

	switch ev.Kind {
	case domain.KindDeposit:
		p, ok := ev.Params.(domain.LendingMoveParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleDeposit(ctx, ident, meta, p)

	case domain.KindWithdraw:
		p, ok := ev.Params.(domain.LendingMoveParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleWithdraw(ctx, ident, meta, p)

	case domain.KindBorrow:
		p, ok := ev.Params.(domain.LendingMoveParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleBorrow(ctx, ident, meta, p)

	case domain.KindRepay:
		p, ok := ev.Params.(domain.LendingMoveParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleRepay(ctx, ident, meta, p)

	case domain.KindLiquidation:
		p, ok := ev.Params.(domain.LiquidationParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleLiquidate(ctx, ident, meta, p)

	case domain.KindReserveDataUpdated:
		p, ok := ev.Params.(domain.ReserveDataParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleReserveDataUpdated(ctx, ident, meta, p)

	case domain.KindReserveInitialized:
		p, ok := ev.Params.(domain.ReserveInitParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleReserveInitialized(ctx, ident, meta, p)

	case domain.KindCollateralConfigChanged:
		p, ok := ev.Params.(domain.CollateralConfigParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleCollateralConfigChanged(ctx, meta, p)

	case domain.KindReserveFactorChanged:
		p, ok := ev.Params.(domain.ReserveFactorParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleReserveFactorChanged(ctx, meta, p)

	case domain.KindBorrowingEnabled:
		p, ok := ev.Params.(domain.ReserveFlagParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleBorrowingEnabled(ctx, meta, p)

	case domain.KindBorrowingDisabled:
		p, ok := ev.Params.(domain.ReserveFlagParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleBorrowingDisabled(ctx, meta, p)

	case domain.KindReserveActivated:
		p, ok := ev.Params.(domain.ReserveFlagParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleReserveActivated(ctx, meta, p)

	case domain.KindReserveDeactivated:
		p, ok := ev.Params.(domain.ReserveFlagParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleReserveDeactivated(ctx, meta, p)

	case domain.KindPaused:
		return d.engine.HandlePaused(ctx, ident, meta)

	case domain.KindUnpaused:
		return d.engine.HandleUnpaused(ctx, ident, meta)

	case domain.KindPriceOracleUpdated:
		p, ok := ev.Params.(domain.OracleUpdatedParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandlePriceOracleUpdated(ctx, ident, meta, p)

	case domain.KindTrade:
		p, ok := ev.Params.(domain.TradeParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleTrade(ctx, ident, meta, p)

	case domain.KindRoyaltyPayment:
		p, ok := ev.Params.(domain.RoyaltyPaymentParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleRoyaltyPayment(ctx, ident, meta, p)

	case domain.KindRoyaltyFeeUpdate:
		p, ok := ev.Params.(domain.RoyaltyFeeParams)
		if !ok {
			return d.badParams(ev)
		}
		return d.engine.HandleRoyaltyFeeUpdate(ctx, ident, meta, p)

	default:
		d.log.Warnf("Unknown event kind %q in tx %s, dropping", ev.Kind, ev.Meta.TxHash)
		return nil
	}
}

func (d *Dispatcher) badParams(ev *domain.DecodedEvent) error {
	d.log.Errorf("Malformed params for %s in tx %s log %d, dropping", ev.Kind, ev.Meta.TxHash, ev.Meta.LogIndex)
	return nil
}
