package engine

import (
	"context"
	"fmt"
	"strings"

	"chainmetrics/internal/domain"

	"github.com/shopspring/decimal"
)

// ERC165 interface identifiers.
const (
	erc721InterfaceID  = "0x80ac58cd"
	erc1155InterfaceID = "0xd9b67a26"
)

// Token contract methods (best-effort reads).
const (
	methodName                    = "name"
	methodSymbol                  = "symbol"
	methodDecimals                = "decimals"
	methodTotalSupply             = "totalSupply"
	methodSupportsInterface       = "supportsInterface"
	methodViewProtocolFee         = "viewProtocolFee"
	methodGetIncentivesController = "getIncentivesController"
)

const defaultTokenDecimals = 18

// getOrCreateProtocol lazily materializes the protocol aggregate from the
// resolved identity. Never deleted once created.
func (e *Engine) getOrCreateProtocol(ctx context.Context, ident domain.ProtocolIdentity) (*domain.Protocol, error) {
	p, err := e.store.Protocol(ctx, ident.Address)
	if err != nil {
		return nil, fmt.Errorf("load protocol %s: %w", ident.Address, err)
	}
	if p != nil {
		return p, nil
	}

	p = &domain.Protocol{
		ID:                 ident.Address,
		Name:               ident.Name,
		Slug:               ident.Slug,
		SchemaVersion:      ident.SchemaVersion,
		SubgraphVersion:    ident.SubgraphVersion,
		MethodologyVersion: ident.MethodologyVersion,
		Network:            ident.Network,
	}
	if err = e.store.SaveProtocol(ctx, p); err != nil {
		return nil, fmt.Errorf("save protocol %s: %w", ident.Address, err)
	}

	return p, nil
}

// getOrCreateToken resolves token metadata through best-effort contract
// reads and caches the result. A reverting decimals read falls back to 18.
func (e *Engine) getOrCreateToken(ctx context.Context, address string) (*domain.Token, error) {
	t, err := e.store.Token(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("load token %s: %w", address, err)
	}
	if t != nil {
		return t, nil
	}

	t = &domain.Token{ID: address, Decimals: defaultTokenDecimals}

	if r := e.reader.TryCall(address, methodSymbol); !r.Reverted {
		t.Symbol = r.String()
	}
	if r := e.reader.TryCall(address, methodName); !r.Reverted {
		t.Name = r.String()
	}
	if r := e.reader.TryCall(address, methodDecimals); !r.Reverted {
		t.Decimals = r.Int32()
	} else {
		e.log.Debugf("Token %s decimals read reverted, assuming %d", address, defaultTokenDecimals)
	}

	if err = e.store.SaveToken(ctx, t); err != nil {
		return nil, fmt.Errorf("save token %s: %w", address, err)
	}

	return t, nil
}

// getOrCreateCollection materializes a collection market on first sight:
// NFT standard via ERC165, name/symbol/supply best-effort, and the
// marketplace collection counter bumped exactly once.
func (e *Engine) getOrCreateCollection(ctx context.Context, ident domain.ProtocolIdentity, address string) (*domain.Market, error) {
	m, err := e.store.Market(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("load collection %s: %w", address, err)
	}
	if m != nil {
		return m, nil
	}

	m = &domain.Market{
		ID:          address,
		NFTStandard: e.nftStandard(address),
	}

	if r := e.reader.TryCall(address, methodName); !r.Reverted {
		m.Name = r.String()
	}
	if r := e.reader.TryCall(address, methodSymbol); !r.Reverted {
		m.Symbol = r.String()
	}
	if r := e.reader.TryCall(address, methodTotalSupply); !r.Reverted {
		m.TotalSupply = r.BigInt()
	}

	if err = e.store.SaveMarket(ctx, m); err != nil {
		return nil, fmt.Errorf("save collection %s: %w", address, err)
	}

	p, err := e.getOrCreateProtocol(ctx, ident)
	if err != nil {
		return nil, err
	}
	p.CollectionCount++
	if err = e.store.SaveProtocol(ctx, p); err != nil {
		return nil, fmt.Errorf("save protocol after collection %s: %w", address, err)
	}

	return m, nil
}

func (e *Engine) nftStandard(address string) string {
	if r := e.reader.TryCall(address, methodSupportsInterface, erc721InterfaceID); r.Reverted {
		e.log.Warnf("ERC721 interface check reverted for %s", address)
	} else if r.Bool() {
		return domain.NFTStandardERC721
	}

	if r := e.reader.TryCall(address, methodSupportsInterface, erc1155InterfaceID); r.Reverted {
		e.log.Warnf("ERC1155 interface check reverted for %s", address)
	} else if r.Bool() {
		return domain.NFTStandardERC1155
	}

	return domain.NFTStandardUnknown
}

// getOrCreateStrategy classifies an execution strategy by static address-set
// membership and reads its protocol fee once, then caches the result.
func (e *Engine) getOrCreateStrategy(ctx context.Context, ident domain.ProtocolIdentity, address string) (*domain.ExecutionStrategy, error) {
	s, err := e.store.Strategy(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", address, err)
	}
	if s != nil {
		return s, nil
	}

	s = &domain.ExecutionStrategy{
		ID:           address,
		SaleStrategy: classifyStrategy(ident, address),
	}

	if fee := e.reader.TryCall(address, methodViewProtocolFee).BigInt(); fee != nil {
		s.ProtocolFee = decimal.NewFromBigInt(fee, 0).Div(bigdHundred)
	}

	if err = e.store.SaveStrategy(ctx, s); err != nil {
		return nil, fmt.Errorf("save strategy %s: %w", address, err)
	}

	return s, nil
}

func classifyStrategy(ident domain.ProtocolIdentity, address string) domain.SaleStrategy {
	switch {
	case containsAddress(ident.StandardSaleStrategies, address):
		return domain.SaleStrategyStandard
	case containsAddress(ident.CollectionSaleStrategies, address):
		return domain.SaleStrategyAnyItemCollection
	case containsAddress(ident.PrivateSaleStrategies, address):
		return domain.SaleStrategyPrivate
	default:
		return domain.SaleStrategyUnknown
	}
}

func containsAddress(set []string, address string) bool {
	for _, a := range set {
		if strings.EqualFold(a, address) {
			return true
		}
	}
	return false
}
