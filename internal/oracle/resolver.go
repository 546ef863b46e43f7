package oracle

import (
	"math/big"

	"chainmetrics/internal/chain"

	"github.com/shopspring/decimal"
	"gitlab.com/nevasik7/alerting/logger"
)

// Oracle contract methods.
const (
	methodGetAssetPrice     = "getAssetPrice"
	methodGetFallbackOracle = "getFallbackOracle"
)

// Prices come back in the oracle's own fixed-point base (8 decimals, the
// Aave oracle convention).
const defaultOracleDecimals = 8

// Resolver reads USD unit prices through a primary oracle with a fallback.
// Pure read-through: no caching, prices are point-in-time.
type Resolver struct {
	log      logger.Logger
	reader   chain.Reader
	decimals int32
}

func NewResolver(log logger.Logger, reader chain.Reader) *Resolver {
	return &Resolver{
		log:      log,
		reader:   reader,
		decimals: defaultOracleDecimals,
	}
}

// AssetPriceUSD resolves one token's USD unit price. Primary first; a revert
// or non-positive answer retries against the primary's configured fallback
// oracle. Zero is the valid "unknown price" sentinel when both fail — never
// an error that aborts event processing.
func (r *Resolver) AssetPriceUSD(token, primaryOracle string) decimal.Decimal {
	raw := r.reader.TryCall(primaryOracle, methodGetAssetPrice, token).BigInt()

	if raw == nil || raw.Sign() <= 0 {
		fallback := r.reader.TryCall(primaryOracle, methodGetFallbackOracle)
		if fallback.Reverted || fallback.String() == "" {
			r.log.Debugf("No fallback oracle behind %s, price for %s unknown", primaryOracle, token)
			return decimal.Zero
		}

		raw = r.reader.TryCall(fallback.String(), methodGetAssetPrice, token).BigInt()
	}

	if raw == nil || raw.Sign() <= 0 {
		return decimal.Zero
	}

	return fromRaw(raw, r.decimals)
}

func fromRaw(raw *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(raw, 0).Div(decimal.New(1, decimals))
}
