package rewards

import (
	"math/big"

	"chainmetrics/internal/chain"
	"chainmetrics/internal/domain"

	"github.com/shopspring/decimal"
	"gitlab.com/nevasik7/alerting/logger"
)

// Incentive controller methods.
const (
	methodRewardsPerSecond = "rewardsPerSecond"
	methodPoolInfo         = "poolInfo"
	methodTotalAllocPoint  = "totalAllocPoint"
)

// Emission is one reward slot's computed daily rate: the native-precision
// amount and its USD value.
type Emission struct {
	DailyAmount *big.Int
	DailyUSD    decimal.Decimal
}

// Calculator derives per-day reward emission from incentive-controller
// state. All three controller reads must succeed or nothing is reported:
// partial data is worse than stale data here.
type Calculator struct {
	log    logger.Logger
	reader chain.Reader
}

func NewCalculator(log logger.Logger, reader chain.Reader) *Calculator {
	return &Calculator{log: log, reader: reader}
}

// Compute reads rewards-per-second, the pool's allocation weight and the
// total allocation weight, then:
//
//	dailyAmount = rewardsPerSecond * secondsPerDay / 10^rewardDecimals * poolWeight/totalWeight
//	dailyUSD    = dailyAmount * rewardPriceUSD
//
// ok=false when any read reverts (or the total weight is zero); the caller
// must leave the market's previous emission values untouched in that case.
func (c *Calculator) Compute(controller, pool string, rewardDecimals int32, rewardPriceUSD decimal.Decimal) (Emission, bool) {
	perSecond := c.reader.TryCall(controller, methodRewardsPerSecond)
	poolWeight := c.reader.TryCall(controller, methodPoolInfo, pool)
	totalWeight := c.reader.TryCall(controller, methodTotalAllocPoint)

	if perSecond.Reverted || poolWeight.Reverted || totalWeight.Reverted {
		c.log.Debugf("Incentive controller %s read reverted, keeping previous emissions", controller)
		return Emission{}, false
	}

	total := totalWeight.BigInt()
	if total == nil || total.Sign() == 0 {
		c.log.Warnf("Incentive controller %s reports zero total allocation weight", controller)
		return Emission{}, false
	}

	perSec := perSecond.BigInt()
	poolW := poolWeight.BigInt()
	if perSec == nil || poolW == nil {
		c.log.Warnf("Incentive controller %s returned malformed readings, keeping previous emissions", controller)
		return Emission{}, false
	}

	mantissa := decimal.New(1, rewardDecimals)

	perDay := decimal.NewFromBigInt(perSec, 0).
		Mul(decimal.NewFromInt(domain.SecondsPerDay)).
		Div(mantissa).
		Mul(decimal.NewFromBigInt(poolW, 0).
			Div(decimal.NewFromBigInt(total, 0)))

	return Emission{
		DailyAmount: perDay.Mul(mantissa).Truncate(0).BigInt(),
		DailyUSD:    perDay.Mul(rewardPriceUSD),
	}, true
}
