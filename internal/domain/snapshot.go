package domain

import (
	"github.com/shopspring/decimal"
)

const (
	SecondsPerDay  = 86400
	SecondsPerHour = 3600
)

// SnapshotID is the composite snapshot key: parent entity id plus an integer
// bucket index. Deterministic construction, no string-concat ambiguity.
type SnapshotID struct {
	Parent string
	Bucket int64
}

func (s SnapshotID) String() string {
	return s.Parent + "-" + itoa(s.Bucket)
}

// DayIndex maps an event timestamp onto its day bucket.
func DayIndex(timestamp int64) int64 { return timestamp / SecondsPerDay }

// HourIndex maps an event timestamp onto its hour bucket.
func HourIndex(timestamp int64) int64 { return timestamp / SecondsPerHour }

// ProtocolDailySnapshot rolls the protocol aggregate into day buckets.
// Cumulative fields are replaced on every fold so the snapshot always
// mirrors the parent's latest state; daily fields accumulate within the
// bucket. Buckets are never closed.
type ProtocolDailySnapshot struct {
	ID          SnapshotID `json:"id"`
	Protocol    string     `json:"protocol"`
	BlockNumber uint64     `json:"block_number"`
	Timestamp   int64      `json:"timestamp"`

	// lending
	DailyDepositUSD        decimal.Decimal `json:"daily_deposit_usd"`
	DailyWithdrawUSD       decimal.Decimal `json:"daily_withdraw_usd"`
	DailyBorrowUSD         decimal.Decimal `json:"daily_borrow_usd"`
	DailyRepayUSD          decimal.Decimal `json:"daily_repay_usd"`
	DailyLiquidateUSD      decimal.Decimal `json:"daily_liquidate_usd"`
	DailyEventCount        int64           `json:"daily_event_count"`
	DailyActiveUsers       int64           `json:"daily_active_users"`
	CumulativeDepositUSD   decimal.Decimal `json:"cumulative_deposit_usd"`
	CumulativeBorrowUSD    decimal.Decimal `json:"cumulative_borrow_usd"`
	CumulativeLiquidateUSD decimal.Decimal `json:"cumulative_liquidate_usd"`
	CumulativeUniqueUsers  int64           `json:"cumulative_unique_users"`
	EventCount             int64           `json:"event_count"`

	// marketplace
	CollectionCount            int64           `json:"collection_count"`
	TradeCount                 int64           `json:"trade_count"`
	CumulativeTradeVolumeETH   decimal.Decimal `json:"cumulative_trade_volume_eth"`
	DailyTradeVolumeETH        decimal.Decimal `json:"daily_trade_volume_eth"`
	MarketplaceRevenueETH      decimal.Decimal `json:"marketplace_revenue_eth"`
	CreatorRevenueETH          decimal.Decimal `json:"creator_revenue_eth"`
	TotalRevenueETH            decimal.Decimal `json:"total_revenue_eth"`
	CumulativeUniqueTraders    int64           `json:"cumulative_unique_traders"`
	DailyActiveTraders         int64           `json:"daily_active_traders"`
	DailyTradedItemCount       int64           `json:"daily_traded_item_count"`
	DailyTradedCollectionCount int64           `json:"daily_traded_collection_count"`
}

// MarketDailySnapshot rolls one market/collection into day buckets.
type MarketDailySnapshot struct {
	ID          SnapshotID `json:"id"`
	Market      string     `json:"market"`
	BlockNumber uint64     `json:"block_number"`
	Timestamp   int64      `json:"timestamp"`

	// lending
	LiquidityRate          decimal.Decimal `json:"liquidity_rate"`
	VariableBorrowRate     decimal.Decimal `json:"variable_borrow_rate"`
	StableBorrowRate       decimal.Decimal `json:"stable_borrow_rate"`
	InputTokenPriceUSD     decimal.Decimal `json:"input_token_price_usd"`
	DailyDepositUSD        decimal.Decimal `json:"daily_deposit_usd"`
	DailyWithdrawUSD       decimal.Decimal `json:"daily_withdraw_usd"`
	DailyBorrowUSD         decimal.Decimal `json:"daily_borrow_usd"`
	DailyRepayUSD          decimal.Decimal `json:"daily_repay_usd"`
	DailyLiquidateUSD      decimal.Decimal `json:"daily_liquidate_usd"`
	DailyEventCount        int64           `json:"daily_event_count"`
	CumulativeDepositUSD   decimal.Decimal `json:"cumulative_deposit_usd"`
	CumulativeBorrowUSD    decimal.Decimal `json:"cumulative_borrow_usd"`
	CumulativeLiquidateUSD decimal.Decimal `json:"cumulative_liquidate_usd"`
	EventCount             int64           `json:"event_count"`

	// marketplace
	RoyaltyFee               decimal.Decimal `json:"royalty_fee"`
	DailyMinSalePrice        decimal.Decimal `json:"daily_min_sale_price"`
	DailyMaxSalePrice        decimal.Decimal `json:"daily_max_sale_price"`
	CumulativeTradeVolumeETH decimal.Decimal `json:"cumulative_trade_volume_eth"`
	DailyTradeVolumeETH      decimal.Decimal `json:"daily_trade_volume_eth"`
	MarketplaceRevenueETH    decimal.Decimal `json:"marketplace_revenue_eth"`
	CreatorRevenueETH        decimal.Decimal `json:"creator_revenue_eth"`
	TotalRevenueETH          decimal.Decimal `json:"total_revenue_eth"`
	TradeCount               int64           `json:"trade_count"`
	DailyTradedItemCount     int64           `json:"daily_traded_item_count"`
}

// MarketHourlySnapshot is the hour-bucketed lending rollup.
type MarketHourlySnapshot struct {
	ID          SnapshotID `json:"id"`
	Market      string     `json:"market"`
	BlockNumber uint64     `json:"block_number"`
	Timestamp   int64      `json:"timestamp"`

	LiquidityRate          decimal.Decimal `json:"liquidity_rate"`
	VariableBorrowRate     decimal.Decimal `json:"variable_borrow_rate"`
	StableBorrowRate       decimal.Decimal `json:"stable_borrow_rate"`
	InputTokenPriceUSD     decimal.Decimal `json:"input_token_price_usd"`
	HourlyDepositUSD       decimal.Decimal `json:"hourly_deposit_usd"`
	HourlyWithdrawUSD      decimal.Decimal `json:"hourly_withdraw_usd"`
	HourlyBorrowUSD        decimal.Decimal `json:"hourly_borrow_usd"`
	HourlyRepayUSD         decimal.Decimal `json:"hourly_repay_usd"`
	HourlyLiquidateUSD     decimal.Decimal `json:"hourly_liquidate_usd"`
	HourlyEventCount       int64           `json:"hourly_event_count"`
	CumulativeDepositUSD   decimal.Decimal `json:"cumulative_deposit_usd"`
	CumulativeBorrowUSD    decimal.Decimal `json:"cumulative_borrow_usd"`
	CumulativeLiquidateUSD decimal.Decimal `json:"cumulative_liquidate_usd"`
	EventCount             int64           `json:"event_count"`
}
