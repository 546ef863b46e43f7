package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Sentinel seed for dailyMinSalePrice; only ever folded down by min() once
// the first trade lands in the bucket.
var MaxSalePriceSentinel = decimal.New(1, 30)

// Protocol is the singleton aggregate per deployment (lending protocol or
// NFT marketplace), keyed by the deployment's protocol contract address.
type Protocol struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	SchemaVersion      string `json:"schema_version"`
	SubgraphVersion    string `json:"subgraph_version"`
	MethodologyVersion string `json:"methodology_version"`
	Network            string `json:"network"`

	// active oracle address, replaced on PriceOracleUpdated (gauge)
	PriceOracle string `json:"price_oracle"`

	Paused bool `json:"paused"`

	// lending cumulatives
	CumulativeDepositUSD   decimal.Decimal `json:"cumulative_deposit_usd"`
	CumulativeBorrowUSD    decimal.Decimal `json:"cumulative_borrow_usd"`
	CumulativeLiquidateUSD decimal.Decimal `json:"cumulative_liquidate_usd"`
	CumulativeUniqueUsers  int64           `json:"cumulative_unique_users"`
	EventCount             int64           `json:"event_count"`

	// marketplace cumulatives
	CollectionCount          int64           `json:"collection_count"`
	TradeCount               int64           `json:"trade_count"`
	CumulativeTradeVolumeETH decimal.Decimal `json:"cumulative_trade_volume_eth"`
	MarketplaceRevenueETH    decimal.Decimal `json:"marketplace_revenue_eth"`
	CreatorRevenueETH        decimal.Decimal `json:"creator_revenue_eth"`
	TotalRevenueETH          decimal.Decimal `json:"total_revenue_eth"`
	CumulativeUniqueTraders  int64           `json:"cumulative_unique_traders"`
}

// RewardSide names a fixed reward slot. Slot order is the alphabetical order
// of the side names (BORROW before DEPOSIT) and is part of the contract.
type RewardSide string

const (
	RewardSideBorrow  RewardSide = "BORROW"
	RewardSideDeposit RewardSide = "DEPOSIT"
)

// RewardSides returns all sides in their fixed slot order.
func RewardSides() []RewardSide {
	return []RewardSide{RewardSideBorrow, RewardSideDeposit}
}

// RewardSlot replaces the parallel reward arrays of the source schema: one
// keyed slot per side carrying the token, the native emission amount and its
// USD value per day.
type RewardSlot struct {
	Side           RewardSide      `json:"side"`
	Token          string          `json:"token"`
	EmissionAmount *big.Int        `json:"emission_amount"`
	EmissionUSD    decimal.Decimal `json:"emission_usd"`
}

// Market is a lending market or an NFT collection, keyed by the underlying
// asset / collection address. Both shapes share the cumulative volume and
// revenue bookkeeping; fields of the other shape stay at zero values.
type Market struct {
	ID string `json:"id"`

	// lending configuration
	InputToken           string          `json:"input_token"`
	OutputToken          string          `json:"output_token"`
	VariableDebtToken    string          `json:"variable_debt_token"`
	StableDebtToken      string          `json:"stable_debt_token"`
	LTV                  decimal.Decimal `json:"ltv"`
	LiquidationThreshold decimal.Decimal `json:"liquidation_threshold"`
	LiquidationBonus     decimal.Decimal `json:"liquidation_bonus"`
	ReserveFactor        decimal.Decimal `json:"reserve_factor"`
	IsActive             bool            `json:"is_active"`
	CanBorrowFrom        bool            `json:"can_borrow_from"`

	// lending gauges, replaced on every data refresh
	LiquidityRate      decimal.Decimal `json:"liquidity_rate"`
	LiquidityIndex     *big.Int        `json:"liquidity_index"`
	VariableBorrowRate decimal.Decimal `json:"variable_borrow_rate"`
	StableBorrowRate   decimal.Decimal `json:"stable_borrow_rate"`
	InputTokenPriceUSD decimal.Decimal `json:"input_token_price_usd"`

	RewardSlots []RewardSlot `json:"reward_slots"`

	// lending cumulatives
	CumulativeDepositUSD   decimal.Decimal `json:"cumulative_deposit_usd"`
	CumulativeBorrowUSD    decimal.Decimal `json:"cumulative_borrow_usd"`
	CumulativeLiquidateUSD decimal.Decimal `json:"cumulative_liquidate_usd"`
	CumulativeUniqueUsers  int64           `json:"cumulative_unique_users"`
	EventCount             int64           `json:"event_count"`

	// collection metadata, best-effort contract reads on first sight
	NFTStandard string   `json:"nft_standard"`
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	TotalSupply *big.Int `json:"total_supply"`

	// royalty rate gauge, fraction of 100 (replace, never accumulate)
	RoyaltyFee decimal.Decimal `json:"royalty_fee"`

	// marketplace cumulatives
	TradeCount               int64           `json:"trade_count"`
	BuyerCount               int64           `json:"buyer_count"`
	SellerCount              int64           `json:"seller_count"`
	CumulativeTradeVolumeETH decimal.Decimal `json:"cumulative_trade_volume_eth"`
	MarketplaceRevenueETH    decimal.Decimal `json:"marketplace_revenue_eth"`
	CreatorRevenueETH        decimal.Decimal `json:"creator_revenue_eth"`
	TotalRevenueETH          decimal.Decimal `json:"total_revenue_eth"`
}

// Token metadata, cached after the first contract resolution.
type Token struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int32  `json:"decimals"`
}

// NFT standard variants detected via ERC165.
const (
	NFTStandardERC721  = "ERC721"
	NFTStandardERC1155 = "ERC1155"
	NFTStandardUnknown = "UNKNOWN"
)

type SaleStrategy string

const (
	SaleStrategyStandard          SaleStrategy = "STANDARD_SALE"
	SaleStrategyAnyItemCollection SaleStrategy = "ANY_ITEM_FROM_COLLECTION"
	SaleStrategyPrivate           SaleStrategy = "PRIVATE_SALE"
	SaleStrategyUnknown           SaleStrategy = "UNKNOWN"
)

// ExecutionStrategy is resolved once per distinct strategy address and
// cached: classification by static address-set membership plus the
// protocol-fee rate read from the strategy contract at first resolution.
type ExecutionStrategy struct {
	ID           string          `json:"id"`
	SaleStrategy SaleStrategy    `json:"sale_strategy"`
	ProtocolFee  decimal.Decimal `json:"protocol_fee"` // fraction of 100, 2 means 2%
}

// EventRecord is the immutable per-event row, keyed by txHash-logIndex.
// Write-once: never mutated after creation.
type EventRecord struct {
	ID          string          `json:"id"`
	Kind        EventKind       `json:"kind"`
	TxHash      string          `json:"tx_hash"`
	LogIndex    uint32          `json:"log_index"`
	Timestamp   int64           `json:"timestamp"`
	BlockNumber uint64          `json:"block_number"`
	Market      string          `json:"market"`
	From        string          `json:"from"` // depositor / seller / liquidatee
	To          string          `json:"to"`   // receiver / buyer / liquidator
	TokenID     *big.Int        `json:"token_id,omitempty"`
	Amount      *big.Int        `json:"amount"`
	PriceETH    decimal.Decimal `json:"price_eth"`
	AmountUSD   decimal.Decimal `json:"amount_usd"`
	Strategy    SaleStrategy    `json:"strategy,omitempty"`
}
