package domain

import "math/big"

// EventKind classifies a decoded on-chain event.
type EventKind string

const (
	// lending pool events
	KindDeposit            EventKind = "deposit"
	KindWithdraw           EventKind = "withdraw"
	KindBorrow             EventKind = "borrow"
	KindRepay              EventKind = "repay"
	KindLiquidation        EventKind = "liquidation"
	KindReserveDataUpdated EventKind = "reserve_data_updated"

	// lending configuration events
	KindReserveInitialized      EventKind = "reserve_initialized"
	KindCollateralConfigChanged EventKind = "collateral_config_changed"
	KindReserveFactorChanged    EventKind = "reserve_factor_changed"
	KindBorrowingEnabled        EventKind = "borrowing_enabled"
	KindBorrowingDisabled       EventKind = "borrowing_disabled"
	KindReserveActivated        EventKind = "reserve_activated"
	KindReserveDeactivated      EventKind = "reserve_deactivated"
	KindPaused                  EventKind = "paused"
	KindUnpaused                EventKind = "unpaused"
	KindPriceOracleUpdated      EventKind = "price_oracle_updated"

	// marketplace events
	KindTrade            EventKind = "trade"
	KindRoyaltyPayment   EventKind = "royalty_payment"
	KindRoyaltyFeeUpdate EventKind = "royalty_fee_update"
)

// EventMeta is the common envelope every decoded event carries: ordering
// coordinates plus block context. Decoding itself is the host's concern.
type EventMeta struct {
	TxHash      string `json:"tx_hash"`
	LogIndex    uint32 `json:"log_index"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   int64  `json:"timestamp"`
}

// DecodedEvent is one fully decoded event as delivered by the host, in
// ascending (block number, log index) order. Params holds the typed
// per-kind parameter struct.
type DecodedEvent struct {
	NetworkID string    `json:"network_id"`
	Kind      EventKind `json:"kind"`
	Meta      EventMeta `json:"meta"`
	Params    any       `json:"params"`
}

// LendingMoveParams covers deposit, withdraw, borrow and repay.
type LendingMoveParams struct {
	Asset   string
	Account string
	Amount  *big.Int
}

type LiquidationParams struct {
	CollateralAsset  string
	DebtAsset        string
	Liquidator       string
	Liquidatee       string
	CollateralAmount *big.Int
}

type ReserveDataParams struct {
	Asset              string
	LiquidityRate      *big.Int
	LiquidityIndex     *big.Int
	VariableBorrowRate *big.Int
	StableBorrowRate   *big.Int
}

type ReserveInitParams struct {
	Asset             string
	OutputToken       string
	VariableDebtToken string
	StableDebtToken   string
}

type CollateralConfigParams struct {
	Asset                string
	LTV                  *big.Int
	LiquidationThreshold *big.Int
	LiquidationBonus     *big.Int
}

type ReserveFactorParams struct {
	Asset  string
	Factor *big.Int
}

// ReserveFlagParams covers activation, deactivation and borrowing toggles.
type ReserveFlagParams struct {
	Asset string
}

type OracleUpdatedParams struct {
	NewOracle string
}

type TradeParams struct {
	Collection string
	Buyer      string
	Seller     string
	Strategy   string
	Currency   string
	TokenID    *big.Int
	Price      *big.Int
	Amount     *big.Int
}

type RoyaltyPaymentParams struct {
	Collection string
	Currency   string
	Amount     *big.Int
}

type RoyaltyFeeParams struct {
	Collection string
	Fee        *big.Int
}
