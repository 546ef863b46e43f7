package participants

import (
	"math/big"
	"strconv"
)

// Marker key builders. Every counting scope gets its own explicit builder so
// scopes can never collide through ad-hoc concatenation at call sites. The
// per-day keys carry the day index; lifetime keys do not.

// CollectionBuyerKey scopes distinct buyers per collection (lifetime).
func CollectionBuyerKey(collection, buyer string) string {
	return "COLLECTION_ACCOUNT-BUYER-" + collection + "-" + buyer
}

// CollectionSellerKey scopes distinct sellers per collection (lifetime).
func CollectionSellerKey(collection, seller string) string {
	return "COLLECTION_ACCOUNT-SELLER-" + collection + "-" + seller
}

// MarketplaceAccountKey scopes distinct traders per marketplace (lifetime).
func MarketplaceAccountKey(account string) string {
	return "MARKETPLACE_ACCOUNT-" + account
}

// DailyMarketplaceBuyerKey scopes daily active buyers per marketplace day
// bucket.
func DailyMarketplaceBuyerKey(buyer string, day int64) string {
	return "DAILY_MARKETPLACE_ACCOUNT-BUYER-" + buyer + "-" + day10(day)
}

// DailyMarketplaceSellerKey scopes daily active sellers per marketplace day
// bucket.
func DailyMarketplaceSellerKey(seller string, day int64) string {
	return "DAILY_MARKETPLACE_ACCOUNT-SELLER-" + seller + "-" + day10(day)
}

// DailyTradedItemKey scopes distinct traded items per collection day bucket.
func DailyTradedItemKey(collection string, tokenID *big.Int, day int64) string {
	return "DAILY_TRADED_ITEM-" + collection + "-" + tokenID.String() + "-" + day10(day)
}

// DailyTradedCollectionKey scopes distinct traded collections per day bucket.
func DailyTradedCollectionKey(collection string, day int64) string {
	return "DAILY_TRADED_COLLECTION-" + collection + "-" + day10(day)
}

// ProtocolAccountKey scopes distinct lending participants per protocol
// (lifetime).
func ProtocolAccountKey(account string) string {
	return "PROTOCOL_ACCOUNT-" + account
}

// MarketAccountKey scopes distinct lending participants per market
// (lifetime).
func MarketAccountKey(market, account string) string {
	return "MARKET_ACCOUNT-" + market + "-" + account
}

// DailyActiveAccountKey scopes daily active lending participants per day
// bucket.
func DailyActiveAccountKey(account string, day int64) string {
	return "DAILY_ACTIVE_ACCOUNT-" + account + "-" + day10(day)
}

func day10(day int64) string {
	return strconv.FormatInt(day, 10)
}
