package engine

import (
	"context"
	"math/big"
	"testing"

	"chainmetrics/internal/chain"
	"chainmetrics/internal/domain"

	"github.com/shopspring/decimal"
)

// newTradeReader classifies 0xcollection as ERC721 and gives the standard
// strategy a 2% protocol fee.
func newTradeReader(t *testing.T) *chain.StaticReader {
	t.Helper()

	return chain.NewStaticReader().
		Set("0xcollection", "supportsInterface", true, "0x80ac58cd").
		Set("0xcollection", "name", "Bored Things").
		Set("0xcollection", "symbol", "BT").
		Set("0xstrat", "viewProtocolFee", big.NewInt(200))
}

func tradeAt(tx string, logIndex uint32, ts int64, buyer, seller string, tokenID, priceWei *big.Int) (domain.EventMeta, domain.TradeParams) {
	return metaAt(tx, logIndex, ts), domain.TradeParams{
		Collection: "0xcollection",
		Buyer:      buyer,
		Seller:     seller,
		Strategy:   "0xstrat",
		Currency:   "0xweth",
		TokenID:    tokenID,
		Price:      priceWei,
	}
}

func TestTrade_Accounting(t *testing.T) {
	t.Parallel()

	e, mem := newTestEngine(t, newTradeReader(t))
	ctx := context.Background()
	ident := marketplaceIdent()

	meta, p := tradeAt("0xtrade", 2, dayOneNoon, "0xbuyer", "0xseller", big.NewInt(1), eth(1))
	if err := e.HandleTrade(ctx, ident, meta, p); err != nil {
		t.Fatalf("trade: %v", err)
	}

	one := decimal.NewFromInt(1)
	fee := decimal.RequireFromString("0.02") // 2% of 1 ETH

	c, _ := mem.Market(ctx, "0xcollection")
	if c == nil {
		t.Fatalf("collection must be created on first trade")
	}
	if c.NFTStandard != domain.NFTStandardERC721 || c.Name != "Bored Things" {
		t.Fatalf("collection metadata: %+v", c)
	}
	if c.TradeCount != 1 || !c.CumulativeTradeVolumeETH.Equal(one) {
		t.Fatalf("collection volume: %+v", c)
	}
	if !c.MarketplaceRevenueETH.Equal(fee) || !c.TotalRevenueETH.Equal(fee) {
		t.Fatalf("collection revenue: %+v", c)
	}
	if c.BuyerCount != 1 || c.SellerCount != 1 {
		t.Fatalf("collection participants: %+v", c)
	}

	proto, _ := mem.Protocol(ctx, ident.Address)
	if proto.CollectionCount != 1 || proto.TradeCount != 1 {
		t.Fatalf("protocol counters: %+v", proto)
	}
	if !proto.CumulativeTradeVolumeETH.Equal(one) || !proto.MarketplaceRevenueETH.Equal(fee) {
		t.Fatalf("protocol volume/revenue: %+v", proto)
	}
	if proto.CumulativeUniqueTraders != 2 {
		t.Fatalf("expected buyer and seller counted, got %d", proto.CumulativeUniqueTraders)
	}

	rec, _ := mem.EventRecord(ctx, "0xtrade-2")
	if rec == nil || rec.Kind != domain.KindTrade {
		t.Fatalf("trade record: %+v", rec)
	}
	if rec.From != "0xseller" || rec.To != "0xbuyer" || !rec.PriceETH.Equal(one) {
		t.Fatalf("trade record roles: %+v", rec)
	}
	if rec.Strategy != domain.SaleStrategyStandard {
		t.Fatalf("trade strategy: %s", rec.Strategy)
	}

	day := domain.DayIndex(dayOneNoon)
	daily, _ := mem.MarketDailySnapshot(ctx, domain.SnapshotID{Parent: "0xcollection", Bucket: day})
	if !daily.DailyTradeVolumeETH.Equal(one) || daily.DailyTradedItemCount != 1 {
		t.Fatalf("collection daily snapshot: %+v", daily)
	}
	if !daily.DailyMinSalePrice.Equal(one) || !daily.DailyMaxSalePrice.Equal(one) {
		t.Fatalf("extrema after one trade: min=%s max=%s", daily.DailyMinSalePrice, daily.DailyMaxSalePrice)
	}

	protoDaily, _ := mem.ProtocolDailySnapshot(ctx, domain.SnapshotID{Parent: ident.Address, Bucket: day})
	if protoDaily.DailyActiveTraders != 2 || protoDaily.DailyTradedCollectionCount != 1 || protoDaily.DailyTradedItemCount != 1 {
		t.Fatalf("protocol daily snapshot: %+v", protoDaily)
	}
}

func TestTrade_RedeliveryCountedOnce(t *testing.T) {
	t.Parallel()

	e, mem := newTestEngine(t, newTradeReader(t))
	ctx := context.Background()
	ident := marketplaceIdent()

	meta, p := tradeAt("0xtrade", 0, dayOneNoon, "0xbuyer", "0xseller", big.NewInt(1), eth(1))
	for i := 0; i < 3; i++ {
		if err := e.HandleTrade(ctx, ident, meta, p); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}

	proto, _ := mem.Protocol(ctx, ident.Address)
	if proto.TradeCount != 1 {
		t.Fatalf("redelivered trade counted %d times", proto.TradeCount)
	}
}

func TestTrade_ERC1155AmountScalesVolume(t *testing.T) {
	t.Parallel()

	e, mem := newTestEngine(t, newTradeReader(t))
	ctx := context.Background()
	ident := marketplaceIdent()

	meta, p := tradeAt("0xtrade", 0, dayOneNoon, "0xbuyer", "0xseller", big.NewInt(9), eth(2))
	p.Amount = big.NewInt(3)

	if err := e.HandleTrade(ctx, ident, meta, p); err != nil {
		t.Fatalf("trade: %v", err)
	}

	c, _ := mem.Market(ctx, "0xcollection")
	if !c.CumulativeTradeVolumeETH.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("volume must be amount*price: %s", c.CumulativeTradeVolumeETH)
	}

	// extrema fold the per-item price, not the fill volume
	daily, _ := mem.MarketDailySnapshot(ctx, domain.SnapshotID{Parent: "0xcollection", Bucket: domain.DayIndex(dayOneNoon)})
	if !daily.DailyMaxSalePrice.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("max sale price: %s", daily.DailyMaxSalePrice)
	}
}

func TestTrade_ExtremaAndDayBuckets(t *testing.T) {
	t.Parallel()

	e, mem := newTestEngine(t, newTradeReader(t))
	ctx := context.Background()
	ident := marketplaceIdent()

	trades := []struct {
		tx     string
		ts     int64
		buyer  string
		seller string
		token  int64
		price  int64
	}{
		{"0xt1", dayOneNoon, "0xbuyer1", "0xseller", 1, 5},
		{"0xt2", dayOneNoon, "0xbuyer2", "0xseller", 1, 1}, // same item, same day
		{"0xt3", dayOneNoon, "0xbuyer1", "0xseller", 2, 3}, // repeat buyer, new item
		{"0xt4", dayTwoNoon, "0xbuyer1", "0xseller", 1, 2}, // next day
	}
	for _, tr := range trades {
		meta, p := tradeAt(tr.tx, 0, tr.ts, tr.buyer, tr.seller, big.NewInt(tr.token), eth(tr.price))
		if err := e.HandleTrade(ctx, ident, meta, p); err != nil {
			t.Fatalf("trade %s: %v", tr.tx, err)
		}
	}

	dayOne := domain.DayIndex(dayOneNoon)
	daily, _ := mem.MarketDailySnapshot(ctx, domain.SnapshotID{Parent: "0xcollection", Bucket: dayOne})
	if !daily.DailyMinSalePrice.Equal(decimal.NewFromInt(1)) || !daily.DailyMaxSalePrice.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("day one extrema: min=%s max=%s", daily.DailyMinSalePrice, daily.DailyMaxSalePrice)
	}
	if daily.DailyTradedItemCount != 2 {
		t.Fatalf("an item trading twice in a day counts once: %d", daily.DailyTradedItemCount)
	}
	if !daily.DailyTradeVolumeETH.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("day one volume: %s", daily.DailyTradeVolumeETH)
	}

	protoDayOne, _ := mem.ProtocolDailySnapshot(ctx, domain.SnapshotID{Parent: ident.Address, Bucket: dayOne})
	if protoDayOne.DailyActiveTraders != 3 {
		t.Fatalf("expected 3 active traders on day one (2 buyers + 1 seller), got %d", protoDayOne.DailyActiveTraders)
	}
	if protoDayOne.DailyTradedCollectionCount != 1 {
		t.Fatalf("one collection traded on day one, got %d", protoDayOne.DailyTradedCollectionCount)
	}

	// day two opens fresh buckets: extrema reseeded, traders recounted
	dayTwo := domain.DayIndex(dayTwoNoon)
	dailyTwo, _ := mem.MarketDailySnapshot(ctx, domain.SnapshotID{Parent: "0xcollection", Bucket: dayTwo})
	if !dailyTwo.DailyMinSalePrice.Equal(decimal.NewFromInt(2)) || !dailyTwo.DailyMaxSalePrice.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("day two extrema: min=%s max=%s", dailyTwo.DailyMinSalePrice, dailyTwo.DailyMaxSalePrice)
	}
	if dailyTwo.DailyTradedItemCount != 1 {
		t.Fatalf("item uniqueness resets per day: %d", dailyTwo.DailyTradedItemCount)
	}

	protoDayTwo, _ := mem.ProtocolDailySnapshot(ctx, domain.SnapshotID{Parent: ident.Address, Bucket: dayTwo})
	if protoDayTwo.DailyActiveTraders != 2 {
		t.Fatalf("expected 2 active traders on day two, got %d", protoDayTwo.DailyActiveTraders)
	}

	// lifetime counters keep the whole span
	proto, _ := mem.Protocol(ctx, ident.Address)
	if proto.CumulativeUniqueTraders != 3 {
		t.Fatalf("lifetime traders: %d", proto.CumulativeUniqueTraders)
	}
	if proto.TradeCount != 4 {
		t.Fatalf("lifetime trades: %d", proto.TradeCount)
	}
}

func TestTrade_UnknownStrategyZeroFee(t *testing.T) {
	t.Parallel()

	// strategy address outside every configured set, fee read reverts
	reader := chain.NewStaticReader()
	e, mem := newTestEngine(t, reader)
	ctx := context.Background()
	ident := marketplaceIdent()

	meta, p := tradeAt("0xtrade", 0, dayOneNoon, "0xbuyer", "0xseller", big.NewInt(1), eth(1))
	p.Strategy = "0xrogue"

	if err := e.HandleTrade(ctx, ident, meta, p); err != nil {
		t.Fatalf("trade: %v", err)
	}

	s, _ := mem.Strategy(ctx, "0xrogue")
	if s == nil || s.SaleStrategy != domain.SaleStrategyUnknown {
		t.Fatalf("strategy classification: %+v", s)
	}
	if !s.ProtocolFee.IsZero() {
		t.Fatalf("unreadable fee must stay zero: %s", s.ProtocolFee)
	}

	c, _ := mem.Market(ctx, "0xcollection")
	if !c.MarketplaceRevenueETH.IsZero() {
		t.Fatalf("zero fee must produce zero revenue: %s", c.MarketplaceRevenueETH)
	}
	if !c.CumulativeTradeVolumeETH.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("volume still counts: %s", c.CumulativeTradeVolumeETH)
	}
}

func TestCollectionCreatedOnce(t *testing.T) {
	t.Parallel()

	e, mem := newTestEngine(t, newTradeReader(t))
	ctx := context.Background()
	ident := marketplaceIdent()

	for i := uint32(0); i < 3; i++ {
		meta, p := tradeAt("0xtrade", i, dayOneNoon, "0xbuyer", "0xseller", big.NewInt(int64(i)), eth(1))
		if err := e.HandleTrade(ctx, ident, meta, p); err != nil {
			t.Fatalf("trade %d: %v", i, err)
		}
	}

	proto, _ := mem.Protocol(ctx, ident.Address)
	if proto.CollectionCount != 1 {
		t.Fatalf("collection counter bumped %d times", proto.CollectionCount)
	}
}

func TestRoyaltyPayment_RevenueOnly(t *testing.T) {
	t.Parallel()

	e, mem := newTestEngine(t, newTradeReader(t))
	ctx := context.Background()
	ident := marketplaceIdent()

	meta := metaAt("0xroyalty", 1, dayOneNoon)
	err := e.HandleRoyaltyPayment(ctx, ident, meta, domain.RoyaltyPaymentParams{
		Collection: "0xcollection",
		Currency:   "0xweth",
		Amount:     eth(1),
	})
	if err != nil {
		t.Fatalf("royalty payment: %v", err)
	}

	one := decimal.NewFromInt(1)

	c, _ := mem.Market(ctx, "0xcollection")
	if !c.CreatorRevenueETH.Equal(one) || !c.TotalRevenueETH.Equal(one) {
		t.Fatalf("collection revenue: %+v", c)
	}
	if c.TradeCount != 0 || !c.MarketplaceRevenueETH.IsZero() {
		t.Fatalf("royalties must not move trade counters: %+v", c)
	}

	proto, _ := mem.Protocol(ctx, ident.Address)
	if !proto.CreatorRevenueETH.Equal(one) || !proto.TotalRevenueETH.Equal(one) {
		t.Fatalf("protocol revenue: %+v", proto)
	}

	rec, _ := mem.EventRecord(ctx, "0xroyalty-1")
	if rec == nil || rec.Kind != domain.KindRoyaltyPayment {
		t.Fatalf("royalty record: %+v", rec)
	}

	// redelivery is a no-op
	if err = e.HandleRoyaltyPayment(ctx, ident, meta, domain.RoyaltyPaymentParams{
		Collection: "0xcollection", Currency: "0xweth", Amount: eth(1),
	}); err != nil {
		t.Fatalf("redelivered royalty: %v", err)
	}
	proto, _ = mem.Protocol(ctx, ident.Address)
	if !proto.CreatorRevenueETH.Equal(one) {
		t.Fatalf("redelivered royalty counted twice: %s", proto.CreatorRevenueETH)
	}
}

func TestRoyaltyFeeUpdate_Gauge(t *testing.T) {
	t.Parallel()

	e, mem := newTestEngine(t, newTradeReader(t))
	ctx := context.Background()
	ident := marketplaceIdent()

	meta := metaAt("0xfee", 0, dayOneNoon)
	if err := e.HandleRoyaltyFeeUpdate(ctx, ident, meta, domain.RoyaltyFeeParams{
		Collection: "0xcollection",
		Fee:        big.NewInt(250),
	}); err != nil {
		t.Fatalf("royalty fee: %v", err)
	}

	c, _ := mem.Market(ctx, "0xcollection")
	if !c.RoyaltyFee.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("royalty fee gauge: %s", c.RoyaltyFee)
	}

	// the gauge replaces, never accumulates
	if err := e.HandleRoyaltyFeeUpdate(ctx, ident, metaAt("0xfee", 1, dayOneNoon), domain.RoyaltyFeeParams{
		Collection: "0xcollection",
		Fee:        big.NewInt(100),
	}); err != nil {
		t.Fatalf("second royalty fee: %v", err)
	}
	c, _ = mem.Market(ctx, "0xcollection")
	if !c.RoyaltyFee.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("royalty fee must be replaced: %s", c.RoyaltyFee)
	}
}

func TestTrade_NilPriceTreatedAsZero(t *testing.T) {
	t.Parallel()

	e, mem := newTestEngine(t, newTradeReader(t))
	ctx := context.Background()
	ident := marketplaceIdent()

	meta, p := tradeAt("0xnilprice", 0, dayOneNoon, "0xbuyer", "0xseller", big.NewInt(7), nil)
	if err := e.HandleTrade(ctx, ident, meta, p); err != nil {
		t.Fatalf("trade with nil price: %v", err)
	}

	c, _ := mem.Market(ctx, "0xcollection")
	if c == nil {
		t.Fatalf("collection must be created")
	}
	if c.TradeCount != 1 {
		t.Fatalf("TradeCount = %d, want 1", c.TradeCount)
	}
	if !c.CumulativeTradeVolumeETH.IsZero() {
		t.Fatalf("volume = %s, want 0", c.CumulativeTradeVolumeETH)
	}

	rec, _ := mem.EventRecord(ctx, "0xnilprice-0")
	if rec == nil {
		t.Fatalf("event record must exist")
	}
	if !rec.PriceETH.IsZero() {
		t.Fatalf("PriceETH = %s, want 0", rec.PriceETH)
	}
}

func TestRoyaltyPayment_NilAmountAddsNothing(t *testing.T) {
	t.Parallel()

	e, mem := newTestEngine(t, newTradeReader(t))
	ctx := context.Background()
	ident := marketplaceIdent()

	err := e.HandleRoyaltyPayment(ctx, ident, metaAt("0xnilroy", 0, dayOneNoon), domain.RoyaltyPaymentParams{
		Collection: "0xcollection",
		Currency:   "0xweth",
	})
	if err != nil {
		t.Fatalf("royalty with nil amount: %v", err)
	}

	c, _ := mem.Market(ctx, "0xcollection")
	if !c.CreatorRevenueETH.IsZero() || !c.TotalRevenueETH.IsZero() {
		t.Fatalf("nil amount must add nothing: %+v", c)
	}
}
