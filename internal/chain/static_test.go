package chain

import (
	"math/big"
	"testing"
)

func TestStaticReader_UnconfiguredReverts(t *testing.T) {
	t.Parallel()

	r := NewStaticReader()

	res := r.TryCall("0xany", "decimals")
	if !res.Reverted {
		t.Fatalf("unconfigured call must revert")
	}
	if res.BigInt() != nil || res.String() != "" || res.Bool() || res.Int32() != 0 {
		t.Fatalf("reverted result must read as zero values")
	}
}

func TestStaticReader_SetAndRevert(t *testing.T) {
	t.Parallel()

	r := NewStaticReader().
		Set("0xtoken", "decimals", int32(6)).
		Set("0xtoken", "symbol", "USDC").
		Revert("0xtoken", "name")

	if got := r.TryCall("0xtoken", "decimals").Int32(); got != 6 {
		t.Fatalf("decimals: %d", got)
	}
	if got := r.TryCall("0xtoken", "symbol").String(); got != "USDC" {
		t.Fatalf("symbol: %s", got)
	}
	if !r.TryCall("0xtoken", "name").Reverted {
		t.Fatalf("explicit revert must revert")
	}
}

func TestCallKey_CaseInsensitiveAddresses(t *testing.T) {
	t.Parallel()

	r := NewStaticReader().
		Set("0xABCDEF", "getAssetPrice", big.NewInt(100), "0xTOKEN")

	res := r.TryCall("0xabcdef", "getAssetPrice", "0xtoken")
	if res.Reverted {
		t.Fatalf("address and string-arg case must not matter")
	}
	if res.BigInt().Int64() != 100 {
		t.Fatalf("value: %s", res.BigInt())
	}
}

func TestCallKey_ArgsDisambiguate(t *testing.T) {
	t.Parallel()

	r := NewStaticReader().
		Set("0xoracle", "getAssetPrice", big.NewInt(1), "0xweth").
		Set("0xoracle", "getAssetPrice", big.NewInt(2), "0xdai")

	if got := r.TryCall("0xoracle", "getAssetPrice", "0xweth").BigInt().Int64(); got != 1 {
		t.Fatalf("weth price: %d", got)
	}
	if got := r.TryCall("0xoracle", "getAssetPrice", "0xdai").BigInt().Int64(); got != 2 {
		t.Fatalf("dai price: %d", got)
	}
	if !r.TryCall("0xoracle", "getAssetPrice", "0xusdc").Reverted {
		t.Fatalf("unknown arg must revert")
	}
}

func TestResult_MistypedReadsAsZero(t *testing.T) {
	t.Parallel()

	r := NewStaticReader().Set("0xtoken", "symbol", 12345)

	if got := r.TryCall("0xtoken", "symbol").String(); got != "" {
		t.Fatalf("mistyped value must read as empty string, got %q", got)
	}
}
