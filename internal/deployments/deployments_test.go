package deployments

import (
	"errors"
	"testing"
)

func TestResolve_KnownNetworks(t *testing.T) {
	t.Parallel()

	mainnet, err := Resolve(NetworkMainnet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mainnet.Name != "LooksRare" {
		t.Fatalf("expected LooksRare on mainnet, got %s", mainnet.Name)
	}
	if mainnet.QuoteCurrency == "" {
		t.Fatalf("mainnet must carry a quote currency")
	}
	if len(mainnet.StandardSaleStrategies) == 0 ||
		len(mainnet.CollectionSaleStrategies) == 0 ||
		len(mainnet.PrivateSaleStrategies) == 0 {
		t.Fatalf("mainnet must carry all three strategy sets")
	}

	for _, network := range []string{NetworkAvalanche, NetworkMatic} {
		d, rerr := Resolve(network)
		if rerr != nil {
			t.Fatalf("unexpected error for %s: %v", network, rerr)
		}
		if d.Name != "Aave v2" {
			t.Fatalf("expected Aave v2 on %s, got %s", network, d.Name)
		}
		if d.RewardToken == "" {
			t.Fatalf("%s must carry a reward token", network)
		}
	}
}

func TestResolve_Canonicalization(t *testing.T) {
	t.Parallel()

	for _, variant := range []string{"MAINNET", "Mainnet", "mainnet"} {
		if _, err := Resolve(variant); err != nil {
			t.Fatalf("expected %q to resolve, got %v", variant, err)
		}
	}
}

func TestResolve_UnknownNetwork(t *testing.T) {
	t.Parallel()

	_, err := Resolve("moonbase")
	if !errors.Is(err, ErrUnsupportedNetwork) {
		t.Fatalf("expected ErrUnsupportedNetwork, got %v", err)
	}
}
