package deployments

import (
	"errors"
	"strings"
)

// ZeroAddress is the sentinel identity used when a network cannot be
// resolved; processing continues against it instead of crashing the stream.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

var ErrUnsupportedNetwork = errors.New("unsupported network")

// Known network identifiers.
const (
	NetworkMainnet   = "mainnet"
	NetworkAvalanche = "avalanche"
	NetworkMatic     = "matic"
)

// Deployment is the immutable per-network configuration resolved once per
// event: protocol identity, version strings, quote currency and the static
// sale-strategy address sets.
type Deployment struct {
	ProtocolAddress    string
	Network            string
	Name               string
	Slug               string
	SchemaVersion      string
	SubgraphVersion    string
	MethodologyVersion string

	// marketplace: only trades settled in this currency count
	QuoteCurrency string

	// lending: reward token emitted by the incentive controller
	RewardToken string

	StandardSaleStrategies   []string
	CollectionSaleStrategies []string
	PrivateSaleStrategies    []string
}

var table = map[string]Deployment{
	NetworkMainnet: {
		ProtocolAddress:    "0x59728544b08ab483533076417fbbb2fd0b17ce3a",
		Network:            NetworkMainnet,
		Name:               "LooksRare",
		Slug:               "looksrare",
		SchemaVersion:      "2.0.1",
		SubgraphVersion:    "1.2.15",
		MethodologyVersion: "1.0.0",
		QuoteCurrency:      "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", // WETH
		RewardToken:        "0x55c08ca52497e2f1534b59e2917bf524d4765257",
		StandardSaleStrategies: []string{
			"0x56244bb70cbd3ea9dc8007399f61dfc065190031",
			"0x579af6fd30bf83a5ac0d636bc619f98dbdeb930c",
		},
		CollectionSaleStrategies: []string{
			"0x86f909f70813cdb1bc733f4d97dc6b03b8e7e8f3",
			"0x09f93623019049c76209c26517acc2af9d49c69b",
		},
		PrivateSaleStrategies: []string{
			"0x58d83536d3efedb9f7f2a1ec3bdaad2b1a4dd98c",
		},
	},
	NetworkAvalanche: {
		ProtocolAddress:    "0xb6a86025f0fe1862b372cb0ca18ce3ede02a318f",
		Network:            NetworkAvalanche,
		Name:               "Aave v2",
		Slug:               "aave-v2",
		SchemaVersion:      "2.0.1",
		SubgraphVersion:    "1.2.15",
		MethodologyVersion: "1.0.0",
		QuoteCurrency:      "0x49d5c2bdffac6ce2bfdb6640f4f80f226bc10bab",
		RewardToken:        "0x63a72806098bd3d9520cc43356dd78afe5d386d9",
	},
	NetworkMatic: {
		ProtocolAddress:    "0xd05e3e715d945b59290df0ae8ef85c1bdb684744",
		Network:            NetworkMatic,
		Name:               "Aave v2",
		Slug:               "aave-v2",
		SchemaVersion:      "2.0.1",
		SubgraphVersion:    "1.2.15",
		MethodologyVersion: "1.0.0",
		QuoteCurrency:      "0x7ceb23fd6bc0add59e62ac25578270cff1b9f619",
		RewardToken:        "0x0d500b1d8e8ef31e21c99d1db9a6444d3adf1270",
	},
}

// Resolve maps a network identifier onto its deployment. Unknown networks
// return ErrUnsupportedNetwork; the caller logs and degrades to a
// zero-address identity rather than aborting.
func Resolve(networkID string) (Deployment, error) {
	d, ok := table[canon(networkID)]
	if !ok {
		return Deployment{}, ErrUnsupportedNetwork
	}
	return d, nil
}

func canon(network string) string {
	return strings.ToLower(strings.ReplaceAll(network, "-", "_"))
}
