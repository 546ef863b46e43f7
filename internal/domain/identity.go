package domain

// ProtocolIdentity is the resolved per-deployment configuration view the
// dispatcher hands to every handler call: protocol identity strings plus the
// static addresses the handlers need. Immutable; a zero-address identity is
// the degraded form used when network resolution fails.
type ProtocolIdentity struct {
	Address            string
	Name               string
	Slug               string
	SchemaVersion      string
	SubgraphVersion    string
	MethodologyVersion string
	Network            string

	QuoteCurrency string
	RewardToken   string

	StandardSaleStrategies   []string
	CollectionSaleStrategies []string
	PrivateSaleStrategies    []string
}
