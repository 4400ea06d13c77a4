package chainparams

import "github.com/minblock/qtipd/internal/config"

// testnetParams are the chain parameters for the public test network.
var testnetParams = &Params{
	Name:    "testnet",
	Network: config.Testnet,

	TierBurn: map[Tier]int64{
		TierT1:  1_000 * Unit,
		TierT5:  5_000 * Unit,
		TierT10: 10_000 * Unit,
	},
	TierLimit: map[Tier]int{
		TierT1:  2500,
		TierT5:  1000,
		TierT10: 500,
	},
	TierLifetime: map[Tier]int64{
		TierT1:  50_000,
		TierT5:  50_000,
		TierT10: 50_000,
	},

	InfinityBeginHeight:            1000,
	InfinityGenesisStatementHeight: 1000,

	BurnAddressScriptHash:       scriptHash("burn-address-testnet"),
	MetadataAddressScriptHash:   scriptHash("metadata-address-testnet"),
	GovernanceAddressScriptHash: scriptHash("governance-address-testnet"),

	MaxReorgDepth:   5,
	LWMAStartHeight: 1000,
	LWMAWindow:      45,

	PaidScanDepthForkHeight: 1,
	PaidScanDepthCapped:     800,
}

// finalnetParams are the chain parameters for the pre-mainnet final test
// network (spec.md §9: Mainnet|Testnet|Finalnet|Regtest).
var finalnetParams = &Params{
	Name:    "finalnet",
	Network: config.Finalnet,

	TierBurn: map[Tier]int64{
		TierT1:  1_000 * Unit,
		TierT5:  5_000 * Unit,
		TierT10: 10_000 * Unit,
	},
	TierLimit: map[Tier]int{
		TierT1:  2500,
		TierT5:  1000,
		TierT10: 500,
	},
	TierLifetime: map[Tier]int64{
		TierT1:  50_000,
		TierT5:  50_000,
		TierT10: 50_000,
	},

	InfinityBeginHeight:            1000,
	InfinityGenesisStatementHeight: 1000,

	BurnAddressScriptHash:       scriptHash("burn-address-finalnet"),
	MetadataAddressScriptHash:   scriptHash("metadata-address-finalnet"),
	GovernanceAddressScriptHash: scriptHash("governance-address-finalnet"),

	MaxReorgDepth:   5,
	LWMAStartHeight: 1000,
	LWMAWindow:      45,

	PaidScanDepthForkHeight: 1,
	PaidScanDepthCapped:     800,
}
