package chainparams

import "github.com/minblock/qtipd/internal/config"

// mainnetParams are the chain parameters for the main network.
var mainnetParams = &Params{
	Name:    "mainnet",
	Network: config.Mainnet,

	TierBurn: map[Tier]int64{
		TierT1:  100_000 * Unit,
		TierT5:  500_000 * Unit,
		TierT10: 1_000_000 * Unit,
	},
	TierLimit: map[Tier]int{
		TierT1:  2500,
		TierT5:  1000,
		TierT10: 500,
	},
	TierLifetime: map[Tier]int64{
		TierT1:  262_800, // ~1 year at 120s blocks
		TierT5:  262_800,
		TierT10: 262_800,
	},

	InfinityBeginHeight:            170000,
	InfinityGenesisStatementHeight: 170000,

	BurnAddressScriptHash:       scriptHash("burn-address-mainnet"),
	MetadataAddressScriptHash:   scriptHash("metadata-address-mainnet"),
	GovernanceAddressScriptHash: scriptHash("governance-address-mainnet"),

	MaxReorgDepth:    55,
	LWMAStartHeight:  100000,
	LWMAWindow:       45,

	// The original client capped the coinbase-rescan depth to 800 blocks
	// starting at height 350000; see spec.md §9 REDESIGN FLAG.
	PaidScanDepthForkHeight: 350000,
	PaidScanDepthCapped:     800,
}
