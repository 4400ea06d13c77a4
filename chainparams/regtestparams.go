package chainparams

import "github.com/minblock/qtipd/internal/config"

// regtestParams are the chain parameters for the regression test network,
// tuned for the seed scenarios in spec.md §8 (e.g. a genesis statement
// height reachable in a handful of generated blocks).
var regtestParams = &Params{
	Name:    "regtest",
	Network: config.Regtest,

	TierBurn: map[Tier]int64{
		TierT1:  1_00 * Unit,
		TierT5:  5_00 * Unit,
		TierT10: 10_00 * Unit,
	},
	TierLimit: map[Tier]int{
		TierT1:  50,
		TierT5:  20,
		TierT10: 10,
	},
	TierLifetime: map[Tier]int64{
		TierT1:  1_000_000,
		TierT5:  1_000_000,
		TierT10: 1_000_000,
	},

	InfinityBeginHeight:            0,
	InfinityGenesisStatementHeight: 110,

	BurnAddressScriptHash:       scriptHash("burn-address-regtest"),
	MetadataAddressScriptHash:   scriptHash("metadata-address-regtest"),
	GovernanceAddressScriptHash: scriptHash("governance-address-regtest"),

	MaxReorgDepth:   5,
	LWMAStartHeight: 0,
	LWMAWindow:      45,

	PaidScanDepthForkHeight: 1 << 40,
	PaidScanDepthCapped:     800,
}
