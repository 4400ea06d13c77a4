// Package chainparams holds the per-network constants this subsystem reads:
// burn tiers, registry caps, governance/metadata addresses, and the few
// historical fork heights the original client hard-coded (spec.md §4.A,
// §9). All reads are pure lookups; a Params value never mutates after
// network selection, following the teacher's own chaincfg/dagconfig
// pattern of one struct literal per network.
package chainparams

import "github.com/minblock/qtipd/internal/config"

// Tier is one of the three supported infinity-node sizes.
type Tier int

// Supported tiers, plus the unknown sentinel used when a burn value
// matches no tier (spec.md §3).
const (
	TierUnknown Tier = iota
	TierT1
	TierT5
	TierT10
)

func (t Tier) String() string {
	switch t {
	case TierT1:
		return "T1"
	case TierT5:
		return "T5"
	case TierT10:
		return "T10"
	default:
		return "unknown"
	}
}

// Unit is the coin's smallest divisible unit (spec.md §3 tier invariant).
const Unit = 100_000_000

// InfMaturedLimit is the number of blocks a burn must sit behind the tip
// before it is considered matured (spec.md §3, §4.B).
const InfMaturedLimit = 55

// SignaturesRequired / SignaturesTotal are the vote-quorum constants from
// spec.md GLOSSARY ("6 of 30 votes constitute a confirmed winner").
const (
	SignaturesRequired = 6
	SignaturesTotal    = 30
)

// VoteValue is the burn amount (in Unit) used for a governance/legacy vote
// output (spec.md §4.B).
const VoteValue = 1

// Params is a network's full set of constants. Select one with ForNetwork
// at startup; it is never mutated afterward (spec.md §4.A).
type Params struct {
	Name    string
	Network config.Network

	// TierBurn[t] is the exact burn amount B_t, in satoshi-equivalent
	// units, for tier t.
	TierBurn map[Tier]int64

	// TierLimit[t] is the registry cap L_t for tier t.
	TierLimit map[Tier]int

	// TierLifetime[t] is the tier-dependent deterministic age (in
	// blocks) after which a node of tier t expires (spec.md §3
	// InfinityNode lifecycle: "considered expired after a tier-dependent
	// deterministic age"). original_source/src/infinitynodeman.cpp calls
	// CInfinitynode::getExpireHeight() but that method lives in
	// infinitynode.cpp/.h, which were not part of the retrieved source;
	// the per-tier block counts below are this module's Open Question
	// decision, recorded in DESIGN.md.
	TierLifetime map[Tier]int64

	InfinityBeginHeight             int64
	InfinityGenesisStatementHeight  int64
	BurnAddressScriptHash           [20]byte
	MetadataAddressScriptHash       [20]byte
	GovernanceAddressScriptHash     [20]byte
	MaxReorgDepth                   int64
	LWMAStartHeight                 int64
	LWMAWindow                      int64

	// PaidScanDepthForkHeight is the height at which paid_scan_depth
	// switches from max(L_T1, L_T5, L_T10) to the capped value below
	// (spec.md §4.B, §9 REDESIGN FLAG: "document as a chain-params
	// constant rather than a hard-coded literal").
	PaidScanDepthForkHeight int64
	PaidScanDepthCapped     int64
}

// TierForBurnValue returns the tier whose burn range (B_t-1, B_t] contains
// value, or TierUnknown. Boundary per spec.md §8: value == B_t registers as
// t, value == B_t+1 registers as unknown.
func (p *Params) TierForBurnValue(value int64) Tier {
	for _, t := range []Tier{TierT1, TierT5, TierT10} {
		b := p.TierBurn[t]
		if value > b-1 && value <= b {
			return t
		}
	}
	return TierUnknown
}

// ExpireHeight returns the height at which a node of tier t born at
// burnHeight expires.
func (p *Params) ExpireHeight(t Tier, burnHeight int64) int64 {
	return burnHeight + p.TierLifetime[t]
}

// PaidScanDepth returns the coinbase-rescan depth for tip height h, per
// spec.md §4.B: capped at PaidScanDepthCapped after PaidScanDepthForkHeight,
// otherwise the largest tier registry cap.
func (p *Params) PaidScanDepth(tip int64) int64 {
	if tip >= p.PaidScanDepthForkHeight {
		return p.PaidScanDepthCapped
	}
	max := 0
	for _, t := range []Tier{TierT1, TierT5, TierT10} {
		if l := p.TierLimit[t]; l > max {
			max = l
		}
	}
	return int64(max)
}

// Standard pay-to-pubkey-hash opcodes, used to render the one script this
// subsystem needs to build itself rather than ask the external script
// engine for: the canonical "pay to the burn address" output used as the
// tier-burn fallback payee (spec.md §4.H, GLOSSARY "Burn address").
const (
	opDup         = 0x76
	opHash160     = 0xa9
	opData20      = 0x14
	opEqualVerify = 0x88
	opCheckSig    = 0xac
)

// BurnScript renders the canonical pay-to-burn-address script for p's
// network: a standard P2PKH output over BurnAddressScriptHash. Coinbase
// outputs are compared against this byte-for-byte when checking the
// tier-burn fallback (spec.md §4.H).
func (p *Params) BurnScript() []byte {
	script := make([]byte, 0, 25)
	script = append(script, opDup, opHash160, opData20)
	script = append(script, p.BurnAddressScriptHash[:]...)
	script = append(script, opEqualVerify, opCheckSig)
	return script
}

// RewardFunc is GetMasternodePayment: the coin amount owed to tier t at
// height h. Defined in consensus tables outside this subsystem's scope and
// treated as a black box here (spec.md §4.J).
type RewardFunc func(height int64, tier Tier) int64

// ForNetwork returns the constant set for the named network (spec.md §9:
// "represent as a tagged configuration record chosen at startup").
func ForNetwork(n config.Network) *Params {
	switch n {
	case config.Testnet:
		return testnetParams
	case config.Finalnet:
		return finalnetParams
	case config.Regtest:
		return regtestParams
	default:
		return mainnetParams
	}
}
