// Package infinitynode implements component C of the payment subsystem:
// the matured/non-matured infinity-node registry, keyed by burn outpoint,
// with tier classification and rank derivation (spec.md §4.C). Grounded on
// original_source/src/infinitynodeman.h's CInfinitynodeMan member layout
// (mapInfinitynodes / mapInfinitynodesNonMatured / mapLastPaid, one
// mutex for the node maps and a separate one for mapLastPaid).
package infinitynode

import (
	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/internal/chainio"
)

// Node is an infinity-node derived from a matured burn transaction
// (spec.md §3 InfinityNode).
type Node struct {
	BurnOutpoint chainio.Outpoint
	Tier         chainparams.Tier
	BurnHeight   int64
	BurnValue    int64
	ScriptPubKey []byte

	// CollateralAddress is derived from the input being spent by the
	// burn transaction's vin[0] (spec.md §3).
	CollateralAddress string
	// BackupAddress is optional, taken from the burn payload's second
	// data push when present and decodable.
	BackupAddress string
	// OperatorAddress is the "<node-address>" identity token carried by
	// a metadata update's payload (spec.md §4.B MetadataUpdate).
	OperatorAddress string
	// Service is the optional "ip[:port]" advertised via the same
	// metadata update.
	Service string

	MetadataHeight   int64
	LastRewardHeight int64
	Rank             int
}

// ExpireHeight returns the height at which n expires, per params' tier
// lifetime table (spec.md §3 lifecycle).
func (n *Node) ExpireHeight(params *chainparams.Params) int64 {
	return params.ExpireHeight(n.Tier, n.BurnHeight)
}

// Clone returns a shallow copy of n, used whenever the registry hands a
// node out to a caller so the caller can't mutate registry state without
// going through the registry's own setters.
func (n *Node) Clone() *Node {
	c := *n
	return &c
}
