package infinitynode

import (
	"sort"
	"sync"

	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/internal/chainio"
)

// Registry owns the matured and non-matured node maps, the per-payee
// last-paid map, and the rank-derivation functions (spec.md §4.C). A
// single mutex (cs) guards the node maps; mapLastPaid has its own mutex so
// the scanner and the validator don't contend with each other (spec.md
// §4.C Concurrency, §5).
type Registry struct {
	params *chainparams.Params

	cs         sync.Mutex
	matured    map[chainio.Outpoint]*Node
	nonMatured map[chainio.Outpoint]*Node
	// collateralIndex maps a collateral address to the outpoint of the
	// (at most one) matured node it controls, so metadata updates
	// (identified by collateral address) can find their node in O(1)
	// without a linear scan of the matured map.
	collateralIndex map[string]chainio.Outpoint

	lastPaidMu sync.Mutex
	lastPaid   map[string]int64 // key: string(ScriptPubKey)
}

// NewRegistry returns an empty registry for the given network parameters.
func NewRegistry(params *chainparams.Params) *Registry {
	return &Registry{
		params:          params,
		matured:         make(map[chainio.Outpoint]*Node),
		nonMatured:      make(map[chainio.Outpoint]*Node),
		collateralIndex: make(map[string]chainio.Outpoint),
		lastPaid:        make(map[string]int64),
	}
}

// Add inserts node into the matured or non-matured map, per spec.md §4.B's
// maturity rule for the caller (the scanner decides maturity; Add just
// records where it was told to put the node).
func (r *Registry) Add(node *Node, matured bool) {
	r.cs.Lock()
	defer r.cs.Unlock()
	if matured {
		r.matured[node.BurnOutpoint] = node
		if node.CollateralAddress != "" {
			r.collateralIndex[node.CollateralAddress] = node.BurnOutpoint
		}
		delete(r.nonMatured, node.BurnOutpoint)
	} else {
		r.nonMatured[node.BurnOutpoint] = node
	}
}

// ReplaceNonMatured swaps in a freshly-recomputed non-matured map, as the
// scanner does at the end of every successful scan (spec.md §4.B: "On
// success ... mapInfinitynodesNonMatured is replaced").
func (r *Registry) ReplaceNonMatured(nodes map[chainio.Outpoint]*Node) {
	r.cs.Lock()
	defer r.cs.Unlock()
	r.nonMatured = nodes
}

// Find returns the matured node at outpoint, if any.
func (r *Registry) Find(outpoint chainio.Outpoint) (*Node, bool) {
	r.cs.Lock()
	defer r.cs.Unlock()
	n, ok := r.matured[outpoint]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Has reports whether outpoint is a known matured node.
func (r *Registry) Has(outpoint chainio.Outpoint) bool {
	r.cs.Lock()
	defer r.cs.Unlock()
	_, ok := r.matured[outpoint]
	return ok
}

// Count returns the number of matured nodes.
func (r *Registry) Count() int {
	r.cs.Lock()
	defer r.cs.Unlock()
	return len(r.matured)
}

// FullMap returns a shallow copy of the matured node map.
func (r *Registry) FullMap() map[chainio.Outpoint]*Node {
	r.cs.Lock()
	defer r.cs.Unlock()
	out := make(map[chainio.Outpoint]*Node, len(r.matured))
	for k, v := range r.matured {
		out[k] = v.Clone()
	}
	return out
}

// NonMaturedMap returns a shallow copy of the non-matured node map. Entries
// here are recomputed each scan and never participate in ranking or
// statements (spec.md §3).
func (r *Registry) NonMaturedMap() map[chainio.Outpoint]*Node {
	r.cs.Lock()
	defer r.cs.Unlock()
	out := make(map[chainio.Outpoint]*Node, len(r.nonMatured))
	for k, v := range r.nonMatured {
		out[k] = v.Clone()
	}
	return out
}

// UpdateMetadata applies a metadata update (spec.md §4.B MetadataUpdate,
// §4.C update_metadata). It is a no-op if no matured node is known for
// collateral, or if height is not newer than the node's current
// MetadataHeight — the metadata-height guard from spec.md §8 scenario 4
// ("re-applying the height-100 update is rejected").
func (r *Registry) UpdateMetadata(collateral, nodeAddress, service string, height int64) bool {
	r.cs.Lock()
	defer r.cs.Unlock()
	op, ok := r.collateralIndex[collateral]
	if !ok {
		return false
	}
	node := r.matured[op]
	if node == nil {
		return false
	}
	if height <= node.MetadataHeight {
		return false
	}
	node.OperatorAddress = nodeAddress
	node.Service = service
	node.MetadataHeight = height
	return true
}

// UpdateLastPaid records the highest height at which scriptPubKey was seen
// as a coinbase payee (spec.md §4.B: "keeping the maximum height per
// script"). Guarded by its own mutex (spec.md §4.C Concurrency).
func (r *Registry) UpdateLastPaid(scriptPubKey []byte, height int64) {
	r.lastPaidMu.Lock()
	defer r.lastPaidMu.Unlock()
	key := string(scriptPubKey)
	if h, ok := r.lastPaid[key]; !ok || height > h {
		r.lastPaid[key] = height
	}
}

// LastPaidHeight returns the last recorded paid height for scriptPubKey.
func (r *Registry) LastPaidHeight(scriptPubKey []byte) (int64, bool) {
	r.lastPaidMu.Lock()
	defer r.lastPaidMu.Unlock()
	h, ok := r.lastPaid[string(scriptPubKey)]
	return h, ok
}

// FullLastPaidMap returns a copy of the last-paid map, keyed by script
// bytes, for persistence (component I).
func (r *Registry) FullLastPaidMap() map[string]int64 {
	r.lastPaidMu.Lock()
	defer r.lastPaidMu.Unlock()
	out := make(map[string]int64, len(r.lastPaid))
	for k, v := range r.lastPaid {
		out[k] = v
	}
	return out
}

// LoadLastPaidMap replaces the last-paid map wholesale, used when
// restoring a snapshot (component I).
func (r *Registry) LoadLastPaidMap(m map[string]int64) {
	r.lastPaidMu.Lock()
	defer r.lastPaidMu.Unlock()
	r.lastPaid = m
}

// byBurnOrder sorts nodes ascending by (burn_height, burn_outpoint), the
// tie-break order used by both CalcRank and the statement schedule
// (spec.md §3 Statement contract, §4.C rank algorithm).
func byBurnOrder(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].BurnHeight != nodes[j].BurnHeight {
			return nodes[i].BurnHeight < nodes[j].BurnHeight
		}
		return nodes[i].BurnOutpoint.Less(nodes[j].BurnOutpoint)
	})
}

// CalcRank computes the rank-1..N ordering of every non-expired,
// already-confirmed node of tier at blockHeight: burn_height < blockHeight
// <= expire_height, sorted ascending by (burn_height, burn_outpoint)
// (spec.md §4.C). If persist, the computed rank is written back onto the
// registry's own node records.
func (r *Registry) CalcRank(blockHeight int64, tier chainparams.Tier, persist bool) map[int]*Node {
	r.cs.Lock()
	defer r.cs.Unlock()
	return r.calcRankLocked(blockHeight, tier, persist)
}

func (r *Registry) calcRankLocked(blockHeight int64, tier chainparams.Tier, persist bool) map[int]*Node {
	var candidates []*Node
	for _, n := range r.matured {
		if n.Tier != tier {
			continue
		}
		expire := n.ExpireHeight(r.params)
		if n.BurnHeight < blockHeight && blockHeight <= expire {
			candidates = append(candidates, n)
		}
	}
	byBurnOrder(candidates)

	out := make(map[int]*Node, len(candidates))
	for i, n := range candidates {
		rank := i + 1
		if persist {
			n.Rank = rank
			out[rank] = n
		} else {
			cp := n.Clone()
			cp.Rank = rank
			out[rank] = cp
		}
	}
	return out
}

// CountActive returns the number of non-expired, confirmed nodes of tier
// at blockHeight, the quantity the statement-schedule loop advances by
// (spec.md §4.D).
func (r *Registry) CountActive(blockHeight int64, tier chainparams.Tier) int {
	r.cs.Lock()
	defer r.cs.Unlock()
	n := 0
	for _, node := range r.matured {
		if node.Tier != tier {
			continue
		}
		if node.BurnHeight < blockHeight && blockHeight <= node.ExpireHeight(r.params) {
			n++
		}
	}
	return n
}

// ROI returns the integer days-to-ROI for a node of tier burning
// burnAmount, given totalNodes currently ranked in that tier and the
// chain's per-block payout for the tier at height (spec.md §4.C get_roi:
// "burn_amount / ((720 / total_nodes) × payout_per_block)"; 720 is
// blocks-per-day at a 120-second target). GetMasternodePayment itself is
// the external reward function (spec.md §4.J).
func (r *Registry) ROI(tier chainparams.Tier, totalNodes int, payoutPerBlock int64) (days int64, ok bool) {
	if totalNodes <= 0 || payoutPerBlock <= 0 {
		return 0, false
	}
	burnAmount := r.params.TierBurn[tier]
	if burnAmount <= 0 {
		return 0, false
	}
	const blocksPerDay = 720
	perDay := (blocksPerDay / int64(totalNodes)) * payoutPerBlock
	if perDay <= 0 {
		return 0, false
	}
	return burnAmount / perDay, true
}

// TierForOutpoint reports the tier of the matured node at outpoint, for use
// as paymentvote.TierLookup (spec.md §4.F: "the operator's tier ... looked
// up from the operator registry").
func (r *Registry) TierForOutpoint(outpoint chainio.Outpoint) (chainparams.Tier, bool) {
	r.cs.Lock()
	defer r.cs.Unlock()
	n, ok := r.matured[outpoint]
	if !ok {
		return chainparams.TierUnknown, false
	}
	return n.Tier, true
}

// TierForScript reports the tier of the matured node whose script-public-key
// equals scriptPubKey, for use as governance.TierLookup (spec.md §4.E mode
// 1/2 weighting: "0 if voter is not a known infinity-node operator"). A
// linear scan over the matured map, acceptable at the registry's bounded
// per-tier size; callers on the hot vote-gossip path use TierForOutpoint
// instead.
func (r *Registry) TierForScript(scriptPubKey []byte) (chainparams.Tier, bool) {
	r.cs.Lock()
	defer r.cs.Unlock()
	for _, n := range r.matured {
		if string(n.ScriptPubKey) == string(scriptPubKey) {
			return n.Tier, true
		}
	}
	return chainparams.TierUnknown, false
}

// NextInQueue returns tier's next eligible payee at height: the oldest-paid
// node that has not been paid within one full rotation of the tier's
// registry cap, tiebreaking by burn outpoint (spec.md §4.G step 3
// get_next_operator_in_queue, also used directly by PaymentValidator's
// fill_block_payments per spec.md §4.H: "same function used by voter").
func (r *Registry) NextInQueue(height int64, tier chainparams.Tier) (*Node, bool) {
	ranks := r.CalcRank(height, tier, false)
	minAge := int64(r.params.TierLimit[tier])

	var best *Node
	var bestLastPaid int64

	for _, node := range ranks {
		lastPaid, known := r.LastPaidHeight(node.ScriptPubKey)
		if known && height-lastPaid < minAge {
			continue
		}
		effective := lastPaid
		if !known {
			effective = -1
		}
		if best == nil || effective < bestLastPaid ||
			(effective == bestLastPaid && node.BurnOutpoint.Less(best.BurnOutpoint)) {
			best = node
			bestLastPaid = effective
		}
	}
	return best, best != nil
}
