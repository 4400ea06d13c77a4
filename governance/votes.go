// Package governance implements component E: per-proposal vote
// aggregation and weighted tally for the on-chain governance burn scheme
// (spec.md §4.E). Grounded on original_source/src/infinitynodersv.cpp,
// which keeps one vote per (proposal, voter script) and sums weighted
// opinions on request.
package governance

import (
	"sync"

	"github.com/minblock/qtipd/chainparams"
)

// Vote is a single governance vote (spec.md §3 GovernanceVote).
type Vote struct {
	ProposalID string // 8-char ASCII proposal id
	VoterScript string // keyed by string(scriptBytes)
	BurnHeight int64
	Opinion    bool // true = yes
}

// TierLookup resolves whether a voter script belongs to a known
// infinity-node operator, and if so, which tier — used by the mode-1/2
// weighting (spec.md §4.E). Satisfied directly by *infinitynode.Registry.
type TierLookup interface {
	TierForScript(scriptPubKey []byte) (chainparams.Tier, bool)
}

// Mode selects how GovernanceVotes.Result weighs each vote (spec.md §4.E).
type Mode int

const (
	// ModePublic counts +1 per vote regardless of who cast it.
	ModePublic Mode = iota
	// ModeNodeOnly counts 0 for non-operators, 2/10/20 for T1/T5/T10
	// operators.
	ModeNodeOnly
	// ModeCombined is like ModeNodeOnly but a non-operator counts 1
	// instead of 0.
	ModeCombined
)

// nodeWeight returns the node-only vote weight for tier (spec.md §4.E and
// §9 Open Question: the 2/10/20 weights are implemented as literal
// constants, not derived from the 100k/500k/1M burn amounts — see
// DESIGN.md).
func nodeWeight(tier chainparams.Tier) int {
	switch tier {
	case chainparams.TierT1:
		return 2
	case chainparams.TierT5:
		return 10
	case chainparams.TierT10:
		return 20
	default:
		return 0
	}
}

// Votes owns the per-proposal vote lists (spec.md §4.E).
type Votes struct {
	mu      sync.Mutex
	byProposal map[string]map[string]*Vote // proposal -> voterScript -> vote
}

// NewVotes returns an empty governance vote store.
func NewVotes() *Votes {
	return &Votes{byProposal: make(map[string]map[string]*Vote)}
}

// Add inserts v, deduplicating by voter script within the proposal: on a
// duplicate, the entry with the highest BurnHeight wins (spec.md §4.E).
// Returns true if the store changed.
func (v *Votes) Add(vote Vote) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	proposal, ok := v.byProposal[vote.ProposalID]
	if !ok {
		proposal = make(map[string]*Vote)
		v.byProposal[vote.ProposalID] = proposal
	}
	existing, ok := proposal[vote.VoterScript]
	if ok && existing.BurnHeight >= vote.BurnHeight {
		return false
	}
	cp := vote
	proposal[vote.VoterScript] = &cp
	return true
}

// FullMap returns every stored vote grouped by proposal id, for persistence
// (component I).
func (v *Votes) FullMap() map[string][]Vote {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string][]Vote, len(v.byProposal))
	for proposal, byVoter := range v.byProposal {
		votes := make([]Vote, 0, len(byVoter))
		for _, vote := range byVoter {
			votes = append(votes, *vote)
		}
		out[proposal] = votes
	}
	return out
}

// LoadMap replaces the vote store wholesale from a snapshot (component I).
func (v *Votes) LoadMap(m map[string][]Vote) {
	v.mu.Lock()
	defer v.mu.Unlock()
	byProposal := make(map[string]map[string]*Vote, len(m))
	for proposal, votes := range m {
		byVoter := make(map[string]*Vote, len(votes))
		for i := range votes {
			cp := votes[i]
			byVoter[cp.VoterScript] = &cp
		}
		byProposal[proposal] = byVoter
	}
	v.byProposal = byProposal
}

// Reset clears every stored vote, the starting point of rsv_scan's full
// rescan (spec.md §4.E: "rebuilds vote map from scratch").
func (v *Votes) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.byProposal = make(map[string]map[string]*Vote)
}

// Result sums the weight of every vote on proposal matching opinion, using
// lookup to resolve operator tiers for ModeNodeOnly/ModeCombined (spec.md
// §4.E).
func (v *Votes) Result(proposal string, opinion bool, mode Mode, lookup TierLookup) int {
	v.mu.Lock()
	votes := v.byProposal[proposal]
	snapshot := make([]*Vote, 0, len(votes))
	for _, vote := range votes {
		snapshot = append(snapshot, vote)
	}
	v.mu.Unlock()

	total := 0
	for _, vote := range snapshot {
		if vote.Opinion != opinion {
			continue
		}
		total += weightFor(vote, mode, lookup)
	}
	return total
}

func weightFor(vote *Vote, mode Mode, lookup TierLookup) int {
	switch mode {
	case ModePublic:
		return 1
	case ModeNodeOnly, ModeCombined:
		var (
			t      chainparams.Tier
			isNode bool
		)
		if lookup != nil {
			t, isNode = lookup.TierForScript([]byte(vote.VoterScript))
		}
		if isNode {
			return nodeWeight(t)
		}
		if mode == ModeCombined {
			return 1
		}
		return 0
	default:
		return 0
	}
}
