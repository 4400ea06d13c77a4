package governance

import (
	"testing"

	"github.com/minblock/qtipd/chainparams"
)

type fakeLookup struct {
	tiers map[string]chainparams.Tier
}

func (f fakeLookup) TierForScript(script []byte) (chainparams.Tier, bool) {
	t, ok := f.tiers[string(script)]
	return t, ok
}

// TestGovernanceWeightedTally is seed scenario 5 from spec.md §8.
func TestGovernanceWeightedTally(t *testing.T) {
	v := NewVotes()
	v.Add(Vote{ProposalID: "DEADBEEF", VoterScript: "non-node", BurnHeight: 10, Opinion: true})
	v.Add(Vote{ProposalID: "DEADBEEF", VoterScript: "t10-node", BurnHeight: 11, Opinion: true})

	lookup := fakeLookup{tiers: map[string]chainparams.Tier{"t10-node": chainparams.TierT10}}

	if got := v.Result("DEADBEEF", true, ModeCombined, lookup); got != 21 {
		t.Fatalf("mode=2 result = %d, want 21", got)
	}
	if got := v.Result("DEADBEEF", true, ModeNodeOnly, lookup); got != 20 {
		t.Fatalf("mode=1 result = %d, want 20", got)
	}
	if got := v.Result("DEADBEEF", true, ModePublic, lookup); got != 2 {
		t.Fatalf("mode=0 result = %d, want 2", got)
	}
}

func TestAddKeepsNewestHeightOnDuplicate(t *testing.T) {
	v := NewVotes()
	if !v.Add(Vote{ProposalID: "P", VoterScript: "x", BurnHeight: 10, Opinion: true}) {
		t.Fatal("first add should apply")
	}
	if v.Add(Vote{ProposalID: "P", VoterScript: "x", BurnHeight: 5, Opinion: false}) {
		t.Fatal("older duplicate must not replace a newer vote")
	}
	if !v.Add(Vote{ProposalID: "P", VoterScript: "x", BurnHeight: 20, Opinion: false}) {
		t.Fatal("newer duplicate should replace")
	}
	if got := v.Result("P", true, ModePublic, nil); got != 0 {
		t.Fatalf("after replacement, yes result = %d, want 0", got)
	}
	if got := v.Result("P", false, ModePublic, nil); got != 1 {
		t.Fatalf("after replacement, no result = %d, want 1", got)
	}
}
