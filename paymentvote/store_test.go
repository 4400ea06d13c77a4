package paymentvote

import (
	"testing"

	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/internal/chainio"
	mnwire "github.com/minblock/qtipd/internal/wire"
)

type fakeBlockSource struct {
	confirmedUpTo int64
}

func (f *fakeBlockSource) TipHeight() int64 { return f.confirmedUpTo + confirmationDepth }
func (f *fakeBlockSource) ReadBlock(int64) ([]*chainio.Tx, error) { return nil, nil }
func (f *fakeBlockSource) ReadTx([32]byte) (*chainio.Tx, error)   { return nil, nil }
func (f *fakeBlockSource) BlockHashAt(height int64) ([32]byte, bool) {
	if height <= f.confirmedUpTo {
		return [32]byte{1}, true
	}
	return [32]byte{}, false
}

func op(b byte) chainio.Outpoint {
	var o chainio.Outpoint
	o.Hash[0] = b
	return o
}

func alwaysT1(chainio.Outpoint) (chainparams.Tier, bool) { return chainparams.TierT1, true }

func TestAddVoteRejectsUnconfirmedTarget(t *testing.T) {
	src := &fakeBlockSource{confirmedUpTo: 0}
	s := NewStore(src, alwaysT1)
	v := Vote{Operator: op(1), Height: 1000, Payee: []byte("payee")}
	if s.AddVote(v) {
		t.Fatal("vote whose height-101 block is unknown should be rejected")
	}
}

// TestLateArrivingVote is seed scenario 3 from spec.md §8.
func TestLateArrivingVote(t *testing.T) {
	src := &fakeBlockSource{confirmedUpTo: 1000}
	s := NewStore(src, alwaysT1)
	height := int64(1000 + confirmationDepth)

	a := op(1)
	if !s.CanVote(a, height) {
		t.Fatal("operator should be able to vote initially")
	}
	if !s.AddVote(Vote{Operator: a, Height: height, Payee: []byte("x")}) {
		t.Fatal("first vote should be accepted")
	}
	if s.CanVote(a, height) {
		t.Fatal("CanVote should be false after voting for this height")
	}
	if s.AddVote(Vote{Operator: a, Height: height, Payee: []byte("y")}) {
		t.Fatal("second vote for the same (operator, height) must be dropped")
	}
}

// TestTieBreakByVoteHash is seed scenario 2 from spec.md §8.
func TestTieBreakByVoteHash(t *testing.T) {
	src := &fakeBlockSource{confirmedUpTo: 1000}
	s := NewStore(src, alwaysT1)
	height := int64(1000 + confirmationDepth)

	for i := 0; i < 6; i++ {
		s.AddVote(Vote{Operator: op(byte(i)), Height: height, Payee: []byte("payee-a")})
	}
	for i := 6; i < 12; i++ {
		s.AddVote(Vote{Operator: op(byte(i)), Height: height, Payee: []byte("payee-b")})
	}

	best, ok := s.GetBestPayee(height, chainparams.TierT1)
	if !ok {
		t.Fatal("expected a tally at height")
	}

	// Both payees have 6 votes; determine which actually has the
	// numerically greater max vote hash and assert GetBestPayee agrees.
	maxA := maxVoteHashFor(t, s, height, []byte("payee-a"))
	maxB := maxVoteHashFor(t, s, height, []byte("payee-b"))
	want := []byte("payee-a")
	if maxA.Less(maxB) {
		want = []byte("payee-b")
	}
	if string(best) != string(want) {
		t.Fatalf("GetBestPayee = %q, want %q (by max vote hash tie-break)", best, want)
	}
}

func maxVoteHashFor(t *testing.T, s *Store, height int64, payeeScript []byte) mnwire.Hash {
	t.Helper()
	s.blocksMu.Lock()
	defer s.blocksMu.Unlock()
	tally := s.blocks[height]
	p := tally.payees[string(payeeScript)]
	return maxOf(p.voteHashes)
}

func TestGetBestPayeeFailsWithoutTally(t *testing.T) {
	src := &fakeBlockSource{confirmedUpTo: 1000}
	s := NewStore(src, alwaysT1)
	if _, ok := s.GetBestPayee(12345, chainparams.TierT1); ok {
		t.Fatal("expected no tally for an untouched height")
	}
}

func TestAddVoteRejectsBelowMinVersion(t *testing.T) {
	src := &fakeBlockSource{confirmedUpTo: 1000}
	s := NewStore(src, alwaysT1)
	s.MinVoteVersion = 2
	height := int64(1000 + confirmationDepth)

	if s.AddVote(Vote{Operator: op(1), Height: height, Payee: []byte("x"), Version: 1}) {
		t.Fatal("vote below MinVoteVersion should be rejected")
	}
	if !s.AddVote(Vote{Operator: op(1), Height: height, Payee: []byte("x"), Version: 2}) {
		t.Fatal("vote at MinVoteVersion should be accepted")
	}
}

func TestCheckAndRemoveSweepsOldVotes(t *testing.T) {
	src := &fakeBlockSource{confirmedUpTo: 1000}
	s := NewStore(src, alwaysT1)
	height := int64(1000 + confirmationDepth)
	s.AddVote(Vote{Operator: op(1), Height: height, Payee: []byte("x")})

	s.CheckAndRemove(height+StorageLimit(10)+1, 10)

	if _, ok := s.GetBestPayee(height, chainparams.TierT1); ok {
		t.Fatal("expected vote to have been swept")
	}
}
