package paymentvoter

import (
	"testing"

	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/infinitynode"
	"github.com/minblock/qtipd/internal/chainio"
	"github.com/minblock/qtipd/paymentvote"
)

type fakeBlockSource struct{ confirmedUpTo int64 }

func (f *fakeBlockSource) TipHeight() int64                      { return f.confirmedUpTo + rankLookback }
func (f *fakeBlockSource) ReadBlock(int64) ([]*chainio.Tx, error) { return nil, nil }
func (f *fakeBlockSource) ReadTx([32]byte) (*chainio.Tx, error)   { return nil, nil }
func (f *fakeBlockSource) BlockHashAt(height int64) ([32]byte, bool) {
	if height <= f.confirmedUpTo {
		return [32]byte{1}, true
	}
	return [32]byte{}, false
}

type fakeSolver struct{}

func (fakeSolver) Solve([]byte) (chainio.ScriptClass, [][]byte, error) {
	return chainio.ScriptUnknown, nil, nil
}
func (fakeSolver) ScriptForAddress(address string) ([]byte, error) { return []byte(address), nil }
func (fakeSolver) AddressForScript(pkScript []byte) (string, bool) { return string(pkScript), true }
func (fakeSolver) ScriptAsm(pkScript []byte) string                { return string(pkScript) }

type fakeSigner struct{}

func (fakeSigner) Sign(message string) ([]byte, error) { return []byte("sig:" + message), nil }
func (fakeSigner) Verify(string, string, []byte) bool  { return true }

type fakeRelay struct{ announced [][32]byte }

func (r *fakeRelay) AnnounceVote(hash [32]byte) { r.announced = append(r.announced, hash) }

func op(b byte) chainio.Outpoint {
	var o chainio.Outpoint
	o.Hash[0] = b
	return o
}

func testRegistry(t *testing.T) (*chainparams.Params, *infinitynode.Registry) {
	t.Helper()
	params := *chainparams.ForNetwork("regtest")
	registry := infinitynode.NewRegistry(&params)
	return &params, registry
}

func TestProcessBlockEmitsVoteForTopRankedOperator(t *testing.T) {
	params, registry := testRegistry(t)
	self := op(1)
	registry.Add(&infinitynode.Node{
		BurnOutpoint:      self,
		Tier:              chainparams.TierT1,
		BurnHeight:        1,
		CollateralAddress: "self-collateral",
		ScriptPubKey:      []byte("self-script"),
	}, true)
	other := op(2)
	registry.Add(&infinitynode.Node{
		BurnOutpoint:      other,
		Tier:              chainparams.TierT1,
		BurnHeight:        2,
		CollateralAddress: "other-collateral",
		ScriptPubKey:      []byte("other-script"),
	}, true)

	store := paymentvote.NewStore(&fakeBlockSource{confirmedUpTo: 10_000}, func(o chainio.Outpoint) (chainparams.Tier, bool) {
		return chainparams.TierT1, true
	})

	relay := &fakeRelay{}
	v := New(params, registry, store, fakeSolver{}, fakeSigner{}, relay, self)

	tip := int64(10_000 - voteLookahead)
	if err := v.ProcessBlock(tip); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}
	if len(relay.announced) != 1 {
		t.Fatalf("expected one announced vote, got %d", len(relay.announced))
	}
}

func TestProcessBlockNoopForUnregisteredOperator(t *testing.T) {
	params, registry := testRegistry(t)
	store := paymentvote.NewStore(&fakeBlockSource{confirmedUpTo: 10_000}, func(chainio.Outpoint) (chainparams.Tier, bool) {
		return chainparams.TierUnknown, false
	})
	relay := &fakeRelay{}
	v := New(params, registry, store, fakeSolver{}, fakeSigner{}, relay, op(99))

	if err := v.ProcessBlock(10_000); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}
	if len(relay.announced) != 0 {
		t.Fatal("expected no vote for an unregistered operator")
	}
}

func TestNextOperatorInQueuePrefersOldestLastPaid(t *testing.T) {
	_, registry := testRegistry(t)
	a := op(1)
	b := op(2)
	registry.Add(&infinitynode.Node{BurnOutpoint: a, Tier: chainparams.TierT1, BurnHeight: 1, ScriptPubKey: []byte("a")}, true)
	registry.Add(&infinitynode.Node{BurnOutpoint: b, Tier: chainparams.TierT1, BurnHeight: 2, ScriptPubKey: []byte("b")}, true)
	registry.UpdateLastPaid([]byte("a"), 500)
	registry.UpdateLastPaid([]byte("b"), 100)

	winner, ok := registry.NextInQueue(100_000, chainparams.TierT1)
	if !ok {
		t.Fatal("expected a winner")
	}
	if winner.BurnOutpoint != b {
		t.Fatalf("winner = %+v, want b (paid longest ago)", winner)
	}
}

func TestCheckPreviousBlockVotesRecordsMissedVotes(t *testing.T) {
	params, registry := testRegistry(t)
	a := op(1)
	registry.Add(&infinitynode.Node{BurnOutpoint: a, Tier: chainparams.TierT1, BurnHeight: 1, ScriptPubKey: []byte("a")}, true)

	store := paymentvote.NewStore(&fakeBlockSource{confirmedUpTo: 10_000}, func(chainio.Outpoint) (chainparams.Tier, bool) {
		return chainparams.TierT1, true
	})
	v := New(params, registry, store, fakeSolver{}, fakeSigner{}, &fakeRelay{}, a)

	prevH := int64(10_000 - rankLookback)
	v.CheckPreviousBlockVotes(prevH)

	if store.MissedVoteCount(a) != 1 {
		t.Fatalf("MissedVoteCount = %d, want 1", store.MissedVoteCount(a))
	}
}
