package infinitynode

import (
	"testing"

	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/internal/chainio"
)

func op(b byte, idx uint32) chainio.Outpoint {
	var o chainio.Outpoint
	o.Hash[0] = b
	o.Index = idx
	return o
}

func TestCalcRankOrdersByBurnHeightThenOutpoint(t *testing.T) {
	params := chainparams.ForNetwork("regtest")
	r := NewRegistry(params)

	r.Add(&Node{BurnOutpoint: op(3, 0), Tier: chainparams.TierT1, BurnHeight: 70}, true)
	r.Add(&Node{BurnOutpoint: op(1, 0), Tier: chainparams.TierT1, BurnHeight: 50}, true)
	r.Add(&Node{BurnOutpoint: op(2, 0), Tier: chainparams.TierT1, BurnHeight: 60}, true)

	ranks := r.CalcRank(110, chainparams.TierT1, false)
	if len(ranks) != 3 {
		t.Fatalf("len(ranks) = %d, want 3", len(ranks))
	}
	if ranks[1].BurnHeight != 50 || ranks[2].BurnHeight != 60 || ranks[3].BurnHeight != 70 {
		t.Fatalf("unexpected rank order: %+v %+v %+v", ranks[1], ranks[2], ranks[3])
	}
}

// TestSingleT1BurnPaymentAtMaturity is seed scenario 1 from spec.md §8:
// a single T1 burn at height 55 is the sole matured node at height 110,
// and CalcRank(110, T1) assigns it rank 1.
func TestSingleT1BurnPaymentAtMaturity(t *testing.T) {
	params := chainparams.ForNetwork("regtest")
	r := NewRegistry(params)
	n := &Node{BurnOutpoint: op(9, 0), Tier: chainparams.TierT1, BurnHeight: 55, BurnValue: params.TierBurn[chainparams.TierT1]}
	r.Add(n, true)

	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}
	ranks := r.CalcRank(110, chainparams.TierT1, true)
	if len(ranks) != 1 || ranks[1].BurnOutpoint != n.BurnOutpoint {
		t.Fatalf("unexpected rank map: %+v", ranks)
	}
	if n.Rank != 1 {
		t.Fatalf("persisted rank = %d, want 1", n.Rank)
	}
}

func TestCalcRankExcludesExpiredAndNotYetConfirmed(t *testing.T) {
	p := *chainparams.ForNetwork("regtest")
	p.TierLifetime = map[chainparams.Tier]int64{chainparams.TierT1: 50}
	params := &p
	r := NewRegistry(params)

	// Not yet confirmed: burn_height == blockHeight fails burn_height < blockHeight.
	r.Add(&Node{BurnOutpoint: op(1, 0), Tier: chainparams.TierT1, BurnHeight: 100}, true)
	// Expired: blockHeight 100 > expire_height 1+50.
	r.Add(&Node{BurnOutpoint: op(2, 0), Tier: chainparams.TierT1, BurnHeight: 1}, true)

	ranks := r.CalcRank(100, chainparams.TierT1, false)
	if len(ranks) != 0 {
		t.Fatalf("expected no eligible nodes at height == burn height, got %d", len(ranks))
	}
}

// TestMetadataUpdateOrdering is seed scenario 4 from spec.md §8.
func TestMetadataUpdateOrdering(t *testing.T) {
	params := chainparams.ForNetwork("regtest")
	r := NewRegistry(params)
	n := &Node{BurnOutpoint: op(5, 0), Tier: chainparams.TierT1, BurnHeight: 10, CollateralAddress: "collateral-1"}
	r.Add(n, true)

	if !r.UpdateMetadata("collateral-1", "1.1.1.1", "svc", 100) {
		t.Fatal("first update should apply")
	}
	if !r.UpdateMetadata("collateral-1", "2.2.2.2", "svc", 150) {
		t.Fatal("newer update should apply")
	}
	if r.UpdateMetadata("collateral-1", "9.9.9.9", "svc", 100) {
		t.Fatal("older update must be rejected by the metadata-height guard")
	}

	got, _ := r.Find(n.BurnOutpoint)
	if got.OperatorAddress != "2.2.2.2" {
		t.Fatalf("OperatorAddress = %q, want 2.2.2.2", got.OperatorAddress)
	}
	if got.Service != "svc" {
		t.Fatalf("Service = %q, want svc", got.Service)
	}
}

func TestUpdateLastPaidKeepsMaximum(t *testing.T) {
	r := NewRegistry(chainparams.ForNetwork("regtest"))
	script := []byte("payee-script")
	r.UpdateLastPaid(script, 100)
	r.UpdateLastPaid(script, 50)
	r.UpdateLastPaid(script, 200)

	h, ok := r.LastPaidHeight(script)
	if !ok || h != 200 {
		t.Fatalf("LastPaidHeight = (%d, %v), want (200, true)", h, ok)
	}
}

func TestROI(t *testing.T) {
	r := NewRegistry(chainparams.ForNetwork("regtest"))
	days, ok := r.ROI(chainparams.TierT1, 0, 100)
	if ok || days != 0 {
		t.Fatalf("ROI with zero nodes should fail, got (%d, %v)", days, ok)
	}
	_, ok = r.ROI(chainparams.TierT1, 10, 0)
	if ok {
		t.Fatal("ROI with zero payout should fail")
	}
	days, ok = r.ROI(chainparams.TierT1, 10, 100)
	if !ok {
		t.Fatal("ROI with valid inputs should succeed")
	}
	if days <= 0 {
		t.Fatalf("days = %d, want positive", days)
	}
}
