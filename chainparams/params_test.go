package chainparams

import (
	"testing"

	"github.com/minblock/qtipd/internal/config"
)

// TestTierBoundary covers spec.md §8: a burn of exactly B_t registers as
// tier t; B_t+1 registers as unknown.
func TestTierBoundary(t *testing.T) {
	p := ForNetwork(config.Regtest)

	b1 := p.TierBurn[TierT1]
	if got := p.TierForBurnValue(b1); got != TierT1 {
		t.Fatalf("TierForBurnValue(%d) = %v, want T1", b1, got)
	}
	if got := p.TierForBurnValue(b1 + 1); got != TierUnknown {
		t.Fatalf("TierForBurnValue(%d) = %v, want unknown", b1+1, got)
	}
	if got := p.TierForBurnValue(b1 - 1); got != TierUnknown {
		t.Fatalf("TierForBurnValue(%d) = %v, want unknown (lower boundary exclusive)", b1-1, got)
	}
}

func TestPaidScanDepth(t *testing.T) {
	p := ForNetwork(config.Mainnet)
	if got := p.PaidScanDepth(p.PaidScanDepthForkHeight - 1); got != 2500 {
		t.Fatalf("pre-fork PaidScanDepth = %d, want max tier limit 2500", got)
	}
	if got := p.PaidScanDepth(p.PaidScanDepthForkHeight); got != p.PaidScanDepthCapped {
		t.Fatalf("post-fork PaidScanDepth = %d, want capped %d", got, p.PaidScanDepthCapped)
	}
}

func TestForNetworkDefaultsToMainnet(t *testing.T) {
	if ForNetwork(config.Network("bogus")) != mainnetParams {
		t.Fatal("unknown network should default to mainnet")
	}
}
