package masternode

import (
	"path/filepath"
	"testing"

	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/internal/chainio"
	"github.com/minblock/qtipd/internal/config"
)

type fakeBlockSource struct{}

func (fakeBlockSource) TipHeight() int64                        { return 0 }
func (fakeBlockSource) ReadBlock(int64) ([]*chainio.Tx, error)   { return nil, nil }
func (fakeBlockSource) ReadTx([32]byte) (*chainio.Tx, error)     { return nil, nil }
func (fakeBlockSource) BlockHashAt(int64) ([32]byte, bool)       { return [32]byte{1}, true }

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

type fakeRelay struct{}

func (fakeRelay) AnnounceVote([32]byte) {}

func noReward(int64, chainparams.Tier) int64 { return 0 }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir: t.TempDir(),
		Network: "regtest",
	}
}

func newTestNode(t *testing.T) *Node {
	t.Helper()
	cfg := testConfig(t)
	params := chainparams.ForNetwork(config.Network(cfg.Network))
	return New(cfg, params, fakeBlockSource{}, fakeSolver{}, fakeSigner{}, fakeRelay{}, noReward, chainio.Outpoint{})
}

func TestNewStartsEmptyWithNoSnapshotOnDisk(t *testing.T) {
	n := newTestNode(t)
	if n.Registry.Count() != 0 {
		t.Fatalf("Registry.Count() = %d, want 0 on a fresh data directory", n.Registry.Count())
	}
}

func TestOnTipAdvancesScanCursor(t *testing.T) {
	n := newTestNode(t)
	tip := int64(60)
	if err := n.OnTip(tip); err != nil {
		t.Fatalf("OnTip: %v", err)
	}
	want := tip - chainparams.InfMaturedLimit
	if got := n.Scanner.LastScanHeight(); got != want {
		t.Fatalf("LastScanHeight() = %d, want %d", got, want)
	}
}

func TestStopWritesSnapshotsLoadableByAFreshNode(t *testing.T) {
	n := newTestNode(t)
	if err := n.OnTip(60); err != nil {
		t.Fatalf("OnTip: %v", err)
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	registryPath := filepath.Join(n.cfg.DataDir, "infinitynode.dat")
	votesPath := filepath.Join(n.cfg.DataDir, "infinitynodersv.dat")

	reloaded := New(n.cfg, n.params, fakeBlockSource{}, fakeSolver{}, fakeSigner{}, fakeRelay{}, noReward, chainio.Outpoint{})
	if reloaded.registryPath != registryPath || reloaded.votesPath != votesPath {
		t.Fatalf("unexpected snapshot paths: %s, %s", reloaded.registryPath, reloaded.votesPath)
	}
	if got := reloaded.Scanner.LastScanHeight(); got != n.Scanner.LastScanHeight() {
		t.Fatalf("reloaded LastScanHeight() = %d, want %d", got, n.Scanner.LastScanHeight())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	n := newTestNode(t)
	if err := n.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
