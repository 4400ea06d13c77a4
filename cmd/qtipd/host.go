package main

import (
	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/internal/chainio"
)

// This subsystem never owns the block index, script engine, wallet, or P2P
// layer (spec.md §1 Non-goals: those stay external collaborators). The types
// below are the smallest adapters that satisfy internal/chainio's
// interfaces so this binary links and starts end-to-end; a production
// deployment replaces them with adapters backed by its own chain store,
// txscript engine, signing key, and network relay, the same way the
// teacher's apiserver and kasparovserver binaries sit in front of a real
// daglabs-btcd node rather than reimplementing one.

type hostBlockSource struct{}

func (hostBlockSource) TipHeight() int64 { return 0 }

func (hostBlockSource) ReadBlock(height int64) ([]*chainio.Tx, error) {
	return nil, nil
}

func (hostBlockSource) ReadTx(hash [32]byte) (*chainio.Tx, error) {
	return nil, nil
}

func (hostBlockSource) BlockHashAt(height int64) ([32]byte, bool) {
	return [32]byte{}, false
}

type hostSolver struct{}

func (hostSolver) Solve(pkScript []byte) (chainio.ScriptClass, [][]byte, error) {
	return chainio.ScriptUnknown, nil, nil
}

func (hostSolver) ScriptForAddress(address string) ([]byte, error) {
	return []byte(address), nil
}

func (hostSolver) AddressForScript(pkScript []byte) (string, bool) {
	return "", false
}

func (hostSolver) ScriptAsm(pkScript []byte) string {
	return ""
}

type hostSigner struct{}

func (hostSigner) Sign(message string) ([]byte, error) {
	return nil, nil
}

func (hostSigner) Verify(collateralAddress string, message string, sig []byte) bool {
	return false
}

type hostRelay struct{}

func (hostRelay) AnnounceVote(hash [32]byte) {}

// hostReward stands in for GetMasternodePayment, the consensus-owned reward
// table this subsystem treats as a black box (spec.md §4.J); a production
// deployment supplies the real per-height, per-tier schedule.
func hostReward(height int64, tier chainparams.Tier) int64 {
	return 0
}
