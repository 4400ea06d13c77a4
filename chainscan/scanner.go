// Package chainscan implements component B: the descending block walk that
// classifies burn-address, governance-address and metadata-address outputs
// into the events consumed by the node registry and the governance vote
// store, plus the coinbase last-paid scan (spec.md §4.B). Grounded on
// original_source/src/infinitynodeman.cpp's CInfinitynodeMan::updateInfinityNodeInfo
// (the descending scan loop and its burn/vote/metadata output switch) and
// infinitynodersv.cpp's rsv_scan governance path.
package chainscan

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/governance"
	"github.com/minblock/qtipd/infinitynode"
	"github.com/minblock/qtipd/internal/chainio"
)

// legacyVotePayloadLen is the fixed payload length of a governance vote
// carried in a burn-address output: an 8-char ASCII proposal id plus one
// '0'/'1' opinion byte (spec.md §4.B, §6).
const legacyVotePayloadLen = 9

var tiers = []chainparams.Tier{chainparams.TierT1, chainparams.TierT5, chainparams.TierT10}

// Scanner owns the descending scan cursor (nLastScanHeight) and applies
// matured/non-matured burn events, governance votes, and metadata updates
// directly onto the registry and vote store it was constructed with (spec.md
// §4.B). It holds no lock of its own across suspension points: ReadBlock and
// ReadTx calls are never made while registry or vote-store locks are held,
// matching spec.md §5's suspension-point rule.
type Scanner struct {
	blockSource chainio.BlockSource
	solver      chainio.Solver
	params      *chainparams.Params
	registry    *infinitynode.Registry
	votes       *governance.Votes
	reward      chainparams.RewardFunc

	mu             sync.Mutex
	lastScanHeight int64
}

// NewScanner returns a scanner starting from lastScanHeight 0 (a full
// rescan on the first call to Scan).
func NewScanner(blockSource chainio.BlockSource, solver chainio.Solver, params *chainparams.Params, registry *infinitynode.Registry, votes *governance.Votes, reward chainparams.RewardFunc) *Scanner {
	return &Scanner{
		blockSource: blockSource,
		solver:      solver,
		params:      params,
		registry:    registry,
		votes:       votes,
		reward:      reward,
	}
}

// LastScanHeight returns the cursor left by the most recent successful Scan.
func (s *Scanner) LastScanHeight() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScanHeight
}

// SetLastScanHeight restores the cursor from a snapshot (component I).
func (s *Scanner) SetLastScanHeight(h int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastScanHeight = h
}

// Scan walks blocks from tip descending to the scanner's low-water height,
// classifying outputs and committing matured/non-matured burns, governance
// votes, and metadata updates (spec.md §4.B). A missing previous transaction
// or an undecodable destination aborts the scan and leaves the cursor
// unchanged, to be retried on the next tip update. On success the cursor
// advances to tip-55 and the non-matured map is replaced wholesale.
func (s *Scanner) Scan(tip int64) error {
	s.mu.Lock()
	low := s.lastScanHeight
	s.mu.Unlock()

	paidDepth := s.params.PaidScanDepth(tip)
	paidFloor := tip - paidDepth + 1

	nonMatured := make(map[chainio.Outpoint]*infinitynode.Node)

	for h := tip; h > low; h-- {
		txs, err := s.blockSource.ReadBlock(h)
		if err != nil {
			return errors.Wrapf(err, "chainscan: reading block %d", h)
		}

		for i, tx := range txs {
			if i == 0 {
				if h >= paidFloor {
					s.scanCoinbase(tx, h)
				}
				continue
			}
			if err := s.scanOutputs(tx, h, tip, nonMatured); err != nil {
				return err
			}
		}
	}

	s.mu.Lock()
	s.lastScanHeight = tip - chainparams.InfMaturedLimit
	s.mu.Unlock()
	s.registry.ReplaceNonMatured(nonMatured)

	return nil
}

// scanCoinbase records (output_script, height) into the registry's
// last-paid map for any coinbase output whose value exactly matches a
// tier's reward at height (spec.md §4.B).
func (s *Scanner) scanCoinbase(tx *chainio.Tx, height int64) {
	for _, out := range tx.TxOut {
		for _, t := range tiers {
			if out.Value == s.reward(height, t) {
				s.registry.UpdateLastPaid(out.PkScript, height)
				break
			}
		}
	}
}

// scanOutputs classifies every output of a non-coinbase transaction and
// applies the matching event (spec.md §4.B). tip is the scan's overall tip
// height, used for the maturity test (burn_height < tip - 55), distinct
// from height (the block height this particular transaction is in). Matured
// burns are committed straight to the registry; non-matured ones accumulate
// into nonMatured for the caller to install as one batch at the end of the
// scan (spec.md §4.B: "mapInfinitynodesNonMatured is replaced").
func (s *Scanner) scanOutputs(tx *chainio.Tx, height, tip int64, nonMatured map[chainio.Outpoint]*infinitynode.Node) error {
	for idx, out := range tx.TxOut {
		class, data, err := s.solver.Solve(out.PkScript)
		if err != nil || class != chainio.ScriptBurnData || len(data) == 0 {
			continue
		}
		hashPrefix := data[0]

		switch {
		case hashPrefix20Equal(hashPrefix, s.params.BurnAddressScriptHash):
			if tier := s.params.TierForBurnValue(out.Value); tier != chainparams.TierUnknown {
				if err := s.applyBurn(tx, idx, out, data, height, tip, tier, nonMatured); err != nil {
					return err
				}
				continue
			}
			if out.Value == chainparams.VoteValue*chainparams.Unit {
				if err := s.applyLegacyVote(tx, data, height); err != nil {
					return err
				}
			}

		case hashPrefix20Equal(hashPrefix, s.params.GovernanceAddressScriptHash):
			if out.Value == chainparams.VoteValue*chainparams.Unit {
				if err := s.applyCanonicalVote(tx, data, height, tip); err != nil {
					return err
				}
			}

		case hashPrefix20Equal(hashPrefix, s.params.MetadataAddressScriptHash):
			if s.params.TierForBurnValue(out.Value) == chainparams.TierT1 {
				if err := s.applyMetadata(tx, data, height); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// applyBurn records a new infinity-node from a matching burn output,
// deriving its collateral address from the transaction spent by vin[0], and
// its optional backup address from the burn payload's second data push
// (spec.md §3, §4.B).
func (s *Scanner) applyBurn(tx *chainio.Tx, outIdx int, out chainio.TxOut, data [][]byte, height, tip int64, tier chainparams.Tier, nonMatured map[chainio.Outpoint]*infinitynode.Node) error {
	collateral, err := s.collateralAddress(tx)
	if err != nil {
		return err
	}

	node := &infinitynode.Node{
		BurnOutpoint:      chainio.Outpoint{Hash: tx.Hash, Index: uint32(outIdx)},
		Tier:              tier,
		BurnHeight:        height,
		BurnValue:         out.Value,
		ScriptPubKey:      out.PkScript,
		CollateralAddress: collateral,
		BackupAddress:     decodableBackupAddress(data),
	}

	if height < tip-chainparams.InfMaturedLimit {
		s.registry.Add(node, true)
	} else {
		nonMatured[node.BurnOutpoint] = node
	}
	return nil
}

// decodableBackupAddress returns data[1] as a string if present and
// decodable (valid UTF-8), per spec.md §4.B: "optional backup_address =
// solver-data[1] if present and decodable".
func decodableBackupAddress(data [][]byte) string {
	if len(data) < 2 || !utf8.Valid(data[1]) {
		return ""
	}
	return string(data[1])
}

// collateralAddress resolves the destination of the output spent by a burn
// or vote transaction's vin[0] (spec.md §3: "derived from the input being
// spent"). A missing previous transaction or an undecodable destination is
// the scanner's recoverable-failure path (spec.md §7 TransientIO /
// MalformedPayload).
func (s *Scanner) collateralAddress(tx *chainio.Tx) (string, error) {
	if len(tx.TxIn) == 0 {
		return "", errors.New("chainscan: transaction has no inputs")
	}
	vin := tx.TxIn[0]
	prevTx, err := s.blockSource.ReadTx(vin.Hash)
	if err != nil {
		return "", errors.Wrap(err, "chainscan: resolving vin[0] transaction")
	}
	if int(vin.Index) >= len(prevTx.TxOut) {
		return "", errors.New("chainscan: vin[0] index out of range")
	}
	addr, ok := s.solver.AddressForScript(prevTx.TxOut[vin.Index].PkScript)
	if !ok {
		return "", errors.New("chainscan: undecodable collateral destination")
	}
	return addr, nil
}

// applyLegacyVote emits a GovernanceVote from a burn-address output shaped
// like a vote (spec.md §4.B legacy path).
func (s *Scanner) applyLegacyVote(tx *chainio.Tx, data [][]byte, height int64) error {
	if len(data) < 2 || len(data[1]) != legacyVotePayloadLen {
		return nil
	}
	collateral, err := s.collateralAddress(tx)
	if err != nil {
		return err
	}
	s.votes.Add(decodeVote(collateral, data[1], height))
	return nil
}

// applyCanonicalVote emits a GovernanceVote from the dedicated governance
// address, maturity-gated the same way a burn is (spec.md §4.B canonical
// path).
func (s *Scanner) applyCanonicalVote(tx *chainio.Tx, data [][]byte, height, tip int64) error {
	if height >= tip-chainparams.InfMaturedLimit {
		return nil
	}
	if len(data) < 2 || len(data[1]) != legacyVotePayloadLen {
		return nil
	}
	collateral, err := s.collateralAddress(tx)
	if err != nil {
		return err
	}
	s.votes.Add(decodeVote(collateral, data[1], height))
	return nil
}

func decodeVote(voterScript string, payload []byte, height int64) governance.Vote {
	return governance.Vote{
		ProposalID:  string(payload[:8]),
		VoterScript: voterScript,
		BurnHeight:  height,
		Opinion:     payload[8] == '1',
	}
}

// applyMetadata parses a space-delimited "<node-address> <ip[:port]>"
// payload and applies it to the registry (spec.md §4.B, §6).
func (s *Scanner) applyMetadata(tx *chainio.Tx, data [][]byte, height int64) error {
	if len(data) < 2 || !utf8.Valid(data[1]) {
		return nil
	}
	parts := strings.Fields(string(data[1]))
	if len(parts) != 2 {
		return nil
	}
	collateral, err := s.collateralAddress(tx)
	if err != nil {
		return err
	}
	s.registry.UpdateMetadata(collateral, parts[0], parts[1], height)
	return nil
}

func hashPrefix20Equal(data []byte, want [20]byte) bool {
	if len(data) != 20 {
		return false
	}
	for i := range want {
		if data[i] != want[i] {
			return false
		}
	}
	return true
}
