// Package paymentvote implements component F: the gossip-received vote
// store and per-block payee tallies (spec.md §4.F). Grounded on
// original_source/src/masternode-payments.h's CMasternodePayments /
// CMasternodeBlockPayees / CMasternodePayee triad: one vote map, one
// per-height tally, and per-payee vote-hash lists.
package paymentvote

import (
	"sync"

	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/internal/chainio"
	mnwire "github.com/minblock/qtipd/internal/wire"
)

// Vote is a received, already-deserialized payment vote (spec.md §3
// PaymentVote).
type Vote struct {
	Operator  chainio.Outpoint
	Height    int64
	Payee     []byte
	Signature []byte

	// Version is the vote's own protocol version, gated by Store's
	// MinVoteVersion once SPORK_10_MASTERNODE_PAY_UPDATED_NODES is
	// active (original_source/src/masternode-payments.cpp).
	Version int
}

// Hash returns the vote's identity hash.
func (v Vote) Hash() mnwire.Hash {
	msg := &mnwire.MsgPaymentVote{
		OperatorOutpoint: v.Operator,
		BlockHeight:      int32(v.Height),
		Payee:            v.Payee,
		Signature:        v.Signature,
	}
	return msg.Hash()
}

// payee is one candidate's running tally within a block (CMasternodePayee
// in the original).
type payee struct {
	script     []byte
	tier       chainparams.Tier
	voteHashes []mnwire.Hash
}

// BlockTally is the per-height set of candidate payees and their vote
// counts (spec.md §3 BlockPayeeTally).
type BlockTally struct {
	Height  int64
	payees  map[string]*payee // key: string(script)
}

// TierLookup resolves an operator outpoint's declared tier, as reported by
// the infinity-node registry. When the tier is not yet known the vote is
// still recorded with chainparams.TierUnknown and re-queried on later visits
// until the tier resolves (spec.md §4.F).
type TierLookup func(operator chainio.Outpoint) (chainparams.Tier, bool)

// Store owns mapMasternodePaymentVotes and mapMasternodeBlocks (spec.md
// §4.F, §5). cs_blocks guards blocks/tallies; cs_votes guards the vote
// index and per-operator bookkeeping. The acquisition order (§5) is
// cs_blocks before cs_votes.
type Store struct {
	blockSource chainio.BlockSource
	tierOf      TierLookup

	blocksMu sync.Mutex
	blocks   map[int64]*BlockTally

	votesMu            sync.Mutex
	votes              map[mnwire.Hash]*Vote
	lastVoteByOperator map[chainio.Outpoint]int64
	didNotVote         map[chainio.Outpoint]int
	unresolvedTier     map[mnwire.Hash]chainio.Outpoint

	// MinVoteVersion rejects any vote below this protocol version. Zero
	// (the default) accepts every version; a host raises it once
	// SPORK_10_MASTERNODE_PAY_UPDATED_NODES activates (spec.md
	// supplemented feature, original_source's UpdatedNodesLimit).
	MinVoteVersion int
}

// NewStore returns an empty vote store. blockSource is used to confirm a
// vote's block is already on-chain 101 blocks deep; tierOf resolves an
// operator's tier for tallying.
func NewStore(blockSource chainio.BlockSource, tierOf TierLookup) *Store {
	return &Store{
		blockSource:        blockSource,
		tierOf:             tierOf,
		blocks:             make(map[int64]*BlockTally),
		votes:              make(map[mnwire.Hash]*Vote),
		lastVoteByOperator: make(map[chainio.Outpoint]int64),
		didNotVote:         make(map[chainio.Outpoint]int),
		unresolvedTier:     make(map[mnwire.Hash]chainio.Outpoint),
	}
}

// confirmationDepth is how far behind tip a vote's target height must
// already be confirmed for the vote to be accepted (spec.md §4.F:
// "rejects if ... block-hash at v.height - 101 is unknown").
const confirmationDepth = 101

// CurrentVoteVersion is the protocol version this build stamps on votes it
// originates (paymentvoter.Voter). A future bump to MinVoteVersion rejects
// anything still advertising an older one.
const CurrentVoteVersion = 1

// CanVote reports whether operator may still vote for height: one vote per
// operator per height (spec.md §4.F can_vote). Idempotent per spec.md §8:
// a second call with the same args returns false only after AddVote has
// recorded a vote for that (operator, height).
func (s *Store) CanVote(operator chainio.Outpoint, height int64) bool {
	s.votesMu.Lock()
	defer s.votesMu.Unlock()
	last, ok := s.lastVoteByOperator[operator]
	return !ok || last != height
}

// AddVote inserts v if it is not a duplicate, meets MinVoteVersion, and its
// target height is already confirmed 101 blocks deep (spec.md §4.F).
// Returns false (with no error — rejections here are the Stale error kind,
// spec.md §7) if the vote was not accepted.
func (s *Store) AddVote(v Vote) bool {
	if v.Version < s.MinVoteVersion {
		return false
	}

	hash := v.Hash()

	if _, confirmed := s.blockSource.BlockHashAt(v.Height - confirmationDepth); !confirmed {
		return false
	}

	s.votesMu.Lock()
	if _, exists := s.votes[hash]; exists {
		s.votesMu.Unlock()
		return false
	}
	if last, ok := s.lastVoteByOperator[v.Operator]; ok && last == v.Height {
		s.votesMu.Unlock()
		return false
	}
	cp := v
	s.votes[hash] = &cp
	s.lastVoteByOperator[v.Operator] = v.Height
	s.votesMu.Unlock()

	tier, known := s.tierOf(v.Operator)
	if !known {
		tier = chainparams.TierUnknown
		s.votesMu.Lock()
		s.unresolvedTier[hash] = v.Operator
		s.votesMu.Unlock()
	}

	s.blocksMu.Lock()
	tally, ok := s.blocks[v.Height]
	if !ok {
		tally = &BlockTally{Height: v.Height, payees: make(map[string]*payee)}
		s.blocks[v.Height] = tally
	}
	p, ok := tally.payees[string(v.Payee)]
	if !ok {
		p = &payee{script: v.Payee, tier: tier}
		tally.payees[string(v.Payee)] = p
	}
	p.voteHashes = append(p.voteHashes, hash)
	s.blocksMu.Unlock()

	return true
}

// resolveUnresolvedTiers re-queries tierOf for any vote recorded before its
// operator's tier was known (spec.md §4.F: "marked tier = -1 and
// re-queried on next visit"). Called with blocksMu held.
func (s *Store) resolveUnresolvedTiers() {
	s.votesMu.Lock()
	pending := s.unresolvedTier
	s.unresolvedTier = make(map[mnwire.Hash]chainio.Outpoint)
	s.votesMu.Unlock()

	for hash, operator := range pending {
		tier, known := s.tierOf(operator)
		if !known {
			s.votesMu.Lock()
			s.unresolvedTier[hash] = operator
			s.votesMu.Unlock()
			continue
		}
		s.votesMu.Lock()
		v := s.votes[hash]
		s.votesMu.Unlock()
		if v == nil {
			continue
		}
		if tally, ok := s.blocks[v.Height]; ok {
			if p, ok := tally.payees[string(v.Payee)]; ok && p.tier == chainparams.TierUnknown {
				p.tier = tier
			}
		}
	}
}

// GetBestPayee returns the payee script with the most votes among tier
// candidates at height, breaking ties by the numerically greatest vote
// hash (spec.md §4.F). ok is false if height has no tally at all.
func (s *Store) GetBestPayee(height int64, tier chainparams.Tier) (script []byte, ok bool) {
	s.blocksMu.Lock()
	defer s.blocksMu.Unlock()
	s.resolveUnresolvedTiers()

	tally, exists := s.blocks[height]
	if !exists {
		return nil, false
	}

	var best *payee
	var bestMaxHash mnwire.Hash
	for _, p := range tally.payees {
		if p.tier != tier {
			continue
		}
		maxHash := maxOf(p.voteHashes)
		if best == nil ||
			len(p.voteHashes) > len(best.voteHashes) ||
			(len(p.voteHashes) == len(best.voteHashes) && bestMaxHash.Less(maxHash)) {
			best = p
			bestMaxHash = maxHash
		}
	}
	if best == nil {
		return nil, false
	}
	return best.script, true
}

// VoteCount returns how many votes the given payee has at height,
// regardless of tier — used by PaymentValidator's "at least
// SIGNATURES_REQUIRED-1 votes" fallback (spec.md §4.H).
func (s *Store) VoteCount(height int64, payeeScript []byte) int {
	s.blocksMu.Lock()
	defer s.blocksMu.Unlock()
	tally, ok := s.blocks[height]
	if !ok {
		return 0
	}
	p, ok := tally.payees[string(payeeScript)]
	if !ok {
		return 0
	}
	return len(p.voteHashes)
}

// HasAnyTally reports whether height has at least SIGNATURES_REQUIRED
// votes on any payee, the gate PaymentValidator uses to decide whether
// enforcement applies at all (spec.md §4.H).
func (s *Store) HasAnyTally(height int64, signaturesRequired int) bool {
	s.blocksMu.Lock()
	defer s.blocksMu.Unlock()
	tally, ok := s.blocks[height]
	if !ok {
		return false
	}
	for _, p := range tally.payees {
		if len(p.voteHashes) >= signaturesRequired {
			return true
		}
	}
	return false
}

func maxOf(hashes []mnwire.Hash) mnwire.Hash {
	var max mnwire.Hash
	for i, h := range hashes {
		if i == 0 || max.Less(h) {
			max = h
		}
	}
	return max
}

// CheckAndRemove drops votes and tally entries older than tip - limit,
// where limit is max(operatorCount * 1.25, 5000) (spec.md §4.F storage
// limit).
func (s *Store) CheckAndRemove(tip int64, operatorCount int) {
	limit := StorageLimit(operatorCount)
	floor := tip - limit

	s.blocksMu.Lock()
	for h, tally := range s.blocks {
		if h < floor {
			delete(s.blocks, h)
			continue
		}
		for script, p := range tally.payees {
			if len(p.voteHashes) == 0 {
				delete(tally.payees, script)
			}
		}
	}
	s.blocksMu.Unlock()

	s.votesMu.Lock()
	for hash, v := range s.votes {
		if v.Height < floor {
			delete(s.votes, hash)
			delete(s.unresolvedTier, hash)
		}
	}
	for op, h := range s.lastVoteByOperator {
		if h < floor {
			delete(s.lastVoteByOperator, op)
		}
	}
	s.votesMu.Unlock()
}

// RecordMissedVote increments operator's did-not-vote counter, called by
// PaymentVoter.CheckPreviousBlockVotes for each top-ranked operator found
// not to have voted (spec.md §4.G, §4.F did_not_vote).
func (s *Store) RecordMissedVote(operator chainio.Outpoint) {
	s.votesMu.Lock()
	defer s.votesMu.Unlock()
	s.didNotVote[operator]++
}

// MissedVoteCount returns how many times operator has been observed not
// voting.
func (s *Store) MissedVoteCount(operator chainio.Outpoint) int {
	s.votesMu.Lock()
	defer s.votesMu.Unlock()
	return s.didNotVote[operator]
}

// StorageLimit returns max(operatorCount * 1.25, 5000), the retention
// window from spec.md §4.F.
func StorageLimit(operatorCount int) int64 {
	scaled := int64(float64(operatorCount) * 1.25)
	if scaled < 5000 {
		return 5000
	}
	return scaled
}
