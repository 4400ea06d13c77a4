// Package statement implements component D: the per-tier rotating payment
// epoch ("statement") schedule, and height-to-payee resolution (spec.md
// §4.D). Grounded on
// original_source/src/infinitynodeman.cpp's deterministicRewardStatement /
// deterministicRewardAtHeight, and infinitynodeman.h's three
// mapStatement{BIG,MID,LIL} + six last-statement-height/size fields (one
// ordered map and two counters per tier).
package statement

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/infinitynode"
)

// entry is one (start_height, size) record of a tier's statement map
// (spec.md §3 Statement).
type entry struct {
	start int64
	size  int
}

// Schedule owns the three per-tier statement maps and their last-statement
// counters. One mutex guards all of it; the original keeps a single `cs`
// across all three tier maps too (spec.md §9 Design Notes: "choose
// container per use — ordered for statements").
type Schedule struct {
	params   *chainparams.Params
	registry *infinitynode.Registry

	mu      sync.Mutex
	byTier  map[chainparams.Tier][]entry
	lastStart map[chainparams.Tier]int64
	lastSize  map[chainparams.Tier]int
}

// NewSchedule returns an empty schedule over registry.
func NewSchedule(params *chainparams.Params, registry *infinitynode.Registry) *Schedule {
	return &Schedule{
		params:    params,
		registry:  registry,
		byTier:    make(map[chainparams.Tier][]entry),
		lastStart: make(map[chainparams.Tier]int64),
		lastSize:  make(map[chainparams.Tier]int),
	}
}

// DeterministicRewardStatement rebuilds tier's statement map from
// InfinityGenesisStatementHeight forward (spec.md §4.D): at each probe
// height h, count nodes of tier with burn_height < h <= expire_height; stop
// when the count is zero, otherwise record (h, count) and advance h by
// count.
func (s *Schedule) DeterministicRewardStatement(tier chainparams.Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []entry
	h := s.params.InfinityGenesisStatementHeight
	for {
		count := s.registry.CountActive(h, tier)
		if count == 0 {
			break
		}
		entries = append(entries, entry{start: h, size: count})
		h += int64(count)
	}

	s.byTier[tier] = entries
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		s.lastStart[tier] = last.start
		s.lastSize[tier] = last.size
	} else {
		s.lastStart[tier] = 0
		s.lastSize[tier] = 0
	}
}

// DeterministicRewardAt resolves the payee for tier at height: the
// greatest statement_start <= height such that height - statement_start <
// statement_size, then rank (height - statement_start + 1) within that
// statement's CalcRank (spec.md §4.D).
func (s *Schedule) DeterministicRewardAt(height int64, tier chainparams.Tier) (*infinitynode.Node, error) {
	s.mu.Lock()
	entries := s.byTier[tier]
	s.mu.Unlock()

	idx := sort.Search(len(entries), func(i int) bool { return entries[i].start > height }) - 1
	if idx < 0 {
		return nil, errors.Errorf("no statement for tier %v covers height %d", tier, height)
	}
	st := entries[idx]
	if height-st.start >= int64(st.size) {
		return nil, errors.Errorf("no statement for tier %v covers height %d", tier, height)
	}

	ranks := s.registry.CalcRank(st.start, tier, false)
	rank := int(height-st.start) + 1
	node, ok := ranks[rank]
	if !ok {
		return nil, errors.Errorf("statement for tier %v at height %d has no node at rank %d", tier, height, rank)
	}
	return node, nil
}

// CheckAndRemove re-extends tier's schedule whenever the active statement's
// window is within 55 blocks of running out (spec.md §4.D: "re-extended
// whenever statement_start + size - tip < 55").
func (s *Schedule) CheckAndRemove(tip int64, tier chainparams.Tier) {
	s.mu.Lock()
	start := s.lastStart[tier]
	size := s.lastSize[tier]
	s.mu.Unlock()

	if start+int64(size)-tip < chainparams.InfMaturedLimit {
		s.DeterministicRewardStatement(tier)
	}
}

// LastStatement returns the most recent (start, size) pair for tier, or
// (0, 0) for an unrecognized tier — the defensive fall-through behavior
// decided for the Open Question in spec.md §9 ("getLastStatement /
// getLastStatementSize return without a trailing return on the
// fall-through path").
func (s *Schedule) LastStatement(tier chainparams.Tier) (start int64, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStart[tier], s.lastSize[tier]
}

// StatementMap returns a copy of tier's ordered (start_height -> size) map,
// for persistence and RPC-style inspection.
func (s *Schedule) StatementMap(tier chainparams.Tier) map[int64]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]int, len(s.byTier[tier]))
	for _, e := range s.byTier[tier] {
		out[e.start] = e.size
	}
	return out
}

// LoadStatementMap restores tier's statement map and last-statement
// counters from a snapshot (component I).
func (s *Schedule) LoadStatementMap(tier chainparams.Tier, m map[int64]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]entry, 0, len(m))
	for start, size := range m {
		entries = append(entries, entry{start: start, size: size})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].start < entries[j].start })
	s.byTier[tier] = entries
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		s.lastStart[tier] = last.start
		s.lastSize[tier] = last.size
	}
}
