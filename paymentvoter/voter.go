// Package paymentvoter implements component G: the operator role that,
// whenever tip advances, computes the next eligible payee ten blocks out,
// signs a vote for it, and relays it to the network (spec.md §4.G).
// Grounded on original_source/src/masternode-payments.cpp's
// CMasternodePayments::ProcessBlock and GetNextMasternodeInQueueForPayment.
package paymentvoter

import (
	"github.com/pkg/errors"

	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/infinitynode"
	"github.com/minblock/qtipd/internal/chainio"
	mnwire "github.com/minblock/qtipd/internal/wire"
	"github.com/minblock/qtipd/paymentvote"
)

// voteLookahead is how far beyond tip a vote targets (spec.md §4.G: "call
// process_block(tip + 10)").
const voteLookahead = 10

// rankLookback is how far behind the target height the operator ranking is
// computed at (spec.md §4.G step 1, matching PaymentVoteStore's own
// confirmation depth).
const rankLookback = 101

// Voter owns the active operator's identity and wires the registry, vote
// store, and external signer/relay together to emit one vote per advancing
// tip (spec.md §3 "active_operator ... process-wide state initialised once
// on startup").
type Voter struct {
	params      *chainparams.Params
	registry    *infinitynode.Registry
	store       *paymentvote.Store
	solver      chainio.Solver
	signer      chainio.Signer
	relay       chainio.Relay
	ownOutpoint chainio.Outpoint
}

// New returns a Voter acting as ownOutpoint. Pass a zero-value
// chainio.Outpoint for a node that isn't running as an operator; ProcessBlock
// then becomes a no-op because the registry never has a node at that key.
func New(params *chainparams.Params, registry *infinitynode.Registry, store *paymentvote.Store, solver chainio.Solver, signer chainio.Signer, relay chainio.Relay, ownOutpoint chainio.Outpoint) *Voter {
	return &Voter{
		params:      params,
		registry:    registry,
		store:       store,
		solver:      solver,
		signer:      signer,
		relay:       relay,
		ownOutpoint: ownOutpoint,
	}
}

// ProcessBlock runs the five-step voting procedure for tip+10 (spec.md
// §4.G). It is silently a no-op whenever the operator is unregistered,
// unranked, out of the top SignaturesTotal, or the computed vote is rejected
// as stale by the store — all of those are the Stale error kind from
// spec.md §7, not failures worth propagating.
func (v *Voter) ProcessBlock(tip int64) error {
	height := tip + voteLookahead

	self, ok := v.registry.Find(v.ownOutpoint)
	if !ok || self.Tier == chainparams.TierUnknown {
		return nil
	}

	ranks := v.registry.CalcRank(height-rankLookback, self.Tier, false)
	if !inTopRanks(ranks, v.ownOutpoint, chainparams.SignaturesTotal) {
		return nil
	}

	winner, ok := v.registry.NextInQueue(height-rankLookback, self.Tier)
	if !ok {
		return nil
	}

	payeeScript, err := v.solver.ScriptForAddress(winner.CollateralAddress)
	if err != nil {
		return errors.Wrap(err, "paymentvoter: rendering payee script")
	}

	msg := &mnwire.MsgPaymentVote{
		OperatorOutpoint: v.ownOutpoint,
		BlockHeight:      int32(height),
		Payee:            payeeScript,
	}
	asm := v.solver.ScriptAsm(payeeScript)
	sig, err := v.signer.Sign(msg.SigningPayload(asm))
	if err != nil {
		return errors.Wrap(err, "paymentvoter: signing vote")
	}
	msg.Signature = sig

	vote := paymentvote.Vote{
		Operator:  v.ownOutpoint,
		Height:    height,
		Payee:     payeeScript,
		Signature: sig,
		Version:   paymentvote.CurrentVoteVersion,
	}
	if !v.store.AddVote(vote) {
		return nil
	}
	v.relay.AnnounceVote([32]byte(vote.Hash()))
	return nil
}

func inTopRanks(ranks map[int]*infinitynode.Node, outpoint chainio.Outpoint, top int) bool {
	for rank, node := range ranks {
		if rank > top {
			continue
		}
		if node.BurnOutpoint == outpoint {
			return true
		}
	}
	return false
}

// CheckPreviousBlockVotes records, for each of the top SignaturesTotal
// operators ranked at prevH-101, whether they failed to vote for prevH
// (spec.md §4.G: "after each tip, for the top-30 operators ... record which
// operators failed to vote").
func (v *Voter) CheckPreviousBlockVotes(prevH int64) {
	for _, tier := range []chainparams.Tier{chainparams.TierT1, chainparams.TierT5, chainparams.TierT10} {
		ranks := v.registry.CalcRank(prevH-rankLookback, tier, false)
		for rank, node := range ranks {
			if rank > chainparams.SignaturesTotal {
				continue
			}
			if v.store.CanVote(node.BurnOutpoint, prevH) {
				v.store.RecordMissedVote(node.BurnOutpoint)
			}
		}
	}
}
