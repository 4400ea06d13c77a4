// Package masternode wires components A-I into the single top-level
// context spec.md §9 Design Notes calls for: "encapsulate as owned fields
// of a top-level Node context passed by reference; start them explicitly,
// tear down in reverse order." Grounded on the teacher's kaspad.go `kaspad`
// struct: atomic started/shutdown guards, an explicit start/stop pair, and
// background workers spawned through the panic-recovering goroutine
// wrapper.
package masternode

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/chainscan"
	"github.com/minblock/qtipd/governance"
	"github.com/minblock/qtipd/infinitynode"
	"github.com/minblock/qtipd/internal/chainio"
	"github.com/minblock/qtipd/internal/config"
	"github.com/minblock/qtipd/internal/logs"
	"github.com/minblock/qtipd/internal/panics"
	"github.com/minblock/qtipd/paymentvalidator"
	"github.com/minblock/qtipd/paymentvote"
	"github.com/minblock/qtipd/paymentvoter"
	"github.com/minblock/qtipd/snapshot"
	"github.com/minblock/qtipd/statement"
)

var log = logs.Get(logs.TagNode)
var spawn = panics.GoroutineWrapperFunc(log)

// checkAndRemoveInterval is the cadence of the dedicated InfinityNode
// worker goroutine (spec.md §5: "a dedicated InfinityNode worker (calls
// check_and_remove at a slow cadence)").
const checkAndRemoveInterval = 30 * time.Second

// snapshotInterval is how often Node persists the registry and governance
// snapshots to disk while running (spec.md §2 data flow: "(I) periodically
// snapshots").
const snapshotInterval = 5 * time.Minute

var allTiers = []chainparams.Tier{chainparams.TierT1, chainparams.TierT5, chainparams.TierT10}

// Node owns every component this subsystem needs and drives them from one
// place: the registry (C), scanner (B), statement schedule (D), governance
// vote store (E), payment vote store (F), voter (G), and validator (H),
// plus the two snapshot files (I). A host process owns exactly one Node per
// network.
type Node struct {
	cfg    *config.Config
	params *chainparams.Params

	Registry  *infinitynode.Registry
	Scanner   *chainscan.Scanner
	Schedule  *statement.Schedule
	Votes     *governance.Votes
	VoteStore *paymentvote.Store
	Voter     *paymentvoter.Voter
	Validator *paymentvalidator.Validator

	registryPath string
	votesPath    string

	quit              chan struct{}
	started, shutdown int32
}

// New constructs a Node over cfg and params, wiring every component, and
// attempts to restore both snapshot files from cfg.DataDir. A missing file
// or a version mismatch is not an error: the registry starts empty and
// Scanner.Scan repopulates it from chain on the first OnTip call (spec.md
// §4.I: "if the version string mismatches ... discard and rebuild from
// chain"). ownOutpoint is the zero value for a node that isn't running as
// an operator.
func New(
	cfg *config.Config,
	params *chainparams.Params,
	blockSource chainio.BlockSource,
	solver chainio.Solver,
	signer chainio.Signer,
	relay chainio.Relay,
	reward chainparams.RewardFunc,
	ownOutpoint chainio.Outpoint,
) *Node {
	registry := infinitynode.NewRegistry(params)
	votes := governance.NewVotes()
	scanner := chainscan.NewScanner(blockSource, solver, params, registry, votes, reward)
	schedule := statement.NewSchedule(params, registry)
	voteStore := paymentvote.NewStore(blockSource, registry.TierForOutpoint)
	if cfg.PayUpdatedNodesOnly {
		voteStore.MinVoteVersion = paymentvote.CurrentVoteVersion
	}
	voter := paymentvoter.New(params, registry, voteStore, solver, signer, relay, ownOutpoint)
	validator := paymentvalidator.New(params, registry, voteStore, solver, reward)
	validator.EnforcementActive = cfg.MasternodePaymentEnforcement

	n := &Node{
		cfg:          cfg,
		params:       params,
		Registry:     registry,
		Scanner:      scanner,
		Schedule:     schedule,
		Votes:        votes,
		VoteStore:    voteStore,
		Voter:        voter,
		Validator:    validator,
		registryPath: filepath.Join(cfg.DataDir, "infinitynode.dat"),
		votesPath:    filepath.Join(cfg.DataDir, "infinitynodersv.dat"),
		quit:         make(chan struct{}),
	}

	n.loadSnapshots()
	return n
}

func (n *Node) loadSnapshots() {
	if err := snapshot.LoadRegistry(n.registryPath, n.cfg.Network, n.Registry, n.Scanner, n.Schedule); err != nil {
		if errors.Is(err, snapshot.ErrVersionMismatch) {
			log.Warnf("infinitynode snapshot version mismatch, rebuilding from chain")
		} else {
			log.Infof("no usable infinitynode snapshot at %s: %v", n.registryPath, err)
		}
	}
	if err := snapshot.LoadVotes(n.votesPath, n.cfg.Network, n.Votes); err != nil {
		if errors.Is(err, snapshot.ErrVersionMismatch) {
			log.Warnf("infinitynodersv snapshot version mismatch, rebuilding from chain")
		} else {
			log.Infof("no usable infinitynodersv snapshot at %s: %v", n.votesPath, err)
		}
	}
}

// Start launches Node's background workers: the slow-cadence
// check-and-remove sweep and the periodic snapshot writer (spec.md §5, §2).
// OnTip must still be called by the host on every new chain tip; Start only
// covers the cadence-driven maintenance work.
func (n *Node) Start() {
	if atomic.AddInt32(&n.started, 1) != 1 {
		return
	}
	log.Infof("starting masternode/infinitynode payment subsystem")
	spawn(n.checkAndRemoveLoop)
	spawn(n.snapshotLoop)
}

// Stop signals Node's background workers to exit and writes a final pair
// of snapshots so a restart resumes close to where it left off (spec.md
// §5: "shutdown is cooperative via a flag checked between block
// iterations").
func (n *Node) Stop() error {
	if atomic.AddInt32(&n.shutdown, 1) != 1 {
		log.Infof("masternode/infinitynode payment subsystem is already shutting down")
		return nil
	}
	close(n.quit)
	return n.SaveSnapshots()
}

func (n *Node) checkAndRemoveLoop() {
	ticker := time.NewTicker(checkAndRemoveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, tier := range allTiers {
				n.Schedule.CheckAndRemove(n.Scanner.LastScanHeight(), tier)
			}
		case <-n.quit:
			return
		}
	}
}

func (n *Node) snapshotLoop() {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := n.SaveSnapshots(); err != nil {
				log.Errorf("periodic snapshot failed: %+v", err)
			}
		case <-n.quit:
			return
		}
	}
}

// SaveSnapshots writes both the infinitynode.dat and infinitynodersv.dat
// files under an atomic write-temp-and-rename (spec.md §5 "writes are
// atomic"). Safe to call at any time, including concurrently with a scan.
func (n *Node) SaveSnapshots() error {
	if err := snapshot.SaveRegistry(n.registryPath, n.cfg.Network, n.Registry, n.Scanner, n.Schedule); err != nil {
		return errors.Wrap(err, "masternode: saving infinitynode.dat")
	}
	if err := snapshot.SaveVotes(n.votesPath, n.cfg.Network, n.Votes); err != nil {
		return errors.Wrap(err, "masternode: saving infinitynodersv.dat")
	}
	return nil
}

// OnTip runs the per-tip pipeline (spec.md §2 data flow): the scanner
// absorbs the newly-confirmed range, statements extend to cover it, the
// voter emits its vote for tip+10 after recording the previous round's
// abstentions, and the vote store sweeps anything past its retention
// window. Called by the host once for every chain tip advance.
func (n *Node) OnTip(tip int64) error {
	if err := n.Scanner.Scan(tip); err != nil {
		return errors.Wrap(err, "masternode: scanning chain")
	}

	for _, tier := range allTiers {
		n.Schedule.CheckAndRemove(tip, tier)
	}

	n.Voter.CheckPreviousBlockVotes(tip - 1)
	if err := n.Voter.ProcessBlock(tip); err != nil {
		log.Warnf("paymentvoter.ProcessBlock(%d): %+v", tip, err)
	}

	n.VoteStore.CheckAndRemove(tip, n.Registry.Count())
	return nil
}

// GovernanceResult tallies proposal's votes under mode, resolving operator
// tiers through the registry (spec.md §4.E).
func (n *Node) GovernanceResult(proposal string, opinion bool, mode governance.Mode) int {
	return n.Votes.Result(proposal, opinion, mode, n.Registry)
}
