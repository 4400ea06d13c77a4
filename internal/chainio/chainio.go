// Package chainio declares the narrow interfaces this module needs from
// collaborators that live outside the masternode/infinitynode payment
// subsystem: block and transaction storage, the script engine, message
// signing, and the chain tip. None of them are implemented here; a host
// node wires concrete adapters (backed by its own block index, UTXO set,
// and wallet) at startup.
package chainio

// Outpoint identifies a transaction output: the spending key for burn
// records and for operator votes.
type Outpoint struct {
	Hash  [32]byte
	Index uint32
}

// Less orders outpoints by hash then index, the tie-break used throughout
// the registry and statement schedule.
func (o Outpoint) Less(other Outpoint) bool {
	for i := range o.Hash {
		if o.Hash[i] != other.Hash[i] {
			return o.Hash[i] < other.Hash[i]
		}
	}
	return o.Index < other.Index
}

// TxOut is a single transaction output as seen by the scanner and
// validator: a value in the chain's smallest unit and an opaque output
// script.
type TxOut struct {
	Value        int64
	PkScript     []byte
}

// Tx is the minimal transaction shape the scanner needs: its own outputs,
// plus enough of each input to resolve the transaction it spends.
type Tx struct {
	Hash    [32]byte
	TxIn    []Outpoint
	TxOut   []TxOut
}

// BlockSource reads already-confirmed chain data. Implementations must be
// safe for concurrent use; ReadBlock and ReadTx are expected to suspend
// (disk or network I/O) and therefore must never be called while a
// subsystem lock is held.
type BlockSource interface {
	// TipHeight returns the current best chain height.
	TipHeight() int64

	// ReadBlock returns every transaction in the block at height, or an
	// error if the block is not present (e.g. pruned, or beyond the tip).
	ReadBlock(height int64) ([]*Tx, error)

	// ReadTx resolves a transaction by hash regardless of which block it
	// is in. Used to fetch the transaction being spent by a burn's
	// vin[0], to derive the collateral address.
	ReadTx(hash [32]byte) (*Tx, error)

	// BlockHashAt returns the hash of the block at the given height, used
	// to confirm a vote's height was already on-chain 101 blocks ago.
	BlockHashAt(height int64) ([32]byte, bool)
}

// ScriptClass identifies how the solver classified a script.
type ScriptClass int

const (
	// ScriptUnknown means the solver could not classify the script.
	ScriptUnknown ScriptClass = iota
	// ScriptBurnData is an OP_RETURN-shaped script recognized as a burn
	// or governance payload (spec.md §4.B, §6).
	ScriptBurnData
	// ScriptPubKeyHash is an ordinary pay-to-address script.
	ScriptPubKeyHash
)

// Solver classifies scripts and extracts their payload, and renders or
// parses addresses. This is the script engine's external contract (out of
// scope for this module per spec.md §1).
type Solver interface {
	// Solve classifies pkScript and returns any embedded data pushes (for
	// TX_BURN_DATA scripts: hash160 prefix, and optionally a backup
	// address or payload string).
	Solve(pkScript []byte) (class ScriptClass, data [][]byte, err error)

	// ScriptForAddress renders the standard spend script for an address.
	ScriptForAddress(address string) ([]byte, error)

	// AddressForScript recovers an address from a standard pubkey-hash
	// script, if any.
	AddressForScript(pkScript []byte) (string, bool)

	// ScriptAsm returns the disassembly string used as part of the
	// payment-vote signing payload (spec.md §4.G).
	ScriptAsm(pkScript []byte) string
}

// Signer signs and verifies the string messages used by the gossip
// protocol (message signing is external to this module, spec.md §1).
type Signer interface {
	// Sign returns a signature over message using the active operator's
	// key.
	Sign(message string) ([]byte, error)

	// Verify reports whether sig is a valid signature over message by
	// the key controlling collateralAddress.
	Verify(collateralAddress string, message string, sig []byte) bool
}

// Relay pushes gossip announcements to the P2P layer (send/on_message is
// external to this module, spec.md §1).
type Relay interface {
	// AnnounceVote gossips INV(MSG_MASTERNODE_PAYMENT_VOTE, hash).
	AnnounceVote(hash [32]byte)
}
