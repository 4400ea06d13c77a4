// Package wire implements the two gossip message payloads this subsystem
// puts on the wire (spec.md §6): MASTERNODEPAYMENTVOTE and
// MASTERNODEPAYMENTSYNC. The P2P transport itself — framing, handshake,
// connection management — is an external collaborator (spec.md §1); this
// package only encodes/decodes the payloads, following the same hand-rolled
// little-endian binary convention used by every wire/domainmessage package
// in the retrieval pack (grounded on the teacher's wire/common.go and
// wire/msgversion.go, and on _examples/blxtm-dcrd's and
// _examples/EXCCoin-exccd's wire packages).
package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/minblock/qtipd/internal/chainio"
)

// Hash is a 32-byte message digest, used to identify payment votes
// (spec.md §3: "Uniquely identified by its message hash").
type Hash [32]byte

// Less orders hashes byte-wise; used for "max vote-hash" tie-breaks
// (spec.md §3, §4.E).
func (h Hash) Less(other Hash) bool {
	return bytes.Compare(h[:], other[:]) < 0
}

// String returns the lowercase hex encoding of h.
func (h Hash) String() string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 0, 64)
	for _, b := range h {
		out = append(out, hexDigits[b>>4], hexDigits[b&0xf])
	}
	return string(out)
}

// Command names, mirroring wire.CmdVersion-style constants in the teacher's
// wire package.
const (
	CmdMasternodePaymentVote = "mnw"
	CmdMasternodePaymentSync = "mnget"
)

// Misbehavior penalties (spec.md §6).
const (
	BanScoreDuplicateSyncRequest = 20
	BanScoreInvalidSignature     = 20
	BanScoreOutOfTopRank         = 20
)

// MaxFutureBlocks is how far beyond the tip a vote's target height may be
// (spec.md §6 MASTERNODEPAYMENTSYNC: heights [tip, tip+20)); a vote for
// tip+20 is accepted, tip+21 rejected (spec.md §8 boundary test).
const MaxFutureBlocks = 20

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func writeVarBytes(w io.Writer, data []byte) error {
	if err := writeUint32(w, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readVarBytes(r io.Reader, maxLen uint32) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > maxLen {
		return nil, errors.Errorf("varbytes length %d exceeds max %d", n, maxLen)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func writeOutpoint(w io.Writer, op chainio.Outpoint) error {
	if _, err := w.Write(op.Hash[:]); err != nil {
		return err
	}
	return writeUint32(w, op.Index)
}

func readOutpoint(r io.Reader) (chainio.Outpoint, error) {
	var op chainio.Outpoint
	if _, err := io.ReadFull(r, op.Hash[:]); err != nil {
		return op, err
	}
	idx, err := readUint32(r)
	if err != nil {
		return op, err
	}
	op.Index = idx
	return op, nil
}

// MaxSignatureLen and MaxPayeeScriptLen bound the varbytes fields so a
// malformed peer can't force an unbounded allocation.
const (
	MaxSignatureLen   = 128
	MaxPayeeScriptLen = 256
)

// MsgPaymentVote is the MASTERNODEPAYMENTVOTE payload: a nomination by
// operator-outpoint for payee at blockHeight, signed by the operator
// (spec.md §3 PaymentVote, §6).
type MsgPaymentVote struct {
	OperatorOutpoint chainio.Outpoint
	BlockHeight      int32
	Payee            []byte
	Signature        []byte
}

// Command implements the wire message interface used elsewhere in the
// pack (teacher: wire.Message).
func (m *MsgPaymentVote) Command() string { return CmdMasternodePaymentVote }

// Encode serializes m to w.
func (m *MsgPaymentVote) Encode(w io.Writer) error {
	if err := writeOutpoint(w, m.OperatorOutpoint); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(m.BlockHeight)); err != nil {
		return err
	}
	if err := writeVarBytes(w, m.Payee); err != nil {
		return err
	}
	return writeVarBytes(w, m.Signature)
}

// Decode deserializes m from r.
func (m *MsgPaymentVote) Decode(r io.Reader) error {
	op, err := readOutpoint(r)
	if err != nil {
		return err
	}
	h, err := readUint32(r)
	if err != nil {
		return err
	}
	payee, err := readVarBytes(r, MaxPayeeScriptLen)
	if err != nil {
		return err
	}
	sig, err := readVarBytes(r, MaxSignatureLen)
	if err != nil {
		return err
	}
	m.OperatorOutpoint = op
	m.BlockHeight = int32(h)
	m.Payee = payee
	m.Signature = sig
	return nil
}

// SigningPayload returns the string signed/verified for this vote:
// outpoint-short-form || height || script-asm(payee) (spec.md §4.G step
// 4). asm is produced by the external script engine.
func (m *MsgPaymentVote) SigningPayload(payeeAsm string) string {
	return shortOutpoint(m.OperatorOutpoint) + itoa(int64(m.BlockHeight)) + payeeAsm
}

// Hash returns the message's identity hash (spec.md §3: PaymentVote is
// "uniquely identified by its message hash").
func (m *MsgPaymentVote) Hash() Hash {
	var buf bytes.Buffer
	_ = m.Encode(&buf)
	return sha256d(buf.Bytes())
}

// MsgPaymentSync is the MASTERNODEPAYMENTSYNC payload (spec.md §6).
type MsgPaymentSync struct {
	CountNeeded int32
}

// Command implements the wire message interface.
func (m *MsgPaymentSync) Command() string { return CmdMasternodePaymentSync }

// Encode serializes m to w.
func (m *MsgPaymentSync) Encode(w io.Writer) error {
	return writeUint32(w, uint32(m.CountNeeded))
}

// Decode deserializes m from r.
func (m *MsgPaymentSync) Decode(r io.Reader) error {
	v, err := readUint32(r)
	if err != nil {
		return err
	}
	m.CountNeeded = int32(v)
	return nil
}
