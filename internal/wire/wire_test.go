package wire

import (
	"bytes"
	"testing"

	"github.com/minblock/qtipd/internal/chainio"
)

func TestMsgPaymentVoteRoundTrip(t *testing.T) {
	in := &MsgPaymentVote{
		OperatorOutpoint: chainio.Outpoint{Index: 7},
		BlockHeight:      12345,
		Payee:            []byte{0x76, 0xa9, 0x14},
		Signature:        []byte("a-signature"),
	}
	in.OperatorOutpoint.Hash[0] = 0xAB

	var buf bytes.Buffer
	if err := in.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out := &MsgPaymentVote{}
	if err := out.Decode(&buf); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.OperatorOutpoint != in.OperatorOutpoint || out.BlockHeight != in.BlockHeight ||
		!bytes.Equal(out.Payee, in.Payee) || !bytes.Equal(out.Signature, in.Signature) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
	if in.Hash() != out.Hash() {
		t.Fatal("hash should be stable across an encode/decode round trip")
	}
}

func TestMsgPaymentSyncRoundTrip(t *testing.T) {
	in := &MsgPaymentSync{CountNeeded: 20}
	var buf bytes.Buffer
	if err := in.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := &MsgPaymentSync{}
	if err := out.Decode(&buf); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.CountNeeded != in.CountNeeded {
		t.Fatalf("CountNeeded = %d, want %d", out.CountNeeded, in.CountNeeded)
	}
}

func TestHashLess(t *testing.T) {
	var a, b Hash
	a[0] = 1
	b[0] = 2
	if !a.Less(b) || b.Less(a) {
		t.Fatal("Less should order hashes byte-wise")
	}
}
