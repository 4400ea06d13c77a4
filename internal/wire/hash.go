package wire

import (
	"crypto/sha256"
	"strconv"

	"github.com/minblock/qtipd/internal/chainio"
)

// sha256d is the Bitcoin-family double-SHA256 used for message and
// transaction identity hashes throughout the pack (e.g. the teacher's
// daghash package, dcrd's chainhash). Block-header hashing itself remains
// an external interface (spec.md §1); this is only used for the gossip
// message identity hash.
func sha256d(b []byte) Hash {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return Hash(second)
}

// Sha256D exposes the same double-SHA256 for callers outside this package
// that need a checksum in the same convention — the snapshot file format
// (spec.md §4.I, §6) uses it over each file's payload.
func Sha256D(b []byte) Hash {
	return sha256d(b)
}

// shortOutpoint renders an outpoint the way the original client's
// COutPoint::ToStringShort does: the first 8 hex chars of the hash, a
// separator, and the output index. Used verbatim as the first field of the
// payment-vote signing payload (spec.md §4.G).
func shortOutpoint(op chainio.Outpoint) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 0, 18)
	for i := 0; i < 4; i++ {
		b := op.Hash[i]
		buf = append(buf, hexDigits[b>>4], hexDigits[b&0xf])
	}
	buf = append(buf, '-')
	buf = strconv.AppendUint(buf, uint64(op.Index), 10)
	return string(buf)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
