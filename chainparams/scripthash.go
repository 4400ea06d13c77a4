package chainparams

import "crypto/sha256"

// scriptHash derives a stable 20-byte placeholder hash160 for a named
// well-known address. The real burn/metadata/governance addresses are
// network-specific base58 strings minted by the chain's genesis tooling
// (out of scope here, spec.md §1); tests and the scanner only need the
// hash to be stable and distinct per role and per network.
func scriptHash(label string) [20]byte {
	sum := sha256.Sum256([]byte(label))
	var out [20]byte
	copy(out[:], sum[:20])
	return out
}
