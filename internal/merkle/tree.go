// Package merkle implements the SHA-256 binary Merkle tree used to compute
// the root of a contiguous range of soft-confirmation hashes for comparison
// against a sequencer commitment's claimed root (spec.md §4.7, §4.9).
//
// The combining rule matches the rs_merkle crate's default behavior: a
// level with an odd number of nodes carries its last (unpaired) node up to
// the next level unchanged, rather than duplicating it. Byte-exact parity
// with the sequencer's own tree construction depends on this detail.
package merkle

import "crypto/sha256"

// Hash is a 32-byte SHA-256 digest.
type Hash [32]byte

// Root computes the Merkle root over leaves in the given order. An empty
// leaf set has no root.
func Root(leaves []Hash) (Hash, bool) {
	if len(leaves) == 0 {
		return Hash{}, false
	}
	level := make([]Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		i := 0
		for i+1 < len(level) {
			next = append(next, combine(level[i], level[i+1]))
			i += 2
		}
		if i < len(level) {
			// Odd node out: carried up unchanged.
			next = append(next, level[i])
		}
		level = next
	}
	return level[0], true
}

func combine(left, right Hash) Hash {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}
