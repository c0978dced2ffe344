// Package blockhash implements the ring of the last 256 L2 block hashes,
// indexed by L2 block number, that the EVM's BLOCKHASH opcode and the
// prevrandao-derived history contract read from.
package blockhash

import "math/big"

// RingSize is the number of recent block hashes retained, matching the
// EVM's BLOCKHASH opcode window.
const RingSize = 256

// Hash is a 32-byte block hash.
type Hash [32]byte

// Ring is a bounded mapping of L2 block number to block hash, holding
// exactly the last RingSize entries once the chain is that tall. It is not
// safe for concurrent use; callers serialize access the same way the EVM
// engine that owns it serializes block application.
type Ring struct {
	entries map[uint64]Hash
}

// New returns an empty ring.
func New() *Ring {
	return &Ring{entries: make(map[uint64]Hash, RingSize)}
}

// Set records hash as the hash of block number n, and evicts the entry that
// has fallen RingSize positions behind n (block n-RingSize), if any.
//
// This mirrors the begin-hook eviction rule: on block n+1 (n >= 256) remove
// block n-256, keeping exactly blocks [n-255, n].
func (r *Ring) Set(n uint64, hash Hash) {
	r.entries[n] = hash
	if n+1 > RingSize {
		delete(r.entries, n+1-RingSize-1)
	}
}

// Get returns the hash recorded for block number n and whether it is
// within the retained window relative to head. Queries outside the window
// return the zero hash and false, matching the BLOCKHASH opcode's
// "otherwise zero" contract.
func (r *Ring) Get(n uint64, head uint64) (Hash, bool) {
	if head == 0 || n >= head {
		return Hash{}, false
	}
	if head > RingSize && n < head-RingSize {
		return Hash{}, false
	}
	h, ok := r.entries[n]
	return h, ok
}

// Len reports the number of entries currently retained. Exposed for tests.
func (r *Ring) Len() int { return len(r.entries) }

// BigIndex is a convenience helper mirroring the *big.Int-keyed storage
// slots used by the EVM precompile/contract that backs BLOCKHASH history;
// the ring itself is keyed by plain uint64.
func BigIndex(n uint64) *big.Int { return new(big.Int).SetUint64(n) }
