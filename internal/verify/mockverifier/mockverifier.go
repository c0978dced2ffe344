// Package mockverifier is a structural stand-in for a real recursive-
// SNARK verifier, grounded on the same "check shape, not cryptography"
// approach other STF-style mock executors use: a proof is accepted when
// it is non-empty and matches the code commitment it claims, not by
// running an actual proving system.
package mockverifier

import "bytes"

// Backend accepts a proof iff its bytes are non-empty and equal the code
// commitment it is checked against — i.e. the mock "prover" emits the
// commitment itself as its proof.
type Backend struct{}

// New returns a mock verification backend.
func New() Backend { return Backend{} }

// VerifyProof implements verify.Backend.
func (Backend) VerifyProof(proofBytes []byte, commitment []byte) bool {
	if len(proofBytes) == 0 {
		return false
	}
	return bytes.Equal(proofBytes, commitment)
}
