// Package verify implements the commitment verifier and proof verifier:
// the two checks that advance an L2 height's status along the
// Trusted → Finalized → Proven lattice (spec.md §4.7, §4.8).
package verify

import (
	"go.uber.org/zap"

	"github.com/citrea-rollup/node/internal/da"
	"github.com/citrea-rollup/node/internal/ledger"
	"github.com/citrea-rollup/node/internal/merkle"
	"github.com/citrea-rollup/node/internal/syncerrors"
)

// CommitmentVerifier checks a sequencer commitment's claimed Merkle root
// against the locally stored soft-confirmation hashes for its range, and
// advances matching heights to Finalized.
type CommitmentVerifier struct {
	db     *ledger.DB
	logger *zap.Logger
}

// NewCommitmentVerifier builds a CommitmentVerifier over the given ledger.
func NewCommitmentVerifier(db *ledger.DB, logger *zap.Logger) *CommitmentVerifier {
	return &CommitmentVerifier{db: db, logger: logger}
}

// Verify checks one commitment. A MissingL2 error means the caller must
// defer the whole containing L1 block; any other error means this
// commitment alone is rejected and processing of siblings continues
// (spec.md §4.7, §7).
func (v *CommitmentVerifier) Verify(c da.SequencerCommitment) error {
	scs, complete, err := v.db.GetSoftConfirmationRange(c.L2Start, c.L2End)
	if err != nil {
		return err
	}
	if !complete {
		return syncerrors.NewMissingL2("commitment references L2 heights not yet synced", c.L2Start, c.L2End)
	}

	leaves := make([]merkle.Hash, len(scs))
	for i, sc := range scs {
		leaves[i] = merkle.Hash(sc.Hash)
	}
	root, ok := merkle.Root(leaves)
	if !ok || root != merkle.Hash(c.Root) {
		v.logger.Warn("verify: commitment merkle root mismatch, rejecting this commitment only",
			zap.Uint64("l2_start", c.L2Start), zap.Uint64("l2_end", c.L2End))
		return syncerrors.NewInvariantViolation("commitment merkle root does not match stored L2 hashes")
	}

	for h := c.L2Start; h <= c.L2End; h++ {
		if err := v.db.SetStatus(h, ledger.Finalized); err != nil {
			return err
		}
	}
	return nil
}
