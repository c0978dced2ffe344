package verify

import (
	"bytes"
	"sort"

	"go.uber.org/zap"

	"github.com/citrea-rollup/node/internal/da"
	"github.com/citrea-rollup/node/internal/fork"
	"github.com/citrea-rollup/node/internal/ledger"
	"github.com/citrea-rollup/node/internal/syncerrors"
)

// CodeCommitment is the opaque per-fork zkVM guest commitment a proof is
// checked against; which one applies is selected by the fork active at
// the proof's last covered L2 height (spec.md §4.8 step 1/3). It is a
// plain alias for []byte so verification backends need not import this
// package just to match the Backend interface's parameter type.
type CodeCommitment = []byte

// Backend is the capability set named in spec.md §9: verify a proof
// against a code commitment. Concrete variants are a recursive-SNARK
// verifier and the mockverifier used by tests.
type Backend interface {
	VerifyProof(proofBytes []byte, commitment CodeCommitment) bool
}

// Keys are the node's configured sequencer keys, checked against a
// proof's claimed public output before it is trusted at all.
type Keys struct {
	SequencerPublicKey []byte
	SequencerDAPubKey  []byte
}

// ProofVerifier implements spec.md §4.8: public-key cross-check,
// fork-gated code-commitment selection, state-root chaining through the
// preproven-commitment-filtered range, and the Proven status transition.
type ProofVerifier struct {
	db              *ledger.DB
	forkMg          *fork.Manager
	codeCommitments map[fork.SpecID]CodeCommitment
	keys            Keys
	backend         Backend
	logger          *zap.Logger
}

// NewProofVerifier builds a ProofVerifier.
func NewProofVerifier(db *ledger.DB, forkMg *fork.Manager, codeCommitments map[fork.SpecID]CodeCommitment, keys Keys, backend Backend, logger *zap.Logger) *ProofVerifier {
	return &ProofVerifier{
		db:              db,
		forkMg:          forkMg,
		codeCommitments: codeCommitments,
		keys:            keys,
		backend:         backend,
		logger:          logger,
	}
}

// Verify checks one zk proof extracted from an L1 block. Any failure
// rejects this proof alone; the caller continues with sibling proofs in
// the same L1 block (spec.md §4.8, §7).
func (v *ProofVerifier) Verify(proof da.ZKProof) error {
	if !bytes.Equal(proof.SequencerPublicKey, v.keys.SequencerPublicKey) ||
		!bytes.Equal(proof.SequencerDAPubKey, v.keys.SequencerDAPubKey) {
		return syncerrors.NewInvariantViolation("proof public keys do not match configured sequencer keys")
	}

	spec := v.forkMg.ActiveForHeight(proof.LastL2HeightAtProve)
	commitment, ok := v.codeCommitments[spec]
	if !ok {
		return syncerrors.NewInvariantViolation("no code commitment configured for the proof's fork")
	}
	if !v.backend.VerifyProof(proof.ProofBytes, commitment) {
		return syncerrors.NewInvariantViolation("proof failed cryptographic verification")
	}

	l1Height, found, err := v.db.GetL1HeightOfHash(proof.DASlotHash)
	if err != nil {
		return err
	}
	if !found {
		return syncerrors.NewInvariantViolation("proof's DA slot hash is not a known L1 block")
	}

	commitments, err := v.db.GetCommitmentsOnSlot(l1Height)
	if err != nil {
		return err
	}
	sort.Slice(commitments, func(i, j int) bool { return commitments[i].L2Start < commitments[j].L2Start })

	preproven := make(map[uint64]bool, len(proof.PreprovenCommitments))
	for _, idx := range proof.PreprovenCommitments {
		preproven[idx] = true
	}
	var remaining []ledger.SequencerCommitment
	for i, c := range commitments {
		if preproven[uint64(i)] {
			continue
		}
		remaining = append(remaining, c)
	}

	if proof.Range1 >= uint64(len(remaining)) || proof.Range0 > proof.Range1 {
		return syncerrors.NewInvariantViolation("proof's commitment range is out of bounds after preproven filtering")
	}
	covered := remaining[proof.Range0 : proof.Range1+1]

	anchorHeight := covered[0].L2Start - 1
	anchorRoot, found, err := v.db.GetStateRoot(anchorHeight)
	if err != nil {
		return err
	}
	if !found || anchorRoot != proof.InitialStateRoot {
		return syncerrors.NewInvariantViolation("proof's initial state root does not chain to the anchor height's post-state root")
	}

	for _, c := range covered {
		for h := c.L2Start; h <= c.L2End; h++ {
			if err := v.db.SetStatus(h, ledger.Proven); err != nil {
				return err
			}
		}
	}

	output := ledger.StoredBatchProofOutput{
		L1Height:             l1Height,
		InitialStateRoot:     proof.InitialStateRoot,
		FinalStateRoot:       proof.FinalStateRoot,
		FirstL2Height:        covered[0].L2Start,
		LastL2Height:         covered[len(covered)-1].L2End,
		PreprovenCommitments: proof.PreprovenCommitments,
	}
	existing, err := v.db.GetVerifiedProofs(l1Height)
	if err != nil {
		return err
	}
	existing = append(existing, output)
	return v.db.PutVerifiedProofs(l1Height, existing)
}
