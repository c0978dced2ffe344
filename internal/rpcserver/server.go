// Package rpcserver exposes the ledger JSON-RPC namespace over
// gorilla/rpc (spec.md §6): read-only queries over soft confirmations,
// commitments, and verified proofs, plus the health_check method
// grounded on original_source/crates/common/src/rpc/mod.rs.
package rpcserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/rpc"
	"github.com/gorilla/rpc/json"
	"go.uber.org/zap"

	"github.com/citrea-rollup/node/internal/ledger"
)

// blockNumThreshold mirrors BLOCK_NUM_THRESHOLD: health_check reports
// healthy unconditionally below this head height, since there has not
// been enough history yet to judge block cadence.
const blockNumThreshold = 2

// LedgerService implements the "ledger" JSON-RPC namespace. Method names
// are matched case-insensitively by gorilla/rpc, so Go's exported
// GetSoftConfirmationByNumber answers the wire method
// "ledger.getSoftConfirmationByNumber".
type LedgerService struct {
	db     *ledger.DB
	sleep  func(d time.Duration)
	logger *zap.Logger
}

// NewLedgerService builds the ledger RPC service.
func NewLedgerService(db *ledger.DB, logger *zap.Logger) *LedgerService {
	return &LedgerService{db: db, sleep: time.Sleep, logger: logger}
}

// SoftConfirmationReply mirrors spec.md's SoftConfirmationResponse shape
// over the wire.
type SoftConfirmationReply struct {
	Found bool                           `json:"found"`
	Value ledger.StoredSoftConfirmation `json:"value,omitempty"`
}

type byNumberArgs struct {
	Height uint64 `json:"height"`
}

// GetSoftConfirmationByNumber answers ledger.getSoftConfirmationByNumber.
func (s *LedgerService) GetSoftConfirmationByNumber(r *http.Request, args *byNumberArgs, reply *SoftConfirmationReply) error {
	sc, ok, err := s.db.GetSoftConfirmation(args.Height)
	if err != nil {
		return err
	}
	reply.Found = ok
	if ok {
		reply.Value = *sc
	}
	return nil
}

type rangeArgs struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// SoftConfirmationRangeReply carries the (possibly incomplete) range;
// Complete is false when one or more heights in [Start, End] are not yet
// synced.
type SoftConfirmationRangeReply struct {
	Values   []ledger.StoredSoftConfirmation `json:"values"`
	Complete bool                            `json:"complete"`
}

// GetSoftConfirmationRange answers ledger.getSoftConfirmationRange.
func (s *LedgerService) GetSoftConfirmationRange(r *http.Request, args *rangeArgs, reply *SoftConfirmationRangeReply) error {
	values, complete, err := s.db.GetSoftConfirmationRange(args.Start, args.End)
	if err != nil {
		return err
	}
	reply.Values = values
	reply.Complete = complete
	return nil
}

// StatusReply carries a soft confirmation's lattice status.
type StatusReply struct {
	Status string `json:"status"`
}

// GetSoftConfirmationStatus answers ledger.getSoftConfirmationStatus.
func (s *LedgerService) GetSoftConfirmationStatus(r *http.Request, args *byNumberArgs, reply *StatusReply) error {
	status, err := s.db.GetStatus(args.Height)
	if err != nil {
		return err
	}
	reply.Status = status.String()
	return nil
}

// CommitmentsReply carries the sequencer commitments recorded at an L1
// height.
type CommitmentsReply struct {
	Commitments []ledger.SequencerCommitment `json:"commitments"`
}

// GetSequencerCommitmentsOnSlotByNumber answers
// ledger.getSequencerCommitmentsOnSlotByNumber.
func (s *LedgerService) GetSequencerCommitmentsOnSlotByNumber(r *http.Request, args *byNumberArgs, reply *CommitmentsReply) error {
	commitments, err := s.db.GetCommitmentsOnSlot(args.Height)
	if err != nil {
		return err
	}
	reply.Commitments = commitments
	return nil
}

// BatchProofsReply carries the verified batch-proof outputs recorded at
// an L1 height; it answers both getBatchProofsBySlotHeight and
// getVerifiedBatchProofsBySlotHeight, which share the same persisted
// record in this ledger (spec.md's distinction between "seen" and
// "verified" proofs collapses once a proof is only ever persisted after
// it verifies — see DESIGN.md).
type BatchProofsReply struct {
	Proofs []ledger.StoredBatchProofOutput `json:"proofs"`
}

// GetBatchProofsBySlotHeight answers ledger.getBatchProofsBySlotHeight.
func (s *LedgerService) GetBatchProofsBySlotHeight(r *http.Request, args *byNumberArgs, reply *BatchProofsReply) error {
	proofs, err := s.db.GetVerifiedProofs(args.Height)
	if err != nil {
		return err
	}
	reply.Proofs = proofs
	return nil
}

// GetVerifiedBatchProofsBySlotHeight answers
// ledger.getVerifiedBatchProofsBySlotHeight.
func (s *LedgerService) GetVerifiedBatchProofsBySlotHeight(r *http.Request, args *byNumberArgs, reply *BatchProofsReply) error {
	return s.GetBatchProofsBySlotHeight(r, args, reply)
}

type noArgs struct{}

// HeightReply carries a single height value.
type HeightReply struct {
	Height uint64 `json:"height"`
	Found  bool   `json:"found"`
}

// GetHeadSoftConfirmationHeight answers ledger.getHeadSoftConfirmationHeight.
func (s *LedgerService) GetHeadSoftConfirmationHeight(r *http.Request, args *noArgs, reply *HeightReply) error {
	height, ok, err := s.db.GetHeadSoftConfirmationHeight()
	if err != nil {
		return err
	}
	reply.Height, reply.Found = height, ok
	return nil
}

// GetLastScannedL1Height answers ledger.getLastScannedL1Height.
func (s *LedgerService) GetLastScannedL1Height(r *http.Request, args *noArgs, reply *HeightReply) error {
	height, ok, err := s.db.GetLastScannedL1Height()
	if err != nil {
		return err
	}
	reply.Height, reply.Found = height, ok
	return nil
}

// RootReply carries a 32-byte state root.
type RootReply struct {
	Root  [32]byte `json:"root"`
	Found bool     `json:"found"`
}

// GetL2GenesisStateRoot answers ledger.getL2GenesisStateRoot.
func (s *LedgerService) GetL2GenesisStateRoot(r *http.Request, args *noArgs, reply *RootReply) error {
	root, ok, err := s.db.GetGenesisStateRoot()
	if err != nil {
		return err
	}
	reply.Root, reply.Found = root, ok
	return nil
}

// HealthCheck answers ledger.health_check: it blocks for roughly one and
// a half block periods and reports an error if the head height has not
// advanced in that time, per
// original_source/crates/common/src/rpc/mod.rs's register_healthcheck_rpc.
func (s *LedgerService) HealthCheck(r *http.Request, args *noArgs, reply *struct{}) error {
	return healthCheck(context.Background(), s.db, s.sleep)
}

func healthCheck(ctx context.Context, db *ledger.DB, sleep func(time.Duration)) error {
	head, ok, err := db.GetHeadSoftConfirmationHeight()
	if err != nil {
		return err
	}
	if !ok || head < blockNumThreshold {
		return nil
	}

	batches, complete, err := db.GetSoftConfirmationRange(head-1, head)
	if err != nil {
		return err
	}
	if !complete || len(batches) != 2 {
		return nil
	}

	blockTimeSeconds := batches[1].Timestamp - batches[0].Timestamp
	if blockTimeSeconds < 1 {
		blockTimeSeconds = 1
	}
	sleep(time.Duration(blockTimeSeconds) * 1500 * time.Millisecond)

	newHead, ok, err := db.GetHeadSoftConfirmationHeight()
	if err != nil {
		return err
	}
	if !ok || newHead <= head {
		return errNotAdvancing
	}
	return nil
}

// NewHandler builds the JSON-RPC HTTP handler serving the ledger
// namespace.
func NewHandler(svc *LedgerService) http.Handler {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	_ = server.RegisterService(svc, "ledger")
	return server
}
