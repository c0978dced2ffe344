// Package syncl1 walks the DA chain from the last scanned height,
// extracts sequencer commitments and zk proofs from each finalized
// block, and feeds them to the verifiers, mirroring
// original_source/crates/fullnode/src/da_block_handler.rs's sync_l1 task
// and L1BlockHandler.run/process_l1_block (spec.md §4.5, §5).
package syncl1

import (
	"container/list"
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/citrea-rollup/node/internal/da"
	"github.com/citrea-rollup/node/internal/ledger"
	"github.com/citrea-rollup/node/internal/syncerrors"
)

// CommitmentVerifier is the subset of verify.CommitmentVerifier this
// worker depends on.
type CommitmentVerifier interface {
	Verify(c da.SequencerCommitment) error
}

// ProofVerifier is the subset of verify.ProofVerifier this worker
// depends on.
type ProofVerifier interface {
	Verify(p da.ZKProof) error
}

// Worker drives the L1 scan loop: fetch-ahead into a bounded channel,
// process one pending block per tick, and never skip ahead of a block
// whose L2 range has not synced yet.
type Worker struct {
	service     da.Service
	extractor   *da.Extractor
	commitments CommitmentVerifier
	proofs      ProofVerifier
	ledger      *ledger.DB
	logger      *zap.Logger
}

// New builds a Worker.
func New(service da.Service, extractor *da.Extractor, commitments CommitmentVerifier, proofs ProofVerifier, db *ledger.DB, logger *zap.Logger) *Worker {
	return &Worker{service: service, extractor: extractor, commitments: commitments, proofs: proofs, ledger: db, logger: logger}
}

// Run fetches and processes DA blocks starting at startHeight+1 until
// ctx is cancelled.
func (w *Worker) Run(ctx context.Context, startHeight uint64) error {
	blocks := make(chan da.Block) // unbuffered: backpressure depth 1, matching mpsc::channel(1)
	fetchErrCh := make(chan error, 1)

	go func() {
		fetchErrCh <- w.fetchLoop(ctx, startHeight, blocks)
	}()

	pending := list.New()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-fetchErrCh:
			return err
		case block, ok := <-blocks:
			if !ok {
				return nil
			}
			pending.PushBack(block)
		case <-ticker.C:
			w.processFront(pending)
		}
	}
}

// fetchLoop walks the finalized DA tip and pushes newly-finalized blocks
// onto blocks in height order.
func (w *Worker) fetchLoop(ctx context.Context, startHeight uint64, blocks chan<- da.Block) error {
	height := startHeight
	w.logger.Info("starting L1 sync", zap.Uint64("start_height", height))

	for {
		if ctx.Err() != nil {
			return nil
		}
		tipHeader, err := w.service.GetLastFinalizedBlockHeader(ctx)
		if err != nil {
			w.logger.Error("could not fetch last finalized L1 block header", zap.Error(err))
			if !w.sleep(ctx, 2*time.Second) {
				return nil
			}
			continue
		}

		advanced := false
		for h := height + 1; h <= tipHeader.Height; h++ {
			block, err := w.service.GetBlockAt(ctx, h)
			if err != nil {
				w.logger.Error("could not fetch L1 block", zap.Uint64("height", h), zap.Error(err))
				if !w.sleep(ctx, 2*time.Second) {
					return nil
				}
				break
			}
			height = h
			advanced = true
			select {
			case <-ctx.Done():
				return nil
			case blocks <- block:
			}
		}
		if !advanced {
			if !w.sleep(ctx, 2*time.Second) {
				return nil
			}
		}
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// processFront processes the head of the pending queue, leaving it in
// place (to retry on the next tick) if it cannot yet be fully processed.
func (w *Worker) processFront(pending *list.List) {
	front := pending.Front()
	if front == nil {
		return
	}
	block := front.Value.(da.Block)
	w.logger.Info("processing L1 block", zap.Uint64("height", block.Header.Height))

	if err := w.ledger.PutL1HeightOfHash(block.Header.Hash, block.Header.Height); err != nil {
		w.logger.Error("could not record l1 height of l1 hash", zap.Error(err))
	}

	relevant := w.service.ExtractRelevantBlobs(block)
	extracted := w.extractor.Extract(da.Block{Header: block.Header, Blobs: relevant})

	if len(extracted.Commitments) > 0 && !w.l2RangeSynced(extracted.Commitments) {
		w.logger.Warn("L1 commitment received but L2 range is not synced yet, retrying next tick",
			zap.Uint64("height", block.Header.Height))
		return
	}

	for _, p := range extracted.Proofs {
		if err := w.proofs.Verify(p); err != nil {
			if _, ok := syncerrors.AsMissingL2(err); ok {
				w.logger.Warn("could not completely process zk proofs, missing L2 blocks, retrying next tick",
					zap.Error(err))
				return
			}
			w.logger.Error("could not process zk proof, skipping", zap.Error(err))
		}
	}

	for _, c := range extracted.Commitments {
		if err := w.commitments.Verify(c); err != nil {
			if _, ok := syncerrors.AsMissingL2(err); ok {
				w.logger.Warn("could not completely process sequencer commitments, missing L2 blocks, retrying next tick",
					zap.Error(err))
				return
			}
			w.logger.Error("could not process sequencer commitment, skipping", zap.Error(err))
		}
	}

	if err := w.ledger.PutCommitmentsOnSlot(block.Header.Height, extracted.Commitments); err != nil {
		w.logger.Error("could not persist commitments for L1 slot", zap.Error(err))
	}

	if err := w.ledger.SetLastScannedL1Height(block.Header.Height); err != nil {
		w.logger.Error("could not set last scanned L1 height", zap.Error(err))
	}

	pending.Remove(pending.Front())
}

func (w *Worker) l2RangeSynced(commitments []da.SequencerCommitment) bool {
	first, last := commitments[0], commitments[0]
	for _, c := range commitments {
		if c.L2Start < first.L2Start {
			first = c
		}
		if c.L2End > last.L2End {
			last = c
		}
	}
	_, complete, err := w.ledger.GetSoftConfirmationRange(first.L2Start, last.L2End)
	if err != nil {
		w.logger.Error("could not check L2 range", zap.Error(err))
		return false
	}
	return complete
}
