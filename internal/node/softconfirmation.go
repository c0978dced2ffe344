package node

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/citrea-rollup/node/internal/ledger"
	"github.com/citrea-rollup/node/internal/rollupevm"
	"github.com/citrea-rollup/node/internal/syncl2"
)

// SoftConfirmationApplier turns each fetched syncl2.SoftConfirmation into
// a sealed EVM block: open the pre-state, run the engine's
// begin/apply_call_batch/end hooks, commit the resulting trie, and
// persist everything the ledger RPC namespace serves. This is the
// syncl2.Processor runner.rs's sync_l2 hands each fetched block to.
type SoftConfirmationApplier struct {
	engine *rollupevm.Engine
	states *StateManager
	ledger *ledger.DB
	logger *zap.Logger
}

// NewSoftConfirmationApplier builds the applier over an already-constructed
// engine, state manager, and ledger.
func NewSoftConfirmationApplier(engine *rollupevm.Engine, states *StateManager, db *ledger.DB, logger *zap.Logger) *SoftConfirmationApplier {
	return &SoftConfirmationApplier{engine: engine, states: states, ledger: db, logger: logger}
}

// Process implements syncl2.Processor.
func (a *SoftConfirmationApplier) Process(ctx context.Context, sc syncl2.SoftConfirmation) error {
	head := a.engine.Head()
	isGenesis := head == nil

	// An empty go-ethereum trie is rooted at types.EmptyRootHash, not the
	// zero hash: a fresh in-memory database has no node stored under
	// common.Hash{}, so genesis must open state at the real empty root.
	preRoot := types.EmptyRootHash
	if !isGenesis {
		parentHash := head.Hash()
		if common.Hash(sc.PrevHash) != parentHash {
			return fmt.Errorf("node: soft confirmation %d: %w: prev_hash %s, head %s", sc.Height, rollupevm.ErrPrevHashMismatch, common.Hash(sc.PrevHash), parentHash)
		}
		preRoot = head.Header.StateRoot
	}

	sc.Info.PreStateRoot = preRoot[:]

	state, err := a.states.OpenAt(preRoot)
	if err != nil {
		return fmt.Errorf("node: open state at %s for height %d: %w", preRoot, sc.Height, err)
	}

	txs, err := decodeTxs(sc.RawTxs)
	if err != nil {
		return fmt.Errorf("node: decode transactions for height %d: %w", sc.Height, err)
	}

	if err := a.engine.Begin(state, sc.Info); err != nil {
		return fmt.Errorf("node: begin height %d: %w", sc.Height, err)
	}
	if err := a.engine.ApplyCallBatch(txs); err != nil {
		return fmt.Errorf("node: apply call batch at height %d: %w", sc.Height, err)
	}
	block, err := a.engine.End(sc.Info)
	if err != nil {
		return fmt.Errorf("node: end height %d: %w", sc.Height, err)
	}

	// go-ethereum's StateDB.Commit takes a trailing noStorageWiping flag
	// (grounded on luxfi-evm/eth/api_dev.go's statedb.Commit(...) call
	// site); this engine never runs path-scheme storage wiping, so it is
	// always false.
	root, err := state.Commit(block.Header.Number, true, false)
	if err != nil {
		return fmt.Errorf("node: commit state at height %d: %w", sc.Height, err)
	}
	// Invariant 2: the state root this node derives by re-executing the
	// soft confirmation must match what the sequencer claims for it.
	// Nothing above this point is persisted, so a mismatch here simply
	// drops the block on the floor.
	if claimed := common.Hash(sc.PostStateRoot); root != claimed {
		return fmt.Errorf("node: height %d: %w: computed %s, claimed %s", sc.Height, rollupevm.ErrPostStateRootMismatch, root, claimed)
	}
	if err := a.engine.Finalize(block, root); err != nil {
		return fmt.Errorf("node: finalize height %d: %w", sc.Height, err)
	}
	a.states.RecordRoot(sc.Height, root)

	if isGenesis {
		if err := a.ledger.SetGenesisStateRoot([32]byte(preRoot)); err != nil {
			return fmt.Errorf("node: record genesis state root: %w", err)
		}
	}

	stored := ledger.StoredSoftConfirmation{
		L2Height:     sc.Height,
		Hash:         [32]byte(block.Hash()),
		PrevHash:     sc.PrevHash,
		DaSlotHeight: sc.Info.DaSlotHeight,
		DaSlotHash:   [32]byte(sc.Info.DaSlotHash),
		L1FeeRate:    sc.Info.L1FeeRate,
		Timestamp:    sc.Info.Timestamp,
		TxStart:      block.TxStart,
		TxEnd:        block.TxEnd,
	}
	if err := a.ledger.PutSoftConfirmation(stored); err != nil {
		return fmt.Errorf("node: persist soft confirmation %d: %w", sc.Height, err)
	}
	if err := a.ledger.PutStateRoot(sc.Height, [32]byte(root)); err != nil {
		return fmt.Errorf("node: persist state root for height %d: %w", sc.Height, err)
	}

	a.logger.Info("applied soft confirmation",
		zap.Uint64("height", sc.Height),
		zap.Stringer("root", root),
		zap.Int("txs", len(txs)),
	)
	return nil
}
