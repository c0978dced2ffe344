// Package node wires every other internal package into a runnable full
// node, mirroring the construction performed by
// original_source/crates/fullnode/src/runner.rs's Runner::new: every
// dependency is a constructor argument, not a hidden global (spec.md §9).
package node

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/citrea-rollup/node/internal/config"
	"github.com/citrea-rollup/node/internal/da"
	"github.com/citrea-rollup/node/internal/fork"
	"github.com/citrea-rollup/node/internal/ledger"
	"github.com/citrea-rollup/node/internal/rollupevm"
	"github.com/citrea-rollup/node/internal/rpcserver"
	"github.com/citrea-rollup/node/internal/syncl1"
	"github.com/citrea-rollup/node/internal/syncl2"
	"github.com/citrea-rollup/node/internal/taskmanager"
	"github.com/citrea-rollup/node/internal/verify"
)

// daBlockCacheSize bounds the L1 block cache the caching DA service keeps
// warm while the L1 sync worker is catching up.
const daBlockCacheSize = 256

// Node owns every long-running subsystem of a running full node: the two
// sync workers, the RPC server, and the task manager supervising them.
type Node struct {
	cfg    config.RollupConfig
	logger *zap.Logger

	db     *ledger.DB
	engine *rollupevm.Engine
	states *StateManager

	l1Worker *syncl1.Worker
	l2Worker *syncl2.Worker
	pruner   *ledger.Pruner

	httpServer *http.Server
	tasks      *taskmanager.Manager
}

// New builds a Node from configuration plus the two externally-supplied
// collaborators this repository treats as out-of-scope interfaces
// (spec.md §1): the DA-layer client and the zk-proof verification
// backend.
func New(cfg config.RollupConfig, daService da.Service, verifyBackend verify.Backend, logger *zap.Logger) (*Node, error) {
	db, err := ledger.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("node: open ledger: %w", err)
	}

	forkTable, err := cfg.Protocol.ForkTable()
	if err != nil {
		return nil, fmt.Errorf("node: build fork table: %w", err)
	}
	forkMg, err := fork.NewManager(forkTable)
	if err != nil {
		return nil, fmt.Errorf("node: build fork manager: %w", err)
	}

	vaults, err := cfg.Protocol.EngineVaults()
	if err != nil {
		return nil, fmt.Errorf("node: resolve vault addresses: %w", err)
	}

	engine := rollupevm.NewEngine(rollupevm.Config{
		ChainConfig: cfg.Protocol.ChainConfig(),
		GasLimit:    cfg.Protocol.GasLimit,
		Vaults:      vaults,
		FeeParams:   cfg.Protocol.FeeParams,
	}, forkMg, logger)

	states := NewStateManager()
	applier := NewSoftConfirmationApplier(engine, states, db, logger)

	sequencerClient := NewSequencerClient(cfg.Runner.SequencerClientURL)
	l2Worker := syncl2.New(sequencerClient, applier.Process, cfg.Runner.SyncBlocksCount, logger)

	cachingDA, err := da.NewCachingService(daService, daBlockCacheSize)
	if err != nil {
		return nil, fmt.Errorf("node: build caching DA service: %w", err)
	}
	extractor := da.NewExtractor(da.PublisherKeys{
		Sequencer: cfg.PublicKeys.SequencerDAPubKey,
		Prover:    cfg.PublicKeys.ProverDAPubKey,
	}, logger)

	commitmentVerifier := verify.NewCommitmentVerifier(db, logger)

	codeCommitments, err := cfg.Protocol.CodeCommitmentsBySpec()
	if err != nil {
		return nil, fmt.Errorf("node: decode code commitments: %w", err)
	}
	proofVerifier := verify.NewProofVerifier(db, forkMg, codeCommitments, verify.Keys{
		SequencerPublicKey: cfg.PublicKeys.SequencerPublicKey,
		SequencerDAPubKey:  cfg.PublicKeys.SequencerDAPubKey,
	}, verifyBackend, logger)

	l1Worker := syncl1.New(cachingDA, extractor, commitmentVerifier, proofVerifier, db, logger)

	var pruner *ledger.Pruner
	if cfg.Runner.Pruning != nil {
		// The sweep cadence is independent of the configured retention
		// distance: Pruner does not yet enforce DistanceBlocks, only
		// reports the current head (see DESIGN.md).
		pruner = ledger.NewPruner(db, 30*time.Second, logger)
	}

	ledgerService := rpcserver.NewLedgerService(db, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Rpc.BindHost, cfg.Rpc.BindPort),
		Handler: rpcserver.NewHandler(ledgerService),
	}

	return &Node{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		engine:     engine,
		states:     states,
		l1Worker:   l1Worker,
		l2Worker:   l2Worker,
		pruner:     pruner,
		httpServer: httpServer,
	}, nil
}

// Run starts every subsystem under a shared task manager and blocks until
// ctx is cancelled, then waits for every task to wind down before
// returning the first error any of them exited with, if any.
func (n *Node) Run(ctx context.Context) error {
	n.tasks = taskmanager.New(ctx, n.logger)

	l1Start, _, err := n.db.GetLastScannedL1Height()
	if err != nil {
		return fmt.Errorf("node: read last scanned L1 height: %w", err)
	}
	// syncl1.Worker.Run begins at startHeight+1, so passing the last
	// fully-processed height (0 on an empty ledger) resumes right after it.
	l2Start, _, err := n.db.GetHeadSoftConfirmationHeight()
	if err != nil {
		return fmt.Errorf("node: read head soft confirmation height: %w", err)
	}
	l2Start++ // resume at the height after the last applied one (1 on an empty ledger)

	n.tasks.Spawn("syncl1", func(ctx context.Context) error {
		return n.l1Worker.Run(ctx, l1Start)
	})
	n.tasks.Spawn("syncl2", func(ctx context.Context) error {
		return n.l2Worker.Run(ctx, l2Start)
	})
	if n.pruner != nil {
		n.tasks.Spawn("pruner", n.pruner.Run)
	}
	n.tasks.Spawn("rpc", func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() { errCh <- n.httpServer.ListenAndServe() }()
		select {
		case <-ctx.Done():
			return n.httpServer.Shutdown(context.Background())
		case err := <-errCh:
			if err == http.ErrServerClosed {
				return nil
			}
			return err
		}
	})

	<-ctx.Done()
	errs := n.tasks.Abort()
	if err := n.db.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("node: shutdown errors: %v", errs)
	}
	return nil
}
