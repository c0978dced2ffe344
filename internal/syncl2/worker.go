// Package syncl2 pulls soft confirmations from the sequencer's RPC
// endpoint and feeds them to a processor in height order, mirroring
// original_source/crates/fullnode/src/runner.rs's sync_l2 task and the
// pending-queue retry loop in its run() select statement (spec.md §4.5).
package syncl2

import (
	"container/list"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/citrea-rollup/node/internal/rollupevm"
)

// SoftConfirmation is one RPC-fetched soft confirmation together with its
// L2 height.
type SoftConfirmation struct {
	Height   uint64
	Hash     [32]byte
	PrevHash [32]byte
	Info     rollupevm.SoftConfirmationInfo
	// PostStateRoot is the post-state root the sequencer claims for this
	// soft confirmation; the applier must verify it against the root it
	// computes locally before finalizing (spec.md invariant 2).
	PostStateRoot [32]byte
	// RawTxs holds each transaction RLP-encoded, in inclusion order; the
	// processor decodes them with go-ethereum's types.Transaction before
	// handing them to the engine.
	RawTxs [][]byte
}

// Client fetches a contiguous range of soft confirmations [start, end]
// from the sequencer. Missing heights inside the range are simply
// omitted from the returned slice (the sequencer has not produced them
// yet); the caller advances only past what was actually returned.
type Client interface {
	GetSoftConfirmationRange(ctx context.Context, start, end uint64) ([]SoftConfirmation, error)
}

// Processor applies one soft confirmation to the node's state. A
// returned error defers this block and every block fetched after it
// until the next retry tick, matching the Rust runner's pending-queue
// behavior.
type Processor func(ctx context.Context, sc SoftConfirmation) error

// Worker owns the fetch-ahead goroutine and the ordered retry queue.
type Worker struct {
	client     Client
	process    Processor
	windowSize uint64
	logger     *zap.Logger
}

// New builds a Worker. windowSize is the number of heights requested per
// RPC call (runner.rs's sync_blocks_count).
func New(client Client, process Processor, windowSize uint64, logger *zap.Logger) *Worker {
	if windowSize == 0 {
		windowSize = 1
	}
	return &Worker{client: client, process: process, windowSize: windowSize, logger: logger}
}

// Run fetches and processes soft confirmations starting at startHeight
// until ctx is cancelled. It returns nil on cancellation.
func (w *Worker) Run(ctx context.Context, startHeight uint64) error {
	windows := make(chan []SoftConfirmation) // unbuffered: fetch goroutine blocks until the main loop drains, i.e. backpressure depth 1
	fetchErrCh := make(chan error, 1)

	go func() {
		fetchErrCh <- w.fetchLoop(ctx, startHeight, windows)
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
		case window, ok := <-windows:
			if !ok {
				return nil
			}
			if pending.Len() != 0 {
				for _, sc := range window {
					pending.PushBack(sc)
				}
				continue
			}
			for i, sc := range window {
				if err := w.process(ctx, sc); err != nil {
					w.logger.Error("could not process L2 block, queuing for retry",
						zap.Uint64("height", sc.Height), zap.Error(err))
					for _, rest := range window[i:] {
						pending.PushBack(rest)
					}
					break
				}
			}
		case <-ticker.C:
			for pending.Len() != 0 {
				front := pending.Front()
				sc := front.Value.(SoftConfirmation)
				if err := w.process(ctx, sc); err != nil {
					w.logger.Error("could not process queued L2 block, retrying next tick",
						zap.Uint64("height", sc.Height), zap.Error(err))
					break
				}
				pending.Remove(front)
			}
		}
	}
}

// fetchLoop requests successive windows of soft confirmations and hands
// each one to the main loop over windows. It never advances past a
// height the sequencer has not yet produced.
func (w *Worker) fetchLoop(ctx context.Context, startHeight uint64, windows chan<- []SoftConfirmation) error {
	height := startHeight
	w.logger.Info("starting L2 sync", zap.Uint64("start_height", height))

	for {
		scs, err := w.fetchRangeWithBackoff(ctx, height, height+w.windowSize-1)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Transport errors are never fatal: start a fresh backoff.
			w.logger.Error("soft confirmation range fetch gave up, retrying",
				zap.Uint64("height", height), zap.Error(err))
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		if len(scs) == 0 {
			w.logger.Debug("no soft confirmation at starting height, retrying", zap.Uint64("height", height))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		sort.Slice(scs, func(i, j int) bool { return scs[i].Height < scs[j].Height })
		height += uint64(len(scs))

		select {
		case <-ctx.Done():
			return nil
		case windows <- scs:
		}
	}
}

func (w *Worker) fetchRangeWithBackoff(ctx context.Context, start, end uint64) ([]SoftConfirmation, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxElapsedTime = 15 * time.Minute

	return backoff.Retry(ctx, func() ([]SoftConfirmation, error) {
		scs, err := w.client.GetSoftConfirmationRange(ctx, start, end)
		if err != nil {
			w.logger.Debug("soft confirmation range RPC error, retrying", zap.Error(err))
			return nil, fmt.Errorf("fetch range [%d,%d]: %w", start, end, err)
		}
		return scs, nil
	}, backoff.WithBackOff(b))
}
