package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pruner is an optional background task that periodically reports the
// ledger's retained height range. It does not currently delete anything:
// no retention policy has been specified, so it exists to demonstrate a
// task-manager-supervised long-running task distinct from the sync
// workers, not to actually reclaim space.
type Pruner struct {
	db       *DB
	interval time.Duration
	logger   *zap.Logger
}

// NewPruner builds a Pruner that ticks every interval.
func NewPruner(db *DB, interval time.Duration, logger *zap.Logger) *Pruner {
	return &Pruner{db: db, interval: interval, logger: logger}
}

// Run ticks until ctx is cancelled, logging the current head height each
// time. It finishes its in-flight tick before observing cancellation, per
// the task manager's finish-in-flight-then-exit contract.
func (p *Pruner) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			head, found, err := p.db.GetHeadSoftConfirmationHeight()
			if err != nil {
				p.logger.Warn("pruner: failed to read head height", zap.Error(err))
				continue
			}
			if found {
				p.logger.Debug("pruner: tick", zap.Uint64("head", head))
			}
		}
	}
}
