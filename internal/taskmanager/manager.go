// Package taskmanager supervises the node's long-running goroutines
// (L1 sync, L2 sync, RPC server, pruner) under one shared cancellation
// token, matching spec.md §5's task-manager contract: on cancellation
// every task finishes its current in-flight unit of work before
// exiting, and Abort waits for all of them.
package taskmanager

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Task is a supervised unit of work: it must return when ctx is
// cancelled, after finishing whatever it is currently doing.
type Task func(ctx context.Context) error

// Manager owns a cancellation token shared by every spawned task and
// collects their terminal errors.
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

// New builds a Manager deriving its cancellation token from parent.
func New(parent context.Context, logger *zap.Logger) *Manager {
	ctx, cancel := context.WithCancel(parent)
	return &Manager{ctx: ctx, cancel: cancel, logger: logger}
}

// Spawn runs task in its own goroutine, supervised by this manager's
// cancellation token.
func (m *Manager) Spawn(name string, task Task) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := task(m.ctx); err != nil {
			m.logger.Error("task exited with error", zap.String("task", name), zap.Error(err))
			m.mu.Lock()
			m.errs = append(m.errs, fmt.Errorf("%s: %w", name, err))
			m.mu.Unlock()
		}
	}()
}

// Abort cancels the shared token and blocks until every spawned task has
// returned, then reports any errors they exited with.
func (m *Manager) Abort() []error {
	m.cancel()
	m.wg.Wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs
}

// Done returns a channel closed when the shared token is cancelled, for
// tasks that want to select on it directly alongside their own channels.
func (m *Manager) Done() <-chan struct{} { return m.ctx.Done() }
