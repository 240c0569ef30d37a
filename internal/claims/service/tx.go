package service

import (
	"context"
	"sync"
	"time"

	dErrors "escena/pkg/domain-errors"
)

// StoreTx provides the transactional boundary for claim workflow mutations.
// Implementations wrap a database transaction or, in memory, a coarse lock.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

// StoreViewer is implemented by transaction runners whose writers would
// otherwise be visible half-applied. View runs fn against a state no
// transaction is in the middle of changing.
type StoreViewer interface {
	View(ctx context.Context, fn func(store Store) error) error
}

// Checkpointer is implemented by in-memory stores that can roll back. restore
// puts the store back to the state at the time of the call.
type Checkpointer interface {
	Checkpoint() (restore func())
}

// defaultTxTimeout is the maximum duration for a workflow transaction.
const defaultTxTimeout = 5 * time.Second

type inMemoryStoreTx struct {
	mu      sync.RWMutex
	store   Store
	timeout time.Duration
}

func newInMemoryStoreTx(store Store, timeout time.Duration) *inMemoryStoreTx {
	return &inMemoryStoreTx{store: store, timeout: timeout}
}

func (t *inMemoryStoreTx) RunInTx(ctx context.Context, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	restore := func() {}
	if cp, ok := t.store.(Checkpointer); ok {
		restore = cp.Checkpoint()
	}
	if err := fn(t.store); err != nil {
		restore()
		return err
	}
	return nil
}

// View holds the read lock so readers never observe a transaction midway.
func (t *inMemoryStoreTx) View(_ context.Context, fn func(store Store) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fn(t.store)
}
