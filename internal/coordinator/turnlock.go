package coordinator

import (
	"context"
	"fmt"
)

// turnLock serializes player turns. A channel with one slot acts as the
// mutex so that waiting can be cancelled through the context.
type turnLock struct {
	ch chan struct{}
}

func newTurnLock() *turnLock {
	return &turnLock{ch: make(chan struct{}, 1)}
}

// Acquire blocks until the previous turn has finished or ctx is done.
func (l *turnLock) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("failed to acquire turn: %w", ctx.Err())
	case l.ch <- struct{}{}:
		return nil
	}
}

// Release frees the turn. Releasing an unheld lock is a no-op.
func (l *turnLock) Release() {
	select {
	case <-l.ch:
	default:
	}
}
