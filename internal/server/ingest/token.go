package ingest

import (
	"context"
	"sync"
)

// CancelToken is the batch-scoped cancellation handle shared by every
// suspension point of a batch. Firing it flips a flag and synchronously
// aborts whichever transfer is currently armed, before any cleanup network
// call is made, so observers see the cancellation instantly.
//
// The token fires at most once per batch.
type CancelToken struct {
	mu    sync.Mutex
	fired bool
	abort context.CancelFunc
}

func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Arm registers the abort function of the in-flight transfer. If the token
// already fired, the abort is invoked immediately.
func (t *CancelToken) Arm(abort context.CancelFunc) {
	t.mu.Lock()
	fired := t.fired
	if !fired {
		t.abort = abort
	}
	t.mu.Unlock()
	if fired {
		abort()
	}
}

// Disarm clears the registered abort once the transfer has resolved.
func (t *CancelToken) Disarm() {
	t.mu.Lock()
	t.abort = nil
	t.mu.Unlock()
}

// Fire marks the token cancelled and aborts the armed transfer, if any.
// Subsequent calls are no-ops.
func (t *CancelToken) Fire() {
	t.mu.Lock()
	if t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	abort := t.abort
	t.abort = nil
	t.mu.Unlock()
	if abort != nil {
		abort()
	}
}

// Fired reports whether the token has been cancelled.
func (t *CancelToken) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}
