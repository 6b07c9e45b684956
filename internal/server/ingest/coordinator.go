package ingest

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"schoolmedia/internal/logging"
	"schoolmedia/internal/server/gateway"
)

// Coordinator owns cancellation and rollback for batches. Every admin screen
// shares this one implementation instead of growing its own cleanup blocks.
type Coordinator struct {
	gw       gateway.MediaGateway
	logger   logging.Logger
	attempts uint64
	backoff  time.Duration
}

// NewCoordinator wires the coordinator. attempts bounds the per-blob delete
// retries during a rollback drain; backoff is the initial retry delay.
func NewCoordinator(gw gateway.MediaGateway, logger logging.Logger, attempts uint64, backoff time.Duration) *Coordinator {
	if attempts == 0 {
		attempts = 3
	}
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	return &Coordinator{
		gw:       gw,
		logger:   logger.With("module", "rollback"),
		attempts: attempts,
		backoff:  backoff,
	}
}

// Cancel signals user-initiated abort for the batch. The observable state
// flips and the in-flight transfer is aborted synchronously, before any
// cleanup network call, so observers are never told "still uploading" after
// cancel. The rollback drain itself runs asynchronously on the batch's own
// goroutine once it unwinds.
func (c *Coordinator) Cancel(b *Batch) {
	if !b.beginCancel() {
		return
	}
	b.token.Fire()
}

// Rollback consumes the batch's ledger and issues a compensating delete for
// every entry still needing one. Deletes are best-effort: each entry is
// attempted even if earlier ones fail, and failures never change the batch's
// terminal state. Resources are released only after the drain completes.
func (c *Coordinator) Rollback(ctx context.Context, b *Batch) []error {
	entries := b.ledger.Drain()

	var errs []error
	for _, e := range entries {
		if err := c.DeleteMedia(ctx, e.MediaID); err != nil {
			// A true orphan: surface it for manual cleanup, keep going.
			rberr := &RollbackDeleteError{MediaID: e.MediaID, Err: err}
			c.logger.Warn(ctx, "rollback delete failed", "batch_id", b.ID, "media_id", e.MediaID, "error", err)
			errs = append(errs, rberr)
			continue
		}
		c.logger.Info(ctx, "rolled back blob", "batch_id", b.ID, "media_id", e.MediaID)
	}

	b.release()
	return errs
}

// DeleteMedia removes one blob from the gateway with bounded retries. Also
// used by explicit admin teardown of committed media.
func (c *Coordinator) DeleteMedia(ctx context.Context, mediaID string) error {
	b := retry.WithMaxRetries(c.attempts, retry.NewFibonacci(c.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := c.gw.Delete(ctx, mediaID); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
