package ingest

import (
	"errors"
	"fmt"
)

// ErrCancelled marks a user-initiated abort. It is a distinct terminal
// outcome, not a fault, and is never surfaced as a batch failure.
var ErrCancelled = errors.New("batch cancelled")

// ErrBatchConsumed is returned when a batch is run more than once.
var ErrBatchConsumed = errors.New("batch already consumed")

// TransferError reports a failed blob upload. No media identifier exists for
// the item, so there is nothing to roll back.
type TransferError struct {
	Item string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed for %q: %v", e.Item, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// RecordCreationError reports the dangerous case: the blob was stored but the
// record create failed, leaving an orphan until the compensating delete runs.
// MediaID names the orphaned blob so the caller can explain "file stored,
// record failed" instead of a generic failure.
type RecordCreationError struct {
	Item    string
	MediaID string
	Err     error
}

func (e *RecordCreationError) Error() string {
	return fmt.Sprintf("record creation failed for %q (blob %s stored): %v", e.Item, e.MediaID, e.Err)
}

func (e *RecordCreationError) Unwrap() error { return e.Err }

// RollbackDeleteError reports a compensating delete that itself failed,
// leaving a true orphan in object storage. It is surfaced as a warning only;
// it never changes the batch's terminal state.
type RollbackDeleteError struct {
	MediaID string
	Err     error
}

func (e *RollbackDeleteError) Error() string {
	return fmt.Sprintf("rollback delete failed for blob %s: %v", e.MediaID, e.Err)
}

func (e *RollbackDeleteError) Unwrap() error { return e.Err }
