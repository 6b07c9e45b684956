package ingest

import (
	"context"
	"errors"
	"time"

	"schoolmedia/internal/logging"
	"schoolmedia/internal/server/gateway"
	"schoolmedia/internal/server/models"
)

// RecordStore is the slice of the record database the pipeline needs.
type RecordStore interface {
	Create(ctx context.Context, rec *models.MediaRecord) (string, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.MediaRecord, error)
}

// Orchestrator drives a batch through the two-step commit: upload the blob,
// then create the referencing record. Items are processed strictly
// sequentially. That bounds load on the storage backend, keeps ledger order
// deterministic, and means at most one transfer is in flight when a
// cancellation arrives.
type Orchestrator struct {
	gw        gateway.MediaGateway
	records   RecordStore
	coord     *Coordinator
	logger    logging.Logger
	opTimeout time.Duration
}

// NewOrchestrator wires the pipeline. opTimeout bounds every gateway and
// record-store call; on expiry the call behaves like a cancellation for that
// single item.
func NewOrchestrator(gw gateway.MediaGateway, records RecordStore, coord *Coordinator, logger logging.Logger, opTimeout time.Duration) *Orchestrator {
	if opTimeout <= 0 {
		opTimeout = time.Minute
	}
	return &Orchestrator{
		gw:        gw,
		records:   records,
		coord:     coord,
		logger:    logger.With("module", "ingest"),
		opTimeout: opTimeout,
	}
}

// Run processes the batch to a terminal state and returns its result.
// A batch can be run once. The returned error is the batch-level fault
// (TransferError or RecordCreationError); a cancelled batch is not a fault
// and returns a nil error with Cancelled set.
func (o *Orchestrator) Run(ctx context.Context, b *Batch) (BatchResult, error) {
	if !b.start() {
		if b.State() == BatchCancelling {
			// Cancel arrived before the first item started: nothing was
			// uploaded, so the drain is empty and the batch settles as
			// cancelled without ever touching the gateway.
			return o.finish(ctx, b, nil), nil
		}
		return b.Result(), ErrBatchConsumed
	}

	if len(b.Items) == 0 {
		result := BatchResult{}
		b.setResult(result)
		b.setState(BatchCompleted)
		return result, nil
	}

	o.logger.Info(ctx, "batch started", "batch_id", b.ID, "items", len(b.Items), "total_bytes", b.TotalBytes)

	var fault error
	for i := range b.Items {
		if b.token.Fired() {
			// Items never started stay queued and are reported as not
			// attempted.
			break
		}
		if err := o.processItem(ctx, b, i); err != nil {
			if errors.Is(err, ErrCancelled) {
				if b.token.Fired() || ctx.Err() != nil {
					break
				}
				// A timed-out call is a cancellation for that single item
				// only. Settle its share of the byte total so the rest of
				// the batch can still report 100, then move on.
				if pct := b.progress.MarkDone(i, b.Items[i].Size); b.OnProgress != nil {
					b.OnProgress(pct)
				}
				continue
			}
			fault = err
			break
		}
	}

	return o.finish(ctx, b, fault), fault
}

// finish reconciles storage with database state and settles the terminal
// batch state. The rollback drain always runs before resources are released,
// even when the ledger has nothing pending.
func (o *Orchestrator) finish(ctx context.Context, b *Batch, fault error) BatchResult {
	// Drains use a fresh context: cleanup must proceed even though the
	// batch's own work was cancelled.
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opTimeout)
	defer cancel()
	o.coord.Rollback(drainCtx, b)

	// A fired token only makes the batch cancelled when the cancel actually
	// affected it: an item was aborted by it, or items never reached a
	// terminal state. A cancel landing after the final commit changes
	// nothing, and the batch reports completed.
	cancelled := false
	if b.token.Fired() {
		cancelled = len(b.Items) == 0
		for _, it := range b.Items {
			if it.State == ItemAborted || !it.Terminal() {
				cancelled = true
				break
			}
		}
	}

	result := BatchResult{Cancelled: cancelled}
	for _, it := range b.Items {
		switch it.State {
		case ItemCommitted:
			result.Succeeded++
		case ItemFailed, ItemAborted:
			result.Failed++
		}
	}
	b.setResult(result)

	switch {
	case result.Cancelled:
		// A rolled-back batch is cancelled, never failed, regardless of
		// what the cleanup deletes did.
		b.setState(BatchCancelled)
		o.logger.Info(ctx, "batch cancelled", "batch_id", b.ID, "succeeded", result.Succeeded)
	case fault != nil:
		b.setFailure(fault.Error())
		b.setState(BatchFailed)
		o.logger.Error(ctx, "batch failed", "batch_id", b.ID, "error", fault)
	default:
		b.setState(BatchCompleted)
		o.logger.Info(ctx, "batch completed", "batch_id", b.ID, "succeeded", result.Succeeded)
	}
	return result
}

func (o *Orchestrator) processItem(ctx context.Context, b *Batch, idx int) error {
	it := b.Items[idx]
	o.setItemState(b, it, ItemUploading)

	stored, err := o.uploadBlob(ctx, b, idx)
	if err != nil {
		if b.token.Fired() || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			b.mutateItem(func() { it.Failure = "cancelled" })
			o.setItemState(b, it, ItemAborted)
			o.emitItemDone(b, idx)
			return ErrCancelled
		}
		terr := &TransferError{Item: it.Name, Err: err}
		b.mutateItem(func() { it.Failure = terr.Error() })
		o.setItemState(b, it, ItemFailed)
		o.emitItemDone(b, idx)
		return terr
	}

	b.mutateItem(func() {
		it.MediaID = stored.ID
		it.MediaURL = stored.URL
		it.BytesSent = it.Size
	})
	o.setItemState(b, it, ItemUploaded)

	// The blob exists but no record references it yet; from here until the
	// record commit it must be covered by the ledger.
	b.ledger.Provisional(stored.ID)
	if pct := b.progress.MarkDone(idx, it.Size); b.OnProgress != nil {
		b.OnProgress(pct)
	}

	if b.token.Fired() {
		// The item reached uploaded a moment before the abort was observed:
		// its provisional ledger entry will be drained.
		b.mutateItem(func() { it.Failure = "cancelled" })
		o.setItemState(b, it, ItemAborted)
		o.emitItemDone(b, idx)
		return ErrCancelled
	}

	// The record-store call is not cancellable: once the upload has
	// succeeded the create runs to completion even if cancel fires
	// meanwhile. A committed record stays committed; only explicit admin
	// teardown removes it later.
	recordID, err := o.createRecord(ctx, b, it, stored)
	if err != nil {
		rerr := &RecordCreationError{Item: it.Name, MediaID: stored.ID, Err: err}
		b.mutateItem(func() { it.Failure = rerr.Error() })
		o.setItemState(b, it, ItemFailed)
		o.emitItemDone(b, idx)
		return rerr
	}

	b.mutateItem(func() { it.RecordID = recordID })
	o.setItemState(b, it, ItemCommitted)
	b.ledger.Promote(stored.ID, recordID)
	o.emitItemDone(b, idx)

	if b.token.Fired() {
		return ErrCancelled
	}
	return nil
}

// uploadBlob runs the gateway transfer with the cancel token armed, feeding
// the aggregator one update per byte-progress event.
func (o *Orchestrator) uploadBlob(ctx context.Context, b *Batch, idx int) (gateway.StoredMedia, error) {
	it := b.Items[idx]

	opCtx, cancel := context.WithTimeout(ctx, o.opTimeout)
	defer cancel()
	b.token.Arm(cancel)
	defer b.token.Disarm()

	return o.gw.Upload(opCtx, "media/"+b.Meta.Entity, it.Payload, it.ContentType, func(sent int64) {
		pct := b.progress.Report(idx, sent)
		b.mutateItem(func() { it.BytesSent = sent })
		if b.OnProgress != nil {
			b.OnProgress(pct)
		}
	})
}

func (o *Orchestrator) createRecord(ctx context.Context, b *Batch, it *Item, stored gateway.StoredMedia) (string, error) {
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opTimeout)
	defer cancel()

	rec := &models.MediaRecord{
		Entity:      b.Meta.Entity,
		FileName:    it.Name,
		MediaID:     stored.ID,
		URL:         stored.URL,
		ContentType: it.ContentType,
		SizeBytes:   it.Size,
		Album:       b.Meta.Album,
		Year:        b.Meta.Year,
		EventDate:   b.Meta.EventDate,
		Description: b.Meta.Description,
		CreatedBy:   b.Meta.CreatedBy,
	}
	return o.records.Create(recCtx, rec)
}

func (o *Orchestrator) setItemState(b *Batch, it *Item, to ItemState) {
	var terr error
	b.mutateItem(func() { terr = it.transition(to) })
	if terr != nil {
		o.logger.Error(context.Background(), "illegal item transition", "item", it.Name, "error", terr)
	}
}

func (o *Orchestrator) emitItemDone(b *Batch, idx int) {
	if b.OnItemDone != nil {
		b.OnItemDone(idx, b.Items[idx].State)
	}
}
