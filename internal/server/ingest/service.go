package ingest

import (
	"context"
	"fmt"

	"schoolmedia/internal/common"
	"schoolmedia/internal/logging"
	"schoolmedia/internal/server/models"
)

// ItemInput is one file as received from the admin UI layer.
type ItemInput struct {
	Name        string
	ContentType string
	Payload     []byte
}

// Service is the entry point the HTTP layer talks to: it assembles batches,
// runs them asynchronously, and routes status and cancel requests.
type Service struct {
	orch    *Orchestrator
	coord   *Coordinator
	records RecordStore
	reg     *Registry
	logger  logging.Logger
}

func NewService(orch *Orchestrator, coord *Coordinator, records RecordStore, logger logging.Logger) *Service {
	return &Service{
		orch:    orch,
		coord:   coord,
		records: records,
		reg:     NewRegistry(),
		logger:  logger.With("module", "ingest_service"),
	}
}

// Start assembles a batch and begins processing it on its own goroutine.
// The returned batch is immediately pollable through Status.
func (s *Service) Start(ctx context.Context, inputs []ItemInput, meta Metadata) (*Batch, error) {
	if !models.KnownEntity(meta.Entity) {
		return nil, fmt.Errorf("%w: unknown entity %q", common.ErrorIncorrectMetadata, meta.Entity)
	}

	items := make([]*Item, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, NewItem(in.Name, in.ContentType, in.Payload))
	}

	b := NewBatch(items, meta)
	s.reg.Add(b)

	go func() {
		// The batch outlives the request that started it.
		if _, err := s.orch.Run(context.Background(), b); err != nil {
			s.logger.Error(context.Background(), "batch finished with fault", "batch_id", b.ID, "error", err)
		}
	}()

	return b, nil
}

// Status returns a snapshot of the batch.
func (s *Service) Status(id string) (Status, error) {
	b, ok := s.reg.Get(id)
	if !ok {
		return Status{}, common.ErrorNotFound
	}
	return b.Snapshot(), nil
}

// Cancel routes a cancel request to the batch's coordinator.
func (s *Service) Cancel(id string) error {
	b, ok := s.reg.Get(id)
	if !ok {
		return common.ErrorNotFound
	}
	s.coord.Cancel(b)
	return nil
}

// Forget drops a terminal batch from the registry once its result has been
// consumed. Forgetting a live batch is refused.
func (s *Service) Forget(id string) error {
	b, ok := s.reg.Get(id)
	if !ok {
		return common.ErrorNotFound
	}
	switch b.State() {
	case BatchCompleted, BatchCancelled, BatchFailed:
		s.reg.Remove(id)
		return nil
	default:
		return fmt.Errorf("batch %s is still active", id)
	}
}

// Teardown removes previously committed media by explicit admin action:
// the record is deleted first, then the blob, so the storage never holds a
// record pointing at a missing blob.
func (s *Service) Teardown(ctx context.Context, recordID string) error {
	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if err := s.records.Delete(ctx, recordID); err != nil {
		return err
	}
	if err := s.coord.DeleteMedia(ctx, rec.MediaID); err != nil {
		// Same policy as rollback: cleanup failures are warnings, the
		// record removal stands.
		s.logger.Warn(ctx, "blob delete failed during teardown", "record_id", recordID, "media_id", rec.MediaID, "error", err)
	}
	return nil
}
