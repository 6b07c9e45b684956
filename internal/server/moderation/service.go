// Package moderation implements the two-phase review workflow for media
// submitted by non-admin actors: pending → approved (promoted into the
// permanent record store) or pending → rejected (purged). Unlike the batch
// pipeline there is no progress aggregation and no multi-step rollback here;
// the blob is already durably stored before this workflow ever sees it, so
// approval and rejection only decide its final disposition.
package moderation

import (
	"context"
	"errors"
	"fmt"

	"schoolmedia/internal/common"
	"schoolmedia/internal/logging"
	"schoolmedia/internal/server/gateway"
	"schoolmedia/internal/server/ingest"
	"schoolmedia/internal/server/models"
	"schoolmedia/internal/server/repositories/staged"
)

// stagingPrefix is the object-key prefix for blobs awaiting review.
const stagingPrefix = "staging"

// ModerationError reports a failed approve or reject. The submission stays
// pending so the admin can retry.
type ModerationError struct {
	SubmissionID string
	Op           string
	Err          error
}

func (e *ModerationError) Error() string {
	return fmt.Sprintf("moderation %s failed for %s: %v", e.Op, e.SubmissionID, e.Err)
}

func (e *ModerationError) Unwrap() error { return e.Err }

type Service struct {
	gw      gateway.MediaGateway
	pending staged.Repository
	records ingest.RecordStore
	logger  logging.Logger
}

func NewService(gw gateway.MediaGateway, pending staged.Repository, records ingest.RecordStore, logger logging.Logger) *Service {
	return &Service{
		gw:      gw,
		pending: pending,
		records: records,
		logger:  logger.With("module", "moderation"),
	}
}

// Submit is the public-facing upload path: it stores the blob in the staging
// area and parks a pending row for admin review.
func (s *Service) Submit(ctx context.Context, fileName, contentType string, blob []byte, entity string, year int, description string) (*models.StagedSubmission, error) {
	if len(blob) == 0 {
		return nil, common.ErrorEmptyPayload
	}
	if !models.KnownEntity(entity) {
		return nil, fmt.Errorf("%w: unknown entity %q", common.ErrorIncorrectMetadata, entity)
	}

	stored, err := s.gw.Upload(ctx, stagingPrefix, blob, contentType, nil)
	if err != nil {
		return nil, fmt.Errorf("staging upload: %w", err)
	}

	sub := &models.StagedSubmission{
		FileName:    fileName,
		Entity:      entity,
		Year:        year,
		Description: description,
		MediaID:     stored.ID,
		ContentType: contentType,
		SizeBytes:   int64(len(blob)),
	}
	if _, err := s.pending.Create(ctx, sub); err != nil {
		// Don't leave an unreferenced staged blob behind.
		if derr := s.gw.Delete(ctx, stored.ID); derr != nil {
			s.logger.Warn(ctx, "staged blob cleanup failed", "media_id", stored.ID, "error", derr)
		}
		return nil, fmt.Errorf("staging record: %w", err)
	}

	s.logger.Info(ctx, "submission staged", "submission_id", sub.ID, "entity", entity)
	return sub, nil
}

// ListPending returns submissions awaiting review.
func (s *Service) ListPending(ctx context.Context, f staged.Filters) ([]*models.StagedSubmission, error) {
	return s.pending.ListPending(ctx, f)
}

// Approve promotes the staged blob into a permanent record, carrying the
// declared category, year and description over unchanged, and removes the
// entry from the pending list. If the promotion fails the submission stays
// pending so it can be retried.
func (s *Service) Approve(ctx context.Context, submissionID string) error {
	sub, err := s.pending.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return &ModerationError{SubmissionID: submissionID, Op: "approve", Err: err}
	}

	url, err := s.gw.PresignGet(ctx, sub.MediaID)
	if err != nil {
		return &ModerationError{SubmissionID: submissionID, Op: "approve", Err: err}
	}

	rec := &models.MediaRecord{
		Entity:      sub.Entity,
		FileName:    sub.FileName,
		MediaID:     sub.MediaID,
		URL:         url,
		ContentType: sub.ContentType,
		SizeBytes:   sub.SizeBytes,
		Year:        sub.Year,
		Description: sub.Description,
		CreatedBy:   "moderation",
	}
	recordID, err := s.records.Create(ctx, rec)
	if err != nil {
		return &ModerationError{SubmissionID: submissionID, Op: "approve", Err: err}
	}

	// Removing the pending row is part of the promotion: if it fails the
	// created record is taken back, so a retried approve cannot leave two
	// records referencing the same blob.
	if err := s.pending.Delete(ctx, submissionID); err != nil {
		if derr := s.records.Delete(ctx, recordID); derr != nil {
			s.logger.Warn(ctx, "record cleanup failed after pending row delete failure",
				"submission_id", submissionID, "record_id", recordID, "error", derr)
		}
		return &ModerationError{SubmissionID: submissionID, Op: "approve", Err: err}
	}

	s.logger.Info(ctx, "submission approved", "submission_id", submissionID, "record_id", recordID)
	return nil
}

// Reject deletes the staged blob and removes the entry from the pending
// list. No permanent record is created. Rejecting an id that is already gone
// is a no-op.
func (s *Service) Reject(ctx context.Context, submissionID string) error {
	sub, err := s.pending.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return &ModerationError{SubmissionID: submissionID, Op: "reject", Err: err}
	}

	if err := s.gw.Delete(ctx, sub.MediaID); err != nil {
		return &ModerationError{SubmissionID: submissionID, Op: "reject", Err: err}
	}
	if err := s.pending.Delete(ctx, submissionID); err != nil {
		return &ModerationError{SubmissionID: submissionID, Op: "reject", Err: err}
	}

	s.logger.Info(ctx, "submission rejected", "submission_id", submissionID)
	return nil
}

// FetchBlob returns the staged blob contents for preview rendering.
func (s *Service) FetchBlob(ctx context.Context, submissionID string) ([]byte, string, error) {
	sub, err := s.pending.GetByID(ctx, submissionID)
	if err != nil {
		return nil, "", err
	}
	return s.gw.Fetch(ctx, sub.MediaID)
}
