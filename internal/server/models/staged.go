package models

import "time"

// StagedSubmission is media uploaded by a non-admin actor, parked in the
// staging area until an admin approves or rejects it. The row never survives
// either outcome: approval promotes the blob into a permanent MediaRecord and
// removes the row, rejection deletes both blob and row.
type StagedSubmission struct {
	ID string

	FileName    string
	Entity      string
	Year        int
	Description string

	// MediaID is the staged blob's object-storage key.
	MediaID     string
	ContentType string
	SizeBytes   int64

	SubmittedAt time.Time
}
