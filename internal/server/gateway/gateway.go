// Package gateway is the client-side boundary to remote media storage. The
// ingestion pipeline treats blobs as opaque binary payloads; this package owns
// only the contract it needs from the backend: store, delete, fetch, presign.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProgressFunc receives the cumulative number of bytes sent for one transfer.
type ProgressFunc func(bytesSent int64)

// StoredMedia identifies a durably stored blob.
type StoredMedia struct {
	// ID is the durable media identifier (the object-storage key).
	ID string
	// URL is the canonical access URL for the blob.
	URL string
}

// MediaGateway stores and removes binary blobs. Upload and Delete are
// cancellable mid-flight through the context.
type MediaGateway interface {
	// Upload stores the blob under a fresh key below prefix and returns its
	// identifier and access URL. onProgress, when non-nil, is invoked with
	// cumulative bytes as the transfer proceeds.
	Upload(ctx context.Context, prefix string, blob []byte, contentType string, onProgress ProgressFunc) (StoredMedia, error)

	// Delete removes the blob for mediaID. Deleting an absent blob is not an
	// error.
	Delete(ctx context.Context, mediaID string) error

	// Fetch returns the blob contents and content type, used for moderation
	// previews only.
	Fetch(ctx context.Context, mediaID string) ([]byte, string, error)

	// PresignGet returns a short-lived GET URL for the blob.
	PresignGet(ctx context.Context, mediaID string) (string, error)
}

// NewStorageKey builds a date-partitioned object key below prefix, e.g.
// "media/gallery/2026/8/30/<uuid>".
func NewStorageKey(prefix string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%d/%d/%v", prefix, d.Year(), int(d.Month()), d.Day(), uuid.New())
}
