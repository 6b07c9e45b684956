// Package models defines server-side data models persisted in the database.
package models

import "time"

// Entity kinds a media record can belong to. These mirror the admin screens
// of the site.
const (
	EntityGallery  = "gallery"
	EntityStudent  = "student"
	EntityResult   = "result"
	EntityChampion = "champion"
)

// KnownEntity reports whether e names a supported admin screen.
func KnownEntity(e string) bool {
	switch e {
	case EntityGallery, EntityStudent, EntityResult, EntityChampion:
		return true
	}
	return false
}

// MediaRecord is the database row referencing one durably stored blob.
// A record exists only for blobs that completed the full two-step commit
// (stored, then recorded).
type MediaRecord struct {
	ID     string
	Entity string

	FileName    string
	MediaID     string
	URL         string
	ContentType string
	SizeBytes   int64

	// Shared batch metadata, carried onto every record of the batch.
	Album       string
	Year        int
	EventDate   string
	Description string

	CreatedBy string
	CreatedAt time.Time
}
