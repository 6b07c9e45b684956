package models

import "time"

// User is an admin account allowed to drive the ingestion and moderation
// screens. PasswordHash is a bcrypt hash; plaintext passwords are never
// stored.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}
