// Package common defines shared constants and sentinel errors used across
// schoolmedia components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors for client-supplied payloads.
	ErrorIncorrectMetadata = errors.New("incorrect metadata")
	ErrorEmptyPayload      = errors.New("empty payload")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
