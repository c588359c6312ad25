// Package common defines shared constants and sentinel errors used across
// the election service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrorDuplicateVote is returned by the vote ledger when the
	// (voter_token, position_id) uniqueness constraint rejects an insert.
	ErrorDuplicateVote = errors.New("duplicate vote")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
