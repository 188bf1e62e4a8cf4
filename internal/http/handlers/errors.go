// Package handlers defines the HTTP-layer error codes used across all API
// endpoints. The constants give clients a stable, machine-readable error
// taxonomy supplementing the human-readable messages.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror common HTTP status semantics.
//   - Domain-specific codes cover storage-pipeline failures that a status
//     alone cannot convey.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeUnsupportedUpdate = "unsupported_update"
	ErrCodeStoreUnavailable  = "store_unavailable"
	ErrCodePersistFailed     = "persist_failed"
	ErrCodeListFailed        = "list_failed"
	ErrCodeEmptyChatScope    = "empty_chat_scope"
	ErrCodeUnknownTable      = "unknown_table"
)
