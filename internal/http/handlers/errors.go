// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// These symbolic constants are mapped to HTTP responses via the fail()
// helper and give clients a stable, machine-readable error taxonomy.
// Generic codes mirror common HTTP status semantics; domain-specific codes
// are reserved for business errors that status alone cannot convey.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeAwaitingContact = "awaiting_contact"
	ErrCodeSessionEnded    = "session_ended"
	ErrCodeInvalidPhone    = "invalid_phone"
	ErrCodeInvalidEmail    = "invalid_email"
	ErrCodeContactMissing  = "contact_missing"
	ErrCodeAnswerFailed    = "answer_failed"
	ErrCodeCreateFailed    = "create_failed"
	ErrCodeListFailed      = "list_failed"
)
