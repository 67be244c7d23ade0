// Stable machine-readable error codes for the ErrorResponse envelope. Codes
// are lowercase snake_case and mirror HTTP status semantics; the
// human-facing text that accompanies them lives with each handler, since
// clients match on those exact message strings.

package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"
)
