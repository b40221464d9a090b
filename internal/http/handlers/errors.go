package handlers

// Stable error codes carried in ErrorResponse.Code. Clients branch on these,
// not on messages.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
	ErrCodeUnavailable      = "unavailable"

	ErrCodeInvalidStatus = "invalid_status"
	ErrCodeInvalidEvent  = "invalid_event"
	ErrCodeEnqueueFailed = "enqueue_failed"
	ErrCodeUpdateFailed  = "update_failed"
	ErrCodeNotRanked     = "not_ranked"
)
