package services

import "errors"

// Standard service errors shared across the service layer
var (
	// Connectivity and state errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrFetchInFlight    = errors.New("fetch already in flight")
	ErrStaleFetch       = errors.New("fetch superseded by reset")
	ErrTimeout          = errors.New("operation timed out")

	// Data errors
	ErrMessageNotFound = errors.New("message not found")
	ErrLabelNotFound   = errors.New("label not found")
	ErrInvalidInput    = errors.New("invalid input provided")
	ErrSystemLabel     = errors.New("system labels cannot be modified")

	// AI service errors
	ErrAIServiceDown   = errors.New("AI service unavailable")
	ErrAINotConfigured = errors.New("AI service not configured")

	// Cache errors
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// IsRetryableError determines if an error should be retried
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrFetchInFlight) ||
		errors.Is(err, ErrAIServiceDown) ||
		errors.Is(err, ErrCacheUnavailable)
}

// IsPermanentError determines if an error is permanent and should not be retried
func IsPermanentError(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrLabelNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrSystemLabel)
}
