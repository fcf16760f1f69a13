package llm

import "errors"

// Error code constants for standardized error handling.
// The client maps HTTP and network failures to one of these codes.
const (
	ErrCodeAuthentication = "authentication_error"
	ErrCodeRateLimit      = "rate_limit_exceeded"
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeServerError    = "server_error"
	ErrCodeTimeout        = "timeout"
)

// ProviderError represents a typed error from the upstream API.
// Use the IsXxx helpers or Classify to branch without inspecting fields.
type ProviderError struct {
	Code    string // One of the ErrCode* constants.
	Message string // Human-readable description.
	Err     error  // Underlying error (may be nil).
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a typed provider error.
func NewProviderError(code, message string, err error) *ProviderError {
	return &ProviderError{Code: code, Message: message, Err: err}
}

// ErrorClass is the retry-policy classification of a failure.
type ErrorClass int

const (
	// ClassFatal errors propagate immediately; retrying cannot help
	// (malformed request, auth failure, 4xx other than 429).
	ClassFatal ErrorClass = iota

	// ClassTransient errors are retried on the backoff schedule
	// (network failures, timeouts, 5xx).
	ClassTransient

	// ClassRateLimited errors (HTTP 429) are retried after the
	// rate-limit cooldown instead of the backoff schedule.
	ClassRateLimited
)

// Classify maps an error to its retry class. Unknown errors (plain network
// failures that were never wrapped) are treated as transient, matching the
// policy of retrying anything that is not a provable caller mistake.
func Classify(err error) ErrorClass {
	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.Code {
		case ErrCodeRateLimit:
			return ClassRateLimited
		case ErrCodeServerError, ErrCodeTimeout:
			return ClassTransient
		default:
			return ClassFatal
		}
	}
	return ClassTransient
}

// IsRateLimitError reports whether err is a rate-limit (429) error.
func IsRateLimitError(err error) bool {
	return hasCode(err, ErrCodeRateLimit)
}

// IsAuthenticationError reports whether err is an authentication failure.
func IsAuthenticationError(err error) bool {
	return hasCode(err, ErrCodeAuthentication)
}

// IsServerError reports whether err is an upstream server error.
func IsServerError(err error) bool {
	return hasCode(err, ErrCodeServerError)
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	return hasCode(err, ErrCodeTimeout)
}

// IsRetryable reports whether the error is transient or rate-limited and
// the call may succeed on retry.
func IsRetryable(err error) bool {
	return Classify(err) != ClassFatal
}

func hasCode(err error, code string) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}
