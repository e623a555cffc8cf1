package errors

import "fmt"

// ErrorType classifies failures in the scrape pipeline
type ErrorType string

const (
	// ErrorTypeFetch means every configured mirror was exhausted for a request
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeParsing means a payload had an unrecognized shape
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeMedia means a media asset could not be downloaded or written
	ErrorTypeMedia ErrorType = "media"
	// ErrorTypeNotification means a webhook or bot call failed
	ErrorTypeNotification ErrorType = "notification"
	// ErrorTypeConfig means the run cannot start at all
	ErrorTypeConfig ErrorType = "config"

	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a pipeline error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates a typed error without an HTTP code
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Newf creates a typed error with a formatted message
func Newf(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeFetch, ErrorTypeParsing, ErrorTypeNotFound, ErrorTypeConfig:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
