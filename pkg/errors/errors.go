package errors

import "fmt"

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"

	// Chat-side error types
	ErrorTypeSend          ErrorType = "send"
	ErrorTypeDelete        ErrorType = "delete"
	ErrorTypeMalformedPost ErrorType = "malformed_post"
)

// Error represents a typed error with optional HTTP status information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Is reports whether the target is an *Error of the same type, which
// lets callers match on error categories with errors.Is.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == other.Type
}

// New creates a typed error
func New(errorType ErrorType, message string, code int) *Error {
	return &Error{Type: errorType, Message: message, Code: code}
}

// Newf creates a typed error with a formatted message
func Newf(errorType ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{Type: errorType, Message: fmt.Sprintf(format, args...), Code: code}
}

// NewNetwork creates a network error (code 0 means no HTTP response)
func NewNetwork(message string) *Error {
	return New(ErrorTypeNetwork, message, 0)
}

// NewParsing creates a parsing error for an unusable payload
func NewParsing(message string, code int) *Error {
	return New(ErrorTypeParsing, message, code)
}

// NewSend creates a send error for failed chat delivery
func NewSend(message string) *Error {
	return New(ErrorTypeSend, message, 0)
}

// NewDelete creates a delete error for a failed cleanup attempt
func NewDelete(message string) *Error {
	return New(ErrorTypeDelete, message, 0)
}

// NewMalformedPost creates an error for a single raw item that could
// not be normalized. These are skipped, never fatal for the batch.
func NewMalformedPost(message string) *Error {
	return New(ErrorTypeMalformedPost, message, 0)
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing:
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

// FromStatusCode maps an HTTP status code to a typed error
func FromStatusCode(statusCode int, message string) *Error {
	var errorType ErrorType
	switch {
	case statusCode == 401 || statusCode == 403:
		errorType = ErrorTypeAuth
	case statusCode == 404:
		errorType = ErrorTypeNotFound
	case statusCode == 429:
		errorType = ErrorTypeRateLimit
	case statusCode >= 500:
		errorType = ErrorTypeServerError
	default:
		errorType = ErrorTypeUnknown
	}
	return New(errorType, message, statusCode)
}
