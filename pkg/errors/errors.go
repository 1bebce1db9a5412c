package errors

import "fmt"

// ErrorType classifies failures across the download pipeline
type ErrorType string

const (
	// ErrorTypeAuth covers login failures, session extraction failures and
	// rejected bearer tokens
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeNetwork covers transport-level failures against the feed,
	// children or media endpoints
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeServerError covers 5xx responses from the provider
	ErrorTypeServerError ErrorType = "server_error"
	// ErrorTypeRateLimit covers 429 responses
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing covers malformed feed data (unexpected shape,
	// missing fields, bad timestamps)
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeNotFound covers 404 responses
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeMediaWrite covers download, decode or metadata-embedding
	// failures for a single media item
	ErrorTypeMediaWrite ErrorType = "media_write"
	// ErrorTypeUnknown is everything else
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a typed pipeline error. Code carries the HTTP status when the
// error originated from a response, zero otherwise.
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

// New builds a typed error without an HTTP status code.
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// NewWithCode builds a typed error carrying an HTTP status code.
func NewWithCode(t ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Code: code}
}

// IsRetryable reports whether an error type is worth retrying. Auth and
// parsing failures never are: the same request will fail the same way.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode reports whether an HTTP status code indicates a
// transient failure.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // network error, no response
		return true
	case 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}
