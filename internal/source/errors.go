package source

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an upstream failure.
type Kind string

const (
	// KindTimeout indicates the request exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindRateLimited indicates the upstream rejected us with HTTP 429.
	KindRateLimited Kind = "rate_limited"
	// KindMalformed indicates a response was received but could not be parsed.
	KindMalformed Kind = "malformed"
	// KindUnreachable indicates a network-level failure or upstream 5xx.
	KindUnreachable Kind = "unreachable"
)

// Error is a structured upstream failure.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewTimeoutError(cause error) *Error {
	return &Error{Kind: KindTimeout, Message: "request timed out", Cause: cause}
}

func NewRateLimitedError(statusCode int) *Error {
	return &Error{Kind: KindRateLimited, StatusCode: statusCode, Message: "rate limit exceeded"}
}

func NewMalformedError(message string, cause error) *Error {
	return &Error{Kind: KindMalformed, Message: message, Cause: cause}
}

func NewUnreachableError(cause error) *Error {
	return &Error{Kind: KindUnreachable, Message: "upstream unreachable", Cause: cause}
}

// ClassifyStatus maps a non-2xx status code to an Error.
func ClassifyStatus(statusCode int) *Error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewRateLimitedError(statusCode)
	case statusCode >= 500:
		return &Error{Kind: KindUnreachable, StatusCode: statusCode, Message: "server error"}
	default:
		return &Error{Kind: KindMalformed, StatusCode: statusCode, Message: "unexpected status"}
	}
}

// IsKind reports whether err is a source.Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
