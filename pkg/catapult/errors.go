package catapult

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Construction errors.
var (
	// ErrMissingCredentials indicates an empty user id, API token or API secret.
	ErrMissingCredentials = errors.New("catapult: user id, API token and API secret are required")

	// ErrInvalidBaseURL indicates an empty or malformed server address.
	ErrInvalidBaseURL = errors.New("catapult: invalid base URL")
)

// Sentinels matched by *APIError through errors.Is.
var (
	ErrUnauthorized = errors.New("catapult: unauthorized")
	ErrNotFound     = errors.New("catapult: not found")
	ErrRateLimited  = errors.New("catapult: rate limited")
)

// ErrNoMorePages is returned by Pager.Next after the last page.
var ErrNoMorePages = errors.New("catapult: no more pages")

// APIError is a non-2xx response from the API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Category, Code and Message come from the JSON error body when present.
	Category string
	Code     string
	Message  string
	// Body is the raw (possibly truncated) response body.
	Body []byte
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("catapult: %s (code=%s, status=%d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("catapult: %s (status=%d)", e.Message, e.StatusCode)
}

// Is implements errors.Is support for sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// Retryable reports whether repeating the request may succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// SerializationError is a request or response body that could not be
// encoded or decoded as JSON.
type SerializationError struct {
	Op  string // "encode" or "decode"
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("catapult: %s JSON: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// TransportError wraps a failure of the underlying transport, such as a
// dial error or context cancellation.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("catapult: transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether err is an API error worth retrying or a
// transport failure that was not caused by context cancellation.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return false
}
