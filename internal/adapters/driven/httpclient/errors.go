package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

// Error implements error.
func (e *APIError) Error() string {
	msg := e.Message
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	return fmt.Sprintf("%s: API returned status %d: %s", e.Provider, e.StatusCode, msg)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Temporary reports whether retrying may succeed: rate limits and server errors.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// NetworkError is a transport-level failure.
type NetworkError struct {
	Provider string
	Err      error
}

// Error implements error.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying cause.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Temporary is always true for network failures.
func (e *NetworkError) Temporary() bool {
	return true
}

// IsTemporary reports whether err is worth retrying at the transport level.
// Unclassified errors are treated as temporary.
func IsTemporary(err error) bool {
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return true
}
