// Package api provides error types for notes server responses.
package api

import (
	"errors"
	"fmt"
	nethttp "net/http"
)

// NetworkError reports a failed call to the notes server: either a non-2xx
// response or a transport failure (Err set).
type NetworkError struct {
	Op         string // "Upload", "Delete", "Load files", ...
	StatusCode int
	Status     string // full status line, e.g. "404 NOT FOUND"
	Body       string // response text, kept for mutating calls
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s failed: %d - %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s failed: %s", e.Op, e.Status)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError is returned before any network call when a required
// field is missing.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return statusOf(err) == nethttp.StatusNotFound
}

// IsUnauthorized reports whether the server rejected the bearer token.
func IsUnauthorized(err error) bool {
	code := statusOf(err)
	return code == nethttp.StatusUnauthorized || code == nethttp.StatusForbidden
}

// IsTooLarge reports whether the server rejected an upload for size.
func IsTooLarge(err error) bool {
	return statusOf(err) == nethttp.StatusRequestEntityTooLarge
}

func statusOf(err error) int {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.StatusCode
	}
	return 0
}
