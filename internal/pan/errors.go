// Package pan provides an HTTP client for the 123pan web API: sign-in,
// directory listing, download links, folder creation, trash, share links,
// and uploads. Responses carry a body-level status code; code 200 means
// success regardless of the HTTP status line.
package pan

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for backend status classification.
// Use errors.Is(err, pan.ErrUnauthorized) to check.
var (
	ErrBadRequest   = errors.New("pan: bad request")
	ErrUnauthorized = errors.New("pan: unauthorized")
	ErrNotFound     = errors.New("pan: not found")
	ErrThrottled    = errors.New("pan: throttled")
	ErrServerError  = errors.New("pan: server error")
	ErrFailed       = errors.New("pan: request failed")
)

// APIError wraps a sentinel error with the backend's body-level status code
// and message for debugging.
type APIError struct {
	Code    int
	Message string
	Err     error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("pan: status %d: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("pan: status %d", e.Code)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyCode maps a body-level status code to a sentinel error.
// Returns nil for 200.
func classifyCode(code int) error {
	switch code {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return ErrFailed
	}
}
