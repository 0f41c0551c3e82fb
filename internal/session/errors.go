package session

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to the HTTP layer.
var (
	// ErrNotFound means a virtual path segment or file did not resolve.
	ErrNotFound = errors.New("no matching file or folder")

	// ErrNoSession means no authenticated backend handle is installed.
	ErrNoSession = errors.New("not logged in")
)

// AuthError reports a login refused by the backend, carrying its status code.
type AuthError struct {
	Code int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login failed with status %d", e.Code)
}

// RootPathError reports a configured default path that does not resolve to
// a chain of folders.
type RootPathError struct {
	Path string
	Err  error
}

func (e *RootPathError) Error() string {
	return fmt.Sprintf("invalid default path %q: %v", e.Path, e.Err)
}

func (e *RootPathError) Unwrap() error {
	return e.Err
}
