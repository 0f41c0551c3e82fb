// Package session owns the single authenticated backend handle shared by
// every request: login and credential persistence, virtual path resolution,
// and directory listing formatting. All backend access is serialized behind
// one mutex because the handle carries a mutable directory cursor.
package session

import (
	"context"

	"github.com/panbridge/panbridge/internal/pan"
)

// Backend is the capability surface this package needs from the storage
// client. Defined at the consumer per Go convention "accept interfaces,
// return structs"; *pan.Client is the real implementation.
//
// The contract mirrors the pan API: there is no path lookup, listings move
// a directory cursor, and download links are addressed by position in the
// most recently fetched listing.
type Backend interface {
	// SignIn authenticates and returns the backend's status code.
	// A non-200 code with a nil error means the backend refused.
	SignIn(ctx context.Context) (int, error)

	// Credentials reports the account credentials and session token the
	// handle currently holds.
	Credentials() (user, password, token string)

	// Cwd and SetCwd read and move the directory cursor.
	Cwd() int64
	SetCwd(dirID int64)

	// ListDir fetches all children of a directory and moves the cursor there.
	ListDir(ctx context.Context, dirID int64) ([]pan.Entry, error)

	// LinkAt returns a download link for the entry at the given position in
	// the last-fetched listing.
	LinkAt(ctx context.Context, index int) (string, error)

	// CreateFolder creates a folder in the current directory.
	CreateFolder(ctx context.Context, name string) (int64, error)

	Delete(ctx context.Context, fileID int64) error
	Share(ctx context.Context, fileID int64) (string, error)

	// Upload sends a local file into the current directory.
	Upload(ctx context.Context, localPath string) (int64, error)
}

// Dialer constructs a fresh, unauthenticated backend handle from credentials.
type Dialer func(user, password, token string) Backend
