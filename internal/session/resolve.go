package session

import (
	"context"
	"fmt"
	"strings"
)

// RootFolderID is the account root directory.
const RootFolderID = 0

// splitPath splits a slash-separated virtual path into its non-empty
// segments. Leading, trailing, and duplicate slashes are tolerated.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")

	segments := make([]string, 0, len(parts))

	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}

	return segments
}

// walkFolders descends from start one segment at a time. Each segment must
// match a folder child by exact, case-sensitive name; the first match wins
// and resolution fails at the first segment with no match. One backend
// listing per segment: the backend has no direct path lookup, so every
// resolution re-walks from a known directory.
func walkFolders(ctx context.Context, b Backend, start int64, segments []string) (int64, error) {
	dir := start

	for _, seg := range segments {
		entries, err := b.ListDir(ctx, dir)
		if err != nil {
			return 0, err
		}

		matched := false

		for _, e := range entries {
			if e.IsFolder() && e.FileName == seg {
				dir = e.FileID
				matched = true

				break
			}
		}

		if !matched {
			return 0, fmt.Errorf("folder %q: %w", seg, ErrNotFound)
		}
	}

	return dir, nil
}

// resolveFileLink resolves a virtual path to a download link. All segments
// but the last are consumed as folders; the last must name a file in the
// final directory's listing. The cursor is left at the file's parent
// directory so the link request can reference the listing position.
func resolveFileLink(ctx context.Context, b Backend, start int64, path string) (string, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return "", fmt.Errorf("empty file path: %w", ErrNotFound)
	}

	parent, err := walkFolders(ctx, b, start, segments[:len(segments)-1])
	if err != nil {
		return "", err
	}

	b.SetCwd(parent)

	entries, err := b.ListDir(ctx, parent)
	if err != nil {
		return "", err
	}

	name := segments[len(segments)-1]

	for i, e := range entries {
		if !e.IsFolder() && e.FileName == name {
			return b.LinkAt(ctx, i)
		}
	}

	return "", fmt.Errorf("file %q: %w", name, ErrNotFound)
}
