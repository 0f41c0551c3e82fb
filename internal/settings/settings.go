// Package settings persists the pan account settings document: the default
// path, credentials, and the backend-issued session token. This is a leaf
// package with no dependencies on the rest of the module.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FilePerms restricts the settings file to owner-only read/write;
// it holds credentials and a live session token.
const FilePerms = 0o600

// DirPerms is used when creating the settings directory.
const DirPerms = 0o700

// Document is the on-disk settings format. The authorization field holds the
// backend-issued session token and may be empty or stale; it is overwritten
// and persisted after every successful login.
type Document struct {
	DefaultPath   string `json:"default-path"`
	User          string `json:"user"`
	Password      string `json:"password"`
	Authorization string `json:"authorization"`
}

// Store reads and writes a settings document at a fixed path.
type Store struct {
	path string
}

// NewStore returns a store bound to the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file path the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings document. It never fails: a missing or malformed
// file degrades to the zero document, merged with whatever fields did parse.
// A broken settings file must never prevent startup.
func (s *Store) Load() Document {
	var doc Document

	data, err := os.ReadFile(s.path)
	if err != nil {
		return doc
	}

	// Fields decoded before a parse error are kept; the error itself is
	// deliberately discarded.
	_ = json.Unmarshal(data, &doc)

	return doc
}

// Save writes the settings document atomically (write-to-temp + rename)
// with 0600 permissions. Never logs field values.
func (s *Store) Save(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encoding: %w", err)
	}

	dir := filepath.Dir(s.path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("settings: creating directory %s: %w", dir, mkErr)
	}

	// Atomic write: temp file in the same directory, then rename.
	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("settings: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: writing: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: closing: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("settings: renaming: %w", err)
	}

	success = true

	return nil
}
