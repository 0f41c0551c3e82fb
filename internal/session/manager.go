package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/panbridge/panbridge/internal/settings"
)

// Manager owns the process-wide backend session. Every method that touches
// the backend holds the manager's mutex for its full duration: the handle's
// directory cursor is mutable state, and interleaving two operations would
// corrupt which directory a listing or link request targets.
type Manager struct {
	mu      sync.Mutex
	dial    Dialer
	store   *settings.Store
	doc     settings.Document
	backend Backend
	logger  *slog.Logger
}

// NewManager creates a manager with the settings document loaded from the
// store. No login is attempted; call Login before serving.
func NewManager(dial Dialer, store *settings.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		dial:   dial,
		store:  store,
		doc:    store.Load(),
		logger: logger,
	}
}

// Login constructs a fresh backend handle from the current credentials and
// authenticates it. On success the handle replaces the previous one, the
// issued token is persisted, and the configured default path is validated.
// On refusal the previous handle stays installed; a bad re-login must not
// tear down a working session.
func (m *Manager) Login(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.loginLocked(ctx)
}

func (m *Manager) loginLocked(ctx context.Context) error {
	handle := m.dial(m.doc.User, m.doc.Password, m.doc.Authorization)

	code, err := handle.SignIn(ctx)
	if err != nil {
		return fmt.Errorf("session: signing in: %w", err)
	}

	if code != http.StatusOK {
		return &AuthError{Code: code}
	}

	m.backend = handle

	// Persist whatever the live session reports, including the newly
	// issued token.
	user, password, token := handle.Credentials()
	m.doc.User = user
	m.doc.Password = password
	m.doc.Authorization = token

	if err := m.store.Save(m.doc); err != nil {
		return fmt.Errorf("session: persisting settings: %w", err)
	}

	m.logger.Info("logged in", slog.String("user", user))

	return m.validateDefaultPathLocked(ctx)
}

// validateDefaultPathLocked resolves the configured default path from the
// account root, folders only, and leaves the cursor at the final folder.
// This establishes the working root for subsequent listing calls.
func (m *Manager) validateDefaultPathLocked(ctx context.Context) error {
	if m.doc.DefaultPath == "" {
		return nil
	}

	dir, err := walkFolders(ctx, m.backend, RootFolderID, splitPath(m.doc.DefaultPath))
	if err != nil {
		return &RootPathError{Path: m.doc.DefaultPath, Err: err}
	}

	m.backend.SetCwd(dir)

	m.logger.Debug("default path validated",
		slog.String("path", m.doc.DefaultPath),
		slog.Int64("dir_id", dir),
	)

	return nil
}

// Reload performs a fresh login with the current settings document.
func (m *Manager) Reload(ctx context.Context) error {
	return m.Login(ctx)
}

// ReloadFromDisk re-reads the settings document from the store and logs in
// with it. Used when the settings file changes outside the process.
func (m *Manager) ReloadFromDisk(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.doc = m.store.Load()

	return m.loginLocked(ctx)
}

// UpdateCredentials replaces the stored username and password and persists
// the document. It does not attempt a login.
func (m *Manager) UpdateCredentials(user, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.doc.User = user
	m.doc.Password = password

	if err := m.store.Save(m.doc); err != nil {
		return fmt.Errorf("session: persisting settings: %w", err)
	}

	return nil
}

// Settings returns a copy of the current settings document.
func (m *Manager) Settings() settings.Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.doc
}

// List returns the formatted listing of the current directory. Every call
// re-fetches from the backend; nothing is cached.
func (m *Manager) List(ctx context.Context) (Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.backendLocked()
	if err != nil {
		return Listing{}, err
	}

	entries, err := b.ListDir(ctx, b.Cwd())
	if err != nil {
		return Listing{}, err
	}

	return buildListing(entries), nil
}

// ListPath resolves a virtual path relative to the current directory,
// moves the cursor into the resolved folder, and returns its listing.
func (m *Manager) ListPath(ctx context.Context, path string) (Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.backendLocked()
	if err != nil {
		return Listing{}, err
	}

	dir, err := walkFolders(ctx, b, b.Cwd(), splitPath(path))
	if err != nil {
		return Listing{}, err
	}

	b.SetCwd(dir)

	entries, err := b.ListDir(ctx, dir)
	if err != nil {
		return Listing{}, err
	}

	return buildListing(entries), nil
}

// ResolveLink resolves a virtual file path relative to the current directory
// to a download link.
func (m *Manager) ResolveLink(ctx context.Context, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.backendLocked()
	if err != nil {
		return "", err
	}

	return resolveFileLink(ctx, b, b.Cwd(), path)
}

// CreateFolder creates a folder in the current directory.
func (m *Manager) CreateFolder(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.backendLocked()
	if err != nil {
		return 0, err
	}

	return b.CreateFolder(ctx, name)
}

// Delete moves a file or folder to the trash.
func (m *Manager) Delete(ctx context.Context, fileID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.backendLocked()
	if err != nil {
		return err
	}

	return b.Delete(ctx, fileID)
}

// Share creates a share link for a file.
func (m *Manager) Share(ctx context.Context, fileID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.backendLocked()
	if err != nil {
		return "", err
	}

	return b.Share(ctx, fileID)
}

// Upload sends a staged local file into the current directory.
func (m *Manager) Upload(ctx context.Context, localPath string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.backendLocked()
	if err != nil {
		return 0, err
	}

	return b.Upload(ctx, localPath)
}

func (m *Manager) backendLocked() (Backend, error) {
	if m.backend == nil {
		return nil, ErrNoSession
	}

	return m.backend, nil
}
