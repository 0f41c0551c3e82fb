// Package ledger records every mutating API operation in an embedded SQLite
// database so an operator can audit what the service did to the account.
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const walJournalSizeLimit = 67108864 // 64 MiB WAL journal size limit

// preallocEntries bounds the result slice's initial capacity regardless of
// the requested limit.
const preallocEntries = 64

// Entry is one recorded operation.
type Entry struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Op         string    `json:"op"`
	Target     string    `json:"target"`
	OK         bool      `json:"ok"`
	Detail     string    `json:"detail,omitempty"`
}

// Ledger is an append-mostly operation log backed by SQLite. Use ":memory:"
// as the path for tests.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the ledger database at dbPath and applies pending
// schema migrations.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("ledger: open sqlite: %w", err)
	}

	if err := setPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("operation ledger ready", slog.String("path", dbPath))

	return &Ledger{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record appends one operation. Failures are logged, not returned: the ledger
// must never fail the operation it is recording.
func (l *Ledger) Record(ctx context.Context, op, target string, ok bool, detail string) {
	id := uuid.NewString()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO operations (id, occurred_at, op, target, ok, detail)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano), op, target, boolToInt(ok), detail,
	)
	if err != nil {
		l.logger.Error("recording operation",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
}

// Recent returns the most recent entries, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, occurred_at, op, target, ok, detail
		 FROM operations ORDER BY occurred_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: querying operations: %w", err)
	}
	defer rows.Close()

	// The limit sizes the query, not the allocation; a large limit must
	// not turn into a large up-front make.
	capacity := limit
	if capacity > preallocEntries {
		capacity = preallocEntries
	}

	entries := make([]Entry, 0, capacity)

	for rows.Next() {
		var (
			e  Entry
			at string
			ok int
		)

		if err := rows.Scan(&e.ID, &at, &e.Op, &e.Target, &ok, &e.Detail); err != nil {
			return nil, fmt.Errorf("ledger: scanning operation: %w", err)
		}

		e.OccurredAt, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("ledger: parsing timestamp: %w", err)
		}

		e.OK = ok != 0

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterating operations: %w", err)
	}

	return entries, nil
}

func setPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		fmt.Sprintf("PRAGMA journal_size_limit = %d", walJournalSizeLimit),
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("ledger: set pragma %q: %w", p, err)
		}
	}

	return nil
}

// runMigrations applies all pending schema migrations. Uses the goose v3
// Provider API (no global state, context-aware).
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ledger: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("ledger: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("ledger: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Debug("applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
