// Package sqlite implements the SQLite storage backend for stockroom.
//
// SQLite is the query engine; JSONL files in the data directory are the
// source of truth. categories.jsonl carries each category with its
// membership set and items.jsonl carries the item records. Every write runs
// in one SQLite transaction and rewrites the affected JSONL files before the
// transaction commits.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// Data file names inside Config.DataDir.
const (
	dbFileName         = "stockroom.db"
	categoriesFileName = "categories.jsonl"
	itemsFileName      = "items.jsonl"
)

var _ types.Backend = (*Backend)(nil)

// Backend implements types.Inventory using SQLite as the query engine
// and JSONL files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *slog.Logger

	// writeFile persists one JSONL file. Replaced in tests to inject
	// failures between the two files of a multi-file write.
	writeFile func(path string, records []json.RawMessage) error

	// commit commits a write transaction. Replaced in tests.
	commit func(tx *sql.Tx) error
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for load and reconcile reports.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		logger:    slog.Default(),
		writeFile: writeJSONL,
		commit:    (*sql.Tx).Commit,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, builds a fresh SQLite schema and
// loads the JSONL files into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	config.DataDir = dataDir

	// The database is a cache of the JSONL files; start from an empty one.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config

	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		b.db = nil
		return err
	}

	report, err := b.load(context.Background())
	if err != nil {
		db.Close()
		b.db = nil
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.attached = true

	// Finish any write that stopped between its two files.
	for _, file := range report.dirtyFiles() {
		if err := b.persist(context.Background(), db, file); err != nil {
			b.logger.Warn("rewriting data file after reconcile", "file", file, "error", err)
		}
	}

	return nil
}

// Detach releases all resources held by the backend.
// After Detach, all operations return ErrBackendDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	return nil
}

// DataDir returns the directory holding the JSONL files.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.DataDir
}

// write runs fn in a transaction, then persists files in the given order
// before committing. If a later file fails after an earlier one was written,
// the SQLite state is rebuilt from disk so reads match what was persisted.
// The caller must hold b.mu.
func (b *Backend) write(ctx context.Context, fn func(tx *sql.Tx) error, files ...string) error {
	if !b.attached {
		return types.ErrBackendDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	for i, file := range files {
		if err := b.persist(ctx, tx, file); err != nil {
			if i > 0 {
				tx.Rollback()
				b.reload(ctx)
			}
			return err
		}
	}

	if err := b.commit(tx); err != nil {
		// The JSONL files already hold the change.
		tx.Rollback()
		b.reload(ctx)
		return storageErr("committing transaction", err)
	}
	return nil
}

// reload rebuilds SQLite from the JSONL files after a partial write.
// The caller must hold b.mu.
func (b *Backend) reload(ctx context.Context) {
	if err := clearTables(ctx, b.db); err != nil {
		b.logger.Error("clearing tables after partial write", "error", err)
		return
	}
	if _, err := b.load(ctx); err != nil {
		b.logger.Error("reloading after partial write", "error", err)
	}
}

// persist snapshots one table from q and writes its JSONL file.
func (b *Backend) persist(ctx context.Context, q querier, file string) error {
	var (
		records []json.RawMessage
		err     error
	)
	switch file {
	case categoriesFileName:
		records, err = snapshotCategories(ctx, q)
	case itemsFileName:
		records, err = snapshotItems(ctx, q)
	default:
		return fmt.Errorf("unknown data file %q", file)
	}
	if err != nil {
		return storageErr("snapshotting "+file, err)
	}
	if err := b.writeFile(filepath.Join(b.config.DataDir, file), records); err != nil {
		return storageErr("persisting "+file, err)
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// storageErr wraps a backing-store failure so callers can classify it.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrStorage, err)
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
