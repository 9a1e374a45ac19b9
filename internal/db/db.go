// Package db owns the on-disk SQLite representation shared by every
// store in the process: pragmas, extension loading, migrations, and
// the connection lifecycle. Each call to Open builds its own connection.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/memoproj/memo/internal/logging"
	"github.com/memoproj/memo/internal/memerr"
)

func init() {
	// Registers the sqlite-vec extension on every connection opened
	// through the standard sql.Open("sqlite3", ...) driver.
	vec.Auto()
}

// DefaultEmbeddingDimension is used when a store is initialised
// without an explicit dimension (e.g. a fresh project).
const DefaultEmbeddingDimension = 768

// macosExtensionSearchPaths lists the well-known locations a
// loadable-extension-capable sqlite3 shared library is found at on
// macOS, where Apple's system libsqlite3 disables extension loading.
// They are only named in the diagnostic below; Open does not search
// them, and customSqlitePath is likewise only reported, never loaded.
var macosExtensionSearchPaths = []string{
	"/opt/homebrew/opt/sqlite/lib/libsqlite3.dylib",
	"/usr/local/opt/sqlite/lib/libsqlite3.dylib",
	"/opt/homebrew/lib/libsqlite3.dylib",
}

// DB wraps the shared *sql.DB handle plus the dimension the vector
// index was created with.
type DB struct {
	Conn      *sql.DB
	Path      string
	Dimension int
}

// Open resolves path to an absolute location, creates the parent
// directory, opens the connection under WAL with the pragmas required
// by the concurrency model, applies migrations, and ensures the
// vector index exists for the given embedding dimension. dimension is
// fixed on first write and is a no-op if the store already has rows.
func Open(path string, dimension int, customSqlitePath string) (*DB, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("db: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("db: mkdir: %w", err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_synchronous=NORMAL&_cache_size=-65536&_temp_store=memory",
		abs,
	)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	if dimension <= 0 {
		dimension = DefaultEmbeddingDimension
	}

	d := &DB{Conn: conn, Path: abs, Dimension: dimension}

	if err := applyMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: migrate: %w", err)
	}

	if err := applyVectorTable(conn, dimension); err != nil {
		conn.Close()
		return nil, extensionLoadError(customSqlitePath, err)
	}

	return d, nil
}

func extensionLoadError(customSqlitePath string, cause error) error {
	tried := macosExtensionSearchPaths
	msg := fmt.Sprintf(
		"vec0 virtual table unavailable; configure %q or ensure a loadable-extension-capable sqlite3 is linked",
		"customSqlitePath",
	)
	if runtime.GOOS == "darwin" {
		msg += fmt.Sprintf("; known install locations (not searched): %v", tried)
	}
	if customSqlitePath != "" {
		msg += fmt.Sprintf("; configured path was %q", customSqlitePath)
	}
	logging.Error("extension load failed", "err", cause, "customSqlitePath", customSqlitePath)
	return memerr.Wrap(memerr.ExtensionLoad, msg, cause)
}

// Reset closes the connection and removes the database file (plus its
// WAL/SHM siblings) so a fresh store is created on next Open.
func (d *DB) Reset() error {
	if err := d.Close(); err != nil {
		return err
	}
	for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
		_ = os.Remove(d.Path + suffix)
	}
	return nil
}

// Close checkpoints the WAL and closes the connection. Safe to call
// on an already-closed DB.
func (d *DB) Close() error {
	if d.Conn == nil {
		return nil
	}
	_, _ = d.Conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return d.Conn.Close()
}
