package db

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesSchema(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(filepath.Join(dir, "memo.db"), 8, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	for _, table := range []string{"memories", "embedding_cache", "fts_memories", "vec_memories", "schema_migrations"} {
		var name string
		row := d.Conn.QueryRow(`SELECT name FROM sqlite_master WHERE name = ?`, table)
		if err := row.Scan(&name); err != nil {
			t.Errorf("expected table/virtual table %q to exist: %v", table, err)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memo.db")

	d1, err := Open(path, 8, "")
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	d1.Close()

	d2, err := Open(path, 8, "")
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer d2.Close()
}

func TestResetRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memo.db")

	d, err := Open(path, 8, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := d.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	d2, err := Open(path, 8, "")
	if err != nil {
		t.Fatalf("reopen after reset: %v", err)
	}
	defer d2.Close()

	var count int
	if err := d2.Conn.QueryRow(`SELECT COUNT(*) FROM memories`).Scan(&count); err != nil {
		t.Fatalf("query after reset: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty store after reset, got %d rows", count)
	}
}
