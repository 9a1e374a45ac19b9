package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL migration statements. Each
// entry is applied once, in order; new migrations are appended at the
// end, never edited in place.
var migrations = []string{
	// Migrations 0-4: the record table, its indexes, and the cache table.
	`CREATE TABLE IF NOT EXISTS memories (
		id            TEXT PRIMARY KEY,
		content       TEXT NOT NULL,
		vector        BLOB NOT NULL,
		container_tag TEXT NOT NULL,
		source_key    TEXT,
		type          TEXT,
		metadata      TEXT,
		created_at    INTEGER NOT NULL,
		updated_at    INTEGER NOT NULL,
		display_name  TEXT,
		user_name     TEXT,
		user_email    TEXT,
		project_path  TEXT,
		project_name  TEXT,
		git_repo_url  TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_memories_container   ON memories(container_tag)`,
	`CREATE INDEX IF NOT EXISTS idx_memories_created     ON memories(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_memories_source      ON memories(container_tag, source_key)`,

	`CREATE TABLE IF NOT EXISTS embedding_cache (
		content_hash TEXT NOT NULL,
		model_id     TEXT NOT NULL,
		vector       BLOB NOT NULL,
		created_at   INTEGER NOT NULL,
		PRIMARY KEY (content_hash, model_id)
	)`,

	// Migrations 5-8: full-text index over memories.content, synced by
	// triggers since fts_memories is an external-content FTS5 table
	// (the content itself lives only in memories, not duplicated here).
	`CREATE VIRTUAL TABLE IF NOT EXISTS fts_memories USING fts5(
		content,
		memory_id UNINDEXED,
		container_tag UNINDEXED,
		content='memories',
		content_rowid='rowid',
		tokenize='unicode61 remove_diacritics 2'
	)`,

	`CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
		INSERT INTO fts_memories(rowid, content, memory_id, container_tag)
		VALUES (new.rowid, new.content, new.id, new.container_tag);
	END`,

	`CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
		INSERT INTO fts_memories(fts_memories, rowid, content, memory_id, container_tag)
		VALUES ('delete', old.rowid, old.content, old.id, old.container_tag);
	END`,

	`CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE ON memories BEGIN
		INSERT INTO fts_memories(fts_memories, rowid, content, memory_id, container_tag)
		VALUES ('delete', old.rowid, old.content, old.id, old.container_tag);
		INSERT INTO fts_memories(rowid, content, memory_id, container_tag)
		VALUES (new.rowid, new.content, new.id, new.container_tag);
	END`,
}

// applyMigrations runs any migrations not yet recorded in
// schema_migrations, in order, each inside its own transaction.
func applyMigrations(conn *sql.DB) error {
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmt := range migrations {
		var count int
		row := conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, i)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", i, err)
		}
		if count > 0 {
			continue
		}

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i, err)
		}
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, unixepoch('now', 'subsec') * 1000)`, i); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i, err)
		}
	}

	return nil
}

// applyVectorTable creates the vec0 virtual table backing the KNN
// index, configured for cosine distance so Stage 1 of search can
// compute similarity as 1 - distance directly. A pre-existing table
// created with a different dimension is left untouched, matching the
// invariant that D is fixed per store after first write.
func applyVectorTable(conn *sql.DB, dimension int) error {
	stmt := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_memories USING vec0(
			memory_id TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		)`, dimension)
	if _, err := conn.Exec(stmt); err != nil {
		return fmt.Errorf("create vec_memories: %w", err)
	}
	return nil
}
