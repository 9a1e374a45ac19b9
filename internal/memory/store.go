package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/memoproj/memo/internal/db"
	"github.com/memoproj/memo/internal/memerr"
)

// Store owns the on-disk representation of every record and its two
// synchronised indexes, plus the embedding cache table. All writes
// that touch more than one table go through a single transaction so
// invariant #1 (one row per table per record) never observes a
// partial state.
type Store struct {
	db *db.DB
}

// New wraps an already-open database handle.
func New(d *db.DB) *Store {
	return &Store{db: d}
}

// Dimension returns the embedding width this store's vector index was
// created with.
func (s *Store) Dimension() int { return s.db.Dimension }

const maxIDRetries = 5

// InsertNew assigns a fresh id to rec and writes it to all three live
// tables, retrying with a new id on an id-collision IntegrityViolation.
func (s *Store) InsertNew(ctx context.Context, rec *Record) error {
	for attempt := 0; attempt < maxIDRetries; attempt++ {
		id, err := NewID(rec.CreatedAt)
		if err != nil {
			return err
		}
		rec.ID = id
		err = s.Insert(ctx, rec)
		if err == nil {
			return nil
		}
		if memerr.Is(err, memerr.IntegrityViolation) {
			continue
		}
		return err
	}
	return memerr.New(memerr.IntegrityViolation, "memory: exhausted id-collision retries")
}

// Insert writes rec (which must already carry an id) into memories
// and vec_memories within a single transaction. The full-text row is
// maintained by triggers on memories, so inserting there is implicit.
func (s *Store) Insert(ctx context.Context, rec *Record) error {
	if len(rec.Vector) != s.db.Dimension {
		return fmt.Errorf("memory: vector has %d dims, store expects %d", len(rec.Vector), s.db.Dimension)
	}

	tx, err := s.db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("memory: begin insert: %w", err)
	}
	defer tx.Rollback()

	vecBlob := Float32SliceToBlob(rec.Vector)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memories (
			id, content, vector, container_tag, source_key, type, metadata,
			created_at, updated_at, display_name, user_name, user_email,
			project_path, project_name, git_repo_url
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Content, vecBlob, rec.ContainerTag, nullable(rec.SourceKey), nullable(rec.Type), nullable(rec.Metadata),
		rec.CreatedAt, rec.UpdatedAt, nullable(rec.DisplayName), nullable(rec.UserName), nullable(rec.UserEmail),
		nullable(rec.ProjectPath), nullable(rec.ProjectName), nullable(rec.GitRepoURL),
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return memerr.Wrap(memerr.IntegrityViolation, "memory: id collision", err)
		}
		return fmt.Errorf("memory: insert memories row: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_memories (memory_id, embedding) VALUES (?, ?)`,
		rec.ID, vecBlob,
	); err != nil {
		if isUniqueConstraintErr(err) {
			return memerr.Wrap(memerr.IntegrityViolation, "memory: id collision in vector index", err)
		}
		return fmt.Errorf("memory: insert vec_memories row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("memory: commit insert: %w", err)
	}
	return nil
}

// Delete removes id from all three tables and reports whether it
// previously existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("memory: begin delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("memory: delete memories row: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("memory: rows affected: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vec_memories WHERE memory_id = ?`, id); err != nil {
		return false, fmt.Errorf("memory: delete vec_memories row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("memory: commit delete: %w", err)
	}
	return n > 0, nil
}

// ReplaceBySource transactionally deletes every record matching
// (containerTag, sourceKey) and inserts newRecords in its place. A
// record without an id is given a fresh one from NewID. The whole
// replacement commits atomically, or the prior state remains.
func (s *Store) ReplaceBySource(ctx context.Context, containerTag, sourceKey string, newRecords []*Record) (deleted, inserted int, err error) {
	tx, err := s.db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("memory: begin replace: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM memories WHERE container_tag = ? AND source_key = ?`,
		containerTag, sourceKey,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("memory: select existing source ids: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("memory: scan existing id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id); err != nil {
			return 0, 0, fmt.Errorf("memory: delete %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM vec_memories WHERE memory_id = ?`, id); err != nil {
			return 0, 0, fmt.Errorf("memory: delete vector %s: %w", id, err)
		}
	}

	for _, rec := range newRecords {
		if len(rec.Vector) != s.db.Dimension {
			return 0, 0, fmt.Errorf("memory: vector has %d dims, store expects %d", len(rec.Vector), s.db.Dimension)
		}
		if rec.ID == "" {
			id, idErr := NewID(rec.CreatedAt)
			if idErr != nil {
				return 0, 0, idErr
			}
			rec.ID = id
		}
		vecBlob := Float32SliceToBlob(rec.Vector)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO memories (
				id, content, vector, container_tag, source_key, type, metadata,
				created_at, updated_at, display_name, user_name, user_email,
				project_path, project_name, git_repo_url
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			rec.ID, rec.Content, vecBlob, rec.ContainerTag, nullable(rec.SourceKey), nullable(rec.Type), nullable(rec.Metadata),
			rec.CreatedAt, rec.UpdatedAt, nullable(rec.DisplayName), nullable(rec.UserName), nullable(rec.UserEmail),
			nullable(rec.ProjectPath), nullable(rec.ProjectName), nullable(rec.GitRepoURL),
		)
		if err != nil {
			if isUniqueConstraintErr(err) {
				return 0, 0, memerr.Wrap(memerr.IntegrityViolation, "memory: id collision during replace", err)
			}
			return 0, 0, fmt.Errorf("memory: insert replacement row: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_memories (memory_id, embedding) VALUES (?, ?)`,
			rec.ID, vecBlob,
		); err != nil {
			return 0, 0, fmt.Errorf("memory: insert replacement vector: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("memory: commit replace: %w", err)
	}
	return len(ids), len(newRecords), nil
}

// List returns records for containerTag (or every container if empty)
// ordered by created_at descending. limit < 0 means unlimited.
func (s *Store) List(ctx context.Context, containerTag string, limit int) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM memories`
	var args []any
	if containerTag != "" {
		query += ` WHERE container_tag = ?`
		args = append(args, containerTag)
	}
	query += ` ORDER BY created_at DESC`
	if limit >= 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: list: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Count returns the number of records in containerTag (or every
// container if empty).
func (s *Store) Count(ctx context.Context, containerTag string) (int64, error) {
	var n int64
	var err error
	if containerTag == "" {
		err = s.db.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&n)
	} else {
		err = s.db.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE container_tag = ?`, containerTag).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("memory: count: %w", err)
	}
	return n, nil
}

// CountByContainer returns a per-container inventory.
func (s *Store) CountByContainer(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.Conn.QueryContext(ctx, `SELECT container_tag, COUNT(*) FROM memories GROUP BY container_tag`)
	if err != nil {
		return nil, fmt.Errorf("memory: count by container: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var tag string
		var n int64
		if err := rows.Scan(&tag, &n); err != nil {
			return nil, fmt.Errorf("memory: scan count: %w", err)
		}
		out[tag] = n
	}
	return out, rows.Err()
}

// CountBySource returns the number of records with the given
// (containerTag, sourceKey), used to observe replace-by-source
// snapshots.
func (s *Store) CountBySource(ctx context.Context, containerTag, sourceKey string) (int64, error) {
	var n int64
	err := s.db.Conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE container_tag = ? AND source_key = ?`,
		containerTag, sourceKey,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("memory: count by source: %w", err)
	}
	return n, nil
}

// FindExactDuplicate looks up a record with byte-identical content in
// the same container.
func (s *Store) FindExactDuplicate(ctx context.Context, content, containerTag string) (*Record, bool, error) {
	query := `SELECT ` + recordColumns + ` FROM memories WHERE container_tag = ? AND content = ? LIMIT 1`
	rows, err := s.db.Conn.QueryContext(ctx, query, containerTag, content)
	if err != nil {
		return nil, false, fmt.Errorf("memory: find exact duplicate: %w", err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, false, err
	}
	if len(recs) == 0 {
		return nil, false, nil
	}
	return recs[0], true, nil
}

// GetContainerTag resolves id's container, used for the forget
// cross-check.
func (s *Store) GetContainerTag(ctx context.Context, id string) (string, bool, error) {
	var tag string
	err := s.db.Conn.QueryRowContext(ctx, `SELECT container_tag FROM memories WHERE id = ?`, id).Scan(&tag)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("memory: get container tag: %w", err)
	}
	return tag, true, nil
}

// Get fetches a single record by id.
func (s *Store) Get(ctx context.Context, id string) (*Record, bool, error) {
	query := `SELECT ` + recordColumns + ` FROM memories WHERE id = ?`
	rows, err := s.db.Conn.QueryContext(ctx, query, id)
	if err != nil {
		return nil, false, fmt.Errorf("memory: get: %w", err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, false, err
	}
	if len(recs) == 0 {
		return nil, false, nil
	}
	return recs[0], true, nil
}

// ReindexFullText idempotently repairs fts_memories: it removes rows
// whose memory_id no longer exists in memories, then inserts rows for
// memories missing from the full-text table. A second call in a row
// yields {0, 0}.
func (s *Store) ReindexFullText(ctx context.Context) (added, removed int, err error) {
	tx, err := s.db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("memory: begin reindex: %w", err)
	}
	defer tx.Rollback()

	orphans, err := tx.QueryContext(ctx, `
		SELECT f.rowid, f.content, f.memory_id, f.container_tag FROM fts_memories f
		LEFT JOIN memories m ON m.id = f.memory_id
		WHERE m.id IS NULL`)
	if err != nil {
		return 0, 0, fmt.Errorf("memory: find orphan fts rows: %w", err)
	}
	type orphanRow struct {
		rowid                            int64
		content, memoryID, containerTag string
	}
	var toRemove []orphanRow
	for orphans.Next() {
		var o orphanRow
		if err := orphans.Scan(&o.rowid, &o.content, &o.memoryID, &o.containerTag); err != nil {
			orphans.Close()
			return 0, 0, fmt.Errorf("memory: scan orphan row: %w", err)
		}
		toRemove = append(toRemove, o)
	}
	orphans.Close()
	if err := orphans.Err(); err != nil {
		return 0, 0, err
	}

	for _, o := range toRemove {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fts_memories(fts_memories, rowid, content, memory_id, container_tag) VALUES ('delete', ?, ?, ?, ?)`,
			o.rowid, o.content, o.memoryID, o.containerTag,
		); err != nil {
			return 0, 0, fmt.Errorf("memory: remove orphan fts row: %w", err)
		}
	}

	missing, err := tx.QueryContext(ctx, `
		SELECT m.rowid, m.content, m.id, m.container_tag FROM memories m
		LEFT JOIN fts_memories f ON f.memory_id = m.id
		WHERE f.memory_id IS NULL`)
	if err != nil {
		return 0, 0, fmt.Errorf("memory: find missing fts rows: %w", err)
	}
	type missingRow struct {
		rowid                            int64
		content, memoryID, containerTag string
	}
	var toAdd []missingRow
	for missing.Next() {
		var m missingRow
		if err := missing.Scan(&m.rowid, &m.content, &m.memoryID, &m.containerTag); err != nil {
			missing.Close()
			return 0, 0, fmt.Errorf("memory: scan missing row: %w", err)
		}
		toAdd = append(toAdd, m)
	}
	missing.Close()
	if err := missing.Err(); err != nil {
		return 0, 0, err
	}

	for _, m := range toAdd {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fts_memories(rowid, content, memory_id, container_tag) VALUES (?, ?, ?, ?)`,
			m.rowid, m.content, m.memoryID, m.containerTag,
		); err != nil {
			return 0, 0, fmt.Errorf("memory: add missing fts row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("memory: commit reindex: %w", err)
	}
	return len(toAdd), len(toRemove), nil
}

// GetCachedEmbedding looks up an L2 cache row.
func (s *Store) GetCachedEmbedding(ctx context.Context, contentHash, modelID string) ([]float32, bool, error) {
	var blob []byte
	err := s.db.Conn.QueryRowContext(ctx,
		`SELECT vector FROM embedding_cache WHERE content_hash = ? AND model_id = ?`,
		contentHash, modelID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("memory: get cached embedding: %w", err)
	}
	vec, err := BlobToFloat32Slice(blob)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// PutCachedEmbedding writes (or replaces) an L2 cache row.
func (s *Store) PutCachedEmbedding(ctx context.Context, contentHash, modelID string, vec []float32) error {
	_, err := s.db.Conn.ExecContext(ctx,
		`INSERT INTO embedding_cache (content_hash, model_id, vector, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (content_hash, model_id) DO UPDATE SET vector = excluded.vector, created_at = excluded.created_at`,
		contentHash, modelID, Float32SliceToBlob(vec), NowMillis(),
	)
	if err != nil {
		return fmt.Errorf("memory: put cached embedding: %w", err)
	}
	return nil
}

// Reset closes the connection and removes the database file,
// allowing re-initialisation on next open.
func (s *Store) Reset() error {
	return s.db.Reset()
}

// --- helpers ---

const recordColumns = `id, content, vector, container_tag, source_key, type, metadata,
	created_at, updated_at, display_name, user_name, user_email,
	project_path, project_name, git_repo_url`

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var out []*Record
	for rows.Next() {
		r := &Record{}
		var vecBlob []byte
		var sourceKey, typ, metadata, displayName, userName, userEmail, projectPath, projectName, gitRepoURL sql.NullString
		if err := rows.Scan(
			&r.ID, &r.Content, &vecBlob, &r.ContainerTag, &sourceKey, &typ, &metadata,
			&r.CreatedAt, &r.UpdatedAt, &displayName, &userName, &userEmail,
			&projectPath, &projectName, &gitRepoURL,
		); err != nil {
			return nil, fmt.Errorf("memory: scan record: %w", err)
		}
		vec, err := BlobToFloat32Slice(vecBlob)
		if err != nil {
			return nil, err
		}
		r.Vector = vec
		r.SourceKey = sourceKey.String
		r.Type = typ.String
		r.Metadata = metadata.String
		r.DisplayName = displayName.String
		r.UserName = userName.String
		r.UserEmail = userEmail.String
		r.ProjectPath = projectPath.String
		r.ProjectName = projectName.String
		r.GitRepoURL = gitRepoURL.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueConstraintErr(err error) bool {
	// mattn/go-sqlite3 surfaces this as *sqlite3.Error with
	// ExtendedCode == sqlite3.ErrConstraintUnique/PrimaryKey; string
	// matching avoids importing the driver package purely for the
	// error type in this translation layer.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY must be unique")
}
