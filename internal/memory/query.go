package memory

import (
	"context"
	"fmt"

	"github.com/memoproj/memo/internal/memerr"
)

// VectorCandidate is one row returned by a KNN lookup, with distance
// already converted to cosine similarity (s = 1 - d).
type VectorCandidate struct {
	ID         string
	Similarity float64
}

// SearchVector asks the vector index for the k nearest neighbours of
// queryVec by cosine distance and returns them ordered best-first.
func (s *Store) SearchVector(ctx context.Context, queryVec []float32, k int) ([]VectorCandidate, error) {
	if len(queryVec) != s.db.Dimension {
		return nil, fmt.Errorf("memory: query vector has %d dims, store expects %d", len(queryVec), s.db.Dimension)
	}
	rows, err := s.db.Conn.QueryContext(ctx, `
		SELECT memory_id, distance FROM vec_memories
		WHERE embedding MATCH ? AND k = ?
		ORDER BY distance`,
		Float32SliceToBlob(queryVec), k,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: vector search: %w", err)
	}
	defer rows.Close()

	var out []VectorCandidate
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, fmt.Errorf("memory: scan vector candidate: %w", err)
		}
		out = append(out, VectorCandidate{ID: id, Similarity: 1 - distance})
	}
	return out, rows.Err()
}

// SearchFullText issues a MATCH query against the full-text index,
// restricted to containerTag if non-empty, ordered by BM25 rank
// ascending (most relevant first). A query the FTS5 grammar rejects
// (e.g. a bare "NEAR" or unbalanced quote) is reported as a
// FullTextQueryError so Search can fall back to vector-only.
func (s *Store) SearchFullText(ctx context.Context, query, containerTag string, limit int) ([]string, error) {
	sqlQuery := `SELECT memory_id FROM fts_memories WHERE fts_memories MATCH ?`
	args := []any{query}
	if containerTag != "" {
		sqlQuery += ` AND container_tag = ?`
		args = append(args, containerTag)
	}
	sqlQuery += ` ORDER BY bm25(fts_memories) ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Conn.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, memerr.Wrap(memerr.FullTextQueryError, "memory: full-text query rejected", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("memory: scan full-text candidate: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
