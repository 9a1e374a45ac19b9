// Package search implements hybrid retrieval: a gated KNN vector
// pass, a BM25 full-text pass, Reciprocal Rank Fusion across the two,
// and case-dependent score normalisation.
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/memoproj/memo/internal/logging"
	"github.com/memoproj/memo/internal/memerr"
	"github.com/memoproj/memo/internal/memory"
)

// Request describes one hybrid search invocation. At least one of
// QueryVector or QueryText must be present and not skipped.
type Request struct {
	QueryVector  []float32 // already normalised and clustering-prefix-embedded
	QueryText    string
	Container    string // optional scope; empty means unscoped
	Limit        int
	Threshold    float64
	SkipVector   bool
	SkipFullText bool
}

// Result is one observable search hit.
type Result struct {
	ID         string
	Content    string
	Similarity float64
	CreatedAt  int64
	Type       string
	Metadata   string
}

// Store is the narrow surface Search needs from the record store.
type Store interface {
	SearchVector(ctx context.Context, queryVec []float32, k int) ([]memory.VectorCandidate, error)
	SearchFullText(ctx context.Context, query, containerTag string, limit int) ([]string, error)
	Get(ctx context.Context, id string) (*memory.Record, bool, error)
}

// HybridSearcher is the surface both Searcher and CachedSearcher
// expose, so callers can take either without caring which is active.
type HybridSearcher interface {
	Search(ctx context.Context, req Request, minVectorSimilarity float64) ([]Result, error)
}

// Searcher runs the hybrid algorithm over a Store.
type Searcher struct {
	store Store
}

// New builds a Searcher.
func New(store Store) *Searcher {
	return &Searcher{store: store}
}

// minVectorSimilarity is the Stage-1 gate; it is supplied per-call
// because it is a config value, not a package constant.
func (s *Searcher) Search(ctx context.Context, req Request, minVectorSimilarity float64) ([]Result, error) {
	useVector := !req.SkipVector && len(req.QueryVector) > 0
	useFullText := !req.SkipFullText && req.QueryText != ""
	if !useVector && !useFullText {
		return nil, memerr.New(memerr.InvalidInput, "search: at least one of vector or full-text retrieval must be requested")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	k := 4 * limit

	var lv rankedList
	vectorSims := make(map[string]float64)
	if useVector {
		candidates, err := s.store.SearchVector(ctx, req.QueryVector, k)
		if err != nil {
			return nil, fmt.Errorf("search: vector stage: %w", err)
		}
		var ids []string
		for _, c := range candidates {
			if c.Similarity < minVectorSimilarity {
				continue
			}
			ids = append(ids, c.ID)
			vectorSims[c.ID] = c.Similarity
		}
		lv = newRankedList(ids)
	} else {
		lv = newRankedList(nil)
	}

	var lb rankedList
	if useFullText {
		ids, err := s.store.SearchFullText(ctx, req.QueryText, req.Container, k)
		if err != nil {
			if memerr.Is(err, memerr.FullTextQueryError) {
				logging.Warn("search: full-text query rejected, falling back to vector-only", "err", err)
				lb = newRankedList(nil)
			} else {
				return nil, err
			}
		} else {
			lb = newRankedList(ids)
		}
	} else {
		lb = newRankedList(nil)
	}

	if len(lv.order) == 0 && len(lb.order) == 0 {
		return nil, nil
	}

	rrfScores := fuseRRF(lv, lb)

	union := make(map[string]struct{}, len(lv.order)+len(lb.order))
	for _, id := range lv.order {
		union[id] = struct{}{}
	}
	for _, id := range lb.order {
		union[id] = struct{}{}
	}

	var results []Result
	for id := range union {
		rec, ok, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("search: fetch %s: %w", id, err)
		}
		if !ok {
			continue
		}
		if req.Container != "" && rec.ContainerTag != req.Container {
			continue
		}

		_, inLv := lv.rankOf(id)
		_, inLb := lb.rankOf(id)

		var similarity float64
		switch {
		case inLv && inLb:
			similarity = min1(rrfScores[id] / (2.0 / rrfK))
		case inLb && !inLv:
			similarity = min1(rrfScores[id] / (1.0 / rrfK))
		case inLv && !inLb:
			similarity = vectorSims[id]
		default:
			continue
		}

		results = append(results, Result{
			ID:         rec.ID,
			Content:    rec.Content,
			Similarity: similarity,
			CreatedAt:  rec.CreatedAt,
			Type:       rec.Type,
			Metadata:   rec.Metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID // stable tie-break for determinism
	})

	var trimmed []Result
	for _, r := range results {
		if r.Similarity < req.Threshold {
			continue
		}
		trimmed = append(trimmed, r)
		if len(trimmed) == limit {
			break
		}
	}
	return trimmed, nil
}

func min1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
