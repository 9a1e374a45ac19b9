// Package dedup decides whether a candidate (content, vector,
// container) tuple should be blocked from insertion, per the
// exact-then-near-duplicate protocol.
package dedup

import (
	"context"

	"github.com/memoproj/memo/internal/memory"
)

// Verdict is the outcome of a dedup check.
type Verdict struct {
	Duplicate  bool
	Exact      bool // true for an exact match, false for a near match
	Similarity float64
	ExistingID string
}

const nearDupK = 5

// Lookup is the narrow surface dedup needs from the record store,
// satisfied directly by *memory.Store.
type Lookup interface {
	FindExactDuplicate(ctx context.Context, content, containerTag string) (*memory.Record, bool, error)
	SearchVector(ctx context.Context, queryVec []float32, k int) ([]memory.VectorCandidate, error)
	GetContainerTag(ctx context.Context, id string) (string, bool, error)
}

// Deduper implements the Deduper component contract.
type Deduper struct {
	enabled   bool
	threshold float64
}

// New builds a Deduper. enabled mirrors deduplicationEnabled and
// threshold mirrors deduplicationSimilarityThreshold from config.
func New(enabled bool, threshold float64) *Deduper {
	return &Deduper{enabled: enabled, threshold: threshold}
}

// Check runs the three-step protocol: disabled short-circuit, exact
// match, then near-duplicate KNN filtered to the same container. The
// KNN filter is applied after the k=5 lookup, not pushed into it,
// because the vector index ranks globally across all containers.
func (d *Deduper) Check(ctx context.Context, lookup Lookup, content string, vector []float32, containerTag string) (Verdict, error) {
	if !d.enabled {
		return Verdict{Duplicate: false}, nil
	}

	exact, ok, err := lookup.FindExactDuplicate(ctx, content, containerTag)
	if err != nil {
		return Verdict{}, err
	}
	if ok {
		return Verdict{Duplicate: true, Exact: true, Similarity: 1.0, ExistingID: exact.ID}, nil
	}

	return d.FindNearDuplicates(ctx, lookup, vector, containerTag)
}

// FindNearDuplicates is the restricted form the Deduper exposes for
// reuse elsewhere: Stage 1 of search (KNN) plus the container filter,
// with k = 5.
func (d *Deduper) FindNearDuplicates(ctx context.Context, lookup Lookup, vector []float32, containerTag string) (Verdict, error) {
	candidates, err := lookup.SearchVector(ctx, vector, nearDupK)
	if err != nil {
		return Verdict{}, err
	}

	best := Verdict{Duplicate: false}
	for _, c := range candidates {
		if c.Similarity < d.threshold {
			continue
		}
		tag, ok, err := lookup.GetContainerTag(ctx, c.ID)
		if err != nil {
			return Verdict{}, err
		}
		if !ok || tag != containerTag {
			continue
		}
		if !best.Duplicate || c.Similarity > best.Similarity {
			best = Verdict{Duplicate: true, Exact: false, Similarity: c.Similarity, ExistingID: c.ID}
		}
	}
	return best, nil
}
