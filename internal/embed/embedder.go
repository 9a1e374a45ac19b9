package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/memoproj/memo/internal/logging"
)

const (
	l1Capacity     = 100
	inferenceTimeout = 30 * time.Second
)

// CacheStore is the persistent L2 cache surface an Embedder needs
// from the record store, kept narrow so tests can fake it without a
// real database.
type CacheStore interface {
	GetCachedEmbedding(ctx context.Context, contentHash, modelID string) ([]float32, bool, error)
	PutCachedEmbedding(ctx context.Context, contentHash, modelID string, vec []float32) error
}

// Embedder serves embeddings for a fixed model, through the L1/L2
// cache chain described in the component design.
type Embedder struct {
	model Model
	store CacheStore

	mu  sync.Mutex
	l1  *fifoCache
}

// New builds an Embedder over an already-resolved model instance.
func New(model Model, store CacheStore) *Embedder {
	return &Embedder{
		model: model,
		store: store,
		l1:    newFIFOCache(l1Capacity),
	}
}

// Dimensions reports the underlying model's hidden width.
func (e *Embedder) Dimensions() int { return e.model.Dimensions() }

// ModelID reports the underlying model's cache-scoping identifier.
func (e *Embedder) ModelID() string { return e.model.ModelID() }

// Embed returns a unit-length vector for text, consulting L1 then L2
// before falling through to inference under a 30s timeout. L2 write
// failures are swallowed; inference errors and timeouts propagate.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	prefixed := clusteringPrefix + text
	hash := contentHash(prefixed)
	modelID := e.model.ModelID()

	e.mu.Lock()
	if v, ok := e.l1.get(prefixed); ok {
		e.mu.Unlock()
		return v, nil
	}
	e.mu.Unlock()

	if e.store != nil {
		v, ok, err := e.store.GetCachedEmbedding(ctx, hash, modelID)
		if err != nil {
			logging.Warn("embed: L2 cache read failed", "err", err)
		} else if ok {
			e.promote(prefixed, v)
			return v, nil
		}
	}

	inferCtx, cancel := context.WithTimeout(ctx, inferenceTimeout)
	defer cancel()
	v, err := e.model.Embed(inferCtx, prefixed)
	if err != nil {
		return nil, fmt.Errorf("embed: inference failed: %w", err)
	}

	e.promote(prefixed, v)
	if e.store != nil {
		if err := e.store.PutCachedEmbedding(ctx, hash, modelID, v); err != nil {
			logging.Warn("embed: L2 cache write failed", "err", err)
		}
	}
	return v, nil
}

func (e *Embedder) promote(prefixed string, v []float32) {
	e.mu.Lock()
	e.l1.put(prefixed, v)
	e.mu.Unlock()
}

func contentHash(prefixedText string) string {
	sum := sha256.Sum256([]byte(prefixedText))
	return hex.EncodeToString(sum[:])
}
