package search

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheTTL bounds how long a cached response may be served before it
// is treated as a miss, independently of the purge-on-write path —
// belt and suspenders against a caller that forgets to purge.
const cacheTTL = 5 * time.Minute

type cacheEntry struct {
	results   []Result
	expiresAt time.Time
}

// CachedSearcher wraps a Searcher with an opt-in bounded cache of full
// responses, keyed by every field that affects the result set. Any
// write path (insert/delete/replace/reset) must call Purge so a cached
// response can never outlive the data it was computed from — this is
// what keeps the cache from violating invariant 6 (search determinism).
type CachedSearcher struct {
	inner *Searcher
	cache *lru.Cache[[32]byte, cacheEntry]
	mu    sync.RWMutex
}

// NewCached builds a CachedSearcher with room for size responses.
func NewCached(inner *Searcher, size int) (*CachedSearcher, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[[32]byte, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("search: build result cache: %w", err)
	}
	return &CachedSearcher{inner: inner, cache: c}, nil
}

// Search serves from cache on a hit, otherwise delegates to the inner
// Searcher and stores the response.
func (c *CachedSearcher) Search(ctx context.Context, req Request, minVectorSimilarity float64) ([]Result, error) {
	key := requestCacheKey(req, minVectorSimilarity)

	c.mu.RLock()
	entry, ok := c.cache.Get(key)
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.results, nil
	}

	results, err := c.inner.Search(ctx, req, minVectorSimilarity)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache.Add(key, cacheEntry{results: results, expiresAt: time.Now().Add(cacheTTL)})
	c.mu.Unlock()
	return results, nil
}

// Purge drops every cached response. Called after any write to the
// underlying store so a stale hit can never be served.
func (c *CachedSearcher) Purge() {
	c.mu.Lock()
	c.cache.Purge()
	c.mu.Unlock()
}

func requestCacheKey(req Request, minVectorSimilarity float64) [32]byte {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%.6f\x00%.6f\x00%v\x00%v",
		req.QueryText, req.Container, req.Limit, req.Threshold, minVectorSimilarity, req.SkipVector, req.SkipFullText)
	for _, v := range req.QueryVector {
		fmt.Fprintf(h, "\x00%f", v)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
