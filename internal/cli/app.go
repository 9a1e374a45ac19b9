package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/memoproj/memo/internal/config"
	"github.com/memoproj/memo/internal/db"
	"github.com/memoproj/memo/internal/dedup"
	"github.com/memoproj/memo/internal/embed"
	"github.com/memoproj/memo/internal/identity"
	"github.com/memoproj/memo/internal/logging"
	"github.com/memoproj/memo/internal/memory"
	"github.com/memoproj/memo/internal/search"
)

// app bundles every engine component a subcommand needs, resolved
// once per invocation from the project root and the frozen config.
type app struct {
	cfg         config.Config
	root        string
	db          *db.DB
	store       *memory.Store
	embedder    *embed.Embedder
	deduper     *dedup.Deduper
	searcher    search.HybridSearcher
	resultCache *search.CachedSearcher // nil unless searchCacheEnabled
	provenance  identity.Provenance
}

// purgeSearchCache drops any cached search responses after a write to
// the store, so a cached hit can never outlive the data it answers for.
func (a *app) purgeSearchCache() {
	if a.resultCache != nil {
		a.resultCache.Purge()
	}
}

// dbPath returns "<project-root>/.memo/memo.db".
func dbPath(root string) string {
	return filepath.Join(root, ".memo", "memo.db")
}

// openApp wires config, identity, the database, and every component
// built on top of it. mustExist, when true, refuses to silently create
// a fresh database (used by commands that only make sense against an
// existing store).
func openApp(mustExist bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	root := identity.ProjectRoot(cwd)

	path := dbPath(root)
	if mustExist {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("no memo database in this project yet; run `memo add` or `memo import` first")
		}
	}

	d, err := db.Open(path, cfg.EmbeddingDimensions, cfg.CustomSqlitePath)
	if err != nil {
		return nil, err
	}
	store := memory.New(d)

	loader := embed.DefaultLoader(cfg.EmbeddingModel, cfg.EmbeddingDimensions)
	model, err := embed.Acquire(loader)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("load embedding model: %w", err)
	}
	embedder := embed.New(model, store)

	a := &app{
		cfg:        cfg,
		root:       root,
		db:         d,
		store:      store,
		embedder:   embedder,
		deduper:    dedup.New(cfg.DeduplicationEnabled, cfg.DeduplicationSimilarityThreshold),
		provenance: identity.CaptureProvenance(cwd),
	}

	baseSearcher := search.New(store)
	if cfg.SearchCacheEnabled {
		cached, err := search.NewCached(baseSearcher, cfg.SearchCacheSize)
		if err != nil {
			d.Close()
			return nil, err
		}
		a.resultCache = cached
		a.searcher = cached
	} else {
		a.searcher = baseSearcher
	}

	return a, nil
}

func (a *app) close() {
	_ = a.db.Close()
}

// containerTag resolves the --container flag (named container) or
// falls back to the project-scoped tag.
func (a *app) containerTag(name string) (string, error) {
	if name == "" {
		return identity.ProjectContainerTag(a.root), nil
	}
	return identity.NamedContainerTag(name)
}

func logOperationError(op string, err error) {
	logging.Error("operation failed", "op", op, "err", err)
}
