// Package mcpserver exposes the same memory operations available on
// the CLI — add, search, import, forget, status — as Model Context
// Protocol tools, so an agent can call them directly instead of
// shelling out.
package mcpserver

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/memoproj/memo/internal/config"
	"github.com/memoproj/memo/internal/db"
	"github.com/memoproj/memo/internal/dedup"
	"github.com/memoproj/memo/internal/embed"
	"github.com/memoproj/memo/internal/identity"
	"github.com/memoproj/memo/internal/memory"
	"github.com/memoproj/memo/internal/search"
)

const (
	ServerName    = "memo"
	ServerVersion = "0.1.0"
)

// Server wraps the MCP transport with the same engine components the
// CLI wires up, rooted at the working directory the process was
// started from.
type Server struct {
	mcp *server.MCPServer

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

// purgeSearchCache drops any cached search responses after a tool call
// mutates the store, mirroring the CLI's app.purgeSearchCache.
func (s *Server) purgeSearchCache() {
	if s.resultCache != nil {
		s.resultCache.Purge()
	}
}

// NewServer resolves the project rooted at cwd, opens its database,
// and registers every tool.
func NewServer() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("mcpserver: load config: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("mcpserver: get working directory: %w", err)
	}
	root := identity.ProjectRoot(cwd)

	d, err := db.Open(projectDBPath(root), cfg.EmbeddingDimensions, cfg.CustomSqlitePath)
	if err != nil {
		return nil, fmt.Errorf("mcpserver: open database: %w", err)
	}
	store := memory.New(d)

	loader := embed.DefaultLoader(cfg.EmbeddingModel, cfg.EmbeddingDimensions)
	model, err := embed.Acquire(loader)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("mcpserver: load embedding model: %w", err)
	}

	s := &Server{
		mcp:        server.NewMCPServer(ServerName, ServerVersion),
		cfg:        cfg,
		root:       root,
		db:         d,
		store:      store,
		embedder:   embed.New(model, store),
		deduper:    dedup.New(cfg.DeduplicationEnabled, cfg.DeduplicationSimilarityThreshold),
		provenance: identity.CaptureProvenance(cwd),
	}

	baseSearcher := search.New(store)
	if cfg.SearchCacheEnabled {
		cached, err := search.NewCached(baseSearcher, cfg.SearchCacheSize)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("mcpserver: build search cache: %w", err)
		}
		s.resultCache = cached
		s.searcher = cached
	} else {
		s.searcher = baseSearcher
	}

	s.registerTools()
	return s, nil
}

func projectDBPath(root string) string {
	return root + "/.memo/memo.db"
}

// Serve runs the server over stdio and blocks until the client
// disconnects. ctx is not passed to the stdio transport, so cancelling
// it does not stop the server.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.db.Close() }()
	return server.ServeStdio(s.mcp)
}

func (s *Server) containerTag(name string) (string, error) {
	if name == "" {
		return identity.ProjectContainerTag(s.root), nil
	}
	return identity.NamedContainerTag(name)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(addTool(), s.handleAdd)
	s.mcp.AddTool(searchTool(), s.handleSearch)
	s.mcp.AddTool(importMarkdownTool(), s.handleImportMarkdown)
	s.mcp.AddTool(forgetTool(), s.handleForget)
	s.mcp.AddTool(statusTool(), s.handleStatus)
}
