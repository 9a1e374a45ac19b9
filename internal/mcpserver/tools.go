package mcpserver

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/memoproj/memo/internal/importer"
	"github.com/memoproj/memo/internal/memory"
	"github.com/memoproj/memo/internal/search"
)

func (s *Server) handleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}
	if text == "" {
		return mcp.NewToolResultError("text must not be empty"), nil
	}

	tag, err := s.containerTag(req.GetString("container", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embed: %v", err)), nil
	}

	verdict, err := s.deduper.Check(ctx, s.store, text, vec, tag)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("dedup check: %v", err)), nil
	}
	if verdict.Duplicate {
		kind := "near"
		if verdict.Exact {
			kind = "exact"
		}
		return mcp.NewToolResultText(fmt.Sprintf("skipped: %s duplicate, similarity=%.3f (existing id: %s)", kind, verdict.Similarity, verdict.ExistingID)), nil
	}

	now := memory.NowMillis()
	rec := &memory.Record{
		Content:      text,
		Vector:       vec,
		ContainerTag: tag,
		CreatedAt:    now,
		UpdatedAt:    now,
		ProjectPath:  s.provenance.ProjectPath,
		ProjectName:  s.provenance.ProjectName,
		GitRepoURL:   s.provenance.GitRepoURL,
		UserName:     s.provenance.UserName,
		UserEmail:    s.provenance.UserEmail,
	}
	if err := s.store.InsertNew(ctx, rec); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("insert: %v", err)), nil
	}
	s.purgeSearchCache()
	return mcp.NewToolResultText(fmt.Sprintf("stored as %s", rec.ID)), nil
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	if query == "" {
		return mcp.NewToolResultError("query must not be empty"), nil
	}

	tag, err := s.containerTag(req.GetString("container", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", s.cfg.MaxMemories)

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embed: %v", err)), nil
	}

	results, err := s.searcher.Search(ctx, search.Request{
		QueryVector: vec,
		QueryText:   query,
		Container:   tag,
		Limit:       limit,
		Threshold:   s.cfg.SimilarityThreshold,
	}, s.cfg.MinVectorSimilarity)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}

	text := ""
	for _, r := range results {
		text += fmt.Sprintf("%.3f (%s)\n%s\n\n", r.Similarity, r.ID, r.Content)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleImportMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}
	tag, err := s.containerTag(req.GetString("container", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	files, err := importer.WalkMarkdown(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary := ""
	for _, f := range files {
		chunks := importer.ChunkMarkdown(f.Content, importer.ChunkOptions{})
		sourceKey := f.SourceKey
		records := make([]*memory.Record, 0, len(chunks))
		for i, c := range chunks {
			vec, embErr := s.embedder.Embed(ctx, c.Text)
			if embErr != nil {
				return mcp.NewToolResultError(fmt.Sprintf("embed chunk %d of %s: %v", i, f.SourceKey, embErr)), nil
			}
			now := memory.NowMillis()
			records = append(records, &memory.Record{
				Content:      c.Text,
				Vector:       vec,
				ContainerTag: tag,
				SourceKey:    sourceKey,
				Type:         "doc_chunk",
				CreatedAt:    now,
				UpdatedAt:    now,
				ProjectPath:  s.provenance.ProjectPath,
				ProjectName:  s.provenance.ProjectName,
				GitRepoURL:   s.provenance.GitRepoURL,
				UserName:     s.provenance.UserName,
				UserEmail:    s.provenance.UserEmail,
			})
		}
		deleted, inserted, repErr := s.store.ReplaceBySource(ctx, tag, sourceKey, records)
		if repErr != nil {
			return mcp.NewToolResultError(repErr.Error()), nil
		}
		s.purgeSearchCache()
		summary += fmt.Sprintf("%s: replaced %d chunk(s) with %d\n", f.SourceKey, deleted, inserted)
	}
	return mcp.NewToolResultText(summary), nil
}

func (s *Server) handleForget(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !deleted {
		return mcp.NewToolResultError(fmt.Sprintf("no such memory %q", id)), nil
	}
	s.purgeSearchCache()
	return mcp.NewToolResultText(fmt.Sprintf("deleted %s", id)), nil
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := s.store.CountByContainer(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	text := fmt.Sprintf("model: %s (%d dims)\ndatabase: %s\n", s.cfg.EmbeddingModel, s.embedder.Dimensions(), s.db.Path)
	for _, tag := range tags {
		text += fmt.Sprintf("%s: %d\n", tag, counts[tag])
	}
	return mcp.NewToolResultText(text), nil
}
