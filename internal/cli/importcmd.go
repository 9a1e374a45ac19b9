package cli

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/memoproj/memo/internal/importer"
	"github.com/memoproj/memo/internal/memerr"
	"github.com/memoproj/memo/internal/memory"
)

func newImportCmd() *cobra.Command {
	var (
		container     string
		markdownPath  string
		repoMapPath   string
		chunkTokens   int
		overlapTokens int
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a markdown file/directory or a repo-map JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if markdownPath == "" && repoMapPath == "" {
				return memerr.New(memerr.InvalidInput, "import: one of --markdown or --repo-map is required")
			}
			if markdownPath != "" && repoMapPath != "" {
				return memerr.New(memerr.InvalidInput, "import: --markdown and --repo-map cannot both be set")
			}

			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			tag, err := a.containerTag(container)
			if err != nil {
				return memerr.Wrap(memerr.InvalidInput, "import: invalid container name", err)
			}

			if markdownPath != "" {
				return runMarkdownImport(a, markdownPath, tag, chunkTokens, overlapTokens)
			}
			return runRepoMapImport(a, repoMapPath, tag)
		},
	}

	cmd.Flags().StringVar(&container, "container", "", "named container (defaults to the project container)")
	cmd.Flags().StringVar(&markdownPath, "markdown", "", "path to a markdown file or a directory of markdown files")
	cmd.Flags().StringVar(&repoMapPath, "repo-map", "", "path to a JSON repo-map file")
	cmd.Flags().IntVar(&chunkTokens, "chunk-tokens", 0, "approximate chunk size in tokens (default 400)")
	cmd.Flags().IntVar(&overlapTokens, "overlap-tokens", 0, "approximate overlap size in tokens (default 80)")
	return cmd
}

func runMarkdownImport(a *app, path, containerTag string, chunkTokens, overlapTokens int) error {
	files, err := importer.WalkMarkdown(path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	opts := importer.ChunkOptions{ChunkTokens: chunkTokens, OverlapTokens: overlapTokens}

	for _, f := range files {
		chunks := importer.ChunkMarkdown(f.Content, opts)
		sourceKey := f.SourceKey

		records := make([]*memory.Record, len(chunks))
		bar := progressbar.Default(int64(len(chunks)), fmt.Sprintf("embedding %s", f.SourceKey))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, c := range chunks {
			i, c := i, c
			g.Go(func() error {
				vec, err := a.embedder.Embed(gctx, c.Text)
				if err != nil {
					return err
				}
				now := memory.NowMillis()
				records[i] = &memory.Record{
					Content:      c.Text,
					Vector:       vec,
					ContainerTag: containerTag,
					SourceKey:    sourceKey,
					Type:         "doc_chunk",
					Metadata: encodeMetadata(markdownChunkMetadata{
						SourcePath: f.SourceKey,
						SourceKey:  sourceKey,
						StartLine:  c.StartLine,
						EndLine:    c.EndLine,
						ChunkIndex: i,
						ChunkCount: len(chunks),
						ChunkHash:  c.Hash,
					}),
					CreatedAt:   now,
					UpdatedAt:   now,
					ProjectPath: a.provenance.ProjectPath,
					ProjectName: a.provenance.ProjectName,
					GitRepoURL:  a.provenance.GitRepoURL,
					UserName:    a.provenance.UserName,
					UserEmail:   a.provenance.UserEmail,
				}
				_ = bar.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		deleted, inserted, err := a.store.ReplaceBySource(ctx, containerTag, sourceKey, records)
		if err != nil {
			return err
		}
		a.purgeSearchCache()
		tokens := importer.CountTokens(f.Content)
		fmt.Printf("%s: replaced %d chunk(s) with %d (~%d tokens)\n", f.SourceKey, deleted, inserted, tokens)
	}
	return nil
}

func runRepoMapImport(a *app, path, containerTag string) error {
	sourceKey, entries, err := importer.LoadRepoMap(path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	records := make([]*memory.Record, len(entries))

	bar := progressbar.Default(int64(len(entries)), "embedding repo-map")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			vec, err := a.embedder.Embed(gctx, e.Content)
			if err != nil {
				return err
			}
			now := memory.NowMillis()
			records[i] = &memory.Record{
				Content:      e.Content,
				Vector:       vec,
				ContainerTag: containerTag,
				SourceKey:    sourceKey,
				Type:         "doc_chunk",
				Metadata: encodeMetadata(repoMapEntryMetadata{
					SourcePath: e.Entry.Path,
					SourceKey:  sourceKey,
					Language:   e.Entry.Language,
					Symbols:    e.Entry.Symbols,
					ImportType: "repo-map",
				}),
				CreatedAt:   now,
				UpdatedAt:   now,
				ProjectPath: a.provenance.ProjectPath,
				ProjectName: a.provenance.ProjectName,
				GitRepoURL:  a.provenance.GitRepoURL,
				UserName:    a.provenance.UserName,
				UserEmail:   a.provenance.UserEmail,
			}
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	deleted, inserted, err := a.store.ReplaceBySource(ctx, containerTag, sourceKey, records)
	if err != nil {
		return err
	}
	a.purgeSearchCache()
	fmt.Printf("%s: replaced %d entry(ies) with %d\n", path, deleted, inserted)
	return nil
}
