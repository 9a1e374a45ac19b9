package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/memoproj/memo/internal/memerr"
	"github.com/memoproj/memo/internal/search"
)

func newSearchCmd() *cobra.Command {
	var (
		container    string
		limit        int
		threshold    float64
		skipVector   bool
		skipFullText bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Hybrid dense-vector + full-text search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return memerr.New(memerr.InvalidInput, "search: query must not be empty")
			}
			if skipVector && skipFullText {
				return memerr.New(memerr.InvalidInput, "search: --skip-vector and --skip-full-text cannot both be set")
			}

			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			tag := ""
			if container != "" {
				tag, err = a.containerTag(container)
				if err != nil {
					return err
				}
			}

			req := search.Request{
				QueryText:    query,
				Container:    tag,
				Limit:        limit,
				SkipVector:   skipVector,
				SkipFullText: skipFullText,
			}
			if threshold > 0 {
				req.Threshold = threshold
			} else {
				req.Threshold = a.cfg.SimilarityThreshold
			}
			if req.Limit <= 0 {
				req.Limit = a.cfg.MaxMemories
			}

			if !skipVector {
				vec, err := a.embedder.Embed(ctx, query)
				if err != nil {
					return err
				}
				req.QueryVector = vec
			}

			results, err := a.searcher.Search(ctx, req, a.cfg.MinVectorSimilarity)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("no results")
				return nil
			}

			for _, r := range results {
				when := time.UnixMilli(r.CreatedAt).UTC().Format("2006-01-02")
				fmt.Printf("%.3f (%s) %s\n", r.Similarity, r.ID, when)
				if r.Type == "doc_chunk" {
					if m, ok := decodeDocChunkMetadata(r.Metadata); ok {
						fmt.Printf("  %s:%d-%d\n", m.SourcePath, m.StartLine, m.EndLine)
					}
				}
				fmt.Println(r.Content)
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&container, "container", "", "restrict to this named container (default: search every container in the store)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (default: config maxMemories)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum final similarity (default: config similarityThreshold)")
	cmd.Flags().BoolVar(&skipVector, "skip-vector", false, "skip the dense-vector retrieval pass")
	cmd.Flags().BoolVar(&skipFullText, "skip-full-text", false, "skip the BM25 full-text retrieval pass")
	return cmd
}
