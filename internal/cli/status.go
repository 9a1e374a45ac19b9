package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarise the project's memory store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			counts, err := a.store.CountByContainer(ctx)
			if err != nil {
				return err
			}

			var dbSize int64
			if fi, statErr := os.Stat(a.db.Path); statErr == nil {
				dbSize = fi.Size()
			}

			fmt.Printf("Project root:  %s\n", a.root)
			fmt.Printf("Database:      %s (%s)\n", a.db.Path, formatBytes(dbSize))
			fmt.Printf("Model:         %s (%d dims)\n", a.cfg.EmbeddingModel, a.embedder.Dimensions())
			fmt.Printf("Thresholds:    similarityThreshold=%.2f minVectorSimilarity=%.2f dedupThreshold=%.2f\n",
				a.cfg.SimilarityThreshold, a.cfg.MinVectorSimilarity, a.cfg.DeduplicationSimilarityThreshold)
			fmt.Printf("Dedup:         %v\n", a.cfg.DeduplicationEnabled)

			tags := make([]string, 0, len(counts))
			for tag := range counts {
				tags = append(tags, tag)
			}
			sort.Strings(tags)

			var total int64
			fmt.Println("Containers:")
			for _, tag := range tags {
				fmt.Printf("  %-40s %d\n", tag, counts[tag])
				total += counts[tag]
			}
			fmt.Printf("Total memories: %d\n", total)
			return nil
		},
	}
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
