package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memoproj/memo/internal/memerr"
	"github.com/memoproj/memo/internal/memory"
)

func newAddCmd() *cobra.Command {
	var container string

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Store one memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return memerr.New(memerr.InvalidInput, "add: text must not be empty")
			}

			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			tag, err := a.containerTag(container)
			if err != nil {
				return memerr.Wrap(memerr.InvalidInput, "add: invalid container name", err)
			}

			ctx := context.Background()
			vec, err := a.embedder.Embed(ctx, text)
			if err != nil {
				return err
			}

			verdict, err := a.deduper.Check(ctx, a.store, text, vec, tag)
			if err != nil {
				return err
			}
			if verdict.Duplicate {
				kind := "near"
				if verdict.Exact {
					kind = "exact"
				}
				fmt.Printf("skipped: %s duplicate, similarity=%.3f (existing id: %s)\n", kind, verdict.Similarity, verdict.ExistingID)
				return nil
			}

			now := memory.NowMillis()
			rec := &memory.Record{
				Content:      text,
				Vector:       vec,
				ContainerTag: tag,
				CreatedAt:    now,
				UpdatedAt:    now,
				ProjectPath:  a.provenance.ProjectPath,
				ProjectName:  a.provenance.ProjectName,
				GitRepoURL:   a.provenance.GitRepoURL,
				UserName:     a.provenance.UserName,
				UserEmail:    a.provenance.UserEmail,
			}
			if err := a.store.InsertNew(ctx, rec); err != nil {
				return err
			}
			a.purgeSearchCache()

			fmt.Printf("stored: %s\n", rec.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&container, "container", "", "named container (defaults to the project container)")
	return cmd
}
