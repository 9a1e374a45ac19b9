package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var container string
	var limit int
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent memories, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			n := limit
			if all {
				n = -1
			} else if n <= 0 {
				n = a.cfg.MaxMemories
			}

			recs, err := a.store.List(ctx, tag, n)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("no memories stored")
				return nil
			}
			for _, r := range recs {
				when := time.UnixMilli(r.CreatedAt).UTC().Format("2006-01-02")
				fmt.Printf("%s  (%s)  %s\n", when, r.ID, preview(r.Content, 80))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&container, "container", "", "named container (defaults to the project container)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (default: config maxMemories)")
	cmd.Flags().BoolVar(&all, "all", false, "ignore --limit and list every record")
	return cmd
}

func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
