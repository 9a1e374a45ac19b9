package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Repair the full-text index against the record table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			added, removed, err := a.store.ReindexFullText(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("reindex: added %d, removed %d\n", added, removed)
			return nil
		},
	}
}
