package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memoproj/memo/internal/memerr"
)

func newForgetCmd() *cobra.Command {
	var container string

	cmd := &cobra.Command{
		Use:   "forget <id>",
		Short: "Delete a memory by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()

			if container != "" {
				tag, err := a.containerTag(container)
				if err != nil {
					return memerr.Wrap(memerr.InvalidInput, "forget: invalid container name", err)
				}
				existing, ok, err := a.store.GetContainerTag(ctx, id)
				if err != nil {
					return err
				}
				if !ok {
					return memerr.New(memerr.NotFound, fmt.Sprintf("forget: no such memory %q", id))
				}
				if existing != tag {
					return memerr.New(memerr.WrongContainer, fmt.Sprintf("forget: %q belongs to a different container", id))
				}
			}

			deleted, err := a.store.Delete(ctx, id)
			if err != nil {
				return err
			}
			if !deleted {
				return memerr.New(memerr.NotFound, fmt.Sprintf("forget: no such memory %q", id))
			}
			a.purgeSearchCache()

			fmt.Printf("deleted: %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&container, "container", "", "refuse to delete unless the record belongs to this container")
	return cmd
}
