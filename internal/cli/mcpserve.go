package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/memoproj/memo/internal/mcpserver"
)

func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-serve",
		Short: "Serve the memory store over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := mcpserver.NewServer()
			if err != nil {
				return err
			}
			return srv.Serve(context.Background())
		},
	}
}
