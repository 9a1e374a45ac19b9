// Package cli defines the Cobra command tree for the memo CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memoproj/memo/internal/memerr"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "memo",
	Short: "Local, per-project persistent memory store for LLM agents",
	Long: `memo is a local, per-project memory store for LLM agents and coding
assistants: hybrid dense-vector + full-text search over content you add
directly or import from markdown notes and repo maps.

Run 'memo add "..."' in a project directory to store the first memory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command, mapping any returned error's memerr
// Kind to a process exit code: validation/not-found/wrong-container
// failures are ordinary usage errors (exit 1); anything else that
// reached the top unrecovered is an operational failure (exit 2).
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	if !memerr.Is(err, memerr.InvalidInput) {
		logOperationError(rootCmd.Name(), err)
	}
	if isUsageError(err) {
		os.Exit(1)
	}
	os.Exit(2)
}

func isUsageError(err error) bool {
	for _, k := range []memerr.Kind{memerr.InvalidInput, memerr.NotFound, memerr.WrongContainer, memerr.FullyPrivate} {
		if memerr.Is(err, k) {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(
		newAddCmd(),
		newImportCmd(),
		newSearchCmd(),
		newListCmd(),
		newForgetCmd(),
		newResetCmd(),
		newReindexCmd(),
		newStatusCmd(),
		newMCPServeCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("memo %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
