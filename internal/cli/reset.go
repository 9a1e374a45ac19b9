package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop the project database file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirmPrompt("This will permanently delete all memories in this project. Continue?") {
				fmt.Println("aborted")
				return nil
			}

			a, err := openApp(true)
			if err != nil {
				return err
			}
			if err := a.store.Reset(); err != nil {
				return err
			}
			a.purgeSearchCache()
			fmt.Println("database reset")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirmPrompt(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
