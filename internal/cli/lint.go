package cli

import (
	"fmt"
	"os"

	"clash-rulesync/pkg/ruletext"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint <file>...",
	Short: "Check that rule files are valid YAML with a payload list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			if err := lintFile(path); err != nil {
				printError(cmd.OutOrStdout(), err)
				failed++
				continue
			}
			printOK(cmd.OutOrStdout(), "%s", path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed lint", failed, len(args))
		}
		return nil
	},
}

func lintFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := ruletext.Lint(string(data)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
