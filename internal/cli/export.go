package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportOut string

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print both rule files as one annotated document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newContainer()
		if err != nil {
			return err
		}
		defer c.Close()

		text := c.RuleSync.Export(cmd.Context())
		if exportOut == "" {
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}

		if err := os.WriteFile(exportOut, []byte(text+"\n"), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", exportOut, err)
		}
		printOK(cmd.OutOrStdout(), "exported to %s", exportOut)
		return nil
	},
}
