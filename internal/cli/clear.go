package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearYes bool

func init() {
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm wiping both rule files")
	rootCmd.AddCommand(clearCmd)
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Replace both rule files with an empty list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to clear without --yes")
		}

		c, err := newContainer()
		if err != nil {
			return err
		}
		defer c.Close()

		res, err := c.RuleSync.ClearAll(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printOK(out, "cleared proxy and direct rules")
		printRefresh(out, res.Refresh)
		return nil
	},
}
