package cli

import (
	"github.com/spf13/cobra"
)

var formatClass classFlags

func init() {
	formatCmd.Flags().BoolVar(&formatClass.proxy, "proxy", false, "format only the proxy file")
	formatCmd.Flags().BoolVar(&formatClass.direct, "direct", false, "format only the direct file")
	rootCmd.AddCommand(formatCmd)
}

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Normalize rule lines to \"  - TYPE,value\"",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := formatClass.resolve(false)
		if err != nil {
			return err
		}

		c, err := newContainer()
		if err != nil {
			return err
		}
		defer c.Close()

		res, err := c.RuleSync.FormatRules(cmd.Context(), filter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printOK(out, "formatted")
		printRefresh(out, res.Refresh)
		return nil
	},
}
