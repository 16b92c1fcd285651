package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(groupsCmd)
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the router daemon's selectable proxy groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newContainer()
		if err != nil {
			return err
		}
		defer c.Close()

		if c.ProviderSetup == nil {
			return fmt.Errorf("ROUTER_HOST is not configured")
		}
		groups, err := c.ProviderSetup.ProxyGroups(cmd.Context())
		if err != nil {
			return err
		}
		for _, g := range groups {
			fmt.Fprintln(cmd.OutOrStdout(), g)
		}
		return nil
	},
}
