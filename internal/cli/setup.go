package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var setupGroup string

func init() {
	setupCmd.Flags().StringVar(&setupGroup, "group", "", "proxy group for the proxy provider (default: PROXY_GROUP)")
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Register the rule providers in OpenClash",
	Long: "Adds the proxy and direct rule providers for the current mode to the router's " +
		"OpenClash config if they are missing, points the proxy provider at --group, and " +
		"restarts OpenClash only when something changed.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newContainer()
		if err != nil {
			return err
		}
		defer c.Close()

		if c.ProviderSetup == nil {
			return fmt.Errorf("ROUTER_HOST is not configured")
		}
		group := setupGroup
		if group == "" {
			group = c.Config.Router.ProxyGroup
		}

		out := cmd.OutOrStdout()
		res, err := c.ProviderSetup.EnsureProviders(cmd.Context(), c.ProviderRefs(group))
		if res != nil {
			for _, a := range res.Actions {
				printOK(out, "%s", a)
			}
		}
		if err != nil {
			return err
		}

		switch {
		case !res.Changed:
			printOK(out, "providers already configured")
		case res.Restarted:
			printOK(out, "OpenClash restarted")
		}
		return nil
	},
}
