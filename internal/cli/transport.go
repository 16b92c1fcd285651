package cli

import (
	"fmt"

	"clash-rulesync/internal/bootstrap"

	"github.com/spf13/cobra"
)

func init() {
	transportCmd.AddCommand(transportShowCmd, transportResetCmd)
	rootCmd.AddCommand(transportCmd)
}

var transportCmd = &cobra.Command{
	Use:   "transport",
	Short: "Inspect or reset how files are moved to the router",
}

var transportShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Log in and print the transport mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := routerContainer()
		if err != nil {
			return err
		}
		defer c.Close()

		if _, err := c.Router.Login(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.Router.Mode())
		return nil
	},
}

var transportResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget a stored shell-only downgrade",
	Long: "Clears the persisted transport flag so the next file operation tries " +
		"base64 readfile/writefile again, e.g. after installing luci-lib-nixio on the router.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := routerContainer()
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Router.ResetTransport(cmd.Context()); err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "transport reset")
		return nil
	},
}

func routerContainer() (*bootstrap.ClientContainer, error) {
	c, err := newContainer()
	if err != nil {
		return nil, err
	}
	if c.Router == nil {
		c.Close()
		return nil, fmt.Errorf("ROUTER_HOST is not configured")
	}
	return c, nil
}
