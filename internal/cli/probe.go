package cli

import (
	"fmt"

	"clash-rulesync/internal/service"

	"github.com/spf13/cobra"
)

var probeSecret string

func init() {
	probeCmd.Flags().StringVar(&probeSecret, "secret", "", "controller secret for an explicit host:port")
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe [host:port]",
	Short: "Check the rule store and the Clash controllers",
	Long: "Without arguments, checks that the configured rule store answers and asks every " +
		"refresh target for its version. With host:port, only probes that controller.",
	Args: cobra.MaximumNArgs(1),
	RunE: runProbe,
}

func runProbe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if len(args) == 1 {
		info, err := service.ClashDaemonFactory(args[0], probeSecret).Version(ctx)
		if err != nil {
			return err
		}
		printOK(out, "%s: %s", args[0], info.Label())
		return nil
	}

	c, err := newContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	failed := 0
	if err := c.RuleSync.Ping(ctx); err != nil {
		printError(out, fmt.Errorf("%s store: %w", c.Config.Sync.Mode, err))
		failed++
	} else {
		printOK(out, "%s store reachable", c.Config.Sync.Mode)
	}

	for _, t := range c.Targets {
		info, err := service.ClashDaemonFactory(t.Address(), t.Secret).Version(ctx)
		if err != nil {
			printError(out, fmt.Errorf("%s (%s): %w", t.Name, t.Address(), err))
			failed++
			continue
		}
		printOK(out, "%s (%s): %s", t.Name, t.Address(), info.Label())
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}
