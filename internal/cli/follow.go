package cli

import (
	"fmt"

	"clash-rulesync/internal/bootstrap"
	"clash-rulesync/internal/constant"
	"clash-rulesync/internal/service"
	"clash-rulesync/pkg/events"

	pktNats "clash-rulesync/pkg/nats"

	"github.com/spf13/cobra"
)

var followDurable string

func init() {
	followCmd.Flags().StringVar(&followDurable, "durable", constant.RulesDurableName, "JetStream durable consumer name")
	rootCmd.AddCommand(followCmd)
}

var followCmd = &cobra.Command{
	Use:   "follow",
	Short: "Reload cloud providers whenever the rule API reports a change",
	Long: "Subscribes to RULES_CHANGED events on NATS JetStream and refreshes the " +
		"Cloud_* providers on every refresh target. Runs until interrupted.",
	Args: cobra.NoArgs,
	RunE: runFollow,
}

func runFollow(cmd *cobra.Command, args []string) error {
	c, err := newContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	if len(c.Targets) == 0 {
		return fmt.Errorf("no refresh targets configured (set LOCAL_CLIENT_ENABLED or ROUTER_HOST)")
	}

	sub, err := pktNats.NewSubscriber(c.Config.App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	consumer := service.NewConsumerService(nil, "", c.Refresh, c.Targets, bootstrap.CloudProviderNames())
	ctx := cmd.Context()
	if err := sub.Subscribe(ctx, events.TypeRulesChanged, followDurable, consumer.Handle); err != nil {
		return err
	}

	printOK(cmd.OutOrStdout(), "following %s, refreshing %d target(s)", pktNats.Subject(events.TypeRulesChanged), len(c.Targets))
	<-ctx.Done()
	return nil
}
