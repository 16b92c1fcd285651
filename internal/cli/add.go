package cli

import (
	"clash-rulesync/internal/dto"
	"clash-rulesync/internal/entity"

	"github.com/spf13/cobra"
)

var (
	addClass classFlags
	addMatch string
	addRaw   bool
)

func init() {
	addCmd.Flags().BoolVar(&addClass.proxy, "proxy", false, "route through the proxy group")
	addCmd.Flags().BoolVar(&addClass.direct, "direct", false, "route directly")
	addCmd.Flags().StringVar(&addMatch, "match", "", "match type (default: IP-CIDR for addresses, DOMAIN-SUFFIX otherwise)")
	addCmd.Flags().BoolVar(&addRaw, "raw", false, "store the argument as the rule value unchanged")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <url-or-host>",
	Short: "Add a rule for the host of a URL",
	Example: "  rulesync add https://www.google.com/search --proxy\n" +
		"  rulesync add 192.168.1.5:8080 --direct --match DST-PORT\n" +
		"  rulesync add 10.0.0.0/8 --direct --match IP-CIDR --raw",
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	classification, err := addClass.resolve(true)
	if err != nil {
		return err
	}

	c, err := newContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.RuleSync.AddRule(cmd.Context(), &dto.AddRuleRequest{
		Target:         args[0],
		Classification: classification,
		MatchType:      entity.MatchType(addMatch),
		Raw:            addRaw,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printOK(out, "added %s,%s to %s", res.Rule.MatchType, res.Rule.Value, classification.Key())
	printRefresh(out, res.Refresh)
	return nil
}
