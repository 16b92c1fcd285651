package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listClass classFlags

func init() {
	listCmd.Flags().BoolVar(&listClass.proxy, "proxy", false, "only proxy rules")
	listCmd.Flags().BoolVar(&listClass.direct, "direct", false, "only direct rules")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rules in both files",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := listClass.resolve(false)
	if err != nil {
		return err
	}

	c, err := newContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	res := c.RuleSync.ListRules(cmd.Context(), filter)
	out := cmd.OutOrStdout()

	if len(res.Rules) == 0 {
		fmt.Fprintln(out, "No rules.")
	} else {
		fmt.Fprintf(out, "%-8s %-16s %s\n", "CLASS", "TYPE", "VALUE")
		for _, r := range res.Rules {
			fmt.Fprintf(out, "%-8s %-16s %s\n", r.Classification.Key(), r.MatchType, r.Value)
		}
	}

	fmt.Fprintln(out)
	p, d := res.ProxyStats, res.DirectStats
	dimColor.Fprintf(out, "proxy: %d (domain %d, suffix %d, keyword %d)   direct: %d (domain %d, suffix %d, keyword %d)\n",
		p.Total, p.Domain, p.Suffix, p.Keyword, d.Total, d.Domain, d.Suffix, d.Keyword)
	return nil
}
