package cli

import (
	"github.com/spf13/cobra"
)

var deleteClass classFlags

func init() {
	deleteCmd.Flags().BoolVar(&deleteClass.proxy, "proxy", false, "delete from the proxy file")
	deleteCmd.Flags().BoolVar(&deleteClass.direct, "direct", false, "delete from the direct file")
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:     "delete TYPE,value",
	Aliases: []string{"rm"},
	Short:   "Delete one rule line",
	Example: "  rulesync delete DOMAIN-SUFFIX,google.com --proxy",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	classification, err := deleteClass.resolve(true)
	if err != nil {
		return err
	}
	matchType, value, err := parseRuleArg(args[0])
	if err != nil {
		return err
	}

	c, err := newContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.RuleSync.DeleteRule(cmd.Context(), classification, matchType, value)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printOK(out, "deleted %s,%s from %s", matchType, value, classification.Key())
	printRefresh(out, res.Refresh)
	return nil
}
