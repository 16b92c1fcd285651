package cli

import (
	"fmt"
	"io"

	"clash-rulesync/pkg/hostrule"
	"clash-rulesync/pkg/reach"

	"github.com/spf13/cobra"
)

var (
	reachSocks string
	reachUser  string
	reachPass  string
)

func init() {
	reachCmd.Flags().StringVar(&reachSocks, "socks5", "", "SOCKS5 proxy address (default: SOCKS5_ADDR)")
	reachCmd.Flags().StringVar(&reachUser, "socks5-user", "", "SOCKS5 username")
	reachCmd.Flags().StringVar(&reachPass, "socks5-pass", "", "SOCKS5 password")
	rootCmd.AddCommand(reachCmd)
}

var reachCmd = &cobra.Command{
	Use:   "reach <url-or-host>",
	Short: "Suggest proxy or direct by dialing the host both ways",
	Args:  cobra.ExactArgs(1),
	RunE:  runReach,
}

func runReach(cmd *cobra.Command, args []string) error {
	target, err := hostrule.FromURL(args[0])
	if err != nil {
		return err
	}

	cfg := loadConfig()
	addr, user, pass := cfg.Reach.Socks5Addr, cfg.Reach.Socks5Username, cfg.Reach.Socks5Password
	if reachSocks != "" {
		addr, user, pass = reachSocks, reachUser, reachPass
	}
	prober, err := reach.NewProber(addr, user, pass, reach.DefaultTimeout)
	if err != nil {
		return err
	}

	res := prober.Probe(cmd.Context(), target.Host, target.Port)
	out := cmd.OutOrStdout()

	printPath(out, "direct", res.DirectErr)
	if res.Proxied {
		printPath(out, "socks5", res.ProxyErr)
	}

	fmt.Fprintf(out, "\nsuggestion: %s\n", res.Suggest())
	fmt.Fprint(out, "match types:")
	for _, mt := range hostrule.SuggestMatchTypes(target.Host, target.Port) {
		value, err := hostrule.DeriveValue(target.Host, target.Port, mt)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, " %s,%s", mt, value)
	}
	fmt.Fprintln(out)
	return nil
}

func printPath(out io.Writer, name string, err error) {
	if err != nil {
		printWarn(out, "%s: %v", name, err)
		return
	}
	printOK(out, "%s: connected", name)
}
