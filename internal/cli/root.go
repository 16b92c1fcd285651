package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"clash-rulesync/internal/bootstrap"
	"clash-rulesync/internal/config"
	"clash-rulesync/internal/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	verbose  bool
	modeFlag string
)

var rootCmd = &cobra.Command{
	Use:   "rulesync",
	Short: "Classify hosts as proxy or direct and sync them to Clash rule providers",
	Long: "Adds, lists and edits the proxy/direct rule files served to a Clash daemon, " +
		"either on an OpenWrt router over LuCI RPC (remote mode) or through the edge rule API " +
		"(cloud mode), then asks every configured daemon to reload its rule providers.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "override SYNC_MODE (remote or cloud)")
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg := config.Load()
	if modeFlag != "" {
		cfg.Sync.Mode = modeFlag
	}
	return cfg
}

func newLogger(cfg *config.Config) logger.ILogger {
	level := cfg.App.LogLevel
	if verbose {
		level = "debug"
	}
	return logger.NewCLILogger(level, "")
}

// newContainer builds the client wiring for commands that talk to a store.
func newContainer() (*bootstrap.ClientContainer, error) {
	cfg := loadConfig()
	c, err := bootstrap.NewClientContainer(cfg, newLogger(cfg))
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	return c, nil
}
