package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"clash-rulesync/internal/service"
	"clash-rulesync/pkg/ruletext"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const pushDebounce = 500 * time.Millisecond

var (
	pushProxyFile  string
	pushDirectFile string
	pushWatch      bool
)

func init() {
	pushCmd.Flags().StringVar(&pushProxyFile, "proxy-file", "", "local proxy rule file")
	pushCmd.Flags().StringVar(&pushDirectFile, "direct-file", "", "local direct rule file")
	pushCmd.Flags().BoolVarP(&pushWatch, "watch", "w", false, "push again whenever either file changes")
	_ = pushCmd.MarkFlagRequired("proxy-file")
	_ = pushCmd.MarkFlagRequired("direct-file")
	rootCmd.AddCommand(pushCmd)
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Overwrite both remote rule files with local files",
	Long: "Reads two local rule files, checks them with lint and saves them as the " +
		"proxy and direct documents. With --watch it keeps running and pushes again " +
		"500ms after the last change.",
	Args: cobra.NoArgs,
	RunE: runPush,
}

func runPush(cmd *cobra.Command, args []string) error {
	c, err := newContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	out := cmd.OutOrStdout()
	if err := pushFiles(cmd.Context(), out, c.RuleSync, pushProxyFile, pushDirectFile); err != nil {
		if !pushWatch {
			return err
		}
		printError(out, err)
	}
	if !pushWatch {
		return nil
	}

	return watchFiles(cmd.Context(), []string{pushProxyFile, pushDirectFile}, pushDebounce, func() {
		if err := pushFiles(cmd.Context(), out, c.RuleSync, pushProxyFile, pushDirectFile); err != nil {
			printError(out, err)
		}
	})
}

func pushFiles(ctx context.Context, out io.Writer, svc service.IRuleSyncService, proxyFile, directFile string) error {
	proxy, err := readRuleFile(proxyFile)
	if err != nil {
		return err
	}
	direct, err := readRuleFile(directFile)
	if err != nil {
		return err
	}

	res, err := svc.SaveRules(ctx, proxy, direct)
	if err != nil {
		return err
	}
	printOK(out, "pushed %s and %s", filepath.Base(proxyFile), filepath.Base(directFile))
	printRefresh(out, res.Refresh)
	return nil
}

func readRuleFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if err := ruletext.Lint(string(data)); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return string(data), nil
}

// watchFiles calls onChange once per burst of writes, after the files have
// been quiet for debounce. It watches the parent directories so editors that
// replace a file by rename are still seen. Blocks until ctx is cancelled.
func watchFiles(ctx context.Context, paths []string, debounce time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "file watcher error: %v\n", err)
		}
	}
}
