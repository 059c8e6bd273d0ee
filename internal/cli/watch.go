package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phptdd/internal/watcher"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run affected tests whenever a PHP file is saved",
	Long: `Watch monitors the workspace and, each time a PHP file is saved, runs the
unit tests of every class and function whose lines changed.

Entities whose doc comment contains "@testDisableAutoRun" are skipped, as
are functions that do not name a test function yet. Which files are watched
is controlled by autorun.include and autorun.ignore; saves are batched with
autorun.debounce.

Press Ctrl+C to stop.

Examples:
  phptdd watch
  phptdd watch -w ~/src/shop -v`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	lock := watcher.NewLock(a.root)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	auto, err := a.autoRun(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return auto.Run(ctx)
}

// autoRun wires a file watcher over the workspace to the line runner.
func (a *app) autoRun(out io.Writer) (*watcher.AutoRun, error) {
	if !a.cfg.AutoRun.Enabled {
		return nil, errors.New("auto-run is disabled, set autorun.enabled to true")
	}

	filter, err := watcher.NewFilter(a.root, a.cfg.AutoRun.Include, a.cfg.AutoRun.Ignore)
	if err != nil {
		return nil, err
	}
	fw, err := watcher.NewFileWatcher(filter, a.cfg.AutoRun.Debounce, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	return watcher.NewAutoRun(fw, filter, a.runner, out, a.logger), nil
}
