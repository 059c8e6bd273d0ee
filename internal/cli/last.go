package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phptdd/internal/history"
)

// errHistoryDisabled is returned by commands that need the run history.
var errHistoryDisabled = errors.New("run history is disabled, set history.enabled to true")

// lastCmd represents the last command
var lastCmd = &cobra.Command{
	Use:   "last",
	Short: "Run the most recent test command again",
	Long: `Last repeats the most recently recorded run of the workspace with the
same command line and directory, without re-reading the source file.

Examples:
  phptdd last
  phptdd last -w ~/src/shop`,
	Args: cobra.NoArgs,
	RunE: runLast,
}

func init() {
	rootCmd.AddCommand(lastCmd)
}

func runLast(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return a.last(cmd.Context(), cmd.OutOrStdout())
}

func (a *app) last(ctx context.Context, out io.Writer) error {
	if a.history == nil {
		return errHistoryDisabled
	}

	prev, err := a.history.Last(a.root)
	if err != nil {
		if errors.Is(err, history.ErrNoRuns) {
			return fmt.Errorf("nothing to repeat: %w", err)
		}
		return err
	}

	res, err := a.runner.Rerun(ctx, prev, out)
	if res != nil {
		printRunSummary(out, res)
	}
	return err
}
