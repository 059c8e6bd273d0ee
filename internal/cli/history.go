package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phptdd/internal/history"
	"github.com/mvp-joe/phptdd/internal/project"
)

var (
	historyLimit  int
	historyIntent string
	historyJSON   bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent test runs",
	Long: `History lists the most recent test runs of the workspace, newest first.

Runs are stored in .phptdd/history.db (see history.path). The database is
pruned to history.keep runs after every command. --intent keeps only runs
of one kind: function, class, all or coverage.

Examples:
  phptdd history
  phptdd history --intent function
  phptdd history --limit 5 --json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show")
	historyCmd.Flags().StringVar(&historyIntent, "intent", "", "Only show runs of this kind (function, class, all, coverage)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return a.listHistory(cmd.OutOrStdout(), historyLimit, historyIntent, historyJSON)
}

func (a *app) listHistory(out io.Writer, limit int, intent string, asJSON bool) error {
	if a.history == nil {
		return errHistoryDisabled
	}

	filter := history.Filter{Workspace: a.root, Limit: limit}
	if intent != "" {
		parsed, err := project.ParseIntent(intent)
		if err != nil {
			return err
		}
		filter.Intent = parsed.String()
	}

	runs, err := a.history.List(filter)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTATUS\tDURATION\tTARGET\tCOMMAND")
	for _, run := range runs {
		subject := run.Intent
		if run.Entity != "" {
			subject = run.Entity
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			statusLabel(run.Status),
			run.Duration.Round(time.Millisecond),
			subject,
			run.Command,
		)
	}
	return w.Flush()
}
