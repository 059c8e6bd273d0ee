package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phptdd/internal/history"
	"github.com/mvp-joe/phptdd/internal/workflow"
)

var runTarget target

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [file.php]",
	Short: "Run the unit test for a line, or the whole suite",
	Long: `Run executes the unit test belonging to the class or function at --line,
streaming the test tool's output.

A method or function must name its test with "@testFunction name" in its
doc comment; a class runs its whole test class. The run fails when the test
tool reports "No tests executed", which usually means the command template
does not match the test layout.

Finished runs are recorded in the run history unless history.enabled is
false. 'phptdd last' repeats the most recent one.

With --open, a passing coverage run opens commands.code_coverage_report
in the default browser.

Examples:
  phptdd run src/Calc.php --line 12
  phptdd run --all
  phptdd run --all --coverage --open`,
	Args: targetArgs(&runTarget),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addTargetFlags(runCmd, &runTarget)
	runCmd.Flags().BoolVar(&runTarget.Open, "open", false, "With --coverage, open the coverage report when the run passes")
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	t := runTarget
	if len(args) > 0 {
		t.Path = args[0]
	}
	return a.run(cmd.Context(), cmd.OutOrStdout(), t)
}

func (a *app) run(ctx context.Context, out io.Writer, t target) error {
	req, err := a.request(ctx, t)
	if err != nil {
		return err
	}
	req.Output = out

	res, err := a.runner.RunUnitTest(ctx, req)
	if res != nil {
		printRunSummary(out, res)
	}
	if err != nil || !t.Open {
		return err
	}
	return a.openCoverageReport(res)
}

// openCoverageReport opens the report of a passed coverage run. Relative
// report paths resolve against the workspace.
func (a *app) openCoverageReport(res *workflow.Result) error {
	if res.Command == nil || res.Command.CoverageReport == "" {
		a.logger.Warn("No coverage report to open, set commands.code_coverage_report")
		return nil
	}

	report := res.Command.CoverageReport
	if !filepath.IsAbs(report) {
		report = filepath.Join(a.root, report)
	}
	a.logger.WithField("report", report).Debug("Opening coverage report")
	if err := a.openFile(report); err != nil {
		return fmt.Errorf("failed to open coverage report: %w", err)
	}
	return nil
}

func printRunSummary(out io.Writer, res *workflow.Result) {
	run := res.Run
	subject := run.Intent
	if run.FunctionName != "" {
		subject = run.FunctionName
	} else if run.Entity != "" {
		subject = run.Entity
	}

	fmt.Fprintf(out, "\n%s %s (%s)\n", statusLabel(run.Status), subject, run.Duration.Round(time.Millisecond))
	if res.Command != nil && res.Command.CoverageReport != "" && run.Status == history.StatusPassed {
		fmt.Fprintf(out, "Coverage report: %s\n", res.Command.CoverageReport)
	}
}

func statusLabel(s history.Status) string {
	switch s {
	case history.StatusPassed:
		return "PASS"
	case history.StatusFailed:
		return "FAIL"
	case history.StatusNotExecuted:
		return "NOT EXECUTED"
	default:
		return string(s)
	}
}
