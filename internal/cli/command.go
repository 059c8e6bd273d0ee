package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phptdd/internal/project"
	"github.com/mvp-joe/phptdd/internal/testfunc"
)

var (
	commandTarget target
	commandJSON   bool
)

// commandCmd represents the command command
var commandCmd = &cobra.Command{
	Use:   "command [file.php]",
	Short: "Print the test command for a line without running it",
	Long: `Command derives the shell command that 'phptdd run' would execute and the
directory it would run in.

A method or function uses the run_unit_test template with its test function.
A class uses run_unit_test_class, falling back to run_unit_test. With --all
the run_all_unit_tests template is used, or run_code_coverage together with
--coverage.

Examples:
  phptdd command src/Calc.php --line 12
  phptdd command --all
  phptdd command --all --coverage --json`,
	Args: targetArgs(&commandTarget),
	RunE: runCommand,
}

func init() {
	rootCmd.AddCommand(commandCmd)
	addTargetFlags(commandCmd, &commandTarget)
	commandCmd.Flags().BoolVar(&commandJSON, "json", false, "Output as JSON")
}

// commandReport is the JSON form of the command command.
type commandReport struct {
	Command      *project.Command `json:"command"`
	Project      *project.Info    `json:"project"`
	TestFunction *testfunc.Info   `json:"test_function,omitempty"`
}

func runCommand(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	t := commandTarget
	if len(args) > 0 {
		t.Path = args[0]
	}
	return a.command(cmd.Context(), cmd.OutOrStdout(), t, commandJSON)
}

func (a *app) command(ctx context.Context, out io.Writer, t target, asJSON bool) error {
	req, err := a.request(ctx, t)
	if err != nil {
		return err
	}
	cmd, info, err := a.runner.Plan(req)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(out, commandReport{Command: cmd, Project: info, TestFunction: req.Function})
	}

	fmt.Fprintf(out, "Command:   %s\n", cmd.Line)
	fmt.Fprintf(out, "Directory: %s\n", cmd.Dir)
	if cmd.CoverageReport != "" {
		fmt.Fprintf(out, "Report:    %s\n", cmd.CoverageReport)
	}
	if !info.UnitTestPathExists {
		fmt.Fprintf(out, "Warning:   unit test directory %s does not exist\n", info.UnitTestPath)
	}
	return nil
}
