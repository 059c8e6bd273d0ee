package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phptdd/internal/document"
	"github.com/mvp-joe/phptdd/internal/entity"
	"github.com/mvp-joe/phptdd/internal/parser"
	"github.com/mvp-joe/phptdd/internal/testfunc"
)

var (
	entityLine int
	entityJSON bool
)

// entityCmd represents the entity command
var entityCmd = &cobra.Command{
	Use:   "entity <file.php> --line N",
	Short: "Show the entity at a line and its test function",
	Long: `Entity finds the innermost class or function whose span contains the
line and resolves the unit test function that belongs to it.

The test function comes from an "@testFunction name" line in the entity's
doc comment. When there is none, the name phptdd would suggest is shown
instead. "@testDisableAutoRun" in the same comment is reported as well.

Examples:
  phptdd entity src/Calc.php --line 12
  phptdd entity src/Calc.php -l 12 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runEntity,
}

func init() {
	rootCmd.AddCommand(entityCmd)
	entityCmd.Flags().IntVarP(&entityLine, "line", "l", 0, "1-based line number")
	entityCmd.Flags().BoolVar(&entityJSON, "json", false, "Output as JSON")
	_ = entityCmd.MarkFlagRequired("line")
}

// entityReport is the JSON form of the entity command.
type entityReport struct {
	Path         string         `json:"path"`
	Line         int            `json:"line"`
	Entity       *entity.Entity `json:"entity"`
	Identifier   string         `json:"identifier,omitempty"`
	TestFunction *testfunc.Info `json:"test_function,omitempty"`
	DefaultName  string         `json:"default_test_function,omitempty"`
}

func runEntity(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return a.entityAt(cmd.Context(), cmd.OutOrStdout(), args[0], entityLine, entityJSON)
}

func (a *app) entityAt(ctx context.Context, out io.Writer, path string, line int, asJSON bool) error {
	if line < 1 {
		return errors.New("line must be 1 or greater")
	}
	doc, err := document.Load(path)
	if err != nil {
		return err
	}

	tree, err := a.parser.Parse(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	report := entityReport{Path: doc.Path, Line: line}
	if e := parser.EntityAtLine(tree, line); e != nil {
		report.Entity = e
		report.Identifier = e.Identifier()
		if e.Testable() {
			report.TestFunction = testfunc.Resolve(e, doc)
			report.DefaultName = testfunc.DefaultName(e)
		}
	}

	if asJSON {
		return writeJSON(out, report)
	}

	if report.Entity == nil {
		fmt.Fprintf(out, "No entity at line %d\n", line)
		return nil
	}
	fmt.Fprintf(out, "Entity:        %s\n", describeEntity(report.Entity))
	if report.Entity.Namespace != "" {
		fmt.Fprintf(out, "Namespace:     %s\n", report.Entity.Namespace)
	}
	if report.Entity.ClassName != "" {
		fmt.Fprintf(out, "Class:         %s\n", report.Entity.ClassName)
	}

	info := report.TestFunction
	if info == nil {
		return nil
	}
	switch {
	case info.HasTestFunction():
		fmt.Fprintf(out, "Test function: %s\n", info.FunctionName)
	case info.Runnable():
		fmt.Fprintf(out, "Test function: (whole test class)\n")
	default:
		fmt.Fprintf(out, "Test function: none, add \"@testFunction %s\" to its doc comment\n", report.DefaultName)
	}
	if info.AutoRunDisabled {
		fmt.Fprintf(out, "Auto-run:      disabled\n")
	}
	return nil
}
