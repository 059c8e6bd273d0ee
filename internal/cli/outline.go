package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phptdd/internal/document"
	"github.com/mvp-joe/phptdd/internal/entity"
)

var outlineJSON bool

// outlineCmd represents the outline command
var outlineCmd = &cobra.Command{
	Use:   "outline <file.php>",
	Short: "List the classes, functions and imports of a file",
	Long: `Outline parses a PHP file and prints every class, function and use
import it declares with its line span. Methods are indented under their
class. Functions declared inside other function bodies are listed under
"nested".

Examples:
  phptdd outline src/Calc.php
  phptdd outline --json src/Calc.php`,
	Args: cobra.ExactArgs(1),
	RunE: runOutline,
}

func init() {
	rootCmd.AddCommand(outlineCmd)
	outlineCmd.Flags().BoolVar(&outlineJSON, "json", false, "Output the entity tree as JSON")
}

func runOutline(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return a.outline(cmd.Context(), cmd.OutOrStdout(), args[0], outlineJSON)
}

func (a *app) outline(ctx context.Context, out io.Writer, path string, asJSON bool) error {
	doc, err := document.Load(path)
	if err != nil {
		return err
	}

	tree, err := a.parser.Parse(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	if asJSON {
		return writeJSON(out, tree)
	}

	for _, imp := range tree.Imports {
		fmt.Fprintln(out, describeEntity(imp))
	}
	for _, e := range tree.Entities {
		fmt.Fprintln(out, describeEntity(e))
		for _, m := range e.Methods {
			fmt.Fprintln(out, "  "+describeEntity(m))
		}
	}
	if len(tree.Nested) > 0 {
		fmt.Fprintln(out, "nested:")
		for _, e := range tree.Nested {
			fmt.Fprintln(out, "  "+describeEntity(e))
		}
	}
	return nil
}

// describeEntity renders one entity as "keyword name lines".
func describeEntity(e *entity.Entity) string {
	keyword := e.Kind.String()
	if e.Keyword != "" {
		keyword = e.Keyword
	}

	name := e.FullName()
	if e.ClassName != "" {
		name = e.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", keyword, name)
	if e.IsOpen() {
		fmt.Fprintf(&b, " (%d-)", e.StartLine)
	} else {
		fmt.Fprintf(&b, " (%d-%d)", e.StartLine, e.EndLine)
	}
	return b.String()
}
