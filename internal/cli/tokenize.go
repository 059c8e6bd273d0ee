package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phptdd/internal/document"
)

var tokenizeJSON bool

// tokenizeCmd represents the tokenize command
var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <file.php>",
	Short: "Print the PHP token stream of a file",
	Long: `Tokenize runs the file through PHP's token_get_all() and prints the result.

Each token is shown as its line, its kind code and its text. Punctuation
that PHP emits without a kind code is shown with "-" in both columns.

If PHP reports that json_encode is unavailable, the json and tokenizer
extensions are enabled, the choice is saved to .phptdd/settings.local.json and the
file is tokenized again.

Examples:
  phptdd tokenize src/Calc.php
  phptdd tokenize --json src/Calc.php`,
	Args: cobra.ExactArgs(1),
	RunE: runTokenize,
}

func init() {
	rootCmd.AddCommand(tokenizeCmd)
	tokenizeCmd.Flags().BoolVar(&tokenizeJSON, "json", false, "Output the raw token_get_all() JSON")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return a.tokenize(cmd.Context(), cmd.OutOrStdout(), args[0], tokenizeJSON)
}

func (a *app) tokenize(ctx context.Context, out io.Writer, path string, asJSON bool) error {
	doc, err := document.Load(path)
	if err != nil {
		return err
	}

	tokens, err := a.source.Tokenize(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("tokenize failed: %w", err)
	}

	if asJSON {
		return writeJSON(out, tokens)
	}
	for _, tok := range tokens {
		if tok.IsBare() {
			fmt.Fprintf(out, "%5s %5s  %q\n", "-", "-", tok.Text)
			continue
		}
		fmt.Fprintf(out, "%5d %5d  %q\n", tok.Line, tok.Kind, tok.Text)
	}
	return nil
}
