package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	workspaceDir string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "phptdd",
	Short: "phptdd - test-driven development helper for PHP",
	Long: `phptdd finds the unit test that belongs to the PHP class or function
under your cursor and runs it with your project's test tool.

Classes and functions are located with PHP's own tokenizer, so a PHP
interpreter must be on PATH (or configured with php.binary). Test commands
come from templates in .phptdd/config.yml; run 'phptdd config init' to write
the defaults.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .phptdd/config.yml in the workspace)")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", "", "workspace folder (default is the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
