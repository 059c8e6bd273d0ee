package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/phptdd/internal/config"
	"github.com/mvp-joe/phptdd/internal/settings"
)

var configInitForce bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the workspace configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Show prints the configuration phptdd would use in this workspace: the
defaults, overlaid with .phptdd/config.yml and PHPTDD_* environment
variables.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to .phptdd/config.yml",
	Long: `Init writes the default configuration to .phptdd/config.yml in the
workspace so the command templates can be edited. An existing file is only
replaced with --force.

The defaults target Codeception. For PHPUnit, a typical function template is:
  vendor/bin/phpunit --filter '__FUNCTION__$' __TEST_SUBDIRECTORY__`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return writeConfig(cmd.OutOrStdout(), a.cfg)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	root, err := resolveWorkspace(workspaceDir)
	if err != nil {
		return err
	}

	path, err := initConfig(root, configInitForce)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func writeConfig(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

// initConfig writes the default configuration into root and returns the
// file path.
func initConfig(root string, force bool) (string, error) {
	path := filepath.Join(root, settings.Dir, "config.yml")
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create config file: %w", err)
	}
	if err := writeConfig(f, config.Default()); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}
