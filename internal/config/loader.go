package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mvp-joe/phptdd/internal/settings"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// LoaderOption configures a loader.
type LoaderOption func(*loader)

// WithConfigFile reads an explicit file instead of searching .phptdd/.
// A missing explicit file is an error.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) {
		l.configFile = path
	}
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{rootDir: rootDir}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (PHPTDD_*)
// 2. Config file (.phptdd/config.yml or .phptdd/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, settings.Dir))
	}

	// PHPTDD_PHP_BINARY, PHPTDD_COMMANDS_RUN_UNIT_TEST, ...
	v.SetEnvPrefix("PHPTDD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var envKeys = []string{
	"php.binary",
	"php.enable_extensions",
	"php.timeout",

	"project.test_subdirectory",
	"project.source_subdirectory",
	"project.bootstrap_file",

	"commands.run_unit_test",
	"commands.run_unit_test_class",
	"commands.run_all_unit_tests",
	"commands.run_code_coverage",
	"commands.code_coverage_report",
	"commands.directory",

	"autorun.enabled",
	"autorun.debounce",

	"history.enabled",
	"history.path",
	"history.keep",

	"log.level",
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("php.binary", defaults.PHP.Binary)
	v.SetDefault("php.enable_extensions", defaults.PHP.EnableExtensions)
	v.SetDefault("php.timeout", defaults.PHP.Timeout)

	v.SetDefault("project.test_subdirectory", defaults.Project.TestSubdirectory)
	v.SetDefault("project.source_subdirectory", defaults.Project.SourceSubdirectory)
	v.SetDefault("project.bootstrap_file", defaults.Project.BootstrapFile)

	v.SetDefault("commands.run_unit_test", defaults.Commands.RunUnitTest)
	v.SetDefault("commands.run_unit_test_class", defaults.Commands.RunUnitTestClass)
	v.SetDefault("commands.run_all_unit_tests", defaults.Commands.RunAllUnitTests)
	v.SetDefault("commands.run_code_coverage", defaults.Commands.RunCodeCoverage)
	v.SetDefault("commands.code_coverage_report", defaults.Commands.CodeCoverageReport)
	v.SetDefault("commands.directory", defaults.Commands.Directory)

	v.SetDefault("autorun.enabled", defaults.AutoRun.Enabled)
	v.SetDefault("autorun.include", defaults.AutoRun.Include)
	v.SetDefault("autorun.ignore", defaults.AutoRun.Ignore)
	v.SetDefault("autorun.debounce", defaults.AutoRun.Debounce)

	v.SetDefault("history.enabled", defaults.History.Enabled)
	v.SetDefault("history.path", defaults.History.Path)
	v.SetDefault("history.keep", defaults.History.Keep)

	v.SetDefault("log.level", defaults.Log.Level)
}
