package config

import (
	"path/filepath"
	"time"

	"github.com/mvp-joe/phptdd/internal/project"
	"github.com/mvp-joe/phptdd/internal/settings"
	"github.com/mvp-joe/phptdd/internal/tokenizer"
)

// Config represents the complete phptdd configuration.
// It can be loaded from .phptdd/config.yml with environment variable overrides.
type Config struct {
	PHP      PHPConfig      `yaml:"php" mapstructure:"php"`
	Project  ProjectConfig  `yaml:"project" mapstructure:"project"`
	Commands CommandsConfig `yaml:"commands" mapstructure:"commands"`
	AutoRun  AutoRunConfig  `yaml:"autorun" mapstructure:"autorun"`
	History  HistoryConfig  `yaml:"history" mapstructure:"history"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// PHPConfig configures the interpreter used for tokenizing.
type PHPConfig struct {
	Binary           string        `yaml:"binary" mapstructure:"binary"`                       // interpreter on PATH or absolute path
	EnableExtensions bool          `yaml:"enable_extensions" mapstructure:"enable_extensions"` // initial capability flag
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`                     // per tokenizer invocation
}

// ProjectConfig describes the workspace layout.
type ProjectConfig struct {
	TestSubdirectory   string `yaml:"test_subdirectory" mapstructure:"test_subdirectory"`
	SourceSubdirectory string `yaml:"source_subdirectory" mapstructure:"source_subdirectory"`
	BootstrapFile      string `yaml:"bootstrap_file" mapstructure:"bootstrap_file"`
}

// CommandsConfig holds the test command templates. Templates may use
// __FUNCTION__, __TEST_SUBDIRECTORY__, __TEST_DIRECTORY__ and
// __WORKSPACE_DIRECTORY__.
type CommandsConfig struct {
	RunUnitTest        string `yaml:"run_unit_test" mapstructure:"run_unit_test"`
	RunUnitTestClass   string `yaml:"run_unit_test_class" mapstructure:"run_unit_test_class"` // empty falls back to run_unit_test
	RunAllUnitTests    string `yaml:"run_all_unit_tests" mapstructure:"run_all_unit_tests"`
	RunCodeCoverage    string `yaml:"run_code_coverage" mapstructure:"run_code_coverage"`
	CodeCoverageReport string `yaml:"code_coverage_report" mapstructure:"code_coverage_report"` // optional
	Directory          string `yaml:"directory" mapstructure:"directory"`
}

// AutoRunConfig configures running tests on save.
type AutoRunConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Include  []string      `yaml:"include" mapstructure:"include"` // glob patterns relative to the workspace
	Ignore   []string      `yaml:"ignore" mapstructure:"ignore"`
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// HistoryConfig configures the run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"` // relative paths resolve against the workspace
	Keep    int    `yaml:"keep" mapstructure:"keep"` // runs kept after pruning, 0 keeps all
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		PHP: PHPConfig{
			Binary:           tokenizer.DefaultBinary,
			EnableExtensions: false,
			Timeout:          tokenizer.DefaultTimeout,
		},
		Project: ProjectConfig{
			TestSubdirectory:   "tests/unit",
			SourceSubdirectory: "src",
			BootstrapFile:      "PHPTDDBootstrap.php",
		},
		Commands: CommandsConfig{
			RunUnitTest:        "vendor/bin/codecept run unit __TEST_SUBDIRECTORY__:__FUNCTION__",
			RunUnitTestClass:   "vendor/bin/codecept run unit __TEST_SUBDIRECTORY__",
			RunAllUnitTests:    "vendor/bin/codecept run unit",
			RunCodeCoverage:    "vendor/bin/codecept run unit --coverage --coverage-html",
			CodeCoverageReport: "tests/_output/coverage/index.html",
			Directory:          "__WORKSPACE_DIRECTORY__",
		},
		AutoRun: AutoRunConfig{
			Enabled: true,
			Include: []string{"**/*.php"},
			Ignore: []string{
				"vendor/**",
				"node_modules/**",
				".git/**",
				"tests/_output/**",
			},
			Debounce: 500 * time.Millisecond,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(settings.Dir, "history.db"),
			Keep:    500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Layout returns the project layout section as a project.Layout.
func (c *Config) Layout() project.Layout {
	return project.Layout{
		TestSubdirectory:   c.Project.TestSubdirectory,
		SourceSubdirectory: c.Project.SourceSubdirectory,
		BootstrapFile:      c.Project.BootstrapFile,
	}
}

// Templates returns the command templates as project.Templates.
func (c *Config) Templates() project.Templates {
	return project.Templates{
		RunUnitTest:        c.Commands.RunUnitTest,
		RunUnitTestClass:   c.Commands.RunUnitTestClass,
		RunAllUnitTests:    c.Commands.RunAllUnitTests,
		RunCodeCoverage:    c.Commands.RunCodeCoverage,
		CodeCoverageReport: c.Commands.CodeCoverageReport,
		Directory:          c.Commands.Directory,
	}
}

// HistoryPath resolves the history database path against a workspace root.
func (c *Config) HistoryPath(root string) string {
	if c.History.Path == "" || c.History.Path == ":memory:" || filepath.IsAbs(c.History.Path) {
		return c.History.Path
	}
	return filepath.Join(root, c.History.Path)
}
