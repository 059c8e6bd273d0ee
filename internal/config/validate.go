package config

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
)

var (
	// ErrEmptyTemplate indicates a required command template is missing
	ErrEmptyTemplate = errors.New("empty command template")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidGlob indicates an auto-run pattern that does not compile
	ErrInvalidGlob = errors.New("invalid glob pattern")

	// ErrInvalidTimeout indicates a non-positive tokenizer timeout
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidPath indicates a layout path that must be workspace-relative
	ErrInvalidPath = errors.New("invalid path")

	// ErrEmptyBinary indicates a missing PHP interpreter
	ErrEmptyBinary = errors.New("empty php binary")

	// ErrInvalidHistory indicates invalid history settings
	ErrInvalidHistory = errors.New("invalid history settings")
)

// Validate checks that the configuration is valid and complete.
// All problems are reported together.
func Validate(cfg *Config) error {
	return errors.Join(
		validatePHP(&cfg.PHP),
		validateProject(&cfg.Project),
		validateCommands(&cfg.Commands),
		validateAutoRun(&cfg.AutoRun),
		validateHistory(&cfg.History),
		validateLog(&cfg.Log),
	)
}

func validatePHP(cfg *PHPConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Binary) == "" {
		errs = append(errs, fmt.Errorf("%w: php.binary is required", ErrEmptyBinary))
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: php.timeout must be positive, got %s", ErrInvalidTimeout, cfg.Timeout))
	}

	return errors.Join(errs...)
}

func validateProject(cfg *ProjectConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.TestSubdirectory) == "" {
		errs = append(errs, fmt.Errorf("%w: project.test_subdirectory is required", ErrInvalidPath))
	} else if isAbs(cfg.TestSubdirectory) {
		errs = append(errs, fmt.Errorf("%w: project.test_subdirectory must be relative, got '%s'", ErrInvalidPath, cfg.TestSubdirectory))
	}
	if isAbs(cfg.SourceSubdirectory) {
		errs = append(errs, fmt.Errorf("%w: project.source_subdirectory must be relative, got '%s'", ErrInvalidPath, cfg.SourceSubdirectory))
	}

	return errors.Join(errs...)
}

func isAbs(p string) bool {
	return filepath.IsAbs(p) || path.IsAbs(filepath.ToSlash(p))
}

func validateCommands(cfg *CommandsConfig) error {
	var errs []error

	required := []struct {
		key   string
		value string
	}{
		{"commands.run_unit_test", cfg.RunUnitTest},
		{"commands.run_all_unit_tests", cfg.RunAllUnitTests},
		{"commands.run_code_coverage", cfg.RunCodeCoverage},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%w: %s is required", ErrEmptyTemplate, r.key))
		}
	}

	return errors.Join(errs...)
}

func validateAutoRun(cfg *AutoRunConfig) error {
	var errs []error

	for _, group := range []struct {
		key      string
		patterns []string
	}{
		{"autorun.include", cfg.Include},
		{"autorun.ignore", cfg.Ignore},
	} {
		for _, pattern := range group.patterns {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				errs = append(errs, fmt.Errorf("%w: %s entry '%s': %v", ErrInvalidGlob, group.key, pattern, err))
			}
		}
	}
	if cfg.Debounce < 0 {
		errs = append(errs, fmt.Errorf("%w: autorun.debounce cannot be negative, got %s", ErrInvalidTimeout, cfg.Debounce))
	}

	return errors.Join(errs...)
}

func validateHistory(cfg *HistoryConfig) error {
	var errs []error

	if cfg.Enabled && strings.TrimSpace(cfg.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: history.path is required when history is enabled", ErrInvalidHistory))
	}
	if cfg.Keep < 0 {
		errs = append(errs, fmt.Errorf("%w: history.keep cannot be negative, got %d", ErrInvalidHistory, cfg.Keep))
	}

	return errors.Join(errs...)
}

func validateLog(cfg *LogConfig) error {
	if _, err := logrus.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("%w: log.level '%s'", ErrInvalidLogLevel, cfg.Level)
	}
	return nil
}
