package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"

	"github.com/mvp-joe/phptdd/internal/config"
	"github.com/mvp-joe/phptdd/internal/history"
	"github.com/mvp-joe/phptdd/internal/parser"
	"github.com/mvp-joe/phptdd/internal/project"
	"github.com/mvp-joe/phptdd/internal/settings"
	"github.com/mvp-joe/phptdd/internal/tokenizer"
	"github.com/mvp-joe/phptdd/internal/workflow"
)

// app is the set of services a command works with, wired from the
// workspace configuration.
type app struct {
	root     string
	cfg      *config.Config
	logger   *logrus.Logger
	settings *settings.Store
	source   *tokenizer.Source
	parser   *parser.Service
	projects *project.Service
	runner   *workflow.Runner
	history  *history.Store // nil when history is disabled
	openFile func(path string) error
}

// appDeps are the process-facing pieces of an app.
type appDeps struct {
	tokenRunner tokenizer.Runner
	script      string
	executor    workflow.Executor
	logOutput   io.Writer
	verbose     bool
}

type appOption func(*appDeps)

func withTokenRunner(r tokenizer.Runner) appOption {
	return func(d *appDeps) { d.tokenRunner = r }
}

func withScript(path string) appOption {
	return func(d *appDeps) { d.script = path }
}

func withExecutor(e workflow.Executor) appOption {
	return func(d *appDeps) { d.executor = e }
}

func withLogOutput(w io.Writer) appOption {
	return func(d *appDeps) { d.logOutput = w }
}

// loadApp builds an app from the global flags.
func loadApp(opts ...appOption) (*app, error) {
	root, err := resolveWorkspace(workspaceDir)
	if err != nil {
		return nil, err
	}

	var loaderOpts []config.LoaderOption
	if cfgFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(cfgFile))
	}
	cfg, err := config.NewLoader(root, loaderOpts...).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	opts = append([]appOption{func(d *appDeps) { d.verbose = verbose }}, opts...)
	return newApp(root, cfg, opts...)
}

// resolveWorkspace returns the absolute workspace folder, defaulting to the
// working directory.
func resolveWorkspace(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("workspace not found: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workspace is not a directory: %s", abs)
	}
	return abs, nil
}

func newApp(root string, cfg *config.Config, opts ...appOption) (*app, error) {
	deps := appDeps{
		tokenRunner: tokenizer.NewExecRunner(cfg.PHP.Timeout),
		executor:    workflow.NewShellExecutor(),
		logOutput:   os.Stderr,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	logger, err := newLogger(cfg.Log.Level, deps.verbose, deps.logOutput)
	if err != nil {
		return nil, err
	}

	store := settings.NewStore(root, cfg.PHP.EnableExtensions)
	tokOpts := []tokenizer.Option{
		tokenizer.WithBinary(cfg.PHP.Binary),
		tokenizer.WithRunner(deps.tokenRunner),
		tokenizer.WithLogger(logger),
	}
	if deps.script != "" {
		tokOpts = append(tokOpts, tokenizer.WithScript(deps.script))
	}
	source := tokenizer.New(store, tokOpts...)

	a := &app{
		root:     root,
		cfg:      cfg,
		logger:   logger,
		settings: store,
		source:   source,
		parser:   parser.NewService(source),
		projects: project.NewService([]string{root}, cfg.Layout()),
		openFile: browser.OpenFile,
	}

	runnerOpts := []workflow.Option{
		workflow.WithExecutor(deps.executor),
		workflow.WithLogger(logger),
	}
	if cfg.History.Enabled {
		h, err := history.Open(cfg.HistoryPath(root))
		if err != nil {
			return nil, err
		}
		a.history = h
		runnerOpts = append(runnerOpts, workflow.WithRecorder(h))
	}

	builder := project.NewBuilder(cfg.Layout(), cfg.Templates())
	a.runner = workflow.NewRunner(a.parser, a.projects, builder, runnerOpts...)
	return a, nil
}

func newLogger(level string, verbose bool, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// Close prunes and closes the history store.
func (a *app) Close() error {
	if a.history == nil {
		return nil
	}
	if keep := a.cfg.History.Keep; keep > 0 {
		removed, err := a.history.Prune(keep)
		if err != nil {
			a.logger.WithError(err).Warn("Failed to prune run history")
		} else if removed > 0 {
			a.logger.WithField("removed", removed).Debug("Pruned run history")
		}
	}
	return a.history.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
