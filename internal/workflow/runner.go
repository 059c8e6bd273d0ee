// Package workflow ties parsing, test function resolution and command
// derivation together into the operations a caller performs on a document:
// find the test for the cursor, find the tests touched by an edit, and run
// them.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mvp-joe/phptdd/internal/document"
	"github.com/mvp-joe/phptdd/internal/history"
	"github.com/mvp-joe/phptdd/internal/parser"
	"github.com/mvp-joe/phptdd/internal/project"
	"github.com/mvp-joe/phptdd/internal/testfunc"
)

var (
	// ErrNoTestsExecuted means the test tool ran but executed nothing,
	// usually because the command template does not match the test layout.
	ErrNoTestsExecuted = errors.New("unit testing was not executed, check your definition")

	// ErrNoTestableEntity means the cursor is not on a class or function.
	ErrNoTestableEntity = errors.New("cursor is not on a testable entity")

	// ErrNoWorkspaceSelected means several workspace folders exist and none
	// was chosen.
	ErrNoWorkspaceSelected = errors.New("no workspace folder selected")
)

// Parser builds entity trees from document text.
type Parser interface {
	Parse(ctx context.Context, text string) (*parser.Tree, error)
}

// Recorder stores finished runs.
type Recorder interface {
	Record(run *history.Run) error
}

// Runner performs test workflows for documents.
type Runner struct {
	parser   Parser
	projects *project.Service
	builder  *project.Builder
	executor Executor
	recorder Recorder
	choose   func(folders []string) (string, bool)
	logger   logrus.FieldLogger
	newID    func() string
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor replaces the shell executor.
func WithExecutor(e Executor) Option {
	return func(r *Runner) { r.executor = e }
}

// WithRecorder records every run.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithChooser picks a workspace folder for suite runs when there are several.
func WithChooser(choose func(folders []string) (string, bool)) Option {
	return func(r *Runner) { r.choose = choose }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner.
func NewRunner(p Parser, projects *project.Service, builder *project.Builder, opts ...Option) *Runner {
	r := &Runner{
		parser:   p,
		projects: projects,
		builder:  builder,
		executor: NewShellExecutor(),
		logger:   logrus.StandardLogger(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logrus.StandardLogger()
	}
	return r
}

// CurrentTestFunction resolves the test function for the entity at the
// 1-based line. It returns nil when the line holds no testable entity.
func (r *Runner) CurrentTestFunction(ctx context.Context, doc *document.Document, line int) (*testfunc.Info, error) {
	tree, err := r.parser.Parse(ctx, doc.Text)
	if err != nil {
		return nil, err
	}
	e := parser.EntityAtLine(tree, line)
	if e == nil || !e.Testable() {
		return nil, nil
	}
	return testfunc.Resolve(e, doc), nil
}

// LineTestFunctions resolves the test functions touched by a set of 1-based
// lines, as used by auto-run. The document is parsed once. Results keep the
// order of first appearance and are unique by test function, or by entity
// when no function name is known.
func (r *Runner) LineTestFunctions(ctx context.Context, doc *document.Document, lines []int) ([]*testfunc.Info, error) {
	tree, err := r.parser.Parse(ctx, doc.Text)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var results []*testfunc.Info
	for _, line := range lines {
		e := parser.EntityAtLine(tree, line)
		if e == nil || !e.Testable() {
			continue
		}
		info := testfunc.Resolve(e, doc)
		key := info.FunctionName
		if key == "" {
			key = "entity:" + e.Identifier()
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, info)
	}
	return results, nil
}
