package project

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mvp-joe/phptdd/internal/testfunc"
)

// ErrNoTemplate is returned when the command template for an intent is empty.
var ErrNoTemplate = errors.New("no command template configured")

// Intent selects which command template a run uses.
type Intent int

const (
	IntentFunction Intent = iota + 1 // one test function by name
	IntentClass                      // one test class
	IntentAll                        // every unit test
	IntentCoverage                   // every unit test with coverage
)

func (i Intent) String() string {
	switch i {
	case IntentFunction:
		return "function"
	case IntentClass:
		return "class"
	case IntentAll:
		return "all"
	case IntentCoverage:
		return "coverage"
	default:
		return fmt.Sprintf("intent(%d)", int(i))
	}
}

func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Intent) UnmarshalText(text []byte) error {
	parsed, err := ParseIntent(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// ParseIntent is the inverse of Intent.String.
func ParseIntent(s string) (Intent, error) {
	for _, i := range []Intent{IntentFunction, IntentClass, IntentAll, IntentCoverage} {
		if i.String() == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown intent %q", s)
}

// IntentFor picks the intent for a resolved test function. A nil info means
// the whole suite.
func IntentFor(info *testfunc.Info, coverage bool) Intent {
	switch {
	case info == nil && coverage:
		return IntentCoverage
	case info == nil:
		return IntentAll
	case info.HasTestFunction():
		return IntentFunction
	default:
		return IntentClass
	}
}

// Templates are the configured command templates. RunUnitTestClass falls
// back to RunUnitTest, where __FUNCTION__ then substitutes empty.
type Templates struct {
	RunUnitTest        string
	RunUnitTestClass   string
	RunAllUnitTests    string
	RunCodeCoverage    string
	CodeCoverageReport string
	Directory          string
}

// For returns the template for intent.
func (t Templates) For(intent Intent) string {
	switch intent {
	case IntentFunction:
		return t.RunUnitTest
	case IntentClass:
		if t.RunUnitTestClass != "" {
			return t.RunUnitTestClass
		}
		return t.RunUnitTest
	case IntentAll:
		return t.RunAllUnitTests
	case IntentCoverage:
		return t.RunCodeCoverage
	default:
		return ""
	}
}

// Request describes one command to derive.
type Request struct {
	Workspace string
	Document  string         // absolute path of the source document, empty for suite runs
	Function  *testfunc.Info // nil for suite runs
	Coverage  bool
}

// Command is a derived, not yet executed, test command.
type Command struct {
	Intent         Intent `json:"intent"`
	Line           string `json:"command"`
	Dir            string `json:"directory"`
	Values         Values `json:"values"`
	CoverageReport string `json:"coverage_report,omitempty"`
}

// Builder derives commands from templates.
type Builder struct {
	layout    Layout
	templates Templates
}

// NewBuilder creates a command builder.
func NewBuilder(layout Layout, templates Templates) *Builder {
	return &Builder{layout: layout, templates: templates}
}

// Build substitutes the templates for req.
func (b *Builder) Build(req Request) (*Command, error) {
	workspace := filepath.Clean(req.Workspace)
	intent := IntentFor(req.Function, req.Coverage)

	template := b.templates.For(intent)
	if template == "" {
		return nil, fmt.Errorf("%w for %s tests", ErrNoTemplate, intent)
	}

	values := Values{
		TestDirectory:      TestDirectory(workspace, b.layout),
		WorkspaceDirectory: workspace,
	}
	if req.Document != "" {
		isTest := req.Function != nil && req.Function.Entity.IsTestEntity()
		values.TestSubdirectory = TestPath(workspace, b.layout, req.Document, isTest)
	}
	if intent == IntentFunction {
		values.Function = req.Function.FunctionName
	}

	cmd := &Command{
		Intent: intent,
		Line:   Substitute(template, values),
		Dir:    workspace,
		Values: values,
	}
	if b.templates.Directory != "" {
		cmd.Dir = Substitute(b.templates.Directory, values)
	}
	if intent == IntentCoverage && b.templates.CodeCoverageReport != "" {
		cmd.CoverageReport = Substitute(b.templates.CodeCoverageReport, values)
	}
	return cmd, nil
}
