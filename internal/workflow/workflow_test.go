package workflow

// Test Plan for workflows:
// - CurrentTestFunction resolves directives for the entity at a line, nil otherwise
// - LineTestFunctions parses once, keeps first appearance, dedupes by test name
// - RunUnitTest substitutes the command, records the run, detects "No tests executed"
// - RunUnitTest requires the unit test directory for function runs
// - RequestAtLine rejects lines without a test and suggests the default name
// - RunLineTests skips auto-run-disabled and untested entities and keeps going on failure
// - Rerun repeats a recorded command under a new run ID
// - Parser errors propagate unchanged
// - ShellExecutor runs through the shell and reports exit failures

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/phptdd/internal/document"
	"github.com/mvp-joe/phptdd/internal/entity"
	"github.com/mvp-joe/phptdd/internal/history"
	"github.com/mvp-joe/phptdd/internal/parser"
	"github.com/mvp-joe/phptdd/internal/project"
)

const calcSource = `<?php
class Calc {
    /**
     * @testFunction testAdd
     */
    public function add($a, $b) {
        return $a + $b;
    }

    /** @testDisableAutoRun @testFunction testSub */
    public function sub($a, $b) {
        return $a - $b;
    }

    public function mul($a, $b) {
        return $a * $b;
    }
}
`

func calcTree() *parser.Tree {
	calc := &entity.Entity{Kind: entity.KindClass, Keyword: "class", Name: "Calc", StartLine: 2, EndLine: 18}
	calc.Methods = []*entity.Entity{
		{Kind: entity.KindFunction, Name: "add", ClassName: "Calc", StartLine: 6, EndLine: 8, Depth: 1,
			Comment: &entity.Comment{StartLine: 3, EndLine: 5}},
		{Kind: entity.KindFunction, Name: "sub", ClassName: "Calc", StartLine: 11, EndLine: 13, Depth: 1,
			Comment: &entity.Comment{StartLine: 10, EndLine: 10}},
		{Kind: entity.KindFunction, Name: "mul", ClassName: "Calc", StartLine: 15, EndLine: 17, Depth: 1},
	}
	return &parser.Tree{
		Entities: []*entity.Entity{calc},
		Imports:  []*entity.Entity{{Kind: entity.KindUse, Name: "Foo", StartLine: 20, EndLine: 20}},
	}
}

type fakeParser struct {
	tree  *parser.Tree
	err   error
	calls int
}

func (f *fakeParser) Parse(_ context.Context, _ string) (*parser.Tree, error) {
	f.calls++
	return f.tree, f.err
}

type execCall struct {
	command string
	dir     string
}

type fakeExecutor struct {
	calls  []execCall
	output func(command string) (string, error)
}

func (f *fakeExecutor) Execute(_ context.Context, command, dir string, out io.Writer) (string, error) {
	f.calls = append(f.calls, execCall{command: command, dir: dir})
	output, err := "OK (1 test)", error(nil)
	if f.output != nil {
		output, err = f.output(command)
	}
	if out != nil {
		io.WriteString(out, output)
	}
	return output, err
}

type fakeRecorder struct {
	runs []*history.Run
}

func (f *fakeRecorder) Record(run *history.Run) error {
	copied := *run
	f.runs = append(f.runs, &copied)
	return nil
}

type fixture struct {
	ws       string
	doc      *document.Document
	parser   *fakeParser
	executor *fakeExecutor
	recorder *fakeRecorder
	runner   *Runner
	logs     *test.Hook
}

func newFixture(t *testing.T, withTestDir bool) *fixture {
	t.Helper()

	ws := t.TempDir()
	if withTestDir {
		require.NoError(t, os.MkdirAll(filepath.Join(ws, "tests", "unit"), 0o755))
	}
	layout := project.Layout{TestSubdirectory: "tests/unit", SourceSubdirectory: "src"}
	templates := project.Templates{
		RunUnitTest:     "run __TEST_SUBDIRECTORY__:__FUNCTION__",
		RunAllUnitTests: "run all",
		RunCodeCoverage: "run all --coverage",
		Directory:       "__WORKSPACE_DIRECTORY__",
	}

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		ws:       ws,
		doc:      document.New(filepath.Join(ws, "src", "Calc.php"), calcSource),
		parser:   &fakeParser{tree: calcTree()},
		executor: &fakeExecutor{},
		recorder: &fakeRecorder{},
		logs:     hook,
	}
	ids := 0
	f.runner = NewRunner(f.parser,
		project.NewService([]string{ws}, layout),
		project.NewBuilder(layout, templates),
		WithExecutor(f.executor),
		WithRecorder(f.recorder),
		WithLogger(logger),
	)
	f.runner.newID = func() string {
		ids++
		return fmt.Sprintf("run-%d", ids)
	}
	f.runner.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestCurrentTestFunction(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()

	info, err := f.runner.CurrentTestFunction(ctx, f.doc, 7)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "add", info.Entity.Name)
	assert.Equal(t, "testAdd", info.FunctionName)

	info, err = f.runner.CurrentTestFunction(ctx, f.doc, 11)
	require.NoError(t, err)
	assert.Equal(t, "testSub", info.FunctionName)
	assert.True(t, info.AutoRunDisabled)

	info, err = f.runner.CurrentTestFunction(ctx, f.doc, 9)
	require.NoError(t, err)
	assert.Equal(t, "Calc", info.Entity.Name)
	assert.False(t, info.HasTestFunction())

	info, err = f.runner.CurrentTestFunction(ctx, f.doc, 20)
	require.NoError(t, err)
	assert.Nil(t, info, "imports are not testable")

	info, err = f.runner.CurrentTestFunction(ctx, f.doc, 1)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestLineTestFunctions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	infos, err := f.runner.LineTestFunctions(context.Background(), f.doc, []int{7, 6, 12, 16, 17, 9, 1, 20, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, f.parser.calls)

	var names []string
	for _, info := range infos {
		names = append(names, info.Entity.Identifier())
	}
	assert.Equal(t, []string{"Calc::add", "Calc::sub", "Calc::mul", "Calc"}, names)
}

func TestRunUnitTest(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()
	info, err := f.runner.CurrentTestFunction(ctx, f.doc, 7)
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := f.runner.RunUnitTest(ctx, Request{Document: f.doc, Line: 7, Function: info, Output: &out})
	require.NoError(t, err)

	require.Len(t, f.executor.calls, 1)
	assert.Equal(t, "run tests/unit/CalcUnitTestCest:testAdd", f.executor.calls[0].command)
	assert.Equal(t, filepath.Clean(f.ws), f.executor.calls[0].dir)
	assert.Equal(t, "OK (1 test)", out.String())

	assert.Equal(t, "run-1", res.Run.ID)
	assert.Equal(t, history.StatusPassed, res.Run.Status)
	assert.Equal(t, project.IntentFunction, res.Command.Intent)

	require.Len(t, f.recorder.runs, 1)
	rec := f.recorder.runs[0]
	assert.Equal(t, "Calc::add", rec.Entity)
	assert.Equal(t, "testAdd", rec.FunctionName)
	assert.Equal(t, f.doc.Path, rec.Document)
	assert.Equal(t, 7, rec.Line)
	assert.Equal(t, "function", rec.Intent)

	var sawRunID bool
	for _, entry := range f.logs.AllEntries() {
		if entry.Data["run_id"] == "run-1" {
			sawRunID = true
		}
	}
	assert.True(t, sawRunID)
}

func TestRunUnitTest_NoTestsExecuted(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.executor.output = func(string) (string, error) {
		return "No tests executed!", nil
	}

	res, err := f.runner.RunUnitTest(context.Background(), Request{Workspace: f.ws})
	require.ErrorIs(t, err, ErrNoTestsExecuted)
	require.NotNil(t, res)
	assert.Equal(t, history.StatusNotExecuted, res.Run.Status)
	assert.Equal(t, "run all", f.executor.calls[0].command)
	require.Len(t, f.recorder.runs, 1)
	assert.Equal(t, history.StatusNotExecuted, f.recorder.runs[0].Status)
}

func TestRunUnitTest_SuiteUsesOnlyWorkspace(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	res, err := f.runner.RunUnitTest(context.Background(), Request{Coverage: true})
	require.NoError(t, err)
	assert.Equal(t, "run all --coverage", res.Run.Command)
	assert.Equal(t, "coverage", res.Run.Intent)
}

func TestRunUnitTest_RequiresTestDirectory(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	info, err := f.runner.CurrentTestFunction(context.Background(), f.doc, 7)
	require.NoError(t, err)

	_, err = f.runner.RunUnitTest(context.Background(), Request{Document: f.doc, Function: info})
	assert.ErrorIs(t, err, ErrNoUnitTestDirectory)
	assert.Empty(t, f.executor.calls)
}

func TestRequestAtLine(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.runner.RequestAtLine(ctx, f.doc, 1)
	assert.ErrorIs(t, err, ErrNoTestableEntity)
	assert.Contains(t, err.Error(), "at line 1")

	_, err = f.runner.RequestAtLine(ctx, f.doc, 16)
	require.ErrorIs(t, err, ErrNoTestFunction)
	assert.Contains(t, err.Error(), "@testFunction testMul")

	req, err := f.runner.RequestAtLine(ctx, f.doc, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, req.Line)
	assert.Same(t, f.doc, req.Document)

	res, err := f.runner.RunUnitTest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "run tests/unit/CalcUnitTestCest:", res.Run.Command)
	assert.Equal(t, "class", res.Run.Intent)
}

func TestRunLineTests(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	failing := errors.New("exit status 1")
	f.executor.output = func(command string) (string, error) {
		if command == "run tests/unit/CalcUnitTestCest:testAdd" {
			return "FAILURES!", failing
		}
		return "OK", nil
	}

	results, err := f.runner.RunLineTests(context.Background(), f.doc, []int{7, 12, 16, 9}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, failing)
	assert.Contains(t, err.Error(), "Calc::add")

	require.Len(t, results, 2)
	assert.Equal(t, history.StatusFailed, results[0].Run.Status)
	assert.Equal(t, history.StatusPassed, results[1].Run.Status)

	var commands []string
	for _, c := range f.executor.calls {
		commands = append(commands, c.command)
	}
	assert.Equal(t, []string{
		"run tests/unit/CalcUnitTestCest:testAdd",
		"run tests/unit/CalcUnitTestCest:",
	}, commands)
}

func TestRerun(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	prev := &history.Run{
		ID:        "old",
		Workspace: f.ws,
		Intent:    "function",
		Command:   "run tests/unit/CalcUnitTestCest:testAdd",
		Directory: f.ws,
		Output:    "stale",
	}

	res, err := f.runner.Rerun(context.Background(), prev, nil)
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.Run.ID)
	assert.Equal(t, "OK (1 test)", res.Run.Output)
	assert.Equal(t, "old", prev.ID, "previous run is not modified")
	assert.Equal(t, execCall{command: prev.Command, dir: f.ws}, f.executor.calls[0])
}

func TestParserErrorPropagates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	fatal := errors.New("Nee!")
	f.parser.err = fatal

	_, err := f.runner.CurrentTestFunction(context.Background(), f.doc, 7)
	assert.Same(t, fatal, err)

	_, err = f.runner.LineTestFunctions(context.Background(), f.doc, []int{7})
	assert.Same(t, fatal, err)
}

func TestShellExecutor(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	t.Parallel()

	dir := t.TempDir()
	e := NewShellExecutor()

	var out bytes.Buffer
	output, err := e.Execute(context.Background(), "echo hello && pwd", dir, &out)
	require.NoError(t, err)
	assert.Contains(t, output, "hello")
	assert.Equal(t, output, out.String())

	output, err = e.Execute(context.Background(), "echo broken; exit 3", dir, nil)
	require.Error(t, err)
	assert.Contains(t, output, "broken")
}
