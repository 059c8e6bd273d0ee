package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mvp-joe/phptdd/internal/document"
	"github.com/mvp-joe/phptdd/internal/history"
	"github.com/mvp-joe/phptdd/internal/project"
	"github.com/mvp-joe/phptdd/internal/testfunc"
)

const noTestsExecutedMarker = "No tests executed"

var (
	// ErrNoTestFunction means the entity has no test to run yet.
	ErrNoTestFunction = errors.New("no test function")

	// ErrNoUnitTestDirectory means the workspace has no unit test directory.
	ErrNoUnitTestDirectory = errors.New("unit test directory does not exist")
)

// Request describes one test run.
type Request struct {
	Document  *document.Document // nil for suite runs without a document
	Line      int
	Function  *testfunc.Info // nil runs the whole suite
	Coverage  bool
	Workspace string    // used when Document is nil
	Output    io.Writer // receives test output as it is produced
}

// Result is a finished run. It is returned alongside run errors so the
// output can still be shown.
type Result struct {
	Run     *history.Run     `json:"run"`
	Command *project.Command `json:"command,omitempty"`
}

// Plan derives the command for req without running it.
func (r *Runner) Plan(req Request) (*project.Command, *project.Info, error) {
	info, err := r.projectInfo(req)
	if err != nil {
		return nil, nil, err
	}

	var docPath string
	if req.Document != nil {
		docPath = req.Document.Path
	}
	cmd, err := r.builder.Build(project.Request{
		Workspace: info.WorkspacePath,
		Document:  docPath,
		Function:  req.Function,
		Coverage:  req.Coverage,
	})
	if err != nil {
		return nil, nil, err
	}
	return cmd, info, nil
}

func (r *Runner) projectInfo(req Request) (*project.Info, error) {
	switch {
	case req.Document != nil:
		return r.projects.InfoForDocument(req.Document.Path)
	case req.Workspace != "":
		return project.NewInfo(req.Workspace, r.projects.Layout()), nil
	}

	info, err := r.projects.InfoForWorkspace(r.choose)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrNoWorkspaceSelected
	}
	return info, nil
}

// RunUnitTest runs the test command for req and records it.
//
// Output containing "No tests executed" fails with ErrNoTestsExecuted even
// when the command exits successfully.
func (r *Runner) RunUnitTest(ctx context.Context, req Request) (*Result, error) {
	cmd, info, err := r.Plan(req)
	if err != nil {
		return nil, err
	}
	if req.Function != nil && !info.UnitTestPathExists {
		return nil, fmt.Errorf("%w: %s", ErrNoUnitTestDirectory, info.UnitTestPath)
	}

	run := &history.Run{
		ID:        r.newID(),
		Workspace: info.WorkspacePath,
		Line:      req.Line,
		Intent:    cmd.Intent.String(),
		Command:   cmd.Line,
		Directory: cmd.Dir,
	}
	if req.Document != nil {
		run.Document = req.Document.Path
	}
	if req.Function != nil {
		run.Entity = req.Function.Entity.Identifier()
		run.FunctionName = req.Function.FunctionName
	}

	return r.execute(ctx, run, cmd, req.Output)
}

// RequestAtLine resolves the entity at the 1-based line to a run request.
// It fails with ErrNoTestableEntity off any entity and with ErrNoTestFunction
// when the entity has no test yet.
func (r *Runner) RequestAtLine(ctx context.Context, doc *document.Document, line int) (Request, error) {
	info, err := r.CurrentTestFunction(ctx, doc, line)
	if err != nil {
		return Request{}, fmt.Errorf("parse failed: %w", err)
	}
	if info == nil {
		return Request{}, fmt.Errorf("%w at line %d", ErrNoTestableEntity, line)
	}
	if !info.Runnable() {
		return Request{}, fmt.Errorf("%w for %s, add \"@testFunction %s\" to its doc comment",
			ErrNoTestFunction, info.Entity.Identifier(), testfunc.DefaultName(info.Entity))
	}
	return Request{Document: doc, Line: line, Function: info}, nil
}

// RunLineTests runs the tests touched by changed lines, skipping entities
// with auto-run disabled and entities that have no test yet. Every test is
// attempted; failures are joined.
func (r *Runner) RunLineTests(ctx context.Context, doc *document.Document, lines []int, out io.Writer) ([]*Result, error) {
	infos, err := r.LineTestFunctions(ctx, doc, lines)
	if err != nil {
		return nil, err
	}

	var (
		results []*Result
		errs    []error
	)
	for _, info := range infos {
		if info.AutoRunDisabled || !info.Runnable() {
			r.logger.WithField("entity", info.Entity.Identifier()).Debug("Skipping auto-run")
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := r.RunUnitTest(ctx, Request{Document: doc, Line: info.Entity.StartLine, Function: info, Output: out})
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", info.Entity.Identifier(), err))
		}
	}
	return results, errors.Join(errs...)
}

// Rerun repeats a recorded run with its original command and directory.
func (r *Runner) Rerun(ctx context.Context, prev *history.Run, out io.Writer) (*Result, error) {
	run := *prev
	run.ID = r.newID()
	run.Output = ""
	return r.execute(ctx, &run, nil, out)
}

func (r *Runner) execute(ctx context.Context, run *history.Run, cmd *project.Command, out io.Writer) (*Result, error) {
	log := r.logger.WithFields(logrus.Fields{
		"run_id": run.ID,
		"intent": run.Intent,
	})
	log.WithField("command", run.Command).Info("Running unit tests")

	run.StartedAt = r.now()
	output, execErr := r.executor.Execute(ctx, run.Command, run.Directory, out)
	run.Duration = r.now().Sub(run.StartedAt)
	run.Output = output

	var err error
	switch {
	case strings.Contains(output, noTestsExecutedMarker):
		run.Status = history.StatusNotExecuted
		err = ErrNoTestsExecuted
	case execErr != nil:
		run.Status = history.StatusFailed
		err = execErr
	default:
		run.Status = history.StatusPassed
	}

	if r.recorder != nil {
		if recErr := r.recorder.Record(run); recErr != nil {
			log.WithError(recErr).Warn("Failed to record run")
		}
	}

	result := &Result{Run: run, Command: cmd}
	if err != nil {
		log.WithError(err).Warn("Unit tests failed")
		return result, err
	}
	log.WithField("duration", run.Duration).Info("Unit tests passed")
	return result, nil
}
