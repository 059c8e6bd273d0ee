package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/phptdd/internal/document"
	"github.com/mvp-joe/phptdd/internal/workflow"
)

// target selects what a command or run applies to: the entity at a line of
// a file, or the whole suite.
type target struct {
	Path     string
	Line     int
	All      bool
	Coverage bool
	Open     bool // open the coverage report after the run
}

func addTargetFlags(cmd *cobra.Command, t *target) {
	cmd.Flags().IntVarP(&t.Line, "line", "l", 0, "1-based line of the entity to test")
	cmd.Flags().BoolVarP(&t.All, "all", "a", false, "Run every unit test of the workspace")
	cmd.Flags().BoolVar(&t.Coverage, "coverage", false, "With --all, use the code coverage command")
}

func targetArgs(t *target) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
			return err
		}
		if !t.All && len(args) == 0 {
			return errors.New("a PHP file is required unless --all is set")
		}
		return nil
	}
}

// request resolves a target to a workflow request. Suite runs without a
// file use the app's workspace.
func (a *app) request(ctx context.Context, t target) (workflow.Request, error) {
	if t.Coverage && !t.All {
		return workflow.Request{}, errors.New("--coverage requires --all")
	}
	if t.Open && !t.Coverage {
		return workflow.Request{}, errors.New("--open requires --coverage")
	}

	if t.Path == "" {
		if !t.All {
			return workflow.Request{}, errors.New("a PHP file is required unless --all is set")
		}
		return workflow.Request{Workspace: a.root, Coverage: t.Coverage}, nil
	}

	doc, err := document.Load(t.Path)
	if err != nil {
		return workflow.Request{}, err
	}
	if t.All {
		return workflow.Request{Document: doc, Coverage: t.Coverage}, nil
	}

	if t.Line < 1 {
		return workflow.Request{}, errors.New("--line is required unless --all is set")
	}
	return a.runner.RequestAtLine(ctx, doc, t.Line)
}
