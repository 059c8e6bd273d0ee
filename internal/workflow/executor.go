package workflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// Executor runs a test command line in a directory and returns its combined
// output. When out is not nil the output is also streamed to it.
type Executor interface {
	Execute(ctx context.Context, command, dir string, out io.Writer) (string, error)
}

// ShellExecutor runs commands through the platform shell, since command
// templates are shell command lines.
type ShellExecutor struct {
	goos string
}

// NewShellExecutor creates an executor for the host platform.
func NewShellExecutor() *ShellExecutor {
	return &ShellExecutor{goos: runtime.GOOS}
}

// Execute implements Executor.
func (e *ShellExecutor) Execute(ctx context.Context, command, dir string, out io.Writer) (string, error) {
	name, args := e.shell(command)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var buf bytes.Buffer
	var w io.Writer = &buf
	if out != nil {
		w = io.MultiWriter(&buf, out)
	}
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return buf.String(), fmt.Errorf("test command interrupted: %w", ctx.Err())
		}
		return buf.String(), fmt.Errorf("test command failed: %w", err)
	}
	return buf.String(), nil
}

func (e *ShellExecutor) shell(command string) (string, []string) {
	if e.goos == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "sh", []string{"-c", command}
}
