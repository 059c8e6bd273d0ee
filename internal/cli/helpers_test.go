package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/phptdd/internal/config"
)

// fakePHP implements tokenizer.Runner. Queued responses are used in order;
// the last one repeats.
type fakePHP struct {
	mu        sync.Mutex
	responses []phpResponse
	calls     [][]string
}

type phpResponse struct {
	out []byte
	err error
}

func (f *fakePHP) Run(_ context.Context, name string, args []string, _ []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string{name}, args...))
	resp := f.responses[len(f.responses)-1]
	if len(f.calls) <= len(f.responses) {
		resp = f.responses[len(f.calls)-1]
	}
	return resp.out, resp.err
}

func (f *fakePHP) argv() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

// fakeExecutor implements workflow.Executor.
type fakeExecutor struct {
	mu       sync.Mutex
	output   string
	err      error
	commands []string
	dirs     []string
}

func (f *fakeExecutor) Execute(_ context.Context, command, dir string, out io.Writer) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.commands = append(f.commands, command)
	f.dirs = append(f.dirs, dir)
	if out != nil {
		_, _ = io.WriteString(out, f.output)
	}
	return f.output, f.err
}

func (f *fakeExecutor) executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// testApp is an app over a temporary workspace holding src/Calc.php and an
// empty tests/unit directory.
type testApp struct {
	*app
	ws       string
	calcPath string
	php      *fakePHP
	exec     *fakeExecutor
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Commands.RunUnitTest = "run __TEST_SUBDIRECTORY__:__FUNCTION__"
	cfg.Commands.RunUnitTestClass = "run __TEST_SUBDIRECTORY__"
	cfg.Commands.RunAllUnitTests = "run all"
	cfg.Commands.RunCodeCoverage = "run all --coverage"
	cfg.Commands.CodeCoverageReport = "__WORKSPACE_DIRECTORY__/coverage/index.html"
	cfg.History.Path = ":memory:"
	cfg.AutoRun.Debounce = 50 * time.Millisecond
	return cfg
}

func newTestApp(t *testing.T, mutate func(cfg *config.Config)) *testApp {
	t.Helper()

	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "tests", "unit"), 0o755))

	source, err := os.ReadFile(filepath.Join("testdata", "Calc.php"))
	require.NoError(t, err)
	calcPath := filepath.Join(ws, "src", "Calc.php")
	require.NoError(t, os.WriteFile(calcPath, source, 0o644))

	tokens, err := os.ReadFile(filepath.Join("testdata", "Calc.tokens.json"))
	require.NoError(t, err)

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	php := &fakePHP{responses: []phpResponse{{out: tokens}}}
	exec := &fakeExecutor{output: "OK (1 test, 1 assertion)\n"}
	a, err := newApp(ws, cfg,
		withTokenRunner(php),
		withScript("dump.php"),
		withExecutor(exec),
		withLogOutput(io.Discard),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return &testApp{app: a, ws: ws, calcPath: calcPath, php: php, exec: exec}
}
