// Package mcp exposes PHP structure queries and test command derivation as
// MCP tools over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/mvp-joe/phptdd/internal/document"
	"github.com/mvp-joe/phptdd/internal/history"
	"github.com/mvp-joe/phptdd/internal/parser"
	"github.com/mvp-joe/phptdd/internal/project"
	"github.com/mvp-joe/phptdd/internal/testfunc"
	"github.com/mvp-joe/phptdd/internal/tokenizer"
	"github.com/mvp-joe/phptdd/internal/workflow"
)

// Analyzer tokenizes and parses PHP text.
type Analyzer interface {
	Tokenize(ctx context.Context, text string) ([]tokenizer.Token, error)
	Parse(ctx context.Context, text string) (*parser.Tree, error)
}

// Planner resolves test functions and derives commands without running them.
type Planner interface {
	CurrentTestFunction(ctx context.Context, doc *document.Document, line int) (*testfunc.Info, error)
	Plan(req workflow.Request) (*project.Command, *project.Info, error)
}

// HistoryLister lists recorded runs.
type HistoryLister interface {
	List(f history.Filter) ([]*history.Run, error)
}

// Dependencies are the services the tools call into. History is optional;
// without it php_test_history is not registered.
type Dependencies struct {
	Analyzer Analyzer
	Planner  Planner
	History  HistoryLister
	Root     string // relative tool paths resolve against it
}

// Server manages the MCP server lifecycle.
type Server struct {
	mcp    *server.MCPServer
	logger logrus.FieldLogger
}

// NewServer creates an MCP server with every tool registered.
func NewServer(deps Dependencies, version string, logger logrus.FieldLogger) (*Server, error) {
	if deps.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if deps.Planner == nil {
		return nil, errors.New("planner is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := server.NewMCPServer(
		"phptdd",
		version,
		server.WithToolCapabilities(true),
	)

	AddTokenizeTool(s, deps.Analyzer, deps.Root)
	AddOutlineTool(s, deps.Analyzer, deps.Root)
	AddEntityAtLineTool(s, deps.Analyzer, deps.Root)
	AddTestCommandTool(s, deps.Planner, deps.Root)
	if deps.History != nil {
		AddTestHistoryTool(s, deps.History, deps.Root)
	}

	return &Server{mcp: s, logger: logger}, nil
}

// Serve runs the server on stdin/stdout until ctx is cancelled, a shutdown
// signal arrives or the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.logger.Info("Starting MCP server on stdio")
	err := server.NewStdioServer(s.mcp).Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("MCP server error: %w", err)
	}
	s.logger.Info("MCP server stopped")
	return nil
}
