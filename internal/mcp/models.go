package mcp

import (
	"github.com/mvp-joe/phptdd/internal/entity"
	"github.com/mvp-joe/phptdd/internal/history"
	"github.com/mvp-joe/phptdd/internal/parser"
	"github.com/mvp-joe/phptdd/internal/project"
	"github.com/mvp-joe/phptdd/internal/testfunc"
	"github.com/mvp-joe/phptdd/internal/tokenizer"
)

// TokenizeRequest is the input of php_tokenize.
type TokenizeRequest struct {
	Path string `json:"path"`
	Text string `json:"text,omitempty"` // unsaved buffer content, used instead of the file
}

// TokenizeResponse is the output of php_tokenize.
type TokenizeResponse struct {
	Path   string            `json:"path"`
	Count  int               `json:"count"`
	Tokens []tokenizer.Token `json:"tokens"`
}

// OutlineRequest is the input of php_outline.
type OutlineRequest struct {
	Path string `json:"path"`
	Text string `json:"text,omitempty"` // unsaved buffer content, used instead of the file
}

// OutlineResponse is the output of php_outline.
type OutlineResponse struct {
	Path string       `json:"path"`
	Tree *parser.Tree `json:"tree"`
}

// EntityAtLineRequest is the input of php_entity_at_line.
type EntityAtLineRequest struct {
	Path string `json:"path"`
	Text string `json:"text,omitempty"`
	Line int    `json:"line"`
}

// EntityAtLineResponse is the output of php_entity_at_line. Entity is nil
// when no entity contains the line.
type EntityAtLineResponse struct {
	Path         string         `json:"path"`
	Line         int            `json:"line"`
	Entity       *entity.Entity `json:"entity"`
	Identifier   string         `json:"identifier,omitempty"`
	TestFunction *testfunc.Info `json:"test_function,omitempty"`
	DefaultName  string         `json:"default_test_function,omitempty"`
}

// TestCommandRequest is the input of php_test_command.
type TestCommandRequest struct {
	Path     string `json:"path"`
	Text     string `json:"text,omitempty"`
	Line     int    `json:"line,omitempty"`
	All      bool   `json:"all,omitempty"`
	Coverage bool   `json:"coverage,omitempty"`
}

// TestCommandResponse is the output of php_test_command.
type TestCommandResponse struct {
	Intent             string         `json:"intent"`
	Command            string         `json:"command"`
	Directory          string         `json:"directory"`
	CoverageReport     string         `json:"coverage_report,omitempty"`
	TestFunction       *testfunc.Info `json:"test_function,omitempty"`
	UnitTestPath       string         `json:"unit_test_path"`
	UnitTestPathExists bool           `json:"unit_test_path_exists"`
	BootstrapExists    bool           `json:"bootstrap_exists"`
}

// TestHistoryRequest is the input of php_test_history.
type TestHistoryRequest struct {
	Workspace string         `json:"workspace,omitempty"`
	Intent    project.Intent `json:"intent,omitempty"`
	Limit     int            `json:"limit,omitempty"`
}

// TestHistoryResponse is the output of php_test_history.
type TestHistoryResponse struct {
	Runs  []*history.Run `json:"runs"`
	Total int            `json:"total"`
}
