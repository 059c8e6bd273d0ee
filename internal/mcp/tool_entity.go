package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcputils "github.com/mvp-joe/phptdd/internal/mcp-utils"
	"github.com/mvp-joe/phptdd/internal/parser"
	"github.com/mvp-joe/phptdd/internal/testfunc"
)

// AddOutlineTool registers the php_outline tool with an MCP server.
func AddOutlineTool(s *server.MCPServer, analyzer Analyzer, root string) {
	tool := mcp.NewTool(
		"php_outline",
		mcp.WithDescription("List the classes, functions, methods and use imports of a PHP file with their line ranges, nesting depth and doc comments."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PHP file path, absolute or relative to the workspace")),
		mcp.WithString("text",
			mcp.Description("Unsaved file content to parse instead of the file on disk")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createOutlineHandler(analyzer, root))
}

func createOutlineHandler(analyzer Analyzer, root string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !validArguments(request) {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		var req OutlineRequest
		if err := mcputils.Bind(request, &req, "path"); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		doc, err := loadDocument(root, req.Path, req.Text)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		tree, err := analyzer.Parse(ctx, doc.Text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parse failed: %v", err)), nil
		}

		return marshalToolResponse(&OutlineResponse{Path: doc.Path, Tree: tree})
	}
}

// AddEntityAtLineTool registers the php_entity_at_line tool with an MCP server.
func AddEntityAtLineTool(s *server.MCPServer, analyzer Analyzer, root string) {
	tool := mcp.NewTool(
		"php_entity_at_line",
		mcp.WithDescription("Find the innermost class, method or function that contains a line of a PHP file, together with its doc comment and the unit test function it declares with @testFunction."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PHP file path, absolute or relative to the workspace")),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("1-based line number")),
		mcp.WithString("text",
			mcp.Description("Unsaved file content to parse instead of the file on disk")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createEntityAtLineHandler(analyzer, root))
}

func createEntityAtLineHandler(analyzer Analyzer, root string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !validArguments(request) {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		var req EntityAtLineRequest
		if err := mcputils.Bind(request, &req, "path", "line"); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if req.Line < 1 {
			return mcp.NewToolResultError(fmt.Sprintf("line must be 1 or greater, got %d", req.Line)), nil
		}

		doc, err := loadDocument(root, req.Path, req.Text)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		tree, err := analyzer.Parse(ctx, doc.Text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parse failed: %v", err)), nil
		}

		resp := &EntityAtLineResponse{Path: doc.Path, Line: req.Line}
		if e := parser.EntityAtLine(tree, req.Line); e != nil {
			resp.Entity = e
			resp.Identifier = e.Identifier()
			if e.Testable() {
				resp.TestFunction = testfunc.Resolve(e, doc)
				resp.DefaultName = testfunc.DefaultName(e)
			}
		}
		return marshalToolResponse(resp)
	}
}
