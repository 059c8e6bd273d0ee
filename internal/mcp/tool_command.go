package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcputils "github.com/mvp-joe/phptdd/internal/mcp-utils"
	"github.com/mvp-joe/phptdd/internal/testfunc"
	"github.com/mvp-joe/phptdd/internal/workflow"
)

// AddTestCommandTool registers the php_test_command tool with an MCP server.
// The tool derives commands only; nothing is executed.
func AddTestCommandTool(s *server.MCPServer, planner Planner, root string) {
	tool := mcp.NewTool(
		"php_test_command",
		mcp.WithDescription("Derive the shell command and working directory that run the unit test for the entity at a line of a PHP file, or the whole suite with all=true. The command is returned, not executed."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PHP file path, absolute or relative to the workspace")),
		mcp.WithNumber("line",
			mcp.Description("1-based line of the entity to test (required unless all=true)")),
		mcp.WithBoolean("all",
			mcp.Description("Run the whole unit test suite of the file's workspace")),
		mcp.WithBoolean("coverage",
			mcp.Description("With all=true, use the code coverage command")),
		mcp.WithString("text",
			mcp.Description("Unsaved file content to parse instead of the file on disk")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createTestCommandHandler(planner, root))
}

func createTestCommandHandler(planner Planner, root string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !validArguments(request) {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		var req TestCommandRequest
		if err := mcputils.Bind(request, &req, "path"); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !req.All && req.Line < 1 {
			return mcp.NewToolResultError("line parameter is required unless all is set"), nil
		}

		doc, err := loadDocument(root, req.Path, req.Text)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		planReq := workflow.Request{Document: doc, Coverage: req.Coverage}
		if !req.All {
			info, err := planner.CurrentTestFunction(ctx, doc, req.Line)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("parse failed: %v", err)), nil
			}
			if info == nil {
				return mcp.NewToolResultError(fmt.Sprintf("no testable entity at line %d", req.Line)), nil
			}
			if !info.Runnable() {
				return mcp.NewToolResultError(fmt.Sprintf("%s has no test function, add \"@testFunction %s\" to its doc comment",
					info.Entity.Identifier(), testfunc.DefaultName(info.Entity))), nil
			}
			planReq.Line = req.Line
			planReq.Function = info
		}

		cmd, info, err := planner.Plan(planReq)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return marshalToolResponse(&TestCommandResponse{
			Intent:             cmd.Intent.String(),
			Command:            cmd.Line,
			Directory:          cmd.Dir,
			CoverageReport:     cmd.CoverageReport,
			TestFunction:       planReq.Function,
			UnitTestPath:       info.UnitTestPath,
			UnitTestPathExists: info.UnitTestPathExists,
			BootstrapExists:    info.BootstrapExists,
		})
	}
}
