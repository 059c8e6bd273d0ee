package mcp

import (
	"context"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/phptdd/internal/history"
	mcputils "github.com/mvp-joe/phptdd/internal/mcp-utils"
)

const defaultHistoryLimit = 20

// AddTestHistoryTool registers the php_test_history tool with an MCP server.
func AddTestHistoryTool(s *server.MCPServer, lister HistoryLister, root string) {
	tool := mcp.NewTool(
		"php_test_history",
		mcp.WithDescription("List recent unit test runs, newest first, with their command, status and output."),
		mcp.WithString("workspace",
			mcp.Description("Workspace folder to list runs for (default: the server's workspace)")),
		mcp.WithString("intent",
			mcp.Description("Only list runs of this kind"),
			mcp.Enum("function", "class", "all", "coverage")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum runs to return (1-100, default: 20)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createTestHistoryHandler(lister, root))
}

func createTestHistoryHandler(lister HistoryLister, root string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req TestHistoryRequest
		// Arguments are all optional, so a missing object is fine.
		if request.GetRawArguments() != nil {
			if !validArguments(request) {
				return mcp.NewToolResultError("invalid arguments format"), nil
			}
			if err := mcputils.Bind(request, &req); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}

		workspace := req.Workspace
		if workspace == "" {
			workspace = root
		}
		if workspace != "" {
			if abs, err := filepath.Abs(workspace); err == nil {
				workspace = abs
			}
		}

		limit := req.Limit
		if limit <= 0 {
			limit = defaultHistoryLimit
		}
		if limit > 100 {
			limit = 100
		}

		filter := history.Filter{Workspace: workspace, Limit: limit}
		if req.Intent != 0 {
			filter.Intent = req.Intent.String()
		}

		runs, err := lister.List(filter)
		if err != nil {
			return nil, err
		}
		if runs == nil {
			runs = []*history.Run{}
		}

		return marshalToolResponse(&TestHistoryResponse{Runs: runs, Total: len(runs)})
	}
}
