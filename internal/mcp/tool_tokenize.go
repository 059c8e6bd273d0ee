package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcputils "github.com/mvp-joe/phptdd/internal/mcp-utils"
)

// AddTokenizeTool registers the php_tokenize tool with an MCP server.
func AddTokenizeTool(s *server.MCPServer, analyzer Analyzer, root string) {
	tool := mcp.NewTool(
		"php_tokenize",
		mcp.WithDescription("Return the raw PHP token stream of a file as produced by token_get_all. Each token is either [kind, text, line] or a single punctuation character."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PHP file path, absolute or relative to the workspace")),
		mcp.WithString("text",
			mcp.Description("Unsaved file content to tokenize instead of the file on disk")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createTokenizeHandler(analyzer, root))
}

func createTokenizeHandler(analyzer Analyzer, root string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !validArguments(request) {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		var req TokenizeRequest
		if err := mcputils.Bind(request, &req, "path"); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		doc, err := loadDocument(root, req.Path, req.Text)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		tokens, err := analyzer.Tokenize(ctx, doc.Text)
		if err != nil {
			// Interpreter failures are shown verbatim
			return mcp.NewToolResultError(fmt.Sprintf("tokenize failed: %v", err)), nil
		}

		return marshalToolResponse(&TokenizeResponse{
			Path:   doc.Path,
			Count:  len(tokens),
			Tokens: tokens,
		})
	}
}
