package mcp

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mvp-joe/phptdd/internal/document"
)

// marshalToolResponse marshals a response object to JSON and returns it as an MCP tool result.
func marshalToolResponse(response any) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// validArguments reports whether the raw arguments are a JSON object.
func validArguments(request mcp.CallToolRequest) bool {
	_, ok := request.GetRawArguments().(map[string]any)
	return ok
}

// loadDocument resolves path against root and reads the file unless text
// was supplied.
func loadDocument(root, path, text string) (*document.Document, error) {
	if !filepath.IsAbs(path) && root != "" {
		path = filepath.Join(root, path)
	}
	if text != "" {
		return document.New(path, text), nil
	}
	return document.Load(path)
}
