package cli

import (
	"github.com/spf13/cobra"

	"github.com/mvp-joe/phptdd/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for PHP test navigation",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can ask
which test belongs to a line of PHP and how to run it.

The MCP server:
- Tokenizes and outlines PHP files with the configured interpreter
- Resolves the entity and test function at a line
- Derives test commands without executing them
- Lists recorded test runs when history is enabled
- Communicates via stdio (standard MCP transport)

Logs go to stderr so they never mix with protocol messages.

Example:
  phptdd mcp -w ~/src/shop`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := a.mcpServer()
	if err != nil {
		return err
	}

	// Serve (blocks until shutdown)
	return server.Serve(cmd.Context())
}

func (a *app) mcpServer() (*mcp.Server, error) {
	deps := mcp.Dependencies{
		Analyzer: a.parser,
		Planner:  a.runner,
		Root:     a.root,
	}
	if a.history != nil {
		deps.History = a.history
	}
	return mcp.NewServer(deps, Version, a.logger)
}
