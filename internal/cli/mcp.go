package cli

import (
	"github.com/samartsevigor/change-analyzer/internal/analyzer"
	"github.com/samartsevigor/change-analyzer/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server exposing change analysis",
	Long: `Start a Model Context Protocol server on stdio so coding assistants can ask
which Solidity declarations changed between two revisions.

The server provides one tool, analyze_changes, taking a required base, an
optional head (working tree when omitted) and optional paths. It returns the
same JSON the analyze command writes. Logs go to stderr.

Example:
  change-analyzer mcp --project ./contracts-repo`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, &analyzer.NoOpProgressReporter{})
	if err != nil {
		return err
	}
	defer s.Close()

	return mcp.NewServer(s.analyzer, Version).Serve(cmd.Context())
}
