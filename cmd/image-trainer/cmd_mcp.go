package main

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/gitit24x7/EPOQ/internal/mcp"
	"github.com/gitit24x7/EPOQ/pkg/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve tasks as MCP tools over stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing the tabular,
gpu, system_info, dependencies and inference tools.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	server := mcp.NewServer(app.Facade, version.Short())
	app.Logger.Debug("mcp server starting", "resource_dir", app.Facade.ResourceDir())
	return server.Run(cmd.Context(), &sdkmcp.StdioTransport{})
}
