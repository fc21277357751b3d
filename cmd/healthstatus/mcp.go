// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server acting as the signed-in CLI user.
package main

import (
	"github.com/harperreed/healthstatus/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout and acts as the user signed in with
'healthstatus auth login'.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "healthstatus": {
        "command": "healthstatus",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  list_status_types   List built-in and custom status types
  add_status_type     Define a custom status type
  delete_status_type  Delete a custom status type
  add_metric          Record a reading
  delete_metric       Delete a reading by ID
  get_dashboard       Select a status type and return its dashboard

AVAILABLE RESOURCES:

  healthstatus://status-types
  healthstatus://dashboard/blood-pressure
  healthstatus://dashboard/sleep-quality
  healthstatus://dashboard/current`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentUserID(); err != nil {
			return err
		}

		server, err := mcp.NewServer(dash, session, logger)
		if err != nil {
			return err
		}
		return server.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
