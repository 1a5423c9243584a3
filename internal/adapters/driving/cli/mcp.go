package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can run
consultations and verify diagnoses.

Tools: consult, verify_goal, explain_rule
Resources: diagnosa://rules, diagnosa://rules/{ruleId}

By default the server communicates over stdio using JSON-RPC.
Use --port to serve HTTP instead. HTTP mode also exposes Prometheus
metrics on /metrics and applies a request rate limit.

Examples:
  # Stdio mode (default)
  diagnosa mcp serve

  # HTTP mode, 5 requests per second
  diagnosa mcp serve --port 8080 --rate 5

Assistant configuration:
  {
    "mcpServers": {
      "diagnosa": {
        "command": "/path/to/diagnosa",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Float64("rate", mcp.DefaultRateLimit.RequestsPerSecond,
		"HTTP requests per second (0 = unlimited)")
	mcpServeCmd.Flags().Int("burst", mcp.DefaultRateLimit.BurstSize, "HTTP request burst size")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if err := requireRules(); err != nil {
		return err
	}

	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	rps, err := cmd.Flags().GetFloat64("rate")
	if err != nil {
		return fmt.Errorf("getting rate flag: %w", err)
	}
	burst, err := cmd.Flags().GetInt("burst")
	if err != nil {
		return fmt.Errorf("getting burst flag: %w", err)
	}

	ports := &mcp.Ports{
		Consultation: consultationService,
		Knowledge:    knowledgeService,
		Explanation:  explanationService,
	}

	server, err := mcp.NewServer(ports, mcp.WithRateLimit(mcp.RateLimitConfig{
		RequestsPerSecond: rps,
		BurstSize:         burst,
	}))
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
