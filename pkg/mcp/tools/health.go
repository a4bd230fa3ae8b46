package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tarotlab/tarot-engine/pkg/deck"
)

type healthResult struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Catalog string `json:"catalog,omitempty"`
	Cards   int    `json:"cards,omitempty"`
	Spreads int    `json:"spreads,omitempty"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool returns the server status, version and catalog state.
// catalog may be nil.
func RegisterHealthTool(s *server.MCPServer, version string, catalog *deck.Catalog) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status and version"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := healthResult{Status: "ok", Version: version}
		if catalog != nil {
			result.Catalog = "ok"
			if catalog.UsingDefaults(ctx) {
				result.Catalog = "defaults"
			}
			result.Cards = len(catalog.Cards(ctx))
			result.Spreads = len(catalog.Spreads(ctx))
		}
		return jsonResult(result)
	})
}
