package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// askDocsTool returns the tool definition for ask_docs
func askDocsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ask_docs",
		Description: "Ask a question about the product documentation and get an answer with cited sources",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Natural language question about the documentation",
				},
				"max_sources": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of cited sources to return (1-20)",
					"default":     5,
					"minimum":     1,
					"maximum":     20,
				},
			},
			Required: []string{"question"},
		},
	}
}

// searchDocsTool returns the tool definition for search_docs
func searchDocsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_docs",
		Description: "Search the documentation and return matching pages without a synthesized answer",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-50)",
					"default":     10,
					"minimum":     1,
					"maximum":     50,
				},
			},
			Required: []string{"query"},
		},
	}
}

// deploymentStatusTool returns the tool definition for deployment_status
func deploymentStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "deployment_status",
		Description: "List recent deployments of this server, optionally filtered by workspace",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"workspace": map[string]interface{}{
					"type":        "string",
					"description": "Workspace name to filter by (all workspaces when omitted)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of deployments to return",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
		},
	}
}
