package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docschat/docschat/internal/inkeep"
	"github.com/docschat/docschat/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuestion = -32001 // Question parameter is empty
	ErrorCodeNoHistory     = -32002 // No deployment history available
)

// handleAskDocs handles the ask_docs tool invocation
func (s *Server) handleAskDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	question, ok := args["question"].(string)
	if !ok || question == "" {
		return nil, newMCPError(ErrorCodeEmptyQuestion, "question parameter is required and cannot be empty", map[string]interface{}{
			"param":  "question",
			"reason": "missing or empty",
		})
	}

	maxSources := getIntDefault(args, "max_sources", inkeep.DefaultMaxSources)
	if maxSources < 1 || maxSources > 20 {
		return nil, newMCPError(ErrorCodeInvalidParams, "max_sources must be between 1 and 20", map[string]interface{}{
			"param": "max_sources",
			"value": maxSources,
		})
	}

	answer, err := s.docs.Ask(ctx, question, maxSources)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "docs query failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"answer":  answer.Text,
		"sources": sourceList(answer.Sources),
		"model":   answer.Model,
		"cached":  answer.Cached,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchDocs handles the search_docs tool invocation
func (s *Server) handleSearchDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuestion, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 50 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 50", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	sources, err := s.docs.Search(ctx, query, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "docs search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"query":   query,
		"count":   len(sources),
		"sources": sourceList(sources),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDeploymentStatus handles the deployment_status tool invocation
func (s *Server) handleDeploymentStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	if s.ledger == nil {
		return nil, newMCPError(ErrorCodeNoHistory, "deployment history is not configured", nil)
	}

	workspace, _ := args["workspace"].(string)
	limit := getIntDefault(args, "limit", 10)

	var (
		deployments []*types.Deployment
		err         error
	)
	if workspace != "" {
		deployments, err = s.ledger.ListByWorkspace(ctx, workspace, limit)
	} else {
		deployments, err = s.ledger.List(ctx, limit)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "history query failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	entries := make([]map[string]interface{}, 0, len(deployments))
	for _, d := range deployments {
		entry := map[string]interface{}{
			"id":          d.ID,
			"workspace":   d.Workspace,
			"operation":   string(d.Operation),
			"status":      string(d.Status),
			"started_at":  d.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			"duration_ms": d.Duration().Milliseconds(),
		}
		if d.Image != "" {
			entry["image"] = d.Image
		}
		if d.Error != "" {
			entry["error"] = d.Error
		}
		entries = append(entries, entry)
	}

	response := map[string]interface{}{
		"count":       len(entries),
		"deployments": entries,
	}
	if workspace != "" {
		response["workspace"] = workspace
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// sourceList flattens sources for the response payload
func sourceList(sources []inkeep.Source) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(sources))
	for _, src := range sources {
		out = append(out, map[string]interface{}{
			"title": src.Title,
			"url":   src.URL,
		})
	}
	return out
}

// MCPError represents a structured MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

// Error implements the error interface
func (e *MCPError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// newMCPError creates a structured MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// getIntDefault extracts an int parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// formatJSON formats a response map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// IsMCPError reports whether err is a structured MCP error
func IsMCPError(err error) bool {
	var mcpErr *MCPError
	return errors.As(err, &mcpErr)
}
