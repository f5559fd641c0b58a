package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docschat/docschat/internal/history"
	"github.com/docschat/docschat/internal/inkeep"
	"github.com/docschat/docschat/pkg/types"
)

// docsBackend fakes the Inkeep API for handler tests.
func docsBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := map[string]any{
			"model": req.Model,
			"choices": []map[string]any{
				{
					"message": map[string]any{
						"content": "Set min_instance_count in the workspace tfvars file.",
						"links": []map[string]any{
							{"title": "Scaling", "url": "https://docs.example.com/scaling"},
						},
					},
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	backend := docsBackend(t)
	t.Cleanup(backend.Close)

	docs, err := inkeep.NewClient("test-key", inkeep.WithBaseURL(backend.URL))
	require.NoError(t, err)

	ledger, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	srv, err := NewServer(docs, ledger)
	require.NoError(t, err)
	return srv
}

func toolRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func TestNewServerRequiresDocsClient(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestHandleAskDocs(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleAskDocs(context.Background(), toolRequest(map[string]interface{}{
		"question": "how do I scale the service?",
	}))
	require.NoError(t, err)

	payload := resultText(t, result)
	assert.Equal(t, "Set min_instance_count in the workspace tfvars file.", payload["answer"])

	sources, ok := payload["sources"].([]interface{})
	require.True(t, ok)
	require.Len(t, sources, 1)
}

func TestHandleAskDocsMissingQuestion(t *testing.T) {
	srv := newTestServer(t)

	_, err := srv.handleAskDocs(context.Background(), toolRequest(map[string]interface{}{}))
	require.Error(t, err)
	assert.True(t, IsMCPError(err))

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeEmptyQuestion, mcpErr.Code)
}

func TestHandleAskDocsMaxSourcesOutOfRange(t *testing.T) {
	srv := newTestServer(t)

	_, err := srv.handleAskDocs(context.Background(), toolRequest(map[string]interface{}{
		"question":    "how do I scale the service?",
		"max_sources": float64(50),
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleSearchDocs(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleSearchDocs(context.Background(), toolRequest(map[string]interface{}{
		"query": "scaling",
		"limit": float64(5),
	}))
	require.NoError(t, err)

	payload := resultText(t, result)
	assert.Equal(t, float64(1), payload["count"])
	assert.Equal(t, "scaling", payload["query"])
}

func TestHandleSearchDocsLimitOutOfRange(t *testing.T) {
	srv := newTestServer(t)

	_, err := srv.handleSearchDocs(context.Background(), toolRequest(map[string]interface{}{
		"query": "scaling",
		"limit": float64(500),
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleDeploymentStatus(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	d := &types.Deployment{
		Workspace: "staging",
		Operation: types.OpApply,
		Image:     "us-docker.pkg.dev/proj/mcp/docschat:v1",
	}
	require.NoError(t, srv.ledger.Begin(ctx, d))
	require.NoError(t, srv.ledger.Finish(ctx, d.ID, types.StatusSucceeded, ""))

	result, err := srv.handleDeploymentStatus(ctx, toolRequest(map[string]interface{}{
		"workspace": "staging",
	}))
	require.NoError(t, err)

	payload := resultText(t, result)
	assert.Equal(t, float64(1), payload["count"])
	assert.Equal(t, "staging", payload["workspace"])

	entries, ok := payload["deployments"].([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 1)

	entry, ok := entries[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "apply", entry["operation"])
	assert.Equal(t, "succeeded", entry["status"])
	assert.Equal(t, "us-docker.pkg.dev/proj/mcp/docschat:v1", entry["image"])
}

func TestHandleDeploymentStatusNoLedger(t *testing.T) {
	backend := docsBackend(t)
	defer backend.Close()

	docs, err := inkeep.NewClient("test-key", inkeep.WithBaseURL(backend.URL))
	require.NoError(t, err)

	srv, err := NewServer(docs, nil)
	require.NoError(t, err)

	_, err = srv.handleDeploymentStatus(context.Background(), toolRequest(nil))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeNoHistory, mcpErr.Code)
}

func TestServeStopsOnContextCancel(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	in, _ := io.Pipe()
	var out bytes.Buffer

	done := make(chan error, 1)
	go func() {
		done <- srv.serve(ctx, in, &out)
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after context cancellation")
	}
}

func TestGetIntDefault(t *testing.T) {
	args := map[string]interface{}{
		"float": float64(7),
		"int":   3,
	}
	assert.Equal(t, 7, getIntDefault(args, "float", 1))
	assert.Equal(t, 3, getIntDefault(args, "int", 1))
	assert.Equal(t, 1, getIntDefault(args, "missing", 1))
}
