package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/mcp"
)

func newMCPMux(t *testing.T) *http.ServeMux {
	t.Helper()
	s := mcp.NewServer("tarot-engine", "test", nil, zap.NewNop())
	s.RegisterTool(mcplib.NewTool("echo", mcplib.WithDescription("echo")),
		func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
			return mcplib.NewToolResultText(req.GetString("text", "")), nil
		})

	mux := http.NewServeMux()
	NewMCPHandler(s, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestMCPHandler_RejectsNonPOST(t *testing.T) {
	mux := newMCPMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Allow"))
	assert.Equal(t, "method_not_allowed", errorCode(t, rec))
}

func TestMCPHandler_ToolCall(t *testing.T) {
	mux := newMCPMux(t)

	body := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"echo","arguments":{"text":"the tower"}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		ID     int `json:"id"`
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.ID)
	require.Len(t, resp.Result.Content, 1)
	assert.Equal(t, "the tower", resp.Result.Content[0].Text)
}
