package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/logging"
	"github.com/tarotlab/tarot-engine/pkg/mcp/tools"
	"github.com/tarotlab/tarot-engine/pkg/models"
	"github.com/tarotlab/tarot-engine/pkg/repositories"
)

const (
	auditRecordTimeout = 5 * time.Second
	maxPreviewLength   = 200
)

var sensitiveParamKeywords = []string{"password", "secret", "token", "api_key", "apikey", "credential"}

// AuditLogger records MCP tool calls to the event log asynchronously.
type AuditLogger struct {
	events repositories.EventRepository
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
	// pending lets tests and shutdown wait for in-flight writes.
	pending sync.WaitGroup
}

// NewAuditLogger creates an AuditLogger that records MCP events.
func NewAuditLogger(events repositories.EventRepository, logger *zap.Logger) *AuditLogger {
	return &AuditLogger{
		events: events,
		logger: logger.Named("mcp-audit"),
	}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

// Wait blocks until every queued audit event has been written.
func (a *AuditLogger) Wait() {
	a.pending.Wait()
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *AuditLogger) afterCallTool(_ context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	props := a.baseProperties(id, req)
	props["successful"] = result != nil && !result.IsError
	for k, v := range summarizeResult(result) {
		props[k] = v
	}
	a.enqueue(models.EventMCPToolCall, userIDFrom(req), props)
}

func (a *AuditLogger) onError(_ context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	props := a.baseProperties(id, req)
	props["successful"] = false
	props["error"] = logging.SanitizeError(err)
	a.enqueue(models.EventMCPToolError, userIDFrom(req), props)
}

func (a *AuditLogger) baseProperties(id any, req *mcplib.CallToolRequest) map[string]any {
	start, _ := a.loadAndDeleteStart(id)
	props := map[string]any{
		"tool":        req.Params.Name,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if params := sanitizeParams(req.Params.Arguments); params != nil {
		props["params"] = params
	}
	return props
}

func (a *AuditLogger) loadAndDeleteStart(id any) (time.Time, bool) {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time), true
	}
	return time.Now(), false
}

func (a *AuditLogger) enqueue(name string, userID *string, props map[string]any) {
	if a.events == nil {
		return
	}
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		a.record(name, userID, props)
	}()
}

// record writes one audit event with its own deadline so a cancelled MCP
// request does not drop it.
func (a *AuditLogger) record(name string, userID *string, props map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), auditRecordTimeout)
	defer cancel()

	if err := a.events.Record(ctx, &models.Event{
		UserID:     userID,
		Name:       name,
		Properties: props,
	}); err != nil {
		a.logger.Error("Failed to record MCP audit event",
			zap.String("event", name),
			zap.Any("tool", props["tool"]),
			zap.Error(err))
	}
}

func userIDFrom(req *mcplib.CallToolRequest) *string {
	if uid, ok := req.GetArguments()["user_id"].(string); ok && strings.TrimSpace(uid) != "" {
		uid = strings.TrimSpace(uid)
		return &uid
	}
	return nil
}

// sanitizeParams prepares tool arguments for the event log. Questions are
// shortened, secret-looking values hashed and long strings truncated.
func sanitizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}

	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		sanitized[k] = sanitizeValue(k, v)
	}
	return sanitized
}

func sanitizeValue(key string, value any) any {
	if isSensitiveParam(key) {
		return hashSensitiveValue(value)
	}

	switch val := value.(type) {
	case string:
		if strings.EqualFold(key, "question") {
			return logging.SanitizeQuestion(val)
		}
		return logging.TruncateString(val, maxPreviewLength)
	case map[string]any:
		return sanitizeParams(val)
	default:
		return value
	}
}

func isSensitiveParam(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range sensitiveParamKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// hashSensitiveValue returns a SHA-256 hash prefix for sensitive values,
// allowing correlation across audit entries without storing the actual value.
func hashSensitiveValue(value any) string {
	str, ok := value.(string)
	if !ok {
		str = fmt.Sprintf("%v", value)
	}
	hash := sha256.Sum256([]byte(str))
	return "sha256:" + hex.EncodeToString(hash[:8])
}

// summarizeResult creates a compact summary of the tool result: the error
// code for failed calls, otherwise a short preview of the text content.
func summarizeResult(result *mcplib.CallToolResult) map[string]any {
	if result == nil {
		return nil
	}

	summary := map[string]any{
		"is_error": result.IsError,
	}
	for _, c := range result.Content {
		tc, ok := c.(mcplib.TextContent)
		if !ok {
			continue
		}
		if result.IsError {
			summary["error_code"] = errorCodeFromText(tc.Text)
		} else {
			summary["preview"] = logging.TruncateString(tc.Text, maxPreviewLength)
		}
		break
	}
	return summary
}

func errorCodeFromText(text string) string {
	var resp tools.ErrorResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil || resp.Code == "" {
		return "unknown"
	}
	return resp.Code
}
