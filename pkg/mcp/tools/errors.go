package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tarotlab/tarot-engine/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// Actionable errors are returned as tool results rather than protocol
// errors so the calling agent sees the code and can correct its input.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for recoverable errors the agent can act on (unknown spread,
// bad topic, premium required).
//
// Do NOT use this for system failures (database connection errors,
// internal server errors) - those should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context,
// for example the list of valid spread ids.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

var actionableErrors = []struct {
	target error
	code   string
}{
	{apperrors.ErrSpreadNotFound, "spread_not_found"},
	{apperrors.ErrCardNotFound, "card_not_found"},
	{apperrors.ErrNotFound, "not_found"},
	{apperrors.ErrInvalidTopic, "invalid_topic"},
	{apperrors.ErrInvalidQuestion, "invalid_question"},
	{apperrors.ErrInvalidDate, "invalid_date"},
	{apperrors.ErrPremiumRequired, "premium_required"},
}

// ServiceErrorCode returns the tool error code for an actionable service
// error, or "" when err is a system failure.
func ServiceErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, a := range actionableErrors {
		if errors.Is(err, a.target) {
			return a.code
		}
	}
	return ""
}

// serviceErrorResult converts err into an error tool result when it is
// actionable and otherwise passes it through as a Go error.
func serviceErrorResult(err error) (*mcp.CallToolResult, error) {
	if code := ServiceErrorCode(err); code != "" {
		return NewErrorResult(code, err.Error()), nil
	}
	return nil, err
}
