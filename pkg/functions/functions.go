// Package functions is the boundary to the remote text-generation function.
// An Invoker either calls a hosted function over HTTP or serves the function
// in-process with an llm.LLMClient.
package functions

import (
	"context"
	"fmt"
	"net/http"
)

// GenerateInterpretation is the function that turns a reading prompt into text.
const GenerateInterpretation = "generate-interpretation"

// Invoker calls a named function with a JSON-serializable body.
//
// A returned error means the call did not complete (transport, encoding).
// A completed call that the function rejected is reported through
// Response.Error instead.
type Invoker interface {
	Invoke(ctx context.Context, functionName string, body any) (*Response, error)
}

// GenerateRequest is the body of a generate-interpretation call.
type GenerateRequest struct {
	Prompt        string  `json:"prompt"`
	SystemMessage string  `json:"systemMessage,omitempty"`
	Topic         string  `json:"topic,omitempty"`
	SpreadType    string  `json:"spreadType,omitempty"`
	Temperature   float64 `json:"temperature,omitempty"`
}

// Response is what a function returns: data on success, error otherwise.
type Response struct {
	Data  *InterpretationData `json:"data,omitempty"`
	Error *FunctionError      `json:"error,omitempty"`
}

// InterpretationData is the payload of a successful generate-interpretation call.
type InterpretationData struct {
	Interpretation   string `json:"interpretation"`
	InterpretationID string `json:"interpretationId,omitempty"`
}

// FunctionError is a failure reported by the function itself.
type FunctionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

func (e *FunctionError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("function error %s (status %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("function error %s: %s", e.Code, e.Message)
}

// IsRetryable reports whether calling again could succeed. Bad input, auth
// and unknown functions cannot.
func (e *FunctionError) IsRetryable() bool {
	switch e.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusUnprocessableEntity:
		return false
	}
	switch e.Code {
	case CodeInvalidInput, CodeUnauthorized, CodeNotFound:
		return false
	}
	return true
}

// Error codes used by this package's invokers.
const (
	CodeInvalidInput = "invalid_input"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeUpstream     = "upstream_error"
	CodeEmptyOutput  = "empty_output"
	CodeHTTP         = "http_error"
)

// Text returns the interpretation text, or the function error, from a
// completed call.
func (r *Response) Text() (*InterpretationData, error) {
	if r == nil {
		return nil, &FunctionError{Code: CodeEmptyOutput, Message: "no response"}
	}
	if r.Error != nil {
		return nil, r.Error
	}
	if r.Data == nil || r.Data.Interpretation == "" {
		return nil, &FunctionError{Code: CodeEmptyOutput, Message: "response has no interpretation"}
	}
	return r.Data, nil
}
