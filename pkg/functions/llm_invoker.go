package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/jsonutil"
	"github.com/tarotlab/tarot-engine/pkg/llm"
)

// DefaultTemperature is used when a request leaves Temperature unset.
const DefaultTemperature = 0.7

// LLMInvoker serves generate-interpretation in-process with an LLM client,
// so the gateway talks to a direct provider and a hosted function the same way.
type LLMInvoker struct {
	client llm.LLMClient
	logger *zap.Logger
}

func NewLLMInvoker(client llm.LLMClient, logger *zap.Logger) *LLMInvoker {
	return &LLMInvoker{
		client: client,
		logger: logger.Named("functions.llm"),
	}
}

// Invoke accepts a GenerateRequest (value or pointer). Provider errors are
// returned as errors so their retry classification survives; unknown
// functions and bad bodies come back as Response.Error.
func (i *LLMInvoker) Invoke(ctx context.Context, functionName string, body any) (*Response, error) {
	if functionName != GenerateInterpretation {
		return &Response{Error: &FunctionError{
			Code:    CodeNotFound,
			Message: fmt.Sprintf("function %q not found", functionName),
			Status:  404,
		}}, nil
	}

	var req GenerateRequest
	switch b := body.(type) {
	case GenerateRequest:
		req = b
	case *GenerateRequest:
		if b != nil {
			req = *b
		}
	default:
		return &Response{Error: &FunctionError{Code: CodeInvalidInput, Message: fmt.Sprintf("unexpected body type %T", body), Status: 400}}, nil
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return &Response{Error: &FunctionError{Code: CodeInvalidInput, Message: "prompt is required", Status: 400}}, nil
	}

	temperature := req.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	result, err := i.client.GenerateResponse(ctx, req.Prompt, req.SystemMessage, temperature)
	if err != nil {
		return nil, err
	}

	text := ParseInterpretation(result.Content)
	if text == "" {
		return &Response{Error: &FunctionError{Code: CodeEmptyOutput, Message: "model returned no interpretation", Status: 502}}, nil
	}

	id := uuid.New().String()
	i.logger.Debug("Generated interpretation",
		zap.String("interpretation_id", id),
		zap.String("model", i.client.GetModel()),
		zap.Int("total_tokens", result.TotalTokens),
		zap.Int("reasoning_chars", len(llm.ExtractThinking(result.Content))))

	return &Response{Data: &InterpretationData{
		Interpretation:   text,
		InterpretationID: id,
	}}, nil
}

type interpretationPayload struct {
	Interpretation json.RawMessage `json:"interpretation"`
}

// ParseInterpretation returns the "interpretation" field when the model
// answered with JSON, and the cleaned raw text otherwise. A JSON answer
// without the field yields "".
func ParseInterpretation(content string) string {
	cleaned := strings.TrimSpace(stripCodeFence(llm.StripThinking(content)))
	if payload, err := llm.ParseJSONResponse[interpretationPayload](cleaned); err == nil {
		if text := strings.TrimSpace(jsonutil.FlexibleText(payload.Interpretation)); text != "" {
			return text
		}
		if strings.HasPrefix(cleaned, "{") {
			return ""
		}
	}
	return cleaned
}

// stripCodeFence removes a surrounding ``` fence from non-JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

var (
	_ Invoker = (*HTTPClient)(nil)
	_ Invoker = (*LLMInvoker)(nil)
)
