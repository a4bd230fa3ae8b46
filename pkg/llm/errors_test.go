package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "minimal",
			err:  NewError(ErrorTypeUnknown, "llm error", true, nil),
			want: "unknown llm error",
		},
		{
			name: "with status and model",
			err:  NewErrorWithContext(ErrorTypeServer, "server error", true, nil, "gpt-4o-mini", "", 503),
			want: "server HTTP 503 model=gpt-4o-mini server error",
		},
		{
			name: "endpoint reduced to host",
			err:  NewErrorWithContext(ErrorTypeAuth, "authentication failed", false, nil, "", "https://api.example.com/v1?key=secret", 0),
			want: "auth endpoint=api.example.com authentication failed",
		},
		{
			name: "with cause",
			err:  NewError(ErrorTypeTimeout, "request timeout", true, errors.New("dial tcp: i/o timeout")),
			want: "timeout request timeout: dial tcp: i/o timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_UnwrapAndRetryable(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrorTypeServer, "server error", true, cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.IsRetryable())
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, ErrorTypeServer, GetErrorType(fmt.Errorf("wrapped: %w", err)))

	assert.False(t, IsRetryable(errors.New("plain")))
	assert.Equal(t, ErrorTypeUnknown, GetErrorType(errors.New("plain")))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		input     string
		wantType  ErrorType
		retryable bool
		status    int
	}{
		{"error, status code: 401, status: 401 Unauthorized, message: Incorrect API key", ErrorTypeAuth, false, 401},
		{"HTTP 403 permission denied", ErrorTypeAuth, false, 403},
		{"invalid x-api-key", ErrorTypeAuth, false, 0},
		{"The model `gpt-9` does not exist", ErrorTypeModel, false, 0},
		{"status 404: page not found", ErrorTypeEndpoint, false, 404},
		{"error, status code: 400, message: invalid request: messages must not be empty", ErrorTypeInvalidInput, false, 400},
		{"googleapi: Error 400: invalid argument", ErrorTypeInvalidInput, false, 400},
		{"status code: 413 payload too large", ErrorTypeInvalidInput, false, 413},
		{"error, status code: 429, message: Rate limit reached", ErrorTypeRateLimited, true, 429},
		{"googleapi: Error 429: Resource has been exhausted (e.g. check quota).", ErrorTypeRateLimited, true, 429},
		{"Post \"https://api.openai.com/v1/chat/completions\": context deadline exceeded", ErrorTypeTimeout, true, 0},
		{"dial tcp 127.0.0.1:8080: connect: connection refused", ErrorTypeEndpoint, true, 0},
		{"status code: 502 bad gateway", ErrorTypeServer, true, 502},
		{"anthropic: Overloaded", ErrorTypeServer, true, 0},
		{"something nobody expected", ErrorTypeUnknown, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ClassifyError(errors.New(tt.input))
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.retryable, got.Retryable)
			assert.Equal(t, tt.status, got.StatusCode)
		})
	}
}

func TestClassifyError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))
}

func TestClassifyError_PreservesExistingError(t *testing.T) {
	original := NewErrorWithContext(ErrorTypeAuth, "authentication failed", false, nil, "claude", "https://api.anthropic.com/v1", 401)

	got := ClassifyError(fmt.Errorf("enrich: %w", original))

	assert.Same(t, original, got)
}

func TestClassifyError_ContextCanceled(t *testing.T) {
	got := ClassifyError(fmt.Errorf("call provider: %w", context.Canceled))

	assert.Equal(t, ErrorTypeCanceled, got.Type)
	assert.False(t, got.Retryable)
	assert.Contains(t, got.Error(), "request cancelled")
}

func TestExtractStatusCode(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"HTTP 503 service unavailable", 503},
		{"status code: 429", 429},
		{"status: 500 internal", 500},
		{"code: 504 gateway timeout", 504},
		{"googleapi: Error 400: bad", 400},
		{"processed 503 records", 0},
		{"port 5432 refused", 0},
		{"status 5000", 0},
		{"status 099", 0},
		{"no numbers here", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extractStatusCode(tt.input), tt.input)
	}
}
