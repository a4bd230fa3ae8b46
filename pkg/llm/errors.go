package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrorType classifies remote generation failures.
type ErrorType string

const (
	ErrorTypeAuth         ErrorType = "auth"
	ErrorTypeModel        ErrorType = "model"
	ErrorTypeEndpoint     ErrorType = "endpoint"
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	ErrorTypeRateLimited  ErrorType = "rate_limited"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCanceled     ErrorType = "canceled"
	ErrorTypeServer       ErrorType = "server"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// Error is a classified provider error.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int    // HTTP status if known
	Model      string // model name if known
	Endpoint   string // endpoint URL if known
}

func (e *Error) Error() string {
	parts := []string{string(e.Type)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, "model="+e.Model)
	}
	if host := endpointHost(e.Endpoint); host != "" {
		parts = append(parts, "endpoint="+host)
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// endpointHost keeps only the host so paths and query keys never reach logs.
func endpointHost(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable satisfies retry.RetryableError without importing it.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a classified error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// NewErrorWithContext creates a classified error that also records where it happened.
func NewErrorWithContext(errType ErrorType, message string, retryable bool, cause error, model, endpoint string, statusCode int) *Error {
	return &Error{
		Type:       errType,
		Message:    message,
		Retryable:  retryable,
		Cause:      cause,
		Model:      model,
		Endpoint:   endpoint,
		StatusCode: statusCode,
	}
}

// statusPrefixes are the phrasings providers put in front of an HTTP status.
var statusPrefixes = []string{"http ", "status code: ", "status: ", "status ", "code: ", "code ", "error "}

// extractStatusCode finds an HTTP status in a provider error message. The
// number must follow a status-like prefix so "processed 503 records" is ignored.
func extractStatusCode(errStr string) int {
	lower := strings.ToLower(errStr)
	for _, prefix := range statusPrefixes {
		idx := 0
		for {
			i := strings.Index(lower[idx:], prefix)
			if i < 0 {
				break
			}
			start := idx + i + len(prefix)
			end := start
			for end < len(lower) && end-start < 4 && lower[end] >= '0' && lower[end] <= '9' {
				end++
			}
			if end-start == 3 {
				if code, err := strconv.Atoi(lower[start:end]); err == nil && code >= 100 && code < 600 {
					return code
				}
			}
			idx = start
		}
	}
	return 0
}

// ClassifyError maps a raw provider error to an *Error. Invalid input,
// authentication and not-found failures are terminal; everything else,
// including errors nobody recognizes, is worth another attempt.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	lower := strings.ToLower(err.Error())
	status := extractStatusCode(lower)

	classified := func(t ErrorType, msg string, retryable bool) *Error {
		e := NewError(t, msg, retryable, err)
		e.StatusCode = status
		return e
	}

	switch {
	case errors.Is(err, context.Canceled) || strings.Contains(lower, "context canceled"):
		return classified(ErrorTypeCanceled, "request cancelled", false)

	case status == 401 || status == 403 || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "invalid x-api-key") ||
		strings.Contains(lower, "permission denied"):
		return classified(ErrorTypeAuth, "authentication failed", false)

	case strings.Contains(lower, "model") && (strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")):
		return classified(ErrorTypeModel, "model not found", false)

	case status == 404 || strings.Contains(lower, "not found"):
		return classified(ErrorTypeEndpoint, "endpoint not found", false)

	case status == 400 || status == 413 || status == 422 ||
		strings.Contains(lower, "invalid request") || strings.Contains(lower, "invalid input") ||
		strings.Contains(lower, "invalid argument"):
		return classified(ErrorTypeInvalidInput, "invalid request", false)

	case status == 429 || strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "quota"):
		return classified(ErrorTypeRateLimited, "rate limited", true)

	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return classified(ErrorTypeTimeout, "request timeout", true)

	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "connection reset"):
		return classified(ErrorTypeEndpoint, "connection failed", true)

	case status >= 500 || strings.Contains(lower, "overloaded"):
		return classified(ErrorTypeServer, "server error", true)
	}

	return classified(ErrorTypeUnknown, "llm error", true)
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// GetErrorType extracts the ErrorType from err.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}
