package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/logging"
)

// DefaultTimeout caps a whole HTTP exchange. Per-attempt deadlines come
// from the caller's context and are normally shorter.
const DefaultTimeout = 60 * time.Second

// maxErrorBody bounds how much of an error body is read and logged.
const maxErrorBody = 4096

// HTTPClient invokes hosted functions at {baseURL}/functions/v1/{name}.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewHTTPClient creates a client for the function host at baseURL. apiKey is
// sent as a bearer token when set.
func NewHTTPClient(baseURL, apiKey string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger.Named("functions"),
	}
}

func (c *HTTPClient) Invoke(ctx context.Context, functionName string, body any) (*Response, error) {
	endpoint, err := buildURL(c.baseURL, "functions", "v1", functionName)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("Invoking function",
		zap.String("function", functionName),
		zap.Int("body_bytes", len(payload)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call function %s: %w", functionName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		fnErr := decodeFunctionError(raw, resp.StatusCode)
		c.logger.Warn("Function returned error",
			zap.String("function", functionName),
			zap.Int("status", resp.StatusCode),
			zap.String("code", fnErr.Code),
			zap.String("message", logging.TruncateString(fnErr.Message, 200)))
		return &Response{Error: fnErr}, nil
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != nil && out.Error.Status == 0 {
		out.Error.Status = resp.StatusCode
	}

	return &out, nil
}

// decodeFunctionError reads {"error": {...}} from a failed response and falls
// back to the raw body.
func decodeFunctionError(raw []byte, status int) *FunctionError {
	var envelope Response
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		envelope.Error.Status = status
		return envelope.Error
	}

	msg := string(bytes.TrimSpace(raw))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &FunctionError{Code: CodeHTTP, Message: msg, Status: status}
}

// buildURL parses base and appends path segments to its path.
func buildURL(baseURL string, pathSegments ...string) (string, error) {
	if baseURL == "" {
		return "", errors.New("base URL is empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	segments := append([]string{"/", u.Path}, pathSegments...)
	u.Path = path.Join(segments...)

	return u.String(), nil
}
