package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/protocol"
)

const defaultTimeoutSeconds = 30

var (
	ErrURLMissing  = errors.New("missing or invalid 'url' in configuration")
	ErrServerError = errors.New("server error during HTTP request")
)

// Action performs an HTTP request with optional headers, body and retries.
type Action struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	Timeout time.Duration
	Retry   RetryConfig
}

// RetryConfig covers transport errors and 5xx responses. This is an action
// concern; the runtime itself never retries steps.
type RetryConfig struct {
	Attempts     int
	DelaySeconds int
}

func NewAction(config map[string]any) (*Action, error) {
	url, ok := config["url"].(string)
	if !ok || url == "" {
		return nil, ErrURLMissing
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	body, _ := config["body"].(string)

	headers := make(map[string]string)

	if headersConfig, exists := config["headers"].(map[string]any); exists {
		for key, value := range headersConfig {
			if strValue, ok := value.(string); ok {
				headers[key] = strValue
			}
		}
	}

	timeout := defaultTimeoutSeconds * time.Second
	if seconds, ok := config["timeoutSeconds"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}

	retry := RetryConfig{Attempts: 1}
	if retryConfig, exists := config["retry"].(map[string]any); exists {
		if attempts, ok := retryConfig["attempts"].(float64); ok && attempts > 0 {
			retry.Attempts = int(attempts)
		}

		if delay, ok := retryConfig["delaySeconds"].(float64); ok && delay > 0 {
			retry.DelaySeconds = int(delay)
		}
	}

	return &Action{
		Method:  strings.ToUpper(method),
		URL:     url,
		Headers: headers,
		Body:    body,
		Timeout: timeout,
		Retry:   retry,
	}, nil
}

func (a *Action) Execute(ctx context.Context, _ *models.ExecutionContext, logger *slog.Logger) (*protocol.ActionResult, error) {
	logger.InfoContext(ctx, "Executing HTTP request", "method", a.Method, "url", a.URL)

	var (
		lastErr error
		resp    *http.Response
	)

	client := &http.Client{Timeout: a.Timeout}

	for attempt := 1; attempt <= a.Retry.Attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, "Retrying HTTP request", "attempt", attempt, "max_attempts", a.Retry.Attempts)
			time.Sleep(time.Duration(a.Retry.DelaySeconds) * time.Second)
		}

		req, err := http.NewRequestWithContext(ctx, a.Method, a.URL, strings.NewReader(a.Body))
		if err != nil {
			return nil, fmt.Errorf("failed to create http request: %w", err)
		}

		for key, value := range a.Headers {
			req.Header.Set(key, value)
		}

		resp, err = client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request failed: %w", err)

			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError && attempt < a.Retry.Attempts {
			if err := resp.Body.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close response body", "error", err)
			}

			lastErr = fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)

			continue
		}

		break
	}

	if resp == nil {
		return nil, fmt.Errorf("all retry attempts failed, last error: %w", lastErr)
	}

	return a.processResponse(ctx, resp, logger)
}

func (a *Action) processResponse(ctx context.Context, resp *http.Response, logger *slog.Logger) (*protocol.ActionResult, error) {
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var body any

	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		body = string(bodyBytes)
	}

	logger.InfoContext(ctx, "HTTP request completed", "status_code", resp.StatusCode, "body_length", len(bodyBytes))

	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return &protocol.ActionResult{
		Success: resp.StatusCode < http.StatusBadRequest,
		Error:   errorForStatus(resp.StatusCode),
		Data: map[string]any{
			"statusCode": resp.StatusCode,
			"body":       body,
			"headers":    headers,
		},
	}, nil
}

func errorForStatus(statusCode int) string {
	if statusCode < http.StatusBadRequest {
		return ""
	}

	return fmt.Sprintf("http request returned status %d", statusCode)
}
