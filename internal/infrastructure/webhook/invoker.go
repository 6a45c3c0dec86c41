// Package webhook forwards validated tool calls to the workflow webhooks.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/FreePeak/reservation-mcp/internal/domain"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/logging"
	"github.com/FreePeak/reservation-mcp/internal/infrastructure/metrics"
)

// Header names sent with every webhook request.
const (
	HeaderFromMCP = "x-from-mcp"
	HeaderSecret  = "x-mcp-secret"
)

const (
	// DefaultTimeout bounds a single webhook round trip.
	DefaultTimeout = 30 * time.Second
	// maxBodySize caps how much of an upstream body is read.
	maxBodySize = 1 << 20
	// maxRetryCount caps configured retries.
	maxRetryCount = 10
)

// Config holds the settings of an Invoker.
type Config struct {
	BaseURL        string
	Secret         string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	HTTPClient     *http.Client
	Logger         *logging.Logger
	Metrics        *metrics.Metrics
}

// Invoker performs the outbound POST of a tool call.
type Invoker struct {
	baseURL    string
	secret     string
	maxRetries int
	retryDelay time.Duration
	client     *http.Client
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// New creates an Invoker. A zero Timeout disables the per-request deadline.
func New(cfg Config) *Invoker {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	if retries > maxRetryCount {
		logger.Warn("Webhook retry count capped", logging.Fields{"requested": retries, "max": maxRetryCount})
		retries = maxRetryCount
	}

	delay := cfg.RetryBaseDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	return &Invoker{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		secret:     cfg.Secret,
		maxRetries: retries,
		retryDelay: delay,
		client:     client,
		logger:     logger.Named("webhook"),
		metrics:    cfg.Metrics,
	}
}

// Invoke calls the tool's webhook and converts the outcome into a result.
// It never returns a protocol level failure.
func (i *Invoker) Invoke(ctx context.Context, tool domain.ToolDefinition, arguments map[string]interface{}) domain.ToolInvocationResult {
	payload, err := i.Call(ctx, tool, arguments)
	if err != nil {
		return resultFor(tool.Name, err)
	}

	text, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return resultFor(tool.Name, domain.NewUpstreamDecodeError(tool.Name, err))
	}
	return domain.NewSuccessResult(payload, string(text))
}

// Call posts the arguments to the tool's webhook and returns the decoded
// response body. Errors are *domain.Error or *domain.UpstreamError.
func (i *Invoker) Call(ctx context.Context, tool domain.ToolDefinition, arguments map[string]interface{}) (interface{}, error) {
	if i.baseURL == "" {
		return nil, domain.NewConfigurationError("N8N_BASE_URL environment variable is not set")
	}

	if arguments == nil {
		arguments = map[string]interface{}{}
	}
	body, err := json.Marshal(arguments)
	if err != nil {
		return nil, domain.NewInternalError(tool.Name, fmt.Errorf("failed to encode arguments: %w", err))
	}

	url := i.baseURL + tool.TargetPath
	logger := i.logger.With(logging.Fields{"tool": tool.Name, "url": url})

	attempt := 0
	operation := func() (interface{}, error) {
		attempt++
		payload, err := i.post(ctx, tool.Name, url, body)
		if err == nil {
			return payload, nil
		}
		logger.Warn("Webhook call failed", logging.Fields{
			"attempt": attempt,
			"error":   err,
		})
		if !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = i.retryDelay
	expBackoff.MaxInterval = 20 * i.retryDelay
	expBackoff.Reset()

	payload, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(uint(i.maxRetries+1)), // #nosec G115 -- bounded by maxRetryCount
		backoff.WithNotify(func(_ error, d time.Duration) {
			logger.Debug("Retrying webhook call", logging.Fields{"delay": d})
		}),
	)
	if err != nil {
		var de *domain.Error
		var ue *domain.UpstreamError
		if !errors.As(err, &de) && !errors.As(err, &ue) {
			err = domain.NewNetworkError(tool.Name, err)
		}
		return nil, err
	}

	logger.Debug("Webhook call succeeded", logging.Fields{"attempts": attempt})
	return payload, nil
}

func (i *Invoker) post(ctx context.Context, toolName, url string, body []byte) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewNetworkError(toolName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderFromMCP, "true")
	if i.secret != "" {
		req.Header.Set(HeaderSecret, i.secret)
	}

	start := time.Now()
	resp, err := i.client.Do(req)
	if err != nil {
		i.metrics.ObserveWebhook(toolName, 0, time.Since(start))
		return nil, domain.NewNetworkError(toolName, err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	i.metrics.ObserveWebhook(toolName, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstream := &domain.UpstreamError{Status: resp.StatusCode}
		if readErr == nil {
			upstream.Body = strings.TrimSpace(string(data))
		}
		return nil, upstream
	}
	if readErr != nil {
		return nil, domain.NewNetworkError(toolName, readErr)
	}

	var payload interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, domain.NewUpstreamDecodeError(toolName, err)
	}
	return payload, nil
}

func retryable(err error) bool {
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return ue.Status >= 500
	}
	return domain.KindOf(err) == domain.KindNetwork
}

func resultFor(toolName string, err error) domain.ToolInvocationResult {
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		result := domain.NewErrorResult(fmt.Sprintf("Error calling %s: %s", toolName, ue.Error()))
		result.Kind = domain.KindUpstream
		return result
	}
	return domain.ResultFromError(err)
}
