package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"DeskChat/internal/config"
	"DeskChat/internal/session"
)

const defaultBaseURL = "https://api.openai.com/v1"

const titleMaxTokens = 20

// ErrNoAPIKey means no credential is configured; sending is blocked
// until one is set, but browsing and exporting stay available.
var ErrNoAPIKey = errors.New("no API key configured")

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     func() string
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
}

// NewClient builds a client reading its credential through apiKey on
// every call, so a key set at runtime takes effect immediately.
func NewClient(logger *slog.Logger, tracer trace.Tracer, meter metric.Meter) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     config.APIKey,
		logger:     logger,
		tracer:     tracer,
		meter:      meter,
	}
}

// Ready reports whether a credential is configured.
func (c *Client) Ready() bool { return c.apiKey() != "" }

// Complete submits the full message history under the given model and
// returns the assistant reply.
func (c *Client) Complete(ctx context.Context, model string, messages []session.Message) (string, error) {
	reqMessages := make([]ChatMessage, len(messages))
	for i, m := range messages {
		reqMessages[i] = ChatMessage{Role: m.Role, Content: m.Content}
	}
	return c.call(ctx, "chat_completion", ChatRequest{
		Model:    model,
		Messages: reqMessages,
	})
}

// CompleteTitle asks for a short title with the given system
// instruction. Intended for the title fallback chain; failures here are
// absorbed by the caller.
func (c *Client) CompleteTitle(ctx context.Context, model string, temperature float64, system, prompt string) (string, error) {
	return c.call(ctx, "title_completion", ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: session.RoleUser, Content: prompt},
		},
		MaxTokens:   titleMaxTokens,
		Temperature: temperature,
	})
}

func (c *Client) call(ctx context.Context, spanName string, reqBody ChatRequest) (string, error) {
	ctx, span := c.tracer.Start(ctx, spanName)
	defer span.End()

	start := time.Now()

	apiKey := c.apiKey()
	if apiKey == "" {
		return "", ErrNoAPIKey
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	var apiResp ChatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	duration := time.Since(start)
	histogram, err := c.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err == nil {
		histogram.Record(ctx, float64(duration.Milliseconds()))
	}

	c.recordUsage(ctx, apiResp.Usage)

	if len(apiResp.Choices) > 0 {
		return apiResp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("empty response from model %s", reqBody.Model)
}

// recordUsage turns the usage block of a response into counters.
func (c *Client) recordUsage(ctx context.Context, usage map[string]interface{}) {
	for key, value := range usage {
		intVal, ok := value.(float64)
		if !ok {
			continue
		}
		counter, err := c.meter.Int64Counter(
			fmt.Sprintf("llm.usage.%s", key),
			metric.WithDescription(fmt.Sprintf("LLM usage metric: %s", key)),
		)
		if err != nil {
			c.logger.Warn("failed to create counter", "key", key, "error", err)
			continue
		}
		counter.Add(ctx, int64(intVal))
	}
}
