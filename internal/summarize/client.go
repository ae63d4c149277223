// Package summarize provides the chat-completion summarization adapter.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pagelens/pagelens/internal/domain"
	"github.com/pagelens/pagelens/internal/observability"
)

const systemPrompt = "Summarize the following text concisely, in the language it is written in."

// Client handles communication with a chat-completion API.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	retry      RetryConfig
	logger     *observability.Logger
}

// Options configures the summarization client.
type Options struct {
	Endpoint   string
	Model      string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents the API request structure.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Response represents the API response structure.
type Response struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates a new summarization client.
func NewClient(opts Options, logger *observability.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	retry := DefaultRetryConfig()
	if opts.MaxRetries > 0 {
		retry.MaxRetries = opts.MaxRetries
	}

	return &Client{
		endpoint:   opts.Endpoint,
		model:      opts.Model,
		apiKey:     opts.APIKey,
		httpClient: httpClient,
		retry:      retry,
		logger:     logger,
	}
}

// Summarize sends extracted text to the chat-completion endpoint and returns
// the generated summary. Empty input short-circuits without an API call.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	body, err := json.Marshal(Request{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", domain.SummarizationError("marshal request", err)
	}

	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", domain.SummarizationError("send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", domain.SummarizationError(
			fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domain.SummarizationError("decode response", err)
	}
	if len(out.Choices) == 0 {
		return "", domain.SummarizationError("API returned no choices", nil)
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Ping performs a minimal request to verify the endpoint is reachable and
// credentials are accepted. Used by the health handler.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader("{}"))
	if err != nil {
		return domain.SummarizationError("build ping request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SummarizationError("ping failed", err)
	}
	defer resp.Body.Close()

	// Any response from the upstream means it is reachable; the empty body
	// is expected to be rejected with a 4xx.
	if resp.StatusCode >= http.StatusInternalServerError {
		return domain.SummarizationError(fmt.Sprintf("upstream returned status %d", resp.StatusCode), nil)
	}
	return nil
}
