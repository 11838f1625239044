// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

// Package relay issues streaming chat-completion requests to an
// OpenRouter-compatible upstream and hands the live byte stream back to the
// caller untouched. The relay never parses the SSE framing and never retries;
// an upstream drop mid-stream simply truncates the client's stream.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultBaseURL is the default OpenRouter API endpoint
const DefaultBaseURL = "https://openrouter.ai/api/v1"

const (
	// DefaultTemperature is the default sampling temperature
	DefaultTemperature = 0.7

	// DefaultMaxTokens is the default completion token budget
	DefaultMaxTokens = 2048
)

// HTTPClient is an interface for HTTP client operations (enables testing)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChatMessage is one role/content pair in a conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options control per-request upstream behavior. Both are pro-tier features;
// callers are expected to clear them for free-tier entitlement.
type Options struct {
	WebSearch    bool
	ThinkingMode bool
	Temperature  float64
	MaxTokens    int
}

// Client relays chat completions to an OpenRouter-compatible upstream
type Client struct {
	apiKey  string
	baseURL string
	referer string
	title   string
	client  HTTPClient
}

// Config contains configuration for the relay client
type Config struct {
	APIKey  string // Required: upstream API key
	BaseURL string // Optional: API base URL (default: https://openrouter.ai/api/v1)
	Referer string // Optional: HTTP-Referer header (frontend origin)
	Title   string // Optional: X-Title header
}

// NewClient creates a new relay client
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Title == "" {
		cfg.Title = "ChatWindows"
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		referer: cfg.Referer,
		title:   cfg.Title,
		// No client timeout: stream lifetime is bounded by the transport
		// and by the caller's context, not by this client.
		client: &http.Client{},
	}, nil
}

// UpstreamError carries a non-success upstream status and body
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("openrouter API error: %d - %s", e.Status, e.Body)
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Plugins     []string      `json:"plugins,omitempty"`
}

// StreamChatCompletion issues a streaming completion request and returns the
// raw response body. The caller owns the returned stream and must close it.
func (c *Client) StreamChatCompletion(ctx context.Context, messages []ChatMessage, model string, opts Options) (io.ReadCloser, error) {
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	apiReq := chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Stream:      true,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if opts.WebSearch {
		apiReq.Plugins = []string{"web"}
	}

	reqBody, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	return resp.Body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	req.Header.Set("X-Title", c.title)
}
