package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"faultbench/internal/logging"
)

// chat wire types for the OpenAI-compatible /chat/completions endpoint.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client calls one OpenAI-compatible chat endpoint.
type Client struct {
	httpc *resty.Client
	cfg   ProviderConfig
}

// NewClient builds a client for the given provider config. The API key is
// resolved from the environment once, at construction.
func NewClient(cfg ProviderConfig) (*Client, error) {
	key, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	httpc := resty.New()
	httpc.SetBaseURL(cfg.BaseURL)
	httpc.SetHeader("Authorization", fmt.Sprintf("Bearer %s", key))
	httpc.SetHeader("Content-Type", "application/json")
	httpc.SetTimeout(cfg.Timeout)
	httpc.SetRetryCount(cfg.Retries)
	httpc.SetRetryWaitTime(2 * time.Second)
	httpc.SetRetryMaxWaitTime(30 * time.Second)
	// Retry rate limits and transient server errors; client errors are final.
	httpc.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() == 429 || r.StatusCode() >= 500
	})

	return &Client{httpc: httpc, cfg: cfg}, nil
}

// Complete sends one system+user prompt pair and returns the raw assistant
// text. Truncated responses are returned as-is: the findings parser recovers
// what it can from cut-off JSON.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	logger := logging.New("llm")

	req := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
		MaxTokens:   c.cfg.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	var out chatResponse
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		// Some OpenAI-compatible proxies label JSON bodies text/plain;
		// decode the response as JSON regardless.
		ForceContentType("application/json").
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil {
			return "", fmt.Errorf("chat completion: %s (%s)", out.Error.Message, out.Error.Type)
		}
		return "", fmt.Errorf("chat completion: HTTP %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}

	choice := out.Choices[0]
	if choice.FinishReason == "length" {
		logger.Warn("response truncated at max_tokens",
			"model", c.cfg.Model, "max_tokens", c.cfg.MaxTokens)
	}
	return choice.Message.Content, nil
}
