package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)

// ChatOptions configures an OpenAI-compatible chat completions backend.
type ChatOptions struct {
	Name     string
	BaseURL  string
	APIKey   string
	Model    string
	Referer  string
	JSONMode bool
}

var chatDefaults = map[string]ChatOptions{
	BackendOpenRouter: {Name: BackendOpenRouter, BaseURL: "https://openrouter.ai/api/v1", Model: "x-ai/grok-2-1212"},
	BackendXAI:        {Name: BackendXAI, BaseURL: "https://api.x.ai/v1", Model: "grok-2-latest"},
	BackendOpenAI:     {Name: BackendOpenAI, BaseURL: "https://api.openai.com/v1", Model: "gpt-4o", JSONMode: true},
}

// ChatCompletions talks to any /chat/completions endpoint: OpenRouter, xAI
// and OpenAI-compatible proxies.
type ChatCompletions struct {
	opts   ChatOptions
	client *http.Client
}

func NewChatCompletions(opts ChatOptions, client *http.Client) *ChatCompletions {
	if client == nil {
		client = http.DefaultClient
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &ChatCompletions{opts: opts, client: client}
}

func (c *ChatCompletions) Name() string { return c.opts.Name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

func (c *ChatCompletions) Generate(ctx context.Context, p Prompt) (string, error) {
	reqBody := chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	if c.opts.JSONMode {
		reqBody.ResponseFormat = map[string]string{"type": "json_object"}
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	if c.opts.Referer != "" {
		req.Header.Set("HTTP-Referer", c.opts.Referer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{Backend: c.opts.Name, StatusCode: resp.StatusCode, Body: string(body)}
	}

	content := gjson.GetBytes(body, "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
