package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

type GeminiOptions struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Gemini calls the generateContent REST endpoint.
type Gemini struct {
	opts   GeminiOptions
	client *http.Client
}

func NewGemini(opts GeminiOptions, client *http.Client) *Gemini {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if opts.Model == "" {
		opts.Model = "gemini-1.5-flash"
	}
	if client == nil {
		client = http.DefaultClient
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Gemini{opts: opts, client: client}
}

func (g *Gemini) Name() string { return BackendGemini }

// GeminiRequest represents a request to the Gemini API
type GeminiRequest struct {
	SystemInstruction *GeminiContent         `json:"systemInstruction,omitempty"`
	Contents          []GeminiContent        `json:"contents"`
	GenerationConfig  GeminiGenerationConfig `json:"generationConfig"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text"`
}

type GeminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

func (g *Gemini) Generate(ctx context.Context, p Prompt) (string, error) {
	reqBody := GeminiRequest{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: p.User}}},
		},
		GenerationConfig: GeminiGenerationConfig{
			Temperature:      defaultTemperature,
			MaxOutputTokens:  defaultMaxTokens,
			ResponseMimeType: "application/json",
		},
	}
	if p.System != "" {
		reqBody.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: p.System}}}
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.opts.BaseURL, g.opts.Model, url.QueryEscape(g.opts.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return "", fmt.Errorf("failed to send request: %w", uerr.Err)
		}
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{Backend: BackendGemini, StatusCode: resp.StatusCode, Body: string(body)}
	}

	text := gjson.GetBytes(body, "candidates.0.content.parts.0.text").String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
