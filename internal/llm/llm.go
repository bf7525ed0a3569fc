// Package llm wraps the hosted text-generation backends behind one interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/illegalcall/esgtracker/internal/config"
)

const (
	BackendOpenRouter = "openrouter"
	BackendXAI        = "xai"
	BackendOpenAI     = "openai"
	BackendGemini     = "gemini"
)

var (
	ErrNotConfigured  = errors.New("no text-generation backend configured")
	ErrUnknownBackend = errors.New("unknown text-generation backend")
	ErrEmptyResponse  = errors.New("empty response from backend")
)

// Prompt is a system instruction plus the user message.
type Prompt struct {
	System string
	User   string
}

// Backend turns a prompt into text. Implementations make exactly one call.
type Backend interface {
	Name() string
	Generate(ctx context.Context, p Prompt) (string, error)
}

// HTTPError is returned when a backend answers with a non-2xx status.
type HTTPError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Backend, e.StatusCode, e.Body)
}

// priority is the order used when no backend is named explicitly.
var priority = []string{BackendOpenRouter, BackendXAI, BackendOpenAI, BackendGemini}

// Resolve picks the backend name: the configured one, else the first backend
// with a credential. It returns "" when nothing is configured.
func Resolve(cfg config.LLMConfig) string {
	if cfg.Backend != "" {
		return cfg.Backend
	}
	for _, name := range priority {
		if apiKey(cfg, name) != "" {
			return name
		}
	}
	return ""
}

func apiKey(cfg config.LLMConfig, name string) string {
	switch name {
	case BackendOpenRouter:
		return cfg.OpenRouterAPIKey
	case BackendXAI:
		return cfg.XAIAPIKey
	case BackendOpenAI:
		return cfg.OpenAIAPIKey
	case BackendGemini:
		return cfg.GeminiAPIKey
	}
	return ""
}

// New builds the backend once at startup. appURL is sent as the referer to
// OpenRouter.
func New(cfg config.LLMConfig, appURL string) (Backend, error) {
	name := Resolve(cfg)
	if name == "" {
		return nil, ErrNotConfigured
	}

	key := apiKey(cfg, name)
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch name {
	case BackendOpenRouter, BackendXAI, BackendOpenAI:
		if key == "" {
			return nil, fmt.Errorf("%w: %s selected without an API key", ErrNotConfigured, name)
		}
		opts := chatDefaults[name]
		opts.APIKey = key
		if name == BackendOpenRouter {
			opts.Referer = appURL
		}
		if name == BackendOpenAI && cfg.OpenAIBaseURL != "" {
			opts.BaseURL = cfg.OpenAIBaseURL
		}
		return NewChatCompletions(opts, httpClient), nil
	case BackendGemini:
		if key == "" {
			return nil, fmt.Errorf("%w: %s selected without an API key", ErrNotConfigured, name)
		}
		return NewGemini(GeminiOptions{APIKey: key}, httpClient), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}
