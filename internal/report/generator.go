// Package report produces scored ESG reports from company data through a
// single text-generation call.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/illegalcall/esgtracker/internal/llm"
	"github.com/illegalcall/esgtracker/internal/models"
)

var (
	ErrInvalidInput       = errors.New("company name and industry are required")
	ErrNotConfigured      = errors.New("report generation is not configured")
	ErrInvalidResponse    = errors.New("invalid response from text-generation backend")
	ErrBackendUnavailable = errors.New("text-generation backend unavailable")
)

// BackendError carries the backend's own error text. It matches
// ErrBackendUnavailable under errors.Is.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrBackendUnavailable, e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrBackendUnavailable }

type Generator struct {
	backend llm.Backend
	logger  *slog.Logger
	now     func() time.Time
}

// NewGenerator wraps backend. A nil backend yields a generator that always
// fails with ErrNotConfigured.
func NewGenerator(backend llm.Backend, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{backend: backend, logger: logger, now: time.Now}
}

// Backend returns the configured backend name, or "" when none is configured.
func (g *Generator) Backend() string {
	if g.backend == nil {
		return ""
	}
	return g.backend.Name()
}

// Generate makes one backend call, no retries.
func (g *Generator) Generate(ctx context.Context, data models.ESGData) (*models.ESGReport, error) {
	if err := data.Validate(); err != nil {
		return nil, ErrInvalidInput
	}
	if g.backend == nil {
		return nil, ErrNotConfigured
	}

	prompt, err := BuildPrompt(data)
	if err != nil {
		return nil, err
	}

	start := g.now()
	text, err := g.backend.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyResponse) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return nil, &BackendError{Backend: g.backend.Name(), Err: err}
	}
	g.logger.Info("Backend responded", "backend", g.backend.Name(), "company", data.CompanyName, "duration", g.now().Sub(start))

	obj, ok := ExtractJSONObject(text)
	if !ok {
		g.logger.Warn("No JSON object in backend response", "backend", g.backend.Name(), "length", len(text))
		return nil, ErrInvalidResponse
	}

	report, ok := decodeReport(obj)
	if !ok {
		return nil, ErrInvalidResponse
	}
	report.GeneratedAt = g.now().UTC()
	return report, nil
}
