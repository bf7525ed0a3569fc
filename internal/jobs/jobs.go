package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/illegalcall/esgtracker/internal/models"
	"github.com/illegalcall/esgtracker/internal/notify"
	"github.com/illegalcall/esgtracker/internal/storage"
)

// Result represents the outcome of a job execution
type Result struct {
	// Data contains the job result data
	Data interface{} `json:"data"`
	// Metadata contains additional information about the result
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// JobHandlerFunc defines the signature for job handler functions
type JobHandlerFunc func(ctx context.Context, payload []byte) (Result, error)

// Handlers reacts to domain events consumed by the worker.
type Handlers struct {
	store  storage.Storage
	mailer notify.Mailer
	appURL string
	logger *slog.Logger
}

// NewHandlers wires the event handlers. A nil mailer disables emails.
func NewHandlers(store storage.Storage, mailer notify.Mailer, appURL string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{store: store, mailer: mailer, appURL: appURL, logger: logger}
}

// Registry maps each event type to its handler.
func (h *Handlers) Registry() map[models.EventType]JobHandlerFunc {
	return map[models.EventType]JobHandlerFunc{
		models.EventPaymentFailed:       h.PaymentFailed,
		models.EventSubscriptionChanged: h.SubscriptionChanged,
		models.EventReportGenerated:     h.ReportGenerated,
	}
}

func decodeEvent(payload []byte) (models.Event, error) {
	var e models.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return e, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return e, nil
}

// PaymentFailed emails the customer a payment-failed notice.
func (h *Handlers) PaymentFailed(ctx context.Context, payload []byte) (Result, error) {
	e, err := decodeEvent(payload)
	if err != nil {
		return Result{}, err
	}

	profile, err := h.profileFor(ctx, e)
	if err != nil {
		return Result{}, err
	}
	if profile == nil {
		return skipped("unknown customer"), nil
	}

	return h.email(ctx, profile, "Action needed: your ESG Tracker payment failed", notify.TemplatePaymentFailed)
}

// SubscriptionChanged confirms the new plan by email.
func (h *Handlers) SubscriptionChanged(ctx context.Context, payload []byte) (Result, error) {
	e, err := decodeEvent(payload)
	if err != nil {
		return Result{}, err
	}

	profile, err := h.profileFor(ctx, e)
	if err != nil {
		return Result{}, err
	}
	if profile == nil {
		return skipped("unknown profile"), nil
	}

	return h.email(ctx, profile, "Your ESG Tracker plan has changed", notify.TemplateSubscriptionChanged)
}

// ReportGenerated writes the usage audit line for a stored report.
func (h *Handlers) ReportGenerated(_ context.Context, payload []byte) (Result, error) {
	e, err := decodeEvent(payload)
	if err != nil {
		return Result{}, err
	}
	h.logger.Info("Report generated", "user_id", e.UserID, "report_id", e.ReportID, "company", e.Company, "at", e.OccurredAt)
	return Result{Data: map[string]interface{}{"report_id": e.ReportID}}, nil
}

func (h *Handlers) profileFor(ctx context.Context, e models.Event) (*models.Profile, error) {
	var (
		p   *models.Profile
		err error
	)
	switch {
	case e.UserID != "":
		p, err = h.store.GetProfile(ctx, e.UserID)
	case e.CustomerID != "":
		p, err = h.store.GetProfileByCustomerID(ctx, e.CustomerID)
	default:
		return nil, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

func (h *Handlers) email(ctx context.Context, p *models.Profile, subject, template string) (Result, error) {
	if h.mailer == nil {
		return skipped("email disabled"), nil
	}
	if p.Email == "" {
		return skipped("profile has no email"), nil
	}

	data := map[string]string{
		"tier":    string(p.SubscriptionStatus),
		"app_url": h.appURL,
	}
	if p.FullName != nil {
		data["name"] = *p.FullName
	}

	err := h.mailer.Send(ctx, models.SendEmailPayload{
		Recipient:    p.Email,
		Subject:      subject,
		TemplateName: template,
		Data:         data,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Data: map[string]interface{}{"recipient": p.Email, "template": template}}, nil
}

func skipped(reason string) Result {
	return Result{Metadata: map[string]interface{}{"skipped": reason}}
}
