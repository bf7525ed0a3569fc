package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/illegalcall/esgtracker/internal/events"
	"github.com/illegalcall/esgtracker/internal/models"
	"github.com/illegalcall/esgtracker/internal/storage"
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMalformedEvent   = errors.New("malformed event payload")
)

// EventLedger records processed event ids so redeliveries are acknowledged
// without being applied again.
type EventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type WebhookHandler struct {
	store     storage.Storage
	secret    string
	ledger    EventLedger
	publisher events.Publisher
	logger    *slog.Logger
}

// NewWebhookHandler builds the handler. ledger may be nil.
func NewWebhookHandler(store storage.Storage, secret string, ledger EventLedger, publisher events.Publisher, logger *slog.Logger) *WebhookHandler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{store: store, secret: secret, ledger: ledger, publisher: publisher, logger: logger}
}

// Handle verifies the signature over the raw payload, then applies the event.
// It returns the event type for metrics ("" when verification failed).
func (h *WebhookHandler) Handle(ctx context.Context, payload []byte, signature string) (string, error) {
	if signature == "" {
		return "", ErrMissingSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, h.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		h.logger.Warn("Webhook signature verification failed", "error", err)
		return "", ErrInvalidSignature
	}
	eventType := string(event.Type)

	if h.seen(ctx, event.ID) {
		h.logger.Info("Webhook event already processed", "event_id", event.ID, "type", eventType)
		return eventType, nil
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = h.checkoutCompleted(ctx, event)
	case stripe.EventTypeCustomerSubscriptionUpdated:
		err = h.subscriptionUpdated(ctx, event)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		err = h.subscriptionDeleted(ctx, event)
	case stripe.EventTypeInvoicePaymentFailed:
		err = h.paymentFailed(ctx, event)
	default:
		h.logger.Debug("Ignoring webhook event", "type", eventType)
	}
	if err != nil {
		return eventType, err
	}

	if h.ledger != nil {
		if err := h.ledger.Mark(ctx, event.ID); err != nil {
			h.logger.Warn("Failed to record webhook event", "event_id", event.ID, "error", err)
		}
	}
	return eventType, nil
}

func (h *WebhookHandler) seen(ctx context.Context, eventID string) bool {
	if h.ledger == nil || eventID == "" {
		return false
	}
	seen, err := h.ledger.Seen(ctx, eventID)
	if err != nil {
		// transitions are idempotent, so processing again is safe
		h.logger.Warn("Event ledger unavailable", "event_id", eventID, "error", err)
		return false
	}
	return seen
}

func (h *WebhookHandler) checkoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	userID, plan := sess.Metadata["user_id"], sess.Metadata["plan"]
	if userID == "" || plan == "" {
		h.logger.Warn("Checkout session without user metadata", "session_id", sess.ID)
		return nil
	}

	tier := models.ParsePlanTier(plan)
	period := models.ParseBillingPeriod(sess.Metadata["billing"])
	customerID := customerOf(sess.Customer)

	err := h.store.CompleteCheckout(ctx, userID, tier, period, customerID)
	if errors.Is(err, storage.ErrNotFound) {
		h.logger.Warn("Checkout completed for unknown profile", "user_id", userID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply checkout: %w", err)
	}

	h.logger.Info("Subscription started", "user_id", userID, "tier", tier, "billing", period)
	events.PublishBestEffort(ctx, h.publisher, h.logger, models.Event{
		Type:       models.EventSubscriptionChanged,
		UserID:     userID,
		CustomerID: customerID,
		Tier:       tier,
	})
	return nil
}

func (h *WebhookHandler) subscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	customerID := customerOf(sub.Customer)

	profile, err := h.store.GetProfileByCustomerID(ctx, customerID)
	if errors.Is(err, storage.ErrNotFound) {
		h.logger.Info("Subscription update for unknown customer", "customer_id", customerID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	tier := models.TierCancelled
	if sub.Status == stripe.SubscriptionStatusActive || sub.Status == stripe.SubscriptionStatusTrialing {
		tier = models.ParsePlanTier(sub.Metadata["plan"])
	}

	var endDate *time.Time
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		endDate = &end
	}

	err = h.store.SetSubscriptionStatus(ctx, profile.ID, tier, endDate)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	h.logger.Info("Subscription updated", "user_id", profile.ID, "status", sub.Status, "tier", tier)
	if tier != profile.SubscriptionStatus {
		events.PublishBestEffort(ctx, h.publisher, h.logger, models.Event{
			Type:       models.EventSubscriptionChanged,
			UserID:     profile.ID,
			CustomerID: customerID,
			Tier:       tier,
		})
	}
	return nil
}

func (h *WebhookHandler) subscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	customerID := customerOf(sub.Customer)

	n, err := h.store.ResetSubscription(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to reset subscription: %w", err)
	}
	h.logger.Info("Subscription deleted", "customer_id", customerID, "profiles", n)
	if n > 0 {
		events.PublishBestEffort(ctx, h.publisher, h.logger, models.Event{
			Type:       models.EventSubscriptionChanged,
			CustomerID: customerID,
			Tier:       models.TierFree,
		})
	}
	return nil
}

// paymentFailed changes no state.
func (h *WebhookHandler) paymentFailed(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	customerID := customerOf(inv.Customer)

	h.logger.Warn("Payment failed", "customer_id", customerID, "invoice_id", inv.ID)
	events.PublishBestEffort(ctx, h.publisher, h.logger, models.Event{
		Type:       models.EventPaymentFailed,
		CustomerID: customerID,
	})
	return nil
}

func customerOf(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
