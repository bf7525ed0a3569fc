package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/esgtracker/internal/billing"
	"github.com/illegalcall/esgtracker/internal/models"
)

func (s *Server) handleCheckout(c *fiber.Ctx) error {
	if s.checkout == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Payments are not configured")
	}
	user, ok := currentUser(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req models.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	url, err := s.checkout.Start(c.UserContext(), user.UserID, user.Email, req.Plan, req.Billing)
	switch {
	case err == nil:
		s.metrics.checkouts.WithLabelValues(req.Plan, "success").Inc()
		return c.JSON(models.CheckoutResponse{URL: url})
	case errors.Is(err, billing.ErrInvalidPlan):
		s.metrics.checkouts.WithLabelValues("invalid", "invalid_plan").Inc()
		return errorResponse(c, fiber.StatusBadRequest, "Invalid plan")
	case errors.Is(err, billing.ErrUnauthenticated):
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	default:
		s.metrics.checkouts.WithLabelValues(req.Plan, "provider_error").Inc()
		s.logger.Error("Checkout failed", "user_id", user.UserID, "plan", req.Plan, "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to create checkout session")
	}
}

// handleStripeWebhook verifies and applies a payment provider event. The
// signature is computed over the exact raw body.
func (s *Server) handleStripeWebhook(c *fiber.Ctx) error {
	if s.webhooks == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Payments are not configured")
	}

	eventType, err := s.webhooks.Handle(c.UserContext(), c.Body(), c.Get("Stripe-Signature"))
	if eventType == "" {
		eventType = "unverified"
	}
	switch {
	case err == nil:
		s.metrics.webhooks.WithLabelValues(eventType, "processed").Inc()
		return c.JSON(fiber.Map{"received": true})
	case errors.Is(err, billing.ErrMissingSignature), errors.Is(err, billing.ErrInvalidSignature):
		s.metrics.webhooks.WithLabelValues(eventType, "rejected").Inc()
		return errorResponse(c, fiber.StatusBadRequest, "Invalid signature")
	case errors.Is(err, billing.ErrMalformedEvent):
		s.metrics.webhooks.WithLabelValues(eventType, "malformed").Inc()
		return errorResponse(c, fiber.StatusBadRequest, "Malformed event")
	default:
		s.metrics.webhooks.WithLabelValues(eventType, "failed").Inc()
		s.logger.Error("Webhook processing failed", "type", eventType, "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Webhook processing failed")
	}
}
