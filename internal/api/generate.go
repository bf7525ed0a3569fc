package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/esgtracker/internal/events"
	"github.com/illegalcall/esgtracker/internal/models"
	"github.com/illegalcall/esgtracker/internal/quota"
	"github.com/illegalcall/esgtracker/internal/report"
	"github.com/illegalcall/esgtracker/internal/storage"
)

const quotaMessage = "Monthly report limit reached. Upgrade your plan to generate more reports."

// handleGenerate scores the submitted company. Signed-in users are held to
// their monthly quota and get a stored report; guests get an unsaved one.
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	var data models.ESGData
	if err := c.BodyParser(&data); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := data.Validate(); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Company name and industry are required")
	}

	user, ok := currentUser(c)
	if !ok {
		return s.generateForGuest(c, data)
	}

	ctx := c.UserContext()
	if err := s.store.EnsureProfile(ctx, &models.Profile{ID: user.UserID, Email: user.Email}); err != nil {
		s.logger.Error("Failed to ensure profile", "user_id", user.UserID, "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load profile")
	}
	profile, err := s.store.GetProfile(ctx, user.UserID)
	if err != nil {
		s.logger.Error("Failed to load profile", "user_id", user.UserID, "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load profile")
	}
	if !quota.Allowed(profile.SubscriptionStatus, profile.ReportsUsedThisMonth) {
		s.metrics.reports.WithLabelValues(s.generator.Backend(), "quota_exceeded").Inc()
		return errorResponse(c, fiber.StatusForbidden, quotaMessage)
	}

	result, err := s.generate(ctx, data)
	if err != nil {
		return generationError(c, err)
	}

	row, err := models.NewReport(user.UserID, data, result)
	if err != nil {
		s.logger.Error("Failed to build report row", "user_id", user.UserID, "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to save report")
	}
	if err := s.store.SaveReport(ctx, row); err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			return errorResponse(c, fiber.StatusForbidden, quotaMessage)
		}
		s.logger.Error("Failed to save report", "user_id", user.UserID, "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to save report")
	}

	if s.reportCache != nil {
		if err := s.reportCache.Set(ctx, row); err != nil {
			s.logger.Warn("Failed to cache report", "report_id", row.ID, "error", err)
		}
	}
	events.PublishBestEffort(ctx, s.publisher, s.logger, models.Event{
		Type:       models.EventReportGenerated,
		UserID:     user.UserID,
		ReportID:   row.ID,
		Tier:       profile.SubscriptionStatus,
		Company:    data.CompanyName,
		OccurredAt: time.Now().UTC(),
	})

	return c.Status(fiber.StatusCreated).JSON(models.GenerateResponse{
		ReportID: row.ID,
		Report:   *result,
	})
}

func (s *Server) generateForGuest(c *fiber.Ctx, data models.ESGData) error {
	result, err := s.generate(c.UserContext(), data)
	if err != nil {
		return generationError(c, err)
	}
	return c.JSON(models.GenerateResponse{
		ReportID: fmt.Sprintf("guest_%d", time.Now().UnixMilli()),
		Report:   *result,
	})
}

// generate runs the generator once and records the outcome.
func (s *Server) generate(ctx context.Context, data models.ESGData) (*models.ESGReport, error) {
	backend := s.generator.Backend()
	result, err := s.generator.Generate(ctx, data)
	if err != nil {
		s.logger.Error("Report generation failed", "backend", backend, "company", data.CompanyName, "error", err)
	}
	s.metrics.reports.WithLabelValues(backend, generationOutcome(err)).Inc()
	return result, err
}

func generationOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, report.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, report.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, report.ErrInvalidResponse):
		return "invalid_response"
	default:
		return "backend_unavailable"
	}
}

func generationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, report.ErrInvalidInput):
		return errorResponse(c, fiber.StatusBadRequest, "Company name and industry are required")
	case errors.Is(err, report.ErrNotConfigured):
		return errorResponse(c, fiber.StatusServiceUnavailable, "Report generation is not configured")
	default:
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to generate report")
	}
}
