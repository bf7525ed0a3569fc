package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/esgtracker/internal/models"
	"github.com/illegalcall/esgtracker/internal/quota"
)

// handleGetProfile returns the caller's profile with this month's usage,
// creating the free profile on first access.
func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
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

	return c.JSON(fiber.Map{
		"profile": profile,
		"usage":   quota.UsageFor(profile),
	})
}
