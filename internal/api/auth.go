package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/esgtracker/internal/models"
	"github.com/illegalcall/esgtracker/internal/pkg/supabase"
)

func (s *Server) handleSignup(c *fiber.Ctx) error {
	if s.auth == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Authentication is not configured")
	}

	var req models.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Email and password are required")
	}

	metadata := map[string]interface{}{}
	if req.FullName != "" {
		metadata["full_name"] = req.FullName
	}
	if req.CompanyName != "" {
		metadata["company_name"] = req.CompanyName
	}

	user, err := s.auth.SignUp(req.Email, req.Password, metadata)
	if err != nil {
		s.logger.Warn("Sign up failed", "email", req.Email, "error", err)
		return errorResponse(c, fiber.StatusBadRequest, "Sign up failed")
	}

	profile := &models.Profile{ID: user.ID, Email: user.Email}
	if req.FullName != "" {
		profile.FullName = &req.FullName
	}
	if req.CompanyName != "" {
		profile.CompanyName = &req.CompanyName
	}
	if err := s.store.EnsureProfile(c.UserContext(), profile); err != nil {
		s.logger.Error("Failed to create profile", "user_id", user.ID, "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to create profile")
	}

	s.logger.Info("User signed up", "user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user": fiber.Map{"id": user.ID, "email": user.Email},
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	if s.auth == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Authentication is not configured")
	}

	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Email and password are required")
	}

	session, err := s.auth.SignIn(req.Email, req.Password)
	if errors.Is(err, supabase.ErrInvalidCredentials) {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		s.logger.Error("Authentication error", "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Authentication service error")
	}

	s.logger.Info("User successfully authenticated", "email", req.Email)
	return c.JSON(models.LoginResponse{
		Token: session.AccessToken,
		Type:  "Bearer",
	})
}

func (s *Server) handleSignout(c *fiber.Ctx) error {
	if s.auth == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Authentication is not configured")
	}
	if _, ok := currentUser(c); !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := s.auth.SignOut(bearerToken(c)); err != nil {
		s.logger.Error("Sign out failed", "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Sign out failed")
	}
	return c.JSON(fiber.Map{"success": true})
}
