package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"message": message})
}

// errorHandler keeps unexpected errors in the { "message": ... } shape and
// never leaks their text to the client.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return errorResponse(c, fe.Code, fe.Message)
		}
		logger.Error("Unhandled request error", "method", c.Method(), "path", c.Path(), "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Internal server error")
	}
}
