package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

// principal is the authenticated caller taken from the Supabase access token.
type principal struct {
	UserID string
	Email  string
	Token  string
}

// newAuthMiddleware verifies Supabase-issued HS256 tokens. When optional is
// set, requests without an Authorization header pass through as guests.
func newAuthMiddleware(secret string, optional bool) fiber.Handler {
	cfg := jwtware.Config{
		SigningKey: []byte(secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return errorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
		},
	}
	if optional {
		cfg.Filter = func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderAuthorization) == ""
		}
	}
	return jwtware.New(cfg)
}

// currentUser returns the caller, or false for guests and tokens without a subject.
func currentUser(c *fiber.Ctx) (principal, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return principal{}, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return principal{}, false
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return principal{}, false
	}
	email, _ := claims["email"].(string)
	return principal{UserID: sub, Email: email, Token: token.Raw}, true
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}
