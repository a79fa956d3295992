package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// AdminAuth guards the admin API with a static bearer token.
//
// The comparison is constant-time so response timing leaks nothing about
// the configured token. An empty configured token locks the admin API
// entirely rather than leaving it open.
func AdminAuth(token string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if token == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Admin access not configured",
			})
		}

		presented := extractBearerToken(c)
		if presented == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing admin token",
			})
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid admin token",
			})
		}

		return c.Next()
	}
}

// extractBearerToken pulls the token from the request.
// Supports: Authorization: Bearer <token> or X-Admin-Token: <token>
func extractBearerToken(c fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if token := c.Get("X-Admin-Token"); token != "" {
		return token
	}

	return ""
}
