package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/votegrid/canvass/internal/database"
)

// HandleHealth reports process and database health.
// GET /health
func HandleHealth(c fiber.Ctx) error {
	if err := database.DB.Ping(); err != nil {
		return c.Status(503).JSON(fiber.Map{
			"status": "degraded",
			"db":     "unreachable",
		})
	}
	return c.JSON(fiber.Map{
		"status": "ok",
		"db":     "ok",
	})
}
