package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/votegrid/canvass/internal/analytics"
	"github.com/votegrid/canvass/internal/database"
	"github.com/votegrid/canvass/internal/daterange"
	"github.com/votegrid/canvass/internal/logging"
	"github.com/votegrid/canvass/internal/models"
	"github.com/votegrid/canvass/internal/schema"
)

const (
	leadListLimit   = 500
	leadExportLimit = 1000
)

// requestRange resolves the from/to query parameters.
func requestRange(c fiber.Ctx) daterange.Range {
	return daterange.Resolve(c.Query("from"), c.Query("to"), time.Now())
}

// HandleMetrics returns the dashboard headline numbers.
// Always 200; unavailable data reads as zero.
// GET /api/admin/metrics
func HandleMetrics(c fiber.Ctx) error {
	ctx := context.Background()
	r := requestRange(c)
	cat := schema.Inspect(ctx, database.DB)

	return c.JSON(analytics.ComputeMetrics(ctx, database.DB, cat, r))
}

// HandleTimeseries returns the per-day activity series for the range.
// GET /api/admin/timeseries
func HandleTimeseries(c fiber.Ctx) error {
	ctx := context.Background()
	r := requestRange(c)
	cat := schema.Inspect(ctx, database.DB)

	return c.JSON(fiber.Map{
		"days": analytics.ComputeDailySeries(ctx, database.DB, cat, r),
	})
}

// HandleAttribution returns the top traffic sources for the range.
// GET /api/admin/attribution
func HandleAttribution(c fiber.Ctx) error {
	ctx := context.Background()
	r := requestRange(c)
	cat := schema.Inspect(ctx, database.DB)

	return c.JSON(analytics.TopAttribution(ctx, database.DB, cat, r))
}

// HandlePipeline returns lead counts per pipeline status.
// GET /api/admin/pipeline
func HandlePipeline(c fiber.Ctx) error {
	counts, err := models.PipelineCounts(context.Background(), database.DB)
	if err != nil {
		logging.L().Error("pipeline counts failed", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"error": "Database error",
		})
	}
	return c.JSON(counts)
}

// HandleListLeads returns the newest leads, optionally filtered by a
// name/email substring.
// GET /api/admin/leads?q=
func HandleListLeads(c fiber.Ctx) error {
	leads, err := models.SearchLeads(context.Background(), database.DB, c.Query("q"), leadListLimit)
	if err != nil {
		logging.L().Error("lead search failed", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"error": "Database error",
		})
	}
	return c.JSON(fiber.Map{"leads": leads})
}

// HandleUpdateLead applies a partial pipeline update to one lead.
// PATCH /api/admin/leads/:id
func HandleUpdateLead(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid lead ID",
		})
	}

	var patch models.LeadPatch
	if err := c.Bind().Body(&patch); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	lead, err := models.UpdateLead(context.Background(), database.DB, id, patch)
	switch {
	case errors.Is(err, models.ErrEmptyPatch):
		return c.Status(400).JSON(fiber.Map{
			"error": "No fields to update",
		})
	case errors.Is(err, models.ErrLeadNotFound):
		return c.Status(404).JSON(fiber.Map{
			"error": "Lead not found",
		})
	case err != nil:
		logging.L().Error("lead update failed", zap.Int("id", id), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	return c.JSON(lead)
}

// HandleExportLeads streams the newest leads as a CSV download.
// GET /api/admin/leads.csv
func HandleExportLeads(c fiber.Ctx) error {
	leads, err := models.SearchLeads(context.Background(), database.DB, c.Query("q"), leadExportLimit)
	if err != nil {
		logging.L().Error("lead export failed", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "created_at", "name", "email", "phone", "sms_opt_in", "locale",
		"source", "status", "tags", "notes", "assigned_to",
		"utm_source", "utm_campaign", "source_path",
	}
	if err := w.Write(header); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Export failed"})
	}

	for _, lead := range leads {
		record := []string{
			strconv.Itoa(lead.ID),
			lead.CreatedAt.Format(time.RFC3339),
			lead.Name,
			lead.Email,
			strValue(lead.Phone),
			strconv.FormatBool(lead.SMSOptIn),
			lead.Locale,
			lead.Source,
			lead.Status,
			strings.Join(lead.Tags, ";"),
			strValue(lead.Notes),
			strValue(lead.AssignedTo),
			strValue(lead.UTMSource),
			strValue(lead.UTMCampaign),
			strValue(lead.SourcePath),
		}
		if err := w.Write(record); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Export failed"})
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Export failed"})
	}

	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition", `attachment; filename="leads.csv"`)
	return c.Send(buf.Bytes())
}

// HandleAdminPage renders the dashboard shell. The page itself fetches
// its numbers from the admin API with the operator's token.
// GET /admin
func HandleAdminPage(c fiber.Ctx) error {
	return c.Render("admin", fiber.Map{
		"Title": "Campaign Dashboard",
	})
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
