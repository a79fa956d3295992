package handlers

import (
	"context"
	"net/mail"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/votegrid/canvass/internal/database"
	"github.com/votegrid/canvass/internal/logging"
	"github.com/votegrid/canvass/internal/models"
)

// leadRequest is the public form payload. Company is a honeypot field the
// real form never renders; bots that fill it get a fake success.
type leadRequest struct {
	models.LeadInput
	Company string `json:"company"`
}

type volunteerRequest struct {
	models.VolunteerInput
	Company string `json:"company"`
}

// HandleCreateLead captures a lead from the public signup form.
// POST /api/leads
func HandleCreateLead(c fiber.Ctx) error {
	var req leadRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Company != "" {
		// Honeypot tripped. Pretend everything worked.
		return c.JSON(fiber.Map{"ok": true})
	}

	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) < 2 {
		return c.Status(400).JSON(fiber.Map{
			"error": "Name must be at least 2 characters",
		})
	}

	req.Email = strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid email address",
		})
	}

	req.Locale = normalizeLocale(req.Locale)
	if req.Source = strings.TrimSpace(req.Source); req.Source == "" {
		req.Source = "website"
	}
	if req.Phone != nil {
		trimmed := strings.TrimSpace(*req.Phone)
		if trimmed == "" {
			req.Phone = nil
		} else {
			req.Phone = &trimmed
		}
	}

	if err := models.InsertLead(context.Background(), database.DB, req.LeadInput); err != nil {
		logging.L().Error("lead insert failed", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save lead",
		})
	}

	// Email is best-effort and must not delay the response.
	go deps.Mailer.NotifyNewLead(deps.LeadsNotifyEmail, req.LeadInput)

	return c.JSON(fiber.Map{"ok": true})
}

// HandleDonateRedirect logs the click and forwards the visitor to the
// donation processor. Logging is best-effort; the redirect always happens.
// GET /api/donate
func HandleDonateRedirect(c fiber.Ctx) error {
	amount := strings.TrimSpace(c.Query("amount"))
	locale := normalizeLocale(c.Query("locale"))

	// The site passes the page the click came from; fall back to our own
	// path when it doesn't.
	click := models.DonationClick{
		Locale:    locale,
		Path:      optional(c.Query("path", c.Path())),
		Referrer:  optional(c.Get("Referer")),
		UserAgent: optional(c.Get("User-Agent")),
	}
	if amount != "" {
		click.Amount = &amount
	}
	if err := models.InsertDonationClick(context.Background(), database.DB, click); err != nil {
		logging.L().Warn("donation click not recorded", zap.Error(err))
	}

	target := deps.DonateURL
	if value, err := strconv.ParseFloat(amount, 64); err == nil && value > 0 {
		target += "?amount=" + amount
	}
	return c.Redirect().To(target)
}

// HandleVolunteerSignup captures a volunteer form submission.
// POST /api/volunteer
func HandleVolunteerSignup(c fiber.Ctx) error {
	var req volunteerRequest
	// Opted in unless the form explicitly unchecks the box.
	req.UpdatesOptIn = true
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Company != "" {
		return c.JSON(fiber.Map{"ok": true})
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if len(req.FirstName) < 2 {
		return c.Status(400).JSON(fiber.Map{
			"error": "First name must be at least 2 characters",
		})
	}
	if req.LastName == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Last name is required",
		})
	}

	req.Email = strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid email address",
		})
	}

	req.Zip = trimmed(req.Zip)
	if req.Zip == nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Zip code is required",
		})
	}
	req.Interest = trimmed(req.Interest)
	if req.Interest == nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Interest is required",
		})
	}
	req.SourcePath = trimmed(req.SourcePath)
	if req.SourcePath == nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Source path is required",
		})
	}

	req.Locale = normalizeLocale(req.Locale)

	id, err := models.InsertVolunteerSignup(context.Background(), database.DB, req.VolunteerInput)
	if err != nil {
		logging.L().Error("volunteer insert failed", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save signup",
		})
	}

	go deps.Mailer.NotifyVolunteer(deps.VolunteerNotifyEmail, req.VolunteerInput)

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// normalizeLocale clamps the site locale to the supported pair.
func normalizeLocale(locale string) string {
	if strings.ToLower(strings.TrimSpace(locale)) == "es" {
		return "es"
	}
	return "en"
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// trimmed trims a pointer field in place, collapsing blank values to nil.
func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return nil
	}
	return &s
}
