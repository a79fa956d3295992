package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"

	"github.com/votegrid/canvass/internal/database"
	"github.com/votegrid/canvass/internal/notify"
)

// setupTestApp swaps the database for a mock and wires every route the
// server exposes, minus auth, so handlers are exercised directly.
func setupTestApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.MonitorPingsOption(true),
	)
	require.NoError(t, err)

	original := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = original
		_ = db.Close()
	})

	Configure(Deps{
		DonateURL:            "https://donate.example.org/give",
		LeadsNotifyEmail:     "team@example.org",
		VolunteerNotifyEmail: "team@example.org",
		Mailer:               notify.NewMailer("", "Campaign <team@example.org>"),
	})

	app := fiber.New()
	app.Get("/health", HandleHealth)
	app.Post("/api/leads", HandleCreateLead)
	app.Get("/api/donate", HandleDonateRedirect)
	app.Post("/api/volunteer", HandleVolunteerSignup)

	admin := app.Group("/api/admin")
	admin.Get("/metrics", HandleMetrics)
	admin.Get("/timeseries", HandleTimeseries)
	admin.Get("/attribution", HandleAttribution)
	admin.Get("/pipeline", HandlePipeline)
	admin.Get("/leads", HandleListLeads)
	admin.Get("/leads.csv", HandleExportLeads)
	admin.Patch("/leads/:id", HandleUpdateLead)

	return app, mock
}

func jsonRequest(t *testing.T, method, path string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
