package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votegrid/canvass/internal/config"
	"github.com/votegrid/canvass/internal/database"
)

func stubDB(t *testing.T) sqlmock.Sqlmock {
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
	return mock
}

func testConfig() *config.Config {
	return &config.Config{
		Port:       "4000",
		AdminToken: "secret",
		DonateURL:  "https://donate.example.org/give",
	}
}

func TestServerRejectsAdminWithoutToken(t *testing.T) {
	stubDB(t)
	app := newServer(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/pipeline", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestServerAllowsAdminWithToken(t *testing.T) {
	mock := stubDB(t)
	mock.ExpectQuery(`SELECT COALESCE\(status, ''\), COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("new", 1))

	app := newServer(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/pipeline", nil)
	req.Header.Set("Authorization", "Bearer secret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServerPublicRoutesSkipAuth(t *testing.T) {
	mock := stubDB(t)
	mock.ExpectPing()

	app := newServer(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestServerSetsSecurityAndRateHeaders(t *testing.T) {
	mock := stubDB(t)
	mock.ExpectPing()

	app := newServer(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "100", resp.Header.Get("X-RateLimit-Limit"))
}

func TestServerRendersAdminShell(t *testing.T) {
	stubDB(t)
	app := newServer(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}
