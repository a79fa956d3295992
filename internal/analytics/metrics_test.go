package analytics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votegrid/canvass/internal/daterange"
	"github.com/votegrid/canvass/internal/schema"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testRange() daterange.Range {
	return daterange.Resolve("2024-06-01", "2024-06-07", testNow)
}

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestComputeMetricsEmptySchema(t *testing.T) {
	db, mock := newMockDB(t)
	cat := schema.Static(map[string][]string{})

	m := ComputeMetrics(context.Background(), db, cat, testRange())

	assert.Equal(t, Metrics{}, m)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComputeMetricsZeroWithoutLeadsTable(t *testing.T) {
	db, mock := newMockDB(t)
	cat := schema.Static(map[string][]string{
		"donation_clicks": {"id", "created_at"},
	})

	// Queue click rows anyway; a zeroed result proves the cascade never ran.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM donation_clicks`).
		WillReturnRows(countRows(3))

	m := ComputeMetrics(context.Background(), db, cat, testRange())

	assert.Equal(t, Metrics{}, m)
}

func TestComputeMetricsDonationClicksCascade(t *testing.T) {
	db, mock := newMockDB(t)
	cat := schema.Static(map[string][]string{
		"leads":           {"id", "created_at", "sms_opt_in"},
		"donation_clicks": {"id", "created_at"},
	})
	r := testRange()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads WHERE created_at >= \$1 AND created_at <= \$2`).
		WithArgs(r.FromTime, r.ToTime).
		WillReturnRows(countRows(42))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads WHERE sms_opt_in = TRUE AND created_at >= \$1`).
		WithArgs(r.FromTime, r.ToTime).
		WillReturnRows(countRows(17))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM donation_clicks WHERE created_at >= \$1`).
		WithArgs(r.FromTime, r.ToTime).
		WillReturnRows(countRows(3))

	m := ComputeMetrics(context.Background(), db, cat, r)

	assert.Equal(t, Metrics{TotalLeads: 42, SMSOptIns: 17, WinRedClicks: 3}, m)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComputeMetricsPrefersEventStream(t *testing.T) {
	db, mock := newMockDB(t)
	cat := schema.Static(map[string][]string{
		"leads":           {"id"},
		"events":          {"id", "event_type", "occurred_at"},
		"donation_clicks": {"id", "created_at"},
	})
	r := testRange()

	// No timestamp column on leads, so the total is unfiltered.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads$`).WillReturnRows(countRows(10))
	mock.ExpectQuery(`FROM events WHERE event_type = 'winred_click' AND occurred_at >= \$1`).
		WithArgs(r.FromTime, r.ToTime).
		WillReturnRows(countRows(5))

	m := ComputeMetrics(context.Background(), db, cat, r)

	assert.Equal(t, int64(10), m.TotalLeads)
	assert.Equal(t, int64(0), m.SMSOptIns)
	assert.Equal(t, int64(5), m.WinRedClicks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComputeMetricsLeadsFingerprintFallback(t *testing.T) {
	db, mock := newMockDB(t)
	cat := schema.Static(map[string][]string{
		"leads": {"id", "created_at", "sms_opt_in", "utm_source", "source"},
	})
	r := testRange()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads WHERE created_at >= \$1`).
		WillReturnRows(countRows(20))
	mock.ExpectQuery(`sms_opt_in = TRUE`).WillReturnRows(countRows(8))
	// Only the fingerprint columns present on leads appear in the predicate.
	mock.ExpectQuery(`\(utm_source ILIKE '%winred%' OR source ILIKE '%winred%'\) AND created_at >= \$1`).
		WithArgs(r.FromTime, r.ToTime).
		WillReturnRows(countRows(4))

	m := ComputeMetrics(context.Background(), db, cat, r)

	assert.Equal(t, Metrics{TotalLeads: 20, SMSOptIns: 8, WinRedClicks: 4}, m)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSafeCountDegradesToZero(t *testing.T) {
	db, mock := newMockDB(t)
	cat := schema.Static(map[string][]string{
		"leads":           {"id", "created_at"},
		"donation_clicks": {"id"},
	})
	r := testRange()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads`).WillReturnError(assert.AnError)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM donation_clicks`).WillReturnRows(countRows(2))

	m := ComputeMetrics(context.Background(), db, cat, r)

	assert.Equal(t, int64(0), m.TotalLeads)
	assert.Equal(t, int64(2), m.WinRedClicks)
	require.NoError(t, mock.ExpectationsWereMet())
}
