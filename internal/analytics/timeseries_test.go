package analytics

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votegrid/canvass/internal/schema"
)

func dayRows(pairs ...interface{}) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"day", "count"})
	for i := 0; i < len(pairs); i += 2 {
		rows.AddRow(pairs[i], pairs[i+1])
	}
	return rows
}

func TestDailySeriesWithoutLeadsTable(t *testing.T) {
	db, mock := newMockDB(t)
	cat := schema.Static(map[string][]string{"donation_clicks": {"id", "created_at"}})

	series := ComputeDailySeries(context.Background(), db, cat, testRange())

	assert.Empty(t, series)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDailySeriesZeroFillsWithoutTimestamp(t *testing.T) {
	db, mock := newMockDB(t)
	cat := schema.Static(map[string][]string{"leads": {"id", "email"}})

	series := ComputeDailySeries(context.Background(), db, cat, testRange())

	require.Len(t, series, 7)
	assert.Equal(t, "2024-06-01", series[0].Date)
	assert.Equal(t, "2024-06-07", series[6].Date)
	for _, point := range series {
		assert.Zero(t, point.Leads)
		assert.Zero(t, point.SMSOptIns)
		assert.Zero(t, point.WinRedClicks)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDailySeriesAllZeroWhenLeadsLackTimestamp(t *testing.T) {
	db, mock := newMockDB(t)
	cat := schema.Static(map[string][]string{
		"leads":           {"id", "email"},
		"donation_clicks": {"id", "created_at"},
	})

	// Queue click rows anyway; all-zero points prove no per-day query ran.
	mock.ExpectQuery(`FROM donation_clicks`).
		WillReturnRows(dayRows("2024-06-03", 4))

	series := ComputeDailySeries(context.Background(), db, cat, testRange())

	require.Len(t, series, 7)
	for _, point := range series {
		assert.Zero(t, point.Leads)
		assert.Zero(t, point.SMSOptIns)
		assert.Zero(t, point.WinRedClicks)
	}
}

func TestDailySeriesZeroFillsSparseDays(t *testing.T) {
	db, mock := newMockDB(t)
	cat := schema.Static(map[string][]string{
		"leads":           {"id", "created_at", "sms_opt_in"},
		"donation_clicks": {"id", "created_at"},
	})
	r := testRange()

	mock.ExpectQuery(`DATE_TRUNC\('day', created_at\)::date::text AS day, COUNT\(\*\)\s+FROM leads`).
		WithArgs(r.FromTime, r.ToTime).
		WillReturnRows(dayRows("2024-06-02", 5, "2024-06-05", 2))
	mock.ExpectQuery(`FROM leads\s+WHERE created_at >= \$1 AND created_at <= \$2 AND sms_opt_in = TRUE`).
		WithArgs(r.FromTime, r.ToTime).
		WillReturnRows(dayRows("2024-06-02", 1))
	mock.ExpectQuery(`FROM donation_clicks`).
		WithArgs(r.FromTime, r.ToTime).
		WillReturnRows(dayRows("2024-06-07", 3))

	series := ComputeDailySeries(context.Background(), db, cat, r)

	require.Len(t, series, 7)
	assert.Equal(t, DayPoint{Date: "2024-06-01"}, series[0])
	assert.Equal(t, DayPoint{Date: "2024-06-02", Leads: 5, SMSOptIns: 1}, series[1])
	assert.Equal(t, DayPoint{Date: "2024-06-05", Leads: 2}, series[4])
	assert.Equal(t, DayPoint{Date: "2024-06-07", WinRedClicks: 3}, series[6])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDailySeriesSurvivesQueryFailure(t *testing.T) {
	db, mock := newMockDB(t)
	cat := schema.Static(map[string][]string{
		"leads": {"id", "created_at"},
	})
	r := testRange()

	mock.ExpectQuery(`FROM leads`).WillReturnError(assert.AnError)

	series := ComputeDailySeries(context.Background(), db, cat, r)

	require.Len(t, series, 7)
	for _, point := range series {
		assert.Zero(t, point.Leads)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}
