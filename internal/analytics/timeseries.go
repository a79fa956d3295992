package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/votegrid/canvass/internal/daterange"
	"github.com/votegrid/canvass/internal/logging"
	"github.com/votegrid/canvass/internal/schema"
)

// DayPoint is one calendar day of dashboard activity.
type DayPoint struct {
	Date         string `json:"date"`
	Leads        int64  `json:"leads"`
	SMSOptIns    int64  `json:"smsOptIns"`
	WinRedClicks int64  `json:"winredClicks"`
}

// ComputeDailySeries builds a zero-filled per-day series across the range,
// one point per calendar day in ascending order. Without a leads table
// there is nothing to chart and the series is empty; a leads table with no
// recognizable timestamp column yields all-zero points.
func ComputeDailySeries(ctx context.Context, db *sql.DB, cat *schema.Catalog, r daterange.Range) []DayPoint {
	if !cat.TableExists("leads") {
		return []DayPoint{}
	}

	days := r.Days()

	if _, ok := cat.TimestampColumn("leads"); !ok {
		// Leads cannot be bucketed by day, so every measure reads zero,
		// including clicks that another table could have supplied.
		series := make([]DayPoint, 0, len(days))
		for _, day := range days {
			series = append(series, DayPoint{Date: day})
		}
		return series
	}

	leadsByDay := dailyCounts(ctx, db, cat, "leads", "", r)

	smsByDay := map[string]int64{}
	if cat.ColumnExists("leads", "sms_opt_in") {
		smsByDay = dailyCounts(ctx, db, cat, "leads", "sms_opt_in = TRUE", r)
	}

	winredByDay := winredDailyCounts(ctx, db, cat, r)

	series := make([]DayPoint, 0, len(days))
	for _, day := range days {
		series = append(series, DayPoint{
			Date:         day,
			Leads:        leadsByDay[day],
			SMSOptIns:    smsByDay[day],
			WinRedClicks: winredByDay[day],
		})
	}
	return series
}

// winredDailyCounts buckets WinRed clicks per day using the same source
// cascade as the headline metric.
func winredDailyCounts(ctx context.Context, db *sql.DB, cat *schema.Catalog, r daterange.Range) map[string]int64 {
	switch {
	case cat.TableExists("events") && cat.ColumnExists("events", "event_type"):
		return dailyCounts(ctx, db, cat, "events", "event_type = 'winred_click'", r)
	case cat.TableExists("donation_clicks"):
		return dailyCounts(ctx, db, cat, "donation_clicks", "", r)
	default:
		predicate := winredLeadPredicate(cat)
		if predicate == "" {
			return map[string]int64{}
		}
		return dailyCounts(ctx, db, cat, "leads", predicate, r)
	}
}

// dailyCounts returns per-day row counts keyed by ISO day string. Tables
// without a known timestamp column, and failed queries, yield an empty map
// so the series zero-fills.
func dailyCounts(ctx context.Context, db *sql.DB, cat *schema.Catalog, table, predicate string, r daterange.Range) map[string]int64 {
	counts := map[string]int64{}

	ts, ok := cat.TimestampColumn(table)
	if !ok {
		return counts
	}

	conds := []string{fmt.Sprintf("%s >= $1 AND %s <= $2", ts, ts)}
	if predicate != "" {
		conds = append(conds, predicate)
	}
	query := fmt.Sprintf(`
		SELECT DATE_TRUNC('day', %s)::date::text AS day, COUNT(*)
		FROM %s
		WHERE %s
		GROUP BY 1
	`, ts, table, strings.Join(conds, " AND "))

	rows, err := db.QueryContext(ctx, query, r.FromTime, r.ToTime)
	if err != nil {
		logging.L().Warn("daily count query degraded to zero-fill",
			zap.String("table", table),
			zap.Error(err))
		return counts
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var day string
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			continue
		}
		counts[day] = count
	}
	if err := rows.Err(); err != nil {
		logging.L().Warn("daily count rows aborted", zap.String("table", table), zap.Error(err))
	}
	return counts
}
