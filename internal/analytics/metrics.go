// Package analytics computes the aggregates behind the admin dashboard.
//
// Every aggregation resolves against a schema catalog before touching a
// table, so the same binary can serve databases at different migration
// generations. Failed counts degrade to zero instead of failing the
// request; the dashboard always renders.
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

// Metrics are the dashboard headline numbers for a date range.
type Metrics struct {
	TotalLeads   int64 `json:"totalLeads"`
	SMSOptIns    int64 `json:"smsOptIns"`
	WinRedClicks int64 `json:"winredClicks"`
}

// winredLeadFingerprints are the legacy heuristics for spotting WinRed
// traffic when no click table exists. Patterns are fixed literals; the
// columns are probed against the catalog before use.
var winredLeadFingerprints = []struct {
	column  string
	pattern string
}{
	{"source_path", "%winred%"},
	{"utm_source", "%winred%"},
	{"interest", "%donate%"},
	{"source", "%winred%"},
}

// ComputeMetrics builds the headline metrics for the range. Columns
// missing from the catalog contribute zero. Without a leads table the
// whole object is zero; no other count runs, even when a click table
// could be counted on its own.
func ComputeMetrics(ctx context.Context, db *sql.DB, cat *schema.Catalog, r daterange.Range) Metrics {
	var m Metrics

	if !cat.TableExists("leads") {
		logging.L().Error("leads table missing, returning zeroed metrics")
		return m
	}

	query, args := countQuery(cat, "leads", "", r)
	m.TotalLeads = safeCount(ctx, db, query, args...)

	if cat.ColumnExists("leads", "sms_opt_in") {
		query, args = countQuery(cat, "leads", "sms_opt_in = TRUE", r)
		m.SMSOptIns = safeCount(ctx, db, query, args...)
	}

	m.WinRedClicks = winredClicks(ctx, db, cat, r)
	return m
}

// winredClicks counts WinRed donate traffic, falling through three
// generations of tracking: an events stream, the donation_clicks table,
// and finally fingerprint matching on the leads themselves.
func winredClicks(ctx context.Context, db *sql.DB, cat *schema.Catalog, r daterange.Range) int64 {
	if cat.TableExists("events") && cat.ColumnExists("events", "event_type") {
		query, args := countQuery(cat, "events", "event_type = 'winred_click'", r)
		return safeCount(ctx, db, query, args...)
	}

	if cat.TableExists("donation_clicks") {
		query, args := countQuery(cat, "donation_clicks", "", r)
		return safeCount(ctx, db, query, args...)
	}

	predicate := winredLeadPredicate(cat)
	if predicate == "" || !cat.TableExists("leads") {
		return 0
	}
	query, args := countQuery(cat, "leads", predicate, r)
	return safeCount(ctx, db, query, args...)
}

// winredLeadPredicate assembles the fallback WHERE fragment from whichever
// fingerprint columns the leads table actually has. Empty when none match.
func winredLeadPredicate(cat *schema.Catalog) string {
	var clauses []string
	for _, fp := range winredLeadFingerprints {
		if cat.ColumnExists("leads", fp.column) {
			clauses = append(clauses, fmt.Sprintf("%s ILIKE '%s'", fp.column, fp.pattern))
		}
	}
	if len(clauses) == 0 {
		return ""
	}
	return "(" + strings.Join(clauses, " OR ") + ")"
}

// countQuery builds a COUNT over the table, range-filtered when the table
// has a known timestamp column. The predicate must not carry placeholders.
func countQuery(cat *schema.Catalog, table, predicate string, r daterange.Range) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if predicate != "" {
		conds = append(conds, predicate)
	}
	if ts, ok := cat.TimestampColumn(table); ok {
		conds = append(conds, fmt.Sprintf("%s >= $1 AND %s <= $2", ts, ts))
		args = append(args, r.FromTime, r.ToTime)
	}

	query := "SELECT COUNT(*) FROM " + table
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return query, args
}

// safeCount runs a single-value COUNT and returns 0 on any failure.
func safeCount(ctx context.Context, db *sql.DB, query string, args ...interface{}) int64 {
	var count int64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		logging.L().Warn("count query degraded to zero",
			zap.String("query", query),
			zap.Error(err))
		return 0
	}
	return count
}
