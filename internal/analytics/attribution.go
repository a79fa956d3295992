package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/votegrid/canvass/internal/daterange"
	"github.com/votegrid/canvass/internal/logging"
	"github.com/votegrid/canvass/internal/schema"
)

// TopAttributionLimit caps each attribution list.
const TopAttributionLimit = 10

// attributionTables are the relations scanned for attribution columns,
// in scan order.
var attributionTables = []string{"leads", "volunteer_signups", "events", "donation_clicks"}

// KeyCount pairs an attribution key with how many rows carried it.
type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Attribution groups the top traffic sources along four dimensions.
type Attribution struct {
	UTMSource   []KeyCount `json:"utmSource"`
	UTMMedium   []KeyCount `json:"utmMedium"`
	UTMCampaign []KeyCount `json:"utmCampaign"`
	TopPages    []KeyCount `json:"topPages"`
}

// TopAttribution aggregates attribution keys across every table that
// carries them. Keys are trimmed but case is preserved; "Google" and
// "google" stay distinct rather than guessing at intent.
func TopAttribution(ctx context.Context, db *sql.DB, cat *schema.Catalog, r daterange.Range) Attribution {
	return Attribution{
		UTMSource:   topKeys(ctx, db, cat, r, "utm_source"),
		UTMMedium:   topKeys(ctx, db, cat, r, "utm_medium"),
		UTMCampaign: topKeys(ctx, db, cat, r, "utm_campaign"),
		TopPages:    topKeys(ctx, db, cat, r, "source_path", "referrer", "page"),
	}
}

// topKeys merges per-key counts from every (table, column) pair the
// catalog confirms, then keeps the most frequent keys. Ties break on the
// key itself so the ordering is stable.
func topKeys(ctx context.Context, db *sql.DB, cat *schema.Catalog, r daterange.Range, columns ...string) []KeyCount {
	merged := map[string]int64{}

	for _, table := range attributionTables {
		for _, column := range columns {
			if !cat.ColumnExists(table, column) {
				continue
			}
			mergeKeyCounts(ctx, db, cat, r, table, column, merged)
		}
	}

	out := make([]KeyCount, 0, len(merged))
	for key, count := range merged {
		out = append(out, KeyCount{Key: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > TopAttributionLimit {
		out = out[:TopAttributionLimit]
	}
	return out
}

func mergeKeyCounts(ctx context.Context, db *sql.DB, cat *schema.Catalog, r daterange.Range, table, column string, merged map[string]int64) {
	conds := []string{
		fmt.Sprintf("%s IS NOT NULL", column),
		fmt.Sprintf("TRIM(%s) <> ''", column),
	}
	var args []interface{}
	if ts, ok := cat.TimestampColumn(table); ok {
		conds = append(conds, fmt.Sprintf("%s >= $1 AND %s <= $2", ts, ts))
		args = append(args, r.FromTime, r.ToTime)
	}

	query := fmt.Sprintf(`
		SELECT TRIM(%s) AS key, COUNT(*)
		FROM %s
		WHERE %s
		GROUP BY 1
	`, column, table, strings.Join(conds, " AND "))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		logging.L().Warn("attribution query skipped",
			zap.String("table", table),
			zap.String("column", column),
			zap.Error(err))
		return
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			continue
		}
		merged[key] += count
	}
	if err := rows.Err(); err != nil {
		logging.L().Warn("attribution rows aborted", zap.String("table", table), zap.Error(err))
	}
}
