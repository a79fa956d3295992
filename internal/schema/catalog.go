package schema

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/votegrid/canvass/internal/logging"
)

// timestampCandidates is the ordered probe list for event-time columns.
// Deployment generations named this column differently over time.
var timestampCandidates = []string{
	"created_at",
	"createdAt",
	"occurred_at",
	"event_time",
	"timestamp",
	"inserted_at",
	"date_created",
}

// Catalog describes which tables and columns exist in the active schema.
//
// The production database has gone through several schema generations, and
// not every deployment runs the newest one. Aggregation code resolves a
// catalog once per request and branches on what is actually present instead
// of assuming the latest migration ran. Identifiers used to build SQL must
// always come from catalog probes, never from request input.
type Catalog struct {
	tables map[string]map[string]bool
}

// Inspect reads information_schema once and builds the catalog for the
// current schema. Any metadata failure yields an empty catalog: every
// existence check then reports false and callers degrade to zero defaults.
func Inspect(ctx context.Context, db *sql.DB) *Catalog {
	cat := &Catalog{tables: map[string]map[string]bool{}}

	rows, err := db.QueryContext(ctx, `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
	`)
	if err != nil {
		logging.L().Error("schema inspection failed", zap.Error(err))
		return cat
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			continue
		}
		if cat.tables[table] == nil {
			cat.tables[table] = map[string]bool{}
		}
		cat.tables[table][column] = true
	}
	if err := rows.Err(); err != nil {
		logging.L().Error("schema inspection aborted mid-read", zap.Error(err))
		return &Catalog{tables: map[string]map[string]bool{}}
	}

	return cat
}

// Static builds a catalog from a fixed table/column map. Used by tests.
func Static(columns map[string][]string) *Catalog {
	cat := &Catalog{tables: map[string]map[string]bool{}}
	for table, cols := range columns {
		cat.tables[table] = map[string]bool{}
		for _, col := range cols {
			cat.tables[table][col] = true
		}
	}
	return cat
}

// TableExists reports whether a relation of that name is in the schema.
func (c *Catalog) TableExists(table string) bool {
	return len(c.tables[table]) > 0
}

// ColumnExists reports whether the table has the named column.
func (c *Catalog) ColumnExists(table, column string) bool {
	return c.tables[table][column]
}

// TimestampColumn returns the first known event-time column on the table,
// probing a fixed candidate list in order.
func (c *Catalog) TimestampColumn(table string) (string, bool) {
	for _, candidate := range timestampCandidates {
		if c.ColumnExists(table, candidate) {
			return candidate, true
		}
	}
	return "", false
}
