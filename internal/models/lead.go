package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// LeadStatuses are the valid pipeline buckets, in pipeline order.
var LeadStatuses = []string{"new", "contacted", "committed", "volunteer", "donor"}

// MaxLeadTags caps the tag list stored per lead.
const MaxLeadTags = 50

var (
	// ErrLeadNotFound indicates the targeted lead row does not exist.
	ErrLeadNotFound = errors.New("lead not found")
	// ErrEmptyPatch indicates an update carrying no recognized fields.
	ErrEmptyPatch = errors.New("no updatable fields provided")
)

// Lead is a captured supporter record.
type Lead struct {
	ID          int       `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	SMSOptIn    bool      `json:"sms_opt_in"`
	Locale      string    `json:"locale"`
	Source      string    `json:"source"`
	Status      string    `json:"status"`
	Tags        []string  `json:"tags"`
	Notes       *string   `json:"notes,omitempty"`
	AssignedTo  *string   `json:"assigned_to,omitempty"`
	UTMSource   *string   `json:"utm_source,omitempty"`
	UTMCampaign *string   `json:"utm_campaign,omitempty"`
	SourcePath  *string   `json:"source_path,omitempty"`
}

// LeadInput is the payload accepted by the public lead endpoint.
type LeadInput struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	SMSOptIn bool    `json:"smsOptIn"`
	Locale   string  `json:"locale"`
	Source   string  `json:"source"`
}

// LeadPatch carries the optional pipeline fields of a partial update.
// Nil means "leave unchanged"; a present empty value clears the field.
type LeadPatch struct {
	Status     *string   `json:"status"`
	Tags       *[]string `json:"tags"`
	Notes      *string   `json:"notes"`
	AssignedTo *string   `json:"assignedTo"`
}

// leadColumns is the scan list shared by every lead read path. Older rows
// may predate the pipeline columns, hence the COALESCEd status and tags.
const leadColumns = `id, created_at, name, email, phone, sms_opt_in, locale, source,
	COALESCE(status, 'new'), COALESCE(tags, '{}'), notes, assigned_to,
	utm_source, utm_campaign, source_path`

// NormalizeStatus coerces free-form status input into one of the five
// pipeline buckets. Anything unrecognized, including blank, becomes "new".
func NormalizeStatus(status string) string {
	normalized := strings.ToLower(strings.TrimSpace(status))
	for _, valid := range LeadStatuses {
		if normalized == valid {
			return valid
		}
	}
	return "new"
}

// NormalizeTags trims every tag, drops empties, de-duplicates by trimmed
// value and caps the result at MaxLeadTags.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	normalized := []string{}
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		normalized = append(normalized, trimmed)
		if len(normalized) == MaxLeadTags {
			break
		}
	}
	return normalized
}

// InsertLead stores a new lead captured by the public form.
func InsertLead(ctx context.Context, db *sql.DB, in LeadInput) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO leads (name, email, phone, sms_opt_in, locale, source)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, in.Name, in.Email, in.Phone, in.SMSOptIn, in.Locale, in.Source)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

// UpdateLead applies a partial pipeline update and returns the updated row.
// Supplied fields are normalized; omitted fields are left untouched.
func UpdateLead(ctx context.Context, db *sql.DB, id int, patch LeadPatch) (*Lead, error) {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", NormalizeStatus(*patch.Status))
	}
	if patch.Tags != nil {
		add("tags", pq.Array(NormalizeTags(*patch.Tags)))
	}
	if patch.Notes != nil {
		add("notes", emptyToNull(*patch.Notes))
	}
	if patch.AssignedTo != nil {
		add("assigned_to", emptyToNull(*patch.AssignedTo))
	}

	if len(sets) == 0 {
		return nil, ErrEmptyPatch
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE leads SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), leadColumns,
	)

	lead, err := scanLead(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update lead %d: %w", id, err)
	}
	return lead, nil
}

// PipelineCounts groups all lead rows into the five status buckets.
// Stored values outside the enum are counted under "new".
func PipelineCounts(ctx context.Context, db *sql.DB) (map[string]int64, error) {
	counts := make(map[string]int64, len(LeadStatuses))
	for _, status := range LeadStatuses {
		counts[status] = 0
	}

	rows, err := db.QueryContext(ctx, `
		SELECT COALESCE(status, ''), COUNT(*)
		FROM leads
		GROUP BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count pipeline: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline row: %w", err)
		}
		counts[NormalizeStatus(status)] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pipeline rows: %w", err)
	}

	return counts, nil
}

// SearchLeads returns the newest leads, optionally filtered by a
// case-insensitive name/email substring match.
func SearchLeads(ctx context.Context, db *sql.DB, q string, limit int) ([]Lead, error) {
	query := fmt.Sprintf("SELECT %s FROM leads", leadColumns)
	var args []interface{}

	if trimmed := strings.TrimSpace(q); trimmed != "" {
		query += " WHERE name ILIKE $1 OR email ILIKE $1"
		args = append(args, "%"+trimmed+"%")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	return queryLeads(ctx, db, query, args...)
}

// LeadsBetween returns leads created inside the given instant window,
// newest first. Used by the weekly digest and the Mailchimp sync.
func LeadsBetween(ctx context.Context, db *sql.DB, from, to time.Time) ([]Lead, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM leads WHERE created_at >= $1 AND created_at <= $2 ORDER BY created_at DESC",
		leadColumns,
	)
	return queryLeads(ctx, db, query, from, to)
}

func queryLeads(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]Lead, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	leads := []Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leads: %w", err)
	}
	return leads, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*Lead, error) {
	var lead Lead
	var tags pq.StringArray
	err := row.Scan(
		&lead.ID,
		&lead.CreatedAt,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.SMSOptIn,
		&lead.Locale,
		&lead.Source,
		&lead.Status,
		&tags,
		&lead.Notes,
		&lead.AssignedTo,
		&lead.UTMSource,
		&lead.UTMCampaign,
		&lead.SourcePath,
	)
	if err != nil {
		return nil, err
	}
	lead.Tags = []string(tags)
	return &lead, nil
}

// emptyToNull trims the value and maps an empty result to SQL NULL.
func emptyToNull(value string) interface{} {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return trimmed
}
