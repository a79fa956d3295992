// Package digest assembles the weekly lead summary emailed to the
// campaign team: headline numbers, hottest leads and top sources for the
// trailing seven days, with a CSV export attached.
package digest

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"

	"github.com/votegrid/canvass/internal/logging"
	"github.com/votegrid/canvass/internal/models"
	"github.com/votegrid/canvass/internal/notify"
)

// HotLeadThreshold is the minimum score for the "hot leads" section.
const HotLeadThreshold = 7

const (
	topSourcesLimit = 5
	topLeadsLimit   = 10
	windowDays      = 7
)

// ScoredLead pairs a lead with its engagement score.
type ScoredLead struct {
	models.Lead
	Score int
}

// SourceCount is one entry of the top-sources breakdown.
type SourceCount struct {
	Source string
	Count  int
}

// Report is the computed weekly digest.
type Report struct {
	From       time.Time
	To         time.Time
	TotalLeads int
	SMSOptIns  int
	SMSPercent int
	HotLeads   []ScoredLead
	TopSources []SourceCount
	TopLeads   []ScoredLead
	// Leads holds every lead in the window, scored and sorted. The CSV
	// attachment exports all of them, not just the top slice.
	Leads []ScoredLead
}

// Build computes the digest over the given leads.
func Build(leads []models.Lead, from, to, now time.Time) Report {
	report := Report{From: from, To: to, TotalLeads: len(leads)}

	scored := make([]ScoredLead, 0, len(leads))
	sources := map[string]int{}
	for _, lead := range leads {
		if lead.SMSOptIn {
			report.SMSOptIns++
		}
		source := strings.TrimSpace(lead.Source)
		if source == "" {
			source = "unknown"
		}
		sources[source]++
		scored = append(scored, ScoredLead{Lead: lead, Score: models.ScoreLead(lead, now)})
	}

	if report.TotalLeads > 0 {
		report.SMSPercent = report.SMSOptIns * 100 / report.TotalLeads
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].CreatedAt.After(scored[j].CreatedAt)
	})

	report.Leads = scored
	for _, s := range scored {
		if s.Score >= HotLeadThreshold {
			report.HotLeads = append(report.HotLeads, s)
		}
	}
	if len(scored) > topLeadsLimit {
		report.TopLeads = scored[:topLeadsLimit]
	} else {
		report.TopLeads = scored
	}

	for source, count := range sources {
		report.TopSources = append(report.TopSources, SourceCount{Source: source, Count: count})
	}
	sort.Slice(report.TopSources, func(i, j int) bool {
		if report.TopSources[i].Count != report.TopSources[j].Count {
			return report.TopSources[i].Count > report.TopSources[j].Count
		}
		return report.TopSources[i].Source < report.TopSources[j].Source
	})
	if len(report.TopSources) > topSourcesLimit {
		report.TopSources = report.TopSources[:topSourcesLimit]
	}

	return report
}

// HTML renders the digest body.
func (r Report) HTML() string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h2>Weekly lead digest</h2>")
	fmt.Fprintf(&b, "<p>%s through %s</p>",
		r.From.Format("Jan 2"), r.To.Format("Jan 2, 2006"))
	fmt.Fprintf(&b, "<p><strong>%d</strong> new leads, <strong>%d</strong> SMS opt-ins (%d%%)</p>",
		r.TotalLeads, r.SMSOptIns, r.SMSPercent)

	if len(r.HotLeads) > 0 {
		fmt.Fprintf(&b, "<h3>Hot leads (score %d+)</h3><ul>", HotLeadThreshold)
		for _, lead := range r.HotLeads {
			fmt.Fprintf(&b, "<li>%s &lt;%s&gt; — score %d</li>",
				html.EscapeString(lead.Name), html.EscapeString(lead.Email), lead.Score)
		}
		b.WriteString("</ul>")
	}

	if len(r.TopSources) > 0 {
		b.WriteString("<h3>Top sources</h3><ol>")
		for _, src := range r.TopSources {
			fmt.Fprintf(&b, "<li>%s (%d)</li>", html.EscapeString(src.Source), src.Count)
		}
		b.WriteString("</ol>")
	}

	if len(r.TopLeads) > 0 {
		b.WriteString("<h3>Top leads by score</h3><ol>")
		for _, lead := range r.TopLeads {
			fmt.Fprintf(&b, "<li>%s — %d</li>", html.EscapeString(lead.Name), lead.Score)
		}
		b.WriteString("</ol>")
	}

	return b.String()
}

// CSV renders the week's leads as a spreadsheet attachment.
func (r Report) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"created_at", "name", "email", "phone", "sms_opt_in", "locale", "source", "status", "score"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, lead := range r.Leads {
		phone := ""
		if lead.Phone != nil {
			phone = *lead.Phone
		}
		record := []string{
			lead.CreatedAt.Format(time.RFC3339),
			lead.Name,
			lead.Email,
			phone,
			strconv.FormatBool(lead.SMSOptIn),
			lead.Locale,
			lead.Source,
			lead.Status,
			strconv.Itoa(lead.Score),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Run pulls the trailing week of leads, builds the digest and emails it.
func Run(ctx context.Context, db *sql.DB, mailer *notify.Mailer, to []string, now time.Time) error {
	from := now.AddDate(0, 0, -windowDays)

	leads, err := models.LeadsBetween(ctx, db, from, now)
	if err != nil {
		return fmt.Errorf("failed to load digest leads: %w", err)
	}

	report := Build(leads, from, now, now)

	attachment, err := report.CSV()
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Weekly lead digest: %d new leads", report.TotalLeads)
	err = mailer.Send(to, subject, report.HTML(), resend.Attachment{
		Filename: "leads-" + now.Format("2006-01-02") + ".csv",
		Content:  string(attachment),
	})
	if err != nil {
		return err
	}

	logging.L().Info("weekly digest sent",
		zap.Int("leads", report.TotalLeads),
		zap.Int("hot_leads", len(report.HotLeads)),
		zap.Strings("to", to),
	)
	return nil
}
