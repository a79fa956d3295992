// Package mailchimp pushes captured leads into a Mailchimp audience.
//
// Members are upserted with the list-member PUT endpoint, keyed by the
// MD5 of the lowercased email, so re-syncing the same lead is idempotent.
package mailchimp

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/votegrid/canvass/internal/logging"
	"github.com/votegrid/canvass/internal/models"
)

const requestTimeout = 10 * time.Second

// Client talks to the Mailchimp marketing API for one audience.
type Client struct {
	apiKey       string
	serverPrefix string
	audienceID   string
	http         *fasthttp.Client
}

// New builds a client. Missing credentials yield a disabled client.
func New(apiKey, serverPrefix, audienceID string) *Client {
	return &Client{
		apiKey:       apiKey,
		serverPrefix: serverPrefix,
		audienceID:   audienceID,
		http:         &fasthttp.Client{},
	}
}

// Enabled reports whether the audience sync is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != "" && c.serverPrefix != "" && c.audienceID != ""
}

type memberPayload struct {
	EmailAddress string            `json:"email_address"`
	StatusIfNew  string            `json:"status_if_new"`
	MergeFields  map[string]string `json:"merge_fields"`
}

// UpsertMember creates or updates the audience member for a lead.
func (c *Client) UpsertMember(ctx context.Context, lead models.Lead, score int) error {
	if !c.Enabled() {
		return nil
	}

	first, last := SplitName(lead.Name)
	payload := memberPayload{
		EmailAddress: lead.Email,
		StatusIfNew:  subscriptionStatus(lead.SMSOptIn),
		MergeFields: map[string]string{
			"FNAME":      first,
			"LNAME":      last,
			"PHONE":      strValue(lead.Phone),
			"SOURCE":     lead.Source,
			"LEAD_SCORE": fmt.Sprintf("%d", score),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode member payload: %w", err)
	}

	url := fmt.Sprintf("https://%s.api.mailchimp.com/3.0/lists/%s/members/%s",
		c.serverPrefix, c.audienceID, MemberID(lead.Email))

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPut)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.SetBody(body)

	deadline := time.Now().Add(requestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("mailchimp request failed: %w", err)
	}

	if resp.StatusCode() >= 400 {
		return fmt.Errorf("mailchimp rejected member %s: status %d", lead.Email, resp.StatusCode())
	}
	return nil
}

// SyncSince upserts every lead created after the cutoff and returns how
// many synced. Individual failures are logged and skipped so one bad
// address cannot stall the batch.
func SyncSince(ctx context.Context, db *sql.DB, client *Client, since, now time.Time) (int, error) {
	if !client.Enabled() {
		return 0, fmt.Errorf("mailchimp is not configured")
	}

	leads, err := models.LeadsBetween(ctx, db, since, now)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, lead := range leads {
		if strings.TrimSpace(lead.Email) == "" {
			continue
		}
		if err := client.UpsertMember(ctx, lead, models.ScoreLead(lead, now)); err != nil {
			logging.L().Warn("mailchimp upsert skipped",
				zap.String("email", lead.Email),
				zap.Error(err))
			continue
		}
		synced++
	}

	logging.L().Info("mailchimp sync finished",
		zap.Int("synced", synced),
		zap.Int("total", len(leads)))
	return synced, nil
}

// MemberID derives the Mailchimp member hash for an email address.
func MemberID(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// SplitName splits a free-form full name into first and last parts.
// Everything after the first word lands in the last name.
func SplitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// subscriptionStatus maps the SMS opt-in to the initial member status.
// Leads who opted in gave marketing consent; everyone else stays
// transactional until they subscribe themselves.
func subscriptionStatus(optedIn bool) string {
	if optedIn {
		return "subscribed"
	}
	return "transactional"
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
