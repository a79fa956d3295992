// Package notify sends transactional email through Resend. Without an API
// key the mailer degrades to a logged no-op so the capture endpoints never
// depend on email being configured.
package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"

	"github.com/votegrid/canvass/internal/logging"
	"github.com/votegrid/canvass/internal/models"
)

// Mailer wraps the Resend client with the campaign's sender identity.
type Mailer struct {
	client *resend.Client
	from   string
}

// NewMailer builds a mailer. An empty API key yields a disabled mailer.
func NewMailer(apiKey, from string) *Mailer {
	m := &Mailer{from: from}
	if apiKey != "" {
		m.client = resend.NewClient(apiKey)
	}
	return m
}

// Enabled reports whether outbound email is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.client != nil
}

// Send delivers one HTML email, optionally with attachments.
func (m *Mailer) Send(to []string, subject, body string, attachments ...resend.Attachment) error {
	if !m.Enabled() {
		logging.L().Debug("email disabled, dropping message", zap.String("subject", subject))
		return nil
	}
	if len(to) == 0 {
		return nil
	}

	_, err := m.client.Emails.Send(&resend.SendEmailRequest{
		From:        m.from,
		To:          to,
		Subject:     subject,
		Html:        body,
		Attachments: attachments,
	})
	if err != nil {
		return fmt.Errorf("failed to send email %q: %w", subject, err)
	}
	return nil
}

// NotifyNewLead alerts the campaign team about a fresh lead capture.
// Failures are logged, never surfaced; capture must not depend on email.
func (m *Mailer) NotifyNewLead(to string, in models.LeadInput) {
	if to == "" {
		return
	}

	phone := ""
	if in.Phone != nil {
		phone = *in.Phone
	}
	body := fmt.Sprintf(`
		<h2>New lead</h2>
		<table>
			%s%s%s%s%s%s
		</table>`,
		detailRow("Name", in.Name),
		detailRow("Email", in.Email),
		detailRow("Phone", phone),
		detailRow("SMS opt-in", yesNo(in.SMSOptIn)),
		detailRow("Locale", in.Locale),
		detailRow("Source", in.Source),
	)

	if err := m.Send([]string{to}, "New lead: "+in.Name, body); err != nil {
		logging.L().Error("lead notification failed", zap.Error(err))
	}
}

// NotifyVolunteer alerts the campaign team about a volunteer signup.
func (m *Mailer) NotifyVolunteer(to string, in models.VolunteerInput) {
	if to == "" {
		return
	}

	name := strings.TrimSpace(in.FirstName + " " + in.LastName)
	body := fmt.Sprintf(`
		<h2>New volunteer signup</h2>
		<table>
			%s%s%s%s%s%s
		</table>`,
		detailRow("Name", name),
		detailRow("Email", in.Email),
		detailRow("Phone", deref(in.Phone)),
		detailRow("Zip", deref(in.Zip)),
		detailRow("Interest", deref(in.Interest)),
		detailRow("SMS opt-in", yesNo(in.SMSOptIn)),
	)

	if err := m.Send([]string{to}, "New volunteer: "+name, body); err != nil {
		logging.L().Error("volunteer notification failed", zap.Error(err))
	}
}

func detailRow(label, value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf("<tr><td><strong>%s</strong></td><td>%s</td></tr>",
		html.EscapeString(label), html.EscapeString(value))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
