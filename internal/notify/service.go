package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/vendor-inquiry/internal/inquiries"
	"github.com/wolfman30/vendor-inquiry/pkg/logging"
)

// Service tells operators about new inquiries by email.
type Service struct {
	email      EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewService creates a notification service. Blank recipients are dropped.
func NewService(email EmailSender, recipients []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	cleaned := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			cleaned = append(cleaned, r)
		}
	}
	return &Service{
		email:      email,
		recipients: cleaned,
		logger:     logger.Component("notify"),
	}
}

// ParseRecipients splits a comma separated address list.
func ParseRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NotifyNewInquiry emails every configured recipient. Per-recipient failures
// are joined; a missing sender or empty recipient list is a no-op.
func (s *Service) NotifyNewInquiry(ctx context.Context, inq *inquiries.Inquiry) error {
	if inq == nil {
		return nil
	}
	if s.email == nil || len(s.recipients) == 0 {
		s.logger.Debug("notify: no email recipients configured, skipping", "inquiry_id", inq.ID)
		return nil
	}

	subject := fmt.Sprintf("New %s inquiry from %s", inq.Category, inq.Name)
	body := inquiryText(inq)
	htmlBody := inquiryHTML(inq)

	var errs []error
	for _, recipient := range s.recipients {
		msg := EmailMessage{
			To:      recipient,
			Subject: subject,
			Body:    body,
			HTML:    htmlBody,
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send email", "error", err, "to", recipient)
			errs = append(errs, err)
			continue
		}
		s.logger.Info("notify: inquiry email sent", "to", recipient, "inquiry_id", inq.ID)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d of %d emails failed: %w", len(errs), len(s.recipients), errors.Join(errs...))
	}
	return nil
}

func inquiryText(inq *inquiries.Inquiry) string {
	return fmt.Sprintf(`%s sent a new vendor inquiry.

Name: %s
Contact: %s
Location: %s
Category: %s
Received: %s

Requirement:
%s
`, inq.Name, inq.Name, inq.ContactNumber, inq.Location, inq.Category,
		inq.CreatedAt.Format("January 2, 2006 at 3:04 PM MST"), inq.Requirement)
}

func inquiryHTML(inq *inquiries.Inquiry) string {
	row := func(label, value string) string {
		return fmt.Sprintf(`  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>%s:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
`, label, html.EscapeString(value))
	}
	var b strings.Builder
	b.WriteString(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #b45309;">New vendor inquiry</h2>
<table style="border-collapse: collapse; margin: 20px 0;">
`)
	b.WriteString(row("Name", inq.Name))
	b.WriteString(row("Contact", inq.ContactNumber))
	b.WriteString(row("Location", inq.Location))
	b.WriteString(row("Category", inq.Category))
	b.WriteString(row("Received", inq.CreatedAt.Format("January 2, 2006 at 3:04 PM MST")))
	b.WriteString("</table>\n")
	fmt.Fprintf(&b, `<p style="background: #fffbeb; padding: 12px; border-radius: 8px; border-left: 4px solid #b45309;">%s</p>
</div>`, html.EscapeString(inq.Requirement))
	return b.String()
}

var _ inquiries.Notifier = (*Service)(nil)
