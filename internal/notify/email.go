package notify

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"quote-management-api/internal/common"
)

// EmailSender renders a short HTML body per notification kind and delivers
// it over SMTP.
type EmailSender struct {
	addr string // host:port
	from string
}

func NewEmailSender(addr string, from string) *EmailSender {
	return &EmailSender{addr: addr, from: from}
}

func (s *EmailSender) Send(kind common.NotificationKind, payload Payload) error {
	if payload.RecipientEmail == "" {
		return fmt.Errorf("no recipient for %s notification", kind)
	}

	subject, body := renderEmail(kind, payload)
	msg := buildMessage(s.from, payload.RecipientEmail, subject, body)

	if err := smtp.SendMail(s.addr, nil, s.from, []string{payload.RecipientEmail}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func renderEmail(kind common.NotificationKind, p Payload) (string, string) {
	amount := fmt.Sprintf("R%.2f", float64(p.AmountCents)/100)

	var subject, lead string
	switch kind {
	case common.NotifyQuoteCreatedClient:
		subject = "You have received a quote"
		lead = fmt.Sprintf("A vendor has quoted %s for your request.", amount)
	case common.NotifyQuoteRevisedClient:
		subject = "Your quote has been revised"
		lead = fmt.Sprintf("The vendor has sent a revised quote of %s.", amount)
	case common.NotifyQuoteAcceptedVendor:
		subject = "Your quote was accepted"
		lead = fmt.Sprintf("The client accepted your quote of %s.", amount)
	case common.NotifyQuoteRejectedVendor:
		subject = "Your quote was declined"
		lead = fmt.Sprintf("The client declined your quote of %s.", amount)
	case common.NotifyQuoteReminderVendor:
		subject = "A quote request is waiting for you"
		lead = "A client is still waiting for a quote on their request."
	default:
		subject = "Quote update"
		lead = "There is an update on a quote."
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<p>%s</p>", lead)
	if p.Message != "" {
		// descriptions and feedback are end-user text, never markup
		fmt.Fprintf(&b, "<p><em>%s</em></p>", html.EscapeString(p.Message))
	}
	fmt.Fprintf(&b, "<p>Reference: %s</p>", html.EscapeString(p.QuoteRequestId))
	b.WriteString("</body></html>")

	return subject, b.String()
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)

	return []byte(b.String())
}

// LogSender is the fallback when no SMTP server is configured: it writes the
// notification to the log instead of delivering it.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "notify").Logger()}
}

func (s *LogSender) Send(kind common.NotificationKind, payload Payload) error {
	s.log.Info().
		Str("kind", string(kind)).
		Str("requestId", payload.QuoteRequestId).
		Str("revisionId", payload.RevisionId).
		Int64("amountCents", payload.AmountCents).
		Msg("notification")

	return nil
}
