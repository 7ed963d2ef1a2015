// Package notification sends templated transactional email for donation
// outcomes. Sending is best-effort: the intake path never blocks on, nor
// fails because of, a mail problem.
package notification

import (
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Email is a rendered message ready for transport.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer is the transport behind the notifier. Production uses SMTP; tests
// and unconfigured deployments use doubles or the log fallback.
type Mailer interface {
	Send(email Email) error
}

// SMTPConfig carries outbound mail credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// SMTPMailer delivers mail through an SMTP relay via gomail.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (m *SMTPMailer) Send(email Email) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.from, m.fromName))
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/plain", email.Text)
	msg.AddAlternative("text/html", email.HTML)
	return m.dialer.DialAndSend(msg)
}

// LogMailer is the development fallback when SMTP is unconfigured: it logs the
// message instead of delivering it, and reports success.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(email Email) error {
	m.Logger.Info("email would be sent",
		"to", email.To,
		"subject", email.Subject,
	)
	return nil
}
