// Package mailer sends plain-text email over SMTP.
package mailer

import (
	"errors"
	"log/slog"

	"indico/config"

	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("smtp not configured")

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	from   string
	sender sender
}

// New returns a Mailer, or nil when SMTP_HOST is empty. A nil Mailer reports ErrNotConfigured.
func New(cfg *config.SMTPConfig) *Mailer {
	if cfg.Host == "" {
		slog.Info("smtp not configured, prospect email disabled")
		return nil
	}
	from := cfg.Sender
	if from == "" {
		from = cfg.User
	}
	return &Mailer{
		from:   from,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	if m == nil {
		return ErrNotConfigured
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.sender.DialAndSend(msg)
}
