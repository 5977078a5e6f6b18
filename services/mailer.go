package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"birthdayreminder/config"
)

// Mailer delivers a plain-text message. Errors wrap models.ErrDeliveryFailure.
type Mailer interface {
	SendMessage(ctx context.Context, recipients []string, subject, body string) error
}

// NewMailer picks SendGrid, then SMTP, then a log-only mailer, depending on what is configured.
func NewMailer(cfg config.EmailConfig, log zerolog.Logger) Mailer {
	switch {
	case cfg.SendGridAPIKey != "":
		log.Info().Msg("email delivery: sendgrid")
		return NewSendGridMailer(cfg.SendGridAPIKey, cfg.FromName, cfg.From)
	case cfg.SMTPHost != "":
		log.Info().Str("host", cfg.SMTPHost).Int("port", cfg.SMTPPort).Msg("email delivery: smtp")
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From)
	default:
		log.Warn().Msg("missing email config, messages will only be logged")
		return NewLogMailer(log)
	}
}

type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendMessage(_ context.Context, recipients []string, subject, body string) error {
	m.log.Info().
		Str("to", strings.Join(recipients, ",")).
		Str("subject", subject).
		Str("body", body).
		Msg("email skipped")
	return nil
}
