package services

import (
	"context"
	"fmt"

	"gopkg.in/mail.v2"

	"birthdayreminder/models"
)

type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: mail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendMessage(ctx context.Context, recipients []string, subject, body string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("%w: no recipients", models.ErrDeliveryFailure)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrDeliveryFailure, err)
	}

	message := mail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetHeader("To", recipients...)
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("%w: smtp: %w", models.ErrDeliveryFailure, err)
	}

	return nil
}
