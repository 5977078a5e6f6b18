package services

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"birthdayreminder/models"
)

type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(apiKey, fromName, fromAddress string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
	}
}

func (m *SendGridMailer) SendMessage(ctx context.Context, recipients []string, subject, body string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("%w: no recipients", models.ErrDeliveryFailure)
	}

	message := buildSendGridMessage(m.from, recipients, subject, body)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %w", models.ErrDeliveryFailure, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("%w: sendgrid status %d: %s", models.ErrDeliveryFailure, response.StatusCode, response.Body)
	}

	return nil
}

func buildSendGridMessage(from *mail.Email, recipients []string, subject, body string) *mail.SGMailV3 {
	p := mail.NewPersonalization()
	for _, r := range recipients {
		p.AddTos(mail.NewEmail("", r))
	}

	message := mail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = subject
	message.AddPersonalizations(p)
	message.AddContent(mail.NewContent("text/plain", body))

	return message
}
