package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun wraps Mailgun client configuration.
type Mailgun struct {
	Domain            string
	APIKey            string
	Sender            string
	WebhookSigningKey string
}

func NewMailgun(domain, apiKey, sender, webhookSigningKey string) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Sender: sender, WebhookSigningKey: webhookSigningKey}
}

func (m *Mailgun) client() *mg.MailgunImpl {
	client := mg.NewMailgun(m.Domain, m.APIKey)
	if m.WebhookSigningKey != "" {
		client.SetWebhookSigningKey(m.WebhookSigningKey)
	}
	return client
}

// Send sends an email via Mailgun. html is optional; if provided it will be used as HTML body.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	client := m.client()
	msg := client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := client.Send(c, msg)
	return err
}

// VerifyWebhook checks the signature block of an incoming event webhook
// against the signing key.
func (m *Mailgun) VerifyWebhook(sig mg.Signature) (bool, error) {
	return m.client().VerifyWebhookSignature(sig)
}
