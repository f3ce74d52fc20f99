// Package notify sends account history emails. The model only sees a boolean
// outcome; delivery errors are logged here and never propagate.
package notify

import (
	"context"
	"log"

	"github.com/resend/resend-go/v2"
)

// ResendNotifier delivers email through the Resend API.
type ResendNotifier struct {
	client *resend.Client
	from   string
}

// NewResendNotifier creates a notifier sending from the given address.
func NewResendNotifier(apiKey, from string) *ResendNotifier {
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send dispatches one email and reports whether it was accepted.
func (n *ResendNotifier) Send(ctx context.Context, subject, body, recipient string) bool {
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{recipient},
		Subject: subject,
		Text:    body,
	}

	if _, err := n.client.Emails.SendWithContext(ctx, params); err != nil {
		log.Printf("Failed to send email to %s: %v", recipient, err)
		return false
	}
	return true
}

// LogNotifier writes emails to the process log instead of sending them.
// Used when no email API key is configured.
type LogNotifier struct{}

// Send logs the email and reports success.
func (LogNotifier) Send(_ context.Context, subject, body, recipient string) bool {
	log.Printf("Email to %s: subject=%q body=%q", recipient, subject, body)
	return true
}
