package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender delivers outbound mail. Delivery is best effort: callers dispatch
// in a goroutine and log failures without surfacing them to the client.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlContent string) error
}

// SendGridSender sends through the SendGrid API.
type SendGridSender struct {
	client *sendgrid.Client
	from   string
}

func NewSendGridSender(apiKey, from string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   from,
	}
}

func (s *SendGridSender) Send(ctx context.Context, to, subject, htmlContent string) error {
	from := mail.NewEmail("Contacts Service", s.from)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, "", htmlContent)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	return nil
}

// VerificationMessage builds the subject and body of the verification
// email sent after registration and on resend.
func VerificationMessage(baseURL, token string) (subject, htmlContent string) {
	subject = "Verify your email"
	htmlContent = fmt.Sprintf(
		`<p>Welcome! Please confirm your email address.</p><a target="_blank" href="%s/users/verify/%s">Click to verify</a>`,
		baseURL, token)
	return subject, htmlContent
}
