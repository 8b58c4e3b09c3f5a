package messaging

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailSender(smtpHost string, smtpPort int, smtpUser, smtpPassword, from string) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   from,
	}
}

// Send delivers the message body over SMTP. gomail has no context support, so
// the dial-and-send runs in a goroutine and the caller's deadline wins.
func (s *EmailSender) Send(ctx context.Context, to, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your verification code")
	m.SetBody("text/plain", body)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send verification email: %w", err)
		}

		return nil
	case <-ctx.Done():
		return fmt.Errorf("verification email send timed out: %w", ctx.Err())
	}
}
