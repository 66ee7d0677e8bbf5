package services

import (
	"fmt"
	"os"

	"main/utils"

	"gopkg.in/gomail.v2"
)

// Mailer sends password-reset mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer builds a mailer from SMTP_* environment variables. A missing
// host is a deployment mistake and errors immediately.
func NewMailer() (*Mailer, error) {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil, fmt.Errorf("SMTP_HOST is not set")
	}

	port := utils.GetEnvAsInt("SMTP_PORT", 587)
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := utils.GetEnvAsString("SMTP_FROM", user)

	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}, nil
}

// SendPasswordReset mails a reset link to the user.
func (m *Mailer) SendPasswordReset(to, name, link string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password Reset Request")
	msg.SetBody("text/html", fmt.Sprintf(
		`<p>Hello %s,</p>
<p>A password reset was requested for your portal account. The link below is valid for 30 minutes:</p>
<p><a href="%s">Reset your password</a></p>
<p>If you did not request this, you can ignore this email.</p>`,
		name, link))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send reset mail to %s: %w", to, err)
	}
	return nil
}
