// Package email sends transactional mail over SMTP.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"
)

type Settings struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	TLSMode   string
}

// Mailer sends the application's outbound mail. PublicURL is the base
// the reset link is built on.
type Mailer struct {
	Settings  Settings
	PublicURL *url.URL
}

func (m *Mailer) SendPasswordReset(ctx context.Context, toEmail, rawToken string) error {
	link := "/reset-password?token=" + url.QueryEscape(rawToken)
	if m.PublicURL != nil {
		link = m.PublicURL.JoinPath("reset-password").String() + "?token=" + url.QueryEscape(rawToken)
	}

	body := strings.Join([]string{
		"A password reset was requested for your account.",
		"",
		"Open the link below to choose a new password. The link expires soon.",
		"",
		link,
		"",
		"If you did not request this, you can ignore this email.",
	}, "\r\n")

	return m.send(ctx, toEmail, "Reset your password", body)
}

func (m *Mailer) send(ctx context.Context, toEmail, subject, textBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.Settings.Host, m.Settings.Port)
	client, err := m.connect(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if m.Settings.Username != "" {
		auth := smtp.PlainAuth("", m.Settings.Username, m.Settings.Password, m.Settings.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(m.Settings.FromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	from := m.Settings.FromEmail
	if m.Settings.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.Settings.FromName, m.Settings.FromEmail)
	}
	if _, err := writer.Write([]byte(buildMessage(from, toEmail, subject, textBody))); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	if err := client.Quit(); err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
		return fmt.Errorf("smtp quit: %w", err)
	}
	return nil
}

func (m *Mailer) connect(addr string) (*smtp.Client, error) {
	tlsMode := m.Settings.TLSMode
	if tlsMode == "" {
		tlsMode = "starttls"
	}
	switch tlsMode {
	case "tls":
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.Settings.Host, MinVersion: tls.VersionTLS12})
		if err != nil {
			return nil, fmt.Errorf("smtp tls dial: %w", err)
		}
		client, err := smtp.NewClient(conn, m.Settings.Host)
		if err != nil {
			return nil, fmt.Errorf("smtp client: %w", err)
		}
		return client, nil
	default:
		client, err := smtp.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("smtp dial: %w", err)
		}
		if tlsMode == "starttls" {
			if err := client.StartTLS(&tls.Config{ServerName: m.Settings.Host, MinVersion: tls.VersionTLS12}); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("smtp starttls: %w", err)
			}
		}
		return client, nil
	}
}

func buildMessage(from, to, subject, body string) string {
	lines := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}
	return strings.Join(lines, "\r\n")
}
