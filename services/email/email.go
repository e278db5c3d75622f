package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"puretrack/errs"
	settingsService "puretrack/services/settings"

	"gorm.io/gorm"
)

// Send delivers a plaintext email using the SMTP configuration stored in
// system settings. Returns ErrValidation when the configuration is
// incomplete and ErrExternalService when the server refuses us.
func Send(db *gorm.DB, toEmail, subject, body string) error {
	cfg, err := settingsService.LoadSMTP(db)
	if err != nil {
		return err
	}
	return sendWithConfig(cfg, toEmail, subject, body)
}

func sendWithConfig(cfg *settingsService.SMTPConfig, toEmail, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	auth := smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	msg := buildMessage(cfg.User, toEmail, subject, body)

	switch strings.ToUpper(cfg.Security) {
	case "SSL/TLS":
		if err := sendOverTLS(addr, cfg.Host, auth, cfg.User, toEmail, msg); err != nil {
			return errs.Externalf("SMTP delivery failed: %v", err)
		}
	default:
		// STARTTLS (or none) — net/smtp upgrades automatically when the
		// server advertises it.
		if err := smtp.SendMail(addr, auth, cfg.User, []string{toEmail}, msg); err != nil {
			return errs.Externalf("SMTP delivery failed: %v", err)
		}
	}
	return nil
}

func sendOverTLS(addr, host string, auth smtp.Auth, from, to string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer func() { _ = client.Quit() }()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
