// Package mailer sends transactional email over SMTP.
package mailer

import (
	"fmt"
	"strconv"

	"gopkg.in/gomail.v2"

	"cuentas/internal/config"
)

// Mailer delivers application email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	SendPasswordReset(to, username, resetURL string) error
}

// SMTPMailer sends mail through the SMTP server from configuration.
type SMTPMailer struct {
	cfg *config.Config
}

// NewSMTPMailer creates a Mailer backed by the configured SMTP server.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendPasswordReset emails a password reset link to the user.
func (m *SMTPMailer) SendPasswordReset(to, username, resetURL string) error {
	port, err := strconv.Atoi(m.cfg.SMTPPort)
	if err != nil {
		return fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	body := fmt.Sprintf(`<p>Hola %s,</p>
<p>Recibimos una solicitud para restablecer tu contrase&ntilde;a.
Este enlace expira en 15 minutos:</p>
<p><a href="%s">Restablecer contrase&ntilde;a</a></p>
<p>Si no solicitaste el cambio, ignora este correo.</p>`, username, resetURL)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SMTPUser)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Restablecer contraseña")
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.cfg.SMTPHost, port, m.cfg.SMTPUser, m.cfg.SMTPPassword)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
