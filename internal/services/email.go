package services

import (
	"fmt"
	"html"
	"net/smtp"

	"github.com/portfoliofuturo/portfolio-api/internal/config"
)

type EmailService struct {
	cfg config.SMTPConfig
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

// Send is a no-op when SMTP is not configured.
func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, buildMessage(s.cfg.From, to, subject, body))
}

func (s *EmailService) SendConfirmation(to, name, confirmURL string) error {
	subject := "Confirme seu email - Portfolio Futuro"
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Bem-vindo, %s!</h2>
			<p>Falta pouco para ativar sua conta.</p>
			<p><a href="%s">Clique aqui para confirmar seu email</a></p>
		</body>
		</html>
	`, html.EscapeString(name), html.EscapeString(confirmURL))

	return s.Send(to, subject, body)
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		from, to, subject, body))
}
