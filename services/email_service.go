package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/leaguehq/league-api/config"
)

// EmailService sends mail over SMTP. It implements ResetMailer.
type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

const emailBoundary = "league-api-alt"

// SendEmail delivers a multipart/alternative message with plain-text and
// HTML bodies.
func (s *EmailService) SendEmail(to []string, subject, textBody, htmlBody string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", to[0])
	fmt.Fprintf(&msg, "From: Sports League <%s>\r\n", s.cfg.SMTPFrom)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", emailBoundary)
	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n", emailBoundary, textBody)
	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s\r\n", emailBoundary, htmlBody)
	fmt.Fprintf(&msg, "--%s--\r\n", emailBoundary)

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}

	if _, err = w.Write(msg.Bytes()); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}

	return nil
}

func (s *EmailService) GenerateEmailBody(templatePath string, data interface{}) (string, error) {
	t, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("ошибка парсинга шаблона %s: %w", templatePath, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона %s: %w", templatePath, err)
	}

	return body.String(), nil
}

// SendPasswordResetEmail mails the reset link. The plaintext secret appears
// only here; storage holds its hash.
func (s *EmailService) SendPasswordResetEmail(userEmail string, resetToken string) error {
	subject := "Password Reset Request"
	resetLink := fmt.Sprintf("%s/reset-password/%s", s.cfg.FrontendURL, resetToken)

	textBody := fmt.Sprintf(
		"You are receiving this email because a password reset was requested for your account.\r\n\r\n"+
			"Reset your password: %s\r\n\r\n"+
			"This link will expire in %d minutes. If you did not request this, ignore this email and your password will remain unchanged.",
		resetLink, int(s.cfg.ResetTokenTTL.Minutes()))

	templateData := struct {
		Email         string
		ResetLink     string
		ExpiryMinutes int
	}{
		Email:         userEmail,
		ResetLink:     resetLink,
		ExpiryMinutes: int(s.cfg.ResetTokenTTL.Minutes()),
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/password_reset_email.html", templateData)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма для сброса пароля: %w", err)
	}

	return s.SendEmail([]string{userEmail}, subject, textBody, htmlBody)
}
