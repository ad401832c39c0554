package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/username/optimoney/backend/src/config"
	"github.com/username/optimoney/backend/src/logger"
)

func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			SMTPServer:   config.Cfg.SMTPServer,
			SMTPPort:     config.Cfg.SMTPPort,
			SMTPUser:     config.Cfg.SMTPUser,
			SMTPPassword: config.Cfg.SMTPPassword,
			SenderEmail:  config.Cfg.SenderEmail,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{}
	}
}

type MailgunEmailService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
}

func (s *MailgunEmailService) SendWelcomeEmail(toEmail, name string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := "Welcome to OptiMoney"

	plainTextBody := fmt.Sprintf(`Hi %s,

Welcome to OptiMoney! Your account is ready. Start by recording a few
transactions and we will begin looking for savings opportunities for you.

Thanks,
The OptiMoney Team`, name)

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hi %s,</p>
			<p>Welcome to OptiMoney! Your account is ready. Start by recording a few transactions and we will begin looking for savings opportunities for you.</p>
			<p>Thanks,<br>The OptiMoney Team</p>
		</body>
	</html>`, name)

	message := s.mg.NewMessage(from, subject, plainTextBody, toEmail)
	message.SetHtml(htmlBody)
	message.AddTag("welcome")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send welcome email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Welcome email sent successfully via Mailgun", "to", toEmail, "id", id)
	return nil
}

func (s *MailgunEmailService) SendBudgetAlertEmail(toEmail, name, categoryName string, spent, limit float64, currency string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := fmt.Sprintf("Budget exceeded for %s", categoryName)

	plainTextBody := fmt.Sprintf(`Hi %s,

Your spending in %s has reached %.0f %s, which is over your budget of %.0f %s.
Review your recent transactions to keep this month on track.

Thanks,
The OptiMoney Team`, name, categoryName, spent, currency, limit, currency)

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hi %s,</p>
			<p>Your spending in <strong>%s</strong> has reached <strong>%.0f %s</strong>, which is over your budget of %.0f %s.</p>
			<p>Review your recent transactions to keep this month on track.</p>
			<p>Thanks,<br>The OptiMoney Team</p>
		</body>
	</html>`, name, categoryName, spent, currency, limit, currency)

	message := s.mg.NewMessage(from, subject, plainTextBody, toEmail)
	message.SetHtml(htmlBody)
	message.AddTag("budget-alert")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send budget alert email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed for budget alert: %w. Response: %s", err, resp)
	}
	logger.L.Info("Budget alert email sent successfully via Mailgun", "to", toEmail, "id", id)
	return nil
}

type SMTPEmailService struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
}

func (s *SMTPEmailService) SendWelcomeEmail(toEmail, name string) error {
	subject := "Welcome to OptiMoney"
	body := fmt.Sprintf(`Hi %s,

Welcome to OptiMoney! Your account is ready.

Thanks,
The OptiMoney Team`, name)
	return s.send(toEmail, subject, body)
}

func (s *SMTPEmailService) SendBudgetAlertEmail(toEmail, name, categoryName string, spent, limit float64, currency string) error {
	subject := fmt.Sprintf("Budget exceeded for %s", categoryName)
	body := fmt.Sprintf(`Hi %s,

Your spending in %s has reached %.0f %s, which is over your budget of %.0f %s.

Thanks,
The OptiMoney Team`, name, categoryName, spent, currency, limit, currency)
	return s.send(toEmail, subject, body)
}

func (s *SMTPEmailService) send(toEmail, subject, body string) error {
	header := make(map[string]string)
	header["From"] = s.SenderEmail
	header["To"] = toEmail
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/plain; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	if err := smtp.SendMail(addr, auth, s.SenderEmail, []string{toEmail}, []byte(message)); err != nil {
		logger.L.Error("Failed to send email via SMTP", "error", err, "to", toEmail, "subject", subject)
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}
	logger.L.Info("Email sent successfully via SMTP", "to", toEmail, "subject", subject)
	return nil
}

type MockEmailService struct{}

func (m *MockEmailService) SendWelcomeEmail(toEmail, name string) error {
	if logger.L != nil {
		logger.L.Info("MOCK EMAIL: welcome", "to", toEmail, "name", name)
	}
	return nil
}

func (m *MockEmailService) SendBudgetAlertEmail(toEmail, name, categoryName string, spent, limit float64, currency string) error {
	if logger.L != nil {
		logger.L.Info("MOCK EMAIL: budget alert", "to", toEmail, "category", categoryName, "spent", spent, "limit", limit, "currency", currency)
	}
	return nil
}
