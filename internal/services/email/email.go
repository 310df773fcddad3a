package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// EmailService handles sending emails
type EmailService struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
}

// NewEmailService creates a new email service
func NewEmailService() *EmailService {
	return &EmailService{
		smtpHost:     os.Getenv("SMTP_HOST"),
		smtpPort:     os.Getenv("SMTP_PORT"),
		smtpUsername: os.Getenv("SMTP_USERNAME"),
		smtpPassword: os.Getenv("SMTP_PASSWORD"),
		fromEmail:    os.Getenv("FROM_EMAIL"),
	}
}

// SendVerificationEmail sends an email with a verification link
func (s *EmailService) SendVerificationEmail(toEmail, name, token string) error {
	subject := "Verify Your Trust ZedFund Account"
	verificationLink := fmt.Sprintf("%s/verify-email?token=%s", os.Getenv("FRONTEND_URL"), token)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<body>
		<h2>Hello %s,</h2>
		<p>Thank you for joining Trust ZedFund! Please verify your email address to activate your account.</p>
		<p><a href="%s">Verify Email</a></p>
		<p>Or copy and paste this link in your browser: %s</p>
		<p>This link will expire in 48 hours.</p>
		<p>If you did not create an account with Trust ZedFund, please ignore this email.</p>
		<p>Best regards,<br>The Trust ZedFund Team</p>
	</body>
	</html>
	`, name, verificationLink, verificationLink)

	return s.sendEmail(toEmail, subject, body)
}

// SendWithdrawalEmail notifies a member that their withdrawal was paid out
func (s *EmailService) SendWithdrawalEmail(toEmail, name string, amount float64) error {
	subject := "Your Trust ZedFund Withdrawal"

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<body>
		<h2>Hello %s,</h2>
		<p>Your withdrawal of %.2f has been processed and sent to your mobile money account.</p>
		<p>Best regards,<br>The Trust ZedFund Team</p>
	</body>
	</html>
	`, name, amount)

	return s.sendEmail(toEmail, subject, body)
}

// sendEmail sends an email with HTML content
func (s *EmailService) sendEmail(toEmail, subject, htmlBody string) error {
	if s.smtpHost == "" || s.smtpPort == "" || s.smtpUsername == "" || s.smtpPassword == "" {
		log.Println("Email service not configured properly. Check environment variables.")
		return fmt.Errorf("email service not configured")
	}

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	from := fmt.Sprintf("From: Trust ZedFund <%s>\n", s.fromEmail)
	to := fmt.Sprintf("To: %s\n", toEmail)
	subjectLine := fmt.Sprintf("Subject: %s\n", subject)

	message := []byte(from + to + subjectLine + mime + htmlBody)

	auth := smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)
	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)

	if err := smtp.SendMail(addr, auth, s.fromEmail, []string{toEmail}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
