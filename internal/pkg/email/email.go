package email

import (
	"crypto/tls"
	"fmt"
	"html"
	"net/smtp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendPasswordRequestNotification(recipients []string, req PasswordRequestNotice) error
	SendAccountApproved(toEmail, toName, role string) error
}

// PasswordRequestNotice describes a pending account request
type PasswordRequestNotice struct {
	RequestID string
	Email     string
	FullName  string
	Role      string
	Reason    string
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	// FrontendURL is linked from notification bodies
	FrontendURL string
}

// EmailServiceImpl implements EmailService over SMTP
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
	send   func(to []string, msg []byte) error
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) *EmailServiceImpl {
	s := &EmailServiceImpl{
		config: config,
		logger: logger,
	}
	s.send = s.deliver
	return s
}

// enabled reports whether SMTP credentials are configured
func (s *EmailServiceImpl) enabled() bool {
	return s.config.Host != "" && s.config.Username != "" && s.config.Password != ""
}

// SendPasswordRequestNotification tells admins and moderators about a new account request
func (s *EmailServiceImpl) SendPasswordRequestNotification(recipients []string, req PasswordRequestNotice) error {
	recipients = dedupe(recipients)
	if len(recipients) == 0 {
		s.logger.Warn().Str("requestId", req.RequestID).Msg("No recipients for password request notification")
		return nil
	}

	if !s.enabled() {
		s.logger.Warn().
			Strs("recipients", recipients).
			Str("requestId", req.RequestID).
			Str("email", req.Email).
			Str("role", req.Role).
			Msg("SMTP not configured - password request notification not sent")
		return nil
	}

	subject := fmt.Sprintf("New %s account request from %s", strings.ToLower(req.Role), req.FullName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">New account request</h2>
				<p><strong>%s</strong> (%s) has requested a <strong>%s</strong> account.</p>
				<p>Reason: %s</p>
				<p>Review pending requests in the <a href="%s">admin dashboard</a>.</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(req.FullName), html.EscapeString(req.Email), html.EscapeString(req.Role),
		html.EscapeString(req.Reason), s.config.FrontendURL)

	return s.sendHTMLEmail(recipients, subject, body)
}

// SendAccountApproved tells a requester their account now exists
func (s *EmailServiceImpl) SendAccountApproved(toEmail, toName, role string) error {
	if !s.enabled() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("role", role).
			Msg("SMTP not configured - account approval email not sent")
		return nil
	}

	subject := "Your tutoring center account is ready"
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Welcome aboard!</h2>
				<p>Hello %s,</p>
				<p>Your %s account has been approved. You can now <a href="%s">sign in</a>.</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(toName), strings.ToLower(role), s.config.FrontendURL)

	return s.sendHTMLEmail([]string{toEmail}, subject, body)
}

// buildMessage renders headers and body into an RFC 5322 message
func (s *EmailServiceImpl) buildMessage(to []string, subject, htmlBody string) []byte {
	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail),
		"To":           strings.Join(to, ", "),
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headers[k])
	}
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func (s *EmailServiceImpl) sendHTMLEmail(to []string, subject, htmlBody string) error {
	if err := s.send(to, s.buildMessage(to, subject, htmlBody)); err != nil {
		s.logger.Error().Err(err).Strs("to", to).Str("subject", subject).Msg("Failed to send email")
		return err
	}
	s.logger.Info().Strs("to", to).Str("subject", subject).Msg("Email sent")
	return nil
}

// deliver writes the message to the configured SMTP server
func (s *EmailServiceImpl) deliver(to []string, message []byte) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if !s.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, to, message); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	return w.Close()
}

func dedupe(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		key := strings.ToLower(strings.TrimSpace(e))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(e))
	}
	return out
}
