package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/medidesk/clinic-api/internal/config"
	"github.com/medidesk/clinic-api/internal/model"
)

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	// baseURL prefixes portal and verification links in message bodies.
	baseURL string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		baseURL: cfg.BaseURL,
	}
}

func (s *smtpService) SendConfirmation(_ context.Context, to string, role model.Role) error {
	rc, ok := model.RoleConfigs[role]
	if !ok {
		return fmt.Errorf("unknown role %q", role)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Welcome to Clinic Management - %s Account Created", rc.Title))
	m.SetBody("text/html", s.confirmationBody(to, rc))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	return nil
}

func (s *smtpService) SendVerification(_ context.Context, to string, token string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Verify your Clinic Management email address")
	m.SetBody("text/html", fmt.Sprintf(`
		<p>Please confirm your email address to activate your account:</p>
		<p><a href="%s/api/v1/auth/verify-email?token=%s">Verify email</a></p>
		<p>If you did not create an account, you can ignore this message.</p>
	`, s.baseURL, token))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func (s *smtpService) confirmationBody(to string, rc model.RoleConfig) string {
	return fmt.Sprintf(`
		<div style="max-width: 600px; margin: 0 auto; font-family: Arial, sans-serif;">
			<h1>Welcome to Clinic Management!</h1>
			<p>Your <strong>%s</strong> account has been created for <strong>%s</strong>.</p>
			<h3>Next steps:</h3>
			<ol>
				<li>Check your inbox for the verification link</li>
				<li>Click the link to confirm your email address</li>
				<li>Sign in with your credentials</li>
				<li>Open your %s dashboard to get started</li>
			</ol>
			<p><a href="%s%s">Go to %s Dashboard</a></p>
			<p style="color: #64748b; font-size: 12px;">
				This email was sent automatically. Please do not reply.
			</p>
		</div>
	`, rc.Title, to, rc.Title, s.baseURL, rc.PortalPath, rc.Title)
}
