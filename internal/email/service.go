package email

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/redmonkez12/sstove-api/internal/config"
	"github.com/redmonkez12/sstove-api/internal/logging"
	"github.com/redmonkez12/sstove-api/internal/user"
)

// Dialer delivers composed messages. *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Service sends transactional mail over SMTP.
type Service struct {
	dialer        Dialer
	from          string
	frontendURL   string
	activationTTL time.Duration
	renderer      *renderer
}

func NewService(cfg config.EmailConfig, activationTTL time.Duration) (*Service, error) {
	return NewServiceWithDialer(
		gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		cfg.Sender(),
		cfg.FrontendURL,
		activationTTL,
	)
}

func NewServiceWithDialer(d Dialer, from, frontendURL string, activationTTL time.Duration) (*Service, error) {
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Service{
		dialer:        d,
		from:          from,
		frontendURL:   frontendURL,
		activationTTL: activationTTL,
		renderer:      r,
	}, nil
}

// SendConfirmation mails an activation link for targetEmail, which is either
// the account's current address or the address it is switching to.
func (s *Service) SendConfirmation(ctx context.Context, u *user.User, targetEmail, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := s.renderer.render(tmplConfirmation, templateData{
		Name:   u.FirstName,
		Email:  targetEmail,
		Link:   ConfirmationLink(s.frontendURL, token),
		Expiry: humanDuration(s.activationTTL),
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	subject := fmt.Sprintf("Confirm %s on SStove", targetEmail)
	if err := s.send(targetEmail, subject, body); err != nil {
		logger.Error("failed to send confirmation email", "email", targetEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("confirmation email sent", "email", targetEmail)
	return nil
}

// SendPasswordResetEmail sends a password reset link to the user
// This method is designed to be called in a goroutine
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := s.renderer.render(tmplPasswordReset, templateData{
		Email:  toEmail,
		Link:   PasswordResetLink(s.frontendURL, token),
		Expiry: "1 hour",
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.send(toEmail, "Reset your SStove password", body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *Service) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}

func ConfirmationLink(frontendURL, token string) string {
	return fmt.Sprintf("%s/verify?token=%s", frontendURL, url.QueryEscape(token))
}

func PasswordResetLink(frontendURL, token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", frontendURL, url.QueryEscape(token))
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if h := int(d / time.Hour); h != 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
