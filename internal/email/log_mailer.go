package email

import (
	"context"

	"github.com/redmonkez12/sstove-api/internal/logging"
	"github.com/redmonkez12/sstove-api/internal/user"
)

// LogMailer writes links to the log instead of sending mail. It is used when
// SMTP is not configured, typically in local development.
type LogMailer struct {
	logger      *logging.Logger
	frontendURL string
}

func NewLogMailer(logger *logging.Logger, frontendURL string) *LogMailer {
	return &LogMailer{logger: logger, frontendURL: frontendURL}
}

func (m *LogMailer) SendConfirmation(_ context.Context, u *user.User, targetEmail, token string) error {
	m.logger.Info("smtp not configured, confirmation link logged",
		"user_id", u.ID,
		"email", targetEmail,
		"link", ConfirmationLink(m.frontendURL, token),
	)
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(_ context.Context, toEmail, token string) error {
	m.logger.Info("smtp not configured, password reset link logged",
		"email", toEmail,
		"link", PasswordResetLink(m.frontendURL, token),
	)
	return nil
}
