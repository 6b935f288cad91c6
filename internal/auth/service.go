package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/sstove-api/internal/logging"
	"github.com/redmonkez12/sstove-api/internal/metrics"
	"github.com/redmonkez12/sstove-api/internal/user"
)

var (
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrEmailRequired            = errors.New("email is required")
	ErrPasswordRequired         = errors.New("password is required")
	ErrPasswordTooShort         = errors.New("password must be at least 8 characters")
	ErrFirstNameRequired        = errors.New("first name is required")
	ErrEmailNotVerified         = errors.New("email not verified, please check your inbox")
	ErrInvalidVerificationToken = errors.New("invalid verification token")
	ErrTokenExpired             = errors.New("verification token has expired")
	ErrEmailAlreadyVerified     = errors.New("email already verified")
	ErrInvalidEmailFormat       = errors.New("invalid email format")
	ErrWrongPassword            = errors.New("old password is incorrect")
	ErrMailUndelivered          = errors.New("the mail has not been delivered due to connection reasons")
)

const (
	minPasswordLen = 8
	maxEmailLen    = 254
)

// Lifetimes groups the token durations the service issues.
type Lifetimes struct {
	Access     time.Duration
	Refresh    time.Duration
	Activation time.Duration
}

// RegisterInput is what a new account needs.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
}

// Service handles authentication business logic
type Service struct {
	users          UserStore
	refreshTokens  RefreshTokenRepository
	passwordResets PasswordResetStore
	tokens         TokenService
	emailService   EmailService
	logger         *logging.Logger
	metrics        *metrics.Metrics
	lifetimes      Lifetimes
	sendAsync      func(func())
}

func NewService(
	users UserStore,
	refreshTokens RefreshTokenRepository,
	passwordResets PasswordResetStore,
	tokens TokenService,
	emailService EmailService,
	logger *logging.Logger,
	m *metrics.Metrics,
	lifetimes Lifetimes,
) *Service {
	return &Service{
		users:          users,
		refreshTokens:  refreshTokens,
		passwordResets: passwordResets,
		tokens:         tokens,
		emailService:   emailService,
		logger:         logger,
		metrics:        m,
		lifetimes:      lifetimes,
		sendAsync:      func(fn func()) { go fn() },
	}
}

// Register creates an inactive account and mails the confirmation link.
// The account is kept when delivery fails so the user can retry activation.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	email := strings.TrimSpace(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	firstName := strings.TrimSpace(in.FirstName)
	if firstName == "" {
		return nil, ErrFirstNameRequired
	}

	passwordHash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	newUser, err := s.users.Create(ctx, user.NewUser{
		Email:             email,
		PasswordHash:      passwordHash,
		FirstName:         firstName,
		VerificationToken: verificationToken,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.sendConfirmation(ctx, newUser, email, verificationToken); err != nil {
		return newUser, err
	}

	return newUser, nil
}

// Login authenticates a user and returns tokens
func (s *Service) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !existingUser.IsActive() {
		return nil, ErrEmailNotVerified
	}

	tokens, err := s.generateTokens(ctx, existingUser.ID, existingUser.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return tokens, nil
}

// RefreshAccessToken rotates a refresh token: the presented one is revoked
// and a new pair is issued.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	rt, err := s.refreshTokens.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) || errors.Is(err, ErrInvalidToken) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if rt.IsRevoked() {
		return nil, ErrRefreshTokenRevoked
	}
	if rt.IsExpired() {
		return nil, ErrRefreshTokenExpired
	}

	// A concurrent refresh of the same token loses here
	if err := s.refreshTokens.RevokeRefreshToken(ctx, refreshToken); err != nil {
		if errors.Is(err, ErrRefreshTokenRevoked) || errors.Is(err, ErrRefreshTokenNotFound) {
			return nil, ErrRefreshTokenRevoked
		}
		return nil, fmt.Errorf("failed to revoke old refresh token: %w", err)
	}

	existingUser, err := s.users.GetByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !existingUser.IsActive() {
		return nil, ErrEmailNotVerified
	}

	tokens, err := s.generateTokens(ctx, existingUser.ID, existingUser.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return tokens, nil
}

// RevokeRefreshToken revokes a refresh token
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return s.refreshTokens.RevokeRefreshToken(ctx, refreshToken)
}

// VerifyEmail activates the account owning token.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	existingUser, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			alreadyVerified, checkErr := s.users.CheckIfTokenAlreadyUsed(ctx, token)
			if checkErr == nil && alreadyVerified {
				return ErrEmailAlreadyVerified
			}
			return ErrInvalidVerificationToken
		}
		return fmt.Errorf("failed to find user by token: %w", err)
	}

	if existingUser.EmailVerificationSentAt == nil {
		return ErrTokenExpired
	}
	if time.Now().After(existingUser.EmailVerificationSentAt.Add(s.lifetimes.Activation)) {
		return ErrTokenExpired
	}

	if err := s.users.MarkEmailAsVerified(ctx, existingUser.ID); err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}

	return nil
}

// ValidateAccessToken reports whether an access token is still within its lifetime.
func (s *Service) ValidateAccessToken(token string) (*TokenClaims, error) {
	return s.tokens.VerifyToken(token)
}

// ResendVerificationEmail issues a fresh activation token for an inactive
// account. Unknown and already active accounts are silently ignored so the
// caller cannot probe which addresses exist. Only a delivery failure is reported.
func (s *Service) ResendVerificationEmail(ctx context.Context, email string) error {
	existingUser, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("failed to get user for resend verification", "error", err)
		}
		return nil
	}

	if existingUser.IsActive() {
		return nil
	}

	token, err := generateRandomToken()
	if err != nil {
		s.logger.Warn("failed to generate verification token", "error", err)
		return nil
	}

	if err := s.users.UpdateVerificationToken(ctx, existingUser.ID, token); err != nil {
		s.logger.Warn("failed to update verification token", "error", err)
		return nil
	}

	return s.sendConfirmation(ctx, existingUser, existingUser.Email, token)
}

// RequestPasswordReset initiates the password reset process
// Always returns nil to prevent email enumeration attacks
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	existingUser, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("failed to get user for password reset", "error", err)
		}
		return nil
	}

	token, err := generateRandomToken()
	if err != nil {
		s.logger.Warn("failed to generate password reset token", "error", err)
		return nil
	}

	if err := s.passwordResets.StorePasswordResetToken(ctx, existingUser.ID, token); err != nil {
		s.logger.Warn("failed to store password reset token", "error", err)
		return nil
	}

	toEmail := existingUser.Email
	s.sendAsync(func() {
		// Detached from the request so it survives the response being written
		emailCtx := s.logger.WithContext(context.Background())
		if err := s.emailService.SendPasswordResetEmail(emailCtx, toEmail, token); err != nil {
			s.metrics.MailFailed("password_reset")
			s.logger.Warn("failed to send password reset email", "email", toEmail, "error", err)
		}
	})

	return nil
}

// ResetPassword resets a user's password using a valid reset token
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	userID, err := s.passwordResets.GetPasswordResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrPasswordResetTokenNotFound) {
			return ErrPasswordResetTokenNotFound
		}
		return fmt.Errorf("failed to get password reset token: %w", err)
	}

	if err := s.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}

	if err := s.passwordResets.DeletePasswordResetToken(ctx, token); err != nil {
		s.logger.Warn("failed to delete password reset token", "error", err)
	}

	return nil
}

// ChangePassword replaces the password after checking the current one.
// Every session of the user is ended.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	existingUser, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, oldPassword) {
		return ErrWrongPassword
	}

	return s.setPassword(ctx, userID, newPassword)
}

// ChangeEmail mails a confirmation to newEmail and, once it is delivered,
// switches the account to that address and deactivates it until confirmed.
func (s *Service) ChangeEmail(ctx context.Context, userID uuid.UUID, newEmail string) (*user.User, error) {
	newEmail = strings.TrimSpace(newEmail)
	if err := validateEmail(newEmail); err != nil {
		return nil, err
	}

	existingUser, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if _, err := s.users.GetByEmail(ctx, newEmail); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	token, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	if err := s.sendConfirmation(ctx, existingUser, newEmail, token); err != nil {
		return nil, err
	}

	if err := s.users.UpdateEmail(ctx, userID, newEmail, token); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update email: %w", err)
	}

	if err := s.refreshTokens.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke tokens after email change", "user_id", userID, "error", err)
	}

	return s.users.GetByID(ctx, userID)
}

func (s *Service) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.refreshTokens.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke all user tokens after password change", "user_id", userID, "error", err)
	}

	return nil
}

func (s *Service) sendConfirmation(ctx context.Context, u *user.User, targetEmail, token string) error {
	if err := s.emailService.SendConfirmation(ctx, u, targetEmail, token); err != nil {
		s.metrics.MailFailed("confirmation")
		return fmt.Errorf("%w: %v", ErrMailUndelivered, err)
	}
	return nil
}

// generateTokens creates both access and refresh tokens
func (s *Service) generateTokens(ctx context.Context, userID uuid.UUID, email string) (*AuthTokens, error) {
	accessToken, err := s.tokens.CreateToken(userID, email, s.lifetimes.Access)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.lifetimes.Refresh)
	if err := s.refreshTokens.StoreRefreshToken(ctx, userID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.lifetimes.Access.Seconds()),
	}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > maxEmailLen {
		return ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmailFormat
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	return nil
}
