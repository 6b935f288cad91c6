package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/sstove-api/internal/user"
)

// TokenService defines the interface for token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// RefreshTokenRepository defines the interface for refresh token storage.
// RedisRepository and Repository (PostgreSQL) implement it.
type RefreshTokenRepository interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	CleanupExpiredTokens(ctx context.Context) error
}

type PasswordResetStore interface {
	StorePasswordResetToken(ctx context.Context, userID uuid.UUID, token string) error
	GetPasswordResetToken(ctx context.Context, token string) (uuid.UUID, error)
	DeletePasswordResetToken(ctx context.Context, token string) error
}

// UserStore is the identity store the auth flows need. *user.Repository implements it.
type UserStore interface {
	Create(ctx context.Context, nu user.NewUser) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*user.User, error)
	CheckIfTokenAlreadyUsed(ctx context.Context, token string) (bool, error)
	MarkEmailAsVerified(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string) error
	UpdateEmail(ctx context.Context, userID uuid.UUID, email, token string) error
}

// AccountLookup loads the account an access token was issued to.
// *user.Repository implements it.
type AccountLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// EmailService defines the interface for email operations
type EmailService interface {
	// SendConfirmation mails an activation link for targetEmail. Callers
	// wait for the result; a failure is reported to the client.
	SendConfirmation(ctx context.Context, u *user.User, targetEmail, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}
