package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/sstove-api/internal/user"
)

func TestService_RegisterSendsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mailer.On("SendConfirmation", mock.Anything, mock.AnythingOfType("*user.User"), "ada@example.com", mock.AnythingOfType("string")).
		Return(nil).Once()

	u, err := env.service.Register(ctx, RegisterInput{Email: " ada@example.com ", Password: "password1", FirstName: "Ada"})
	require.NoError(t, err)
	assert.False(t, u.IsActive())
	assert.Equal(t, "Ada", u.FirstName)
	env.mailer.AssertExpectations(t)

	_, err = env.service.Login(ctx, "ada@example.com", "password1")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"missing email", RegisterInput{Password: "password1", FirstName: "A"}, ErrEmailRequired},
		{"bad email", RegisterInput{Email: "nope", Password: "password1", FirstName: "A"}, ErrInvalidEmailFormat},
		{"display name form", RegisterInput{Email: "Ada <a@example.com>", Password: "password1", FirstName: "A"}, ErrInvalidEmailFormat},
		{"missing password", RegisterInput{Email: "a@example.com", FirstName: "A"}, ErrPasswordRequired},
		{"short password", RegisterInput{Email: "a@example.com", Password: "short", FirstName: "A"}, ErrPasswordTooShort},
		{"missing first name", RegisterInput{Email: "a@example.com", Password: "password1", FirstName: "  "}, ErrFirstNameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	env.mailer.AssertNotCalled(t, "SendConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_RegisterMailFailureKeepsInactiveUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mailer.On("SendConfirmation", mock.Anything, mock.Anything, "ada@example.com", mock.Anything).
		Return(errors.New("smtp: connection refused")).Once()

	_, err := env.service.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "password1", FirstName: "Ada"})
	assert.ErrorIs(t, err, ErrMailUndelivered)

	stored, err := env.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.False(t, stored.IsActive())
}

func TestService_RegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.registerActive(t, "ada@example.com", "password1")

	_, err := env.service.Register(context.Background(), RegisterInput{Email: "ada@example.com", Password: "password1", FirstName: "Ada"})
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestService_VerifyEmailTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var token string
	env.mailer.On("SendConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { token = args.String(3) }).
		Return(nil).Once()

	_, err := env.service.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "password1", FirstName: "Ada"})
	require.NoError(t, err)

	require.NoError(t, env.service.VerifyEmail(ctx, token))
	assert.ErrorIs(t, env.service.VerifyEmail(ctx, token), ErrEmailAlreadyVerified)
	assert.ErrorIs(t, env.service.VerifyEmail(ctx, "bogus"), ErrInvalidVerificationToken)
}

func TestService_VerifyEmailExpired(t *testing.T) {
	env := newTestEnv(t)
	env.service.lifetimes.Activation = 0
	ctx := context.Background()

	var token string
	env.mailer.On("SendConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { token = args.String(3) }).
		Return(nil).Once()

	_, err := env.service.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "password1", FirstName: "Ada"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.service.VerifyEmail(ctx, token), ErrTokenExpired)
}

func TestService_LoginAndRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.registerActive(t, "ada@example.com", "password1")

	_, err := env.service.Login(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.service.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	tokens, err := env.service.Login(ctx, "ada@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.EqualValues(t, 3600, tokens.ExpiresIn)

	claims, err := env.service.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)

	rotated, err := env.service.RefreshAccessToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	_, err = env.service.RefreshAccessToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)

	_, err = env.service.RefreshAccessToken(ctx, "never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ResendVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Unknown account: silent, no mail
	require.NoError(t, env.service.ResendVerificationEmail(ctx, "ghost@example.com"))

	// Active account: silent, no mail
	env.registerActive(t, "active@example.com", "password1")
	require.NoError(t, env.service.ResendVerificationEmail(ctx, "active@example.com"))

	var first string
	env.mailer.On("SendConfirmation", mock.Anything, mock.Anything, "new@example.com", mock.Anything).
		Run(func(args mock.Arguments) { first = args.String(3) }).
		Return(nil).Once()
	_, err := env.service.Register(ctx, RegisterInput{Email: "new@example.com", Password: "password1", FirstName: "N"})
	require.NoError(t, err)

	var second string
	env.mailer.On("SendConfirmation", mock.Anything, mock.Anything, "new@example.com", mock.Anything).
		Run(func(args mock.Arguments) { second = args.String(3) }).
		Return(nil).Once()
	require.NoError(t, env.service.ResendVerificationEmail(ctx, "new@example.com"))

	assert.NotEqual(t, first, second)
	assert.ErrorIs(t, env.service.VerifyEmail(ctx, first), ErrInvalidVerificationToken)
	require.NoError(t, env.service.VerifyEmail(ctx, second))

	env.mailer.On("SendConfirmation", mock.Anything, mock.Anything, "down@example.com", mock.Anything).
		Return(nil).Once()
	_, err = env.service.Register(ctx, RegisterInput{Email: "down@example.com", Password: "password1", FirstName: "D"})
	require.NoError(t, err)
	env.mailer.On("SendConfirmation", mock.Anything, mock.Anything, "down@example.com", mock.Anything).
		Return(errors.New("timeout")).Once()
	assert.ErrorIs(t, env.service.ResendVerificationEmail(ctx, "down@example.com"), ErrMailUndelivered)
}

func TestService_PasswordReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerActive(t, "ada@example.com", "password1")
	tokens, err := env.service.Login(ctx, "ada@example.com", "password1")
	require.NoError(t, err)

	var resetToken string
	env.mailer.On("SendPasswordResetEmail", mock.Anything, "ada@example.com", mock.Anything).
		Run(func(args mock.Arguments) { resetToken = args.String(2) }).
		Return(nil).Once()

	require.NoError(t, env.service.RequestPasswordReset(ctx, "ada@example.com"))
	require.NotEmpty(t, resetToken)
	require.NoError(t, env.service.RequestPasswordReset(ctx, "ghost@example.com"))

	assert.ErrorIs(t, env.service.ResetPassword(ctx, resetToken, "short"), ErrPasswordTooShort)
	require.NoError(t, env.service.ResetPassword(ctx, resetToken, "new-password"))
	assert.ErrorIs(t, env.service.ResetPassword(ctx, resetToken, "new-password"), ErrPasswordResetTokenNotFound)

	_, err = env.service.RefreshAccessToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked, "reset must end existing sessions")

	_, err = env.service.Login(ctx, "ada@example.com", "new-password")
	assert.NoError(t, err)
}

func TestService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.registerActive(t, "ada@example.com", "password1")
	tokens, err := env.service.Login(ctx, "ada@example.com", "password1")
	require.NoError(t, err)

	assert.ErrorIs(t, env.service.ChangePassword(ctx, u.ID, "not-it", "password2"), ErrWrongPassword)
	assert.ErrorIs(t, env.service.ChangePassword(ctx, u.ID, "password1", "short"), ErrPasswordTooShort)

	require.NoError(t, env.service.ChangePassword(ctx, u.ID, "password1", "password2"))

	_, err = env.service.RefreshAccessToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)

	_, err = env.service.Login(ctx, "ada@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.service.Login(ctx, "ada@example.com", "password2")
	assert.NoError(t, err)
}

func TestService_ChangeEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.registerActive(t, "ada@example.com", "password1")
	env.registerActive(t, "taken@example.com", "password1")

	_, err := env.service.ChangeEmail(ctx, u.ID, "taken@example.com")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	_, err = env.service.ChangeEmail(ctx, u.ID, "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmailFormat)

	// Delivery failure leaves the account untouched
	env.mailer.On("SendConfirmation", mock.Anything, mock.Anything, "fail@example.com", mock.Anything).
		Return(errors.New("down")).Once()
	_, err = env.service.ChangeEmail(ctx, u.ID, "fail@example.com")
	assert.ErrorIs(t, err, ErrMailUndelivered)
	unchanged, err := env.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", unchanged.Email)
	assert.True(t, unchanged.IsActive())

	var token string
	env.mailer.On("SendConfirmation", mock.Anything, mock.Anything, "lovelace@example.com", mock.Anything).
		Run(func(args mock.Arguments) { token = args.String(3) }).
		Return(nil).Once()

	updated, err := env.service.ChangeEmail(ctx, u.ID, "lovelace@example.com")
	require.NoError(t, err)
	assert.Equal(t, "lovelace@example.com", updated.Email)
	assert.False(t, updated.IsActive())

	_, err = env.service.Login(ctx, "lovelace@example.com", "password1")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	require.NoError(t, env.service.VerifyEmail(ctx, token))
	_, err = env.service.Login(ctx, "lovelace@example.com", "password1")
	assert.NoError(t, err)
}

func TestService_RefreshRotationSpendsTokenOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerActive(t, "ada@example.com", "password1")

	tokens, err := env.service.Login(ctx, "ada@example.com", "password1")
	require.NoError(t, err)

	const attempts = 5
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		errs []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.service.RefreshAccessToken(ctx, tokens.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
	}
}
