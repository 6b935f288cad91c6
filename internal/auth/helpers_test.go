package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/sstove-api/internal/database/dbtest"
	"github.com/redmonkez12/sstove-api/internal/logging"
	"github.com/redmonkez12/sstove-api/internal/ratelimit"
	"github.com/redmonkez12/sstove-api/internal/user"
)

const testKey = "0123456789abcdef0123456789abcdef"

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendConfirmation(ctx context.Context, u *user.User, targetEmail, token string) error {
	args := m.Called(ctx, u, targetEmail, token)
	return args.Error(0)
}

func (m *mockMailer) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	args := m.Called(ctx, toEmail, token)
	return args.Error(0)
}

type testEnv struct {
	service *Service
	users   *user.Repository
	refresh *RedisRepository
	resets  *PasswordResetRepository
	tokens  *PasetoService
	mailer  *mockMailer
	limiter *ratelimit.Limiter
	redis   *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens, err := NewPasetoService([]byte(testKey))
	require.NoError(t, err)

	env := &testEnv{
		users:   user.NewRepository(dbtest.New(t)),
		refresh: NewRedisRepository(client),
		resets:  NewPasswordResetRepository(client),
		tokens:  tokens,
		mailer:  &mockMailer{},
		limiter: ratelimit.NewLimiter(client),
		redis:   mr,
	}
	env.service = NewService(env.users, env.refresh, env.resets, tokens, env.mailer, logging.NewNopLogger(), nil, Lifetimes{
		Access:     time.Hour,
		Refresh:    24 * time.Hour,
		Activation: 24 * time.Hour,
	})
	// Run background mail inline so expectations can be asserted
	env.service.sendAsync = func(fn func()) { fn() }

	return env
}

// registerActive creates an activated account and returns it.
func (e *testEnv) registerActive(t *testing.T, email, password string) *user.User {
	t.Helper()
	ctx := context.Background()

	var token string
	e.mailer.On("SendConfirmation", mock.Anything, mock.Anything, email, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { token = args.String(3) }).
		Return(nil).Once()

	u, err := e.service.Register(ctx, RegisterInput{Email: email, Password: password, FirstName: "Ada"})
	require.NoError(t, err)
	require.NoError(t, e.service.VerifyEmail(ctx, token))
	return u
}
