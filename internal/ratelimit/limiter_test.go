package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, opts ...Option) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLimiter(client, opts...), mr
}

func TestLimiter_IPWindow(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t, WithIPLimit(3, time.Minute))

	for i := 0; i < 3; i++ {
		exceeded, err := l.CheckIPRateLimit(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, exceeded, "request %d", i)
		require.NoError(t, l.RecordIPRequest(ctx, "10.0.0.1"))
	}

	exceeded, err := l.CheckIPRateLimit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, exceeded)

	other, err := l.CheckIPRateLimit(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.False(t, other)

	mr.FastForward(time.Minute + time.Second)

	exceeded, err = l.CheckIPRateLimit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, exceeded)
}

func TestLimiter_PurposesAreIndependent(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t, WithIPLimit(1, time.Minute))

	require.NoError(t, l.RecordIPRequestWithPurpose(ctx, "ip", "login"))

	login, err := l.CheckIPRateLimitWithPurpose(ctx, "ip", "login")
	require.NoError(t, err)
	assert.True(t, login)

	register, err := l.CheckIPRateLimitWithPurpose(ctx, "ip", "register")
	require.NoError(t, err)
	assert.False(t, register)
}

func TestLimiter_EmailCooldown(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t)

	on, err := l.CheckEmailCooldown(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, l.SetEmailCooldown(ctx, "A@Example.com "))

	on, err = l.CheckEmailCooldown(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, on)

	mr.FastForward(DefaultEmailCooldown)

	on, err = l.CheckEmailCooldown(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestLimiter_RedisDown(t *testing.T) {
	l, mr := newTestLimiter(t)
	mr.Close()

	_, err := l.CheckIPRateLimit(context.Background(), "ip")
	assert.Error(t, err)
}
