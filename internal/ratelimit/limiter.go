// Package ratelimit implements fixed-window IP limits and per-email cooldowns
// on top of Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultIPLimit       = 10
	DefaultIPWindow      = 15 * time.Minute
	DefaultEmailCooldown = 2 * time.Minute

	defaultPurpose = "default"
)

// Limiter tracks request counts per client IP and cooldowns per email.
type Limiter struct {
	client        redis.Cmdable
	ipLimit       int64
	ipWindow      time.Duration
	emailCooldown time.Duration
}

type Option func(*Limiter)

func WithIPLimit(limit int, window time.Duration) Option {
	return func(l *Limiter) {
		l.ipLimit = int64(limit)
		l.ipWindow = window
	}
}

func WithEmailCooldown(d time.Duration) Option {
	return func(l *Limiter) { l.emailCooldown = d }
}

func NewLimiter(client redis.Cmdable, opts ...Option) *Limiter {
	l := &Limiter{
		client:        client,
		ipLimit:       DefaultIPLimit,
		ipWindow:      DefaultIPWindow,
		emailCooldown: DefaultEmailCooldown,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func ipKey(purpose, ip string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

func emailKey(email string) string {
	return fmt.Sprintf("ratelimit:email:%s", strings.ToLower(strings.TrimSpace(email)))
}

// CheckIPRateLimit reports whether ip has used up its window.
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.CheckIPRateLimitWithPurpose(ctx, ip, defaultPurpose)
}

// CheckIPRateLimitWithPurpose is CheckIPRateLimit with a separate counter per purpose,
// so login attempts do not eat into the password reset budget.
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	val, err := l.client.Get(ctx, ipKey(purpose, ip)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read ip counter: %w", err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("corrupt ip counter %q: %w", val, err)
	}

	return count >= l.ipLimit, nil
}

func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.RecordIPRequestWithPurpose(ctx, ip, defaultPurpose)
}

// RecordIPRequestWithPurpose counts one request. The window starts with the first request.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := ipKey(purpose, ip)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment ip counter: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.ipWindow).Err(); err != nil {
			return fmt.Errorf("failed to set ip window: %w", err)
		}
	}

	return nil
}

// CheckEmailCooldown reports whether a mail to email was requested recently.
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	n, err := l.client.Exists(ctx, emailKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}
	return n > 0, nil
}

func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.Set(ctx, emailKey(email), "1", l.emailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}
	return nil
}
